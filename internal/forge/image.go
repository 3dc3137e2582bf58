package forge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/prompts"
)

// ImageSynthesizer requests a rendered image for a drafted entity. This
// stage is fatal: an entity is never returned without an image.
type ImageSynthesizer struct {
	genai  services.GenAIService
	logger *slog.Logger
}

func NewImageSynthesizer(genai services.GenAIService, logger *slog.Logger) *ImageSynthesizer {
	return &ImageSynthesizer{
		genai:  genai,
		logger: logger,
	}
}

// Generate renders an image for the draft in the configured art style.
func (s *ImageSynthesizer) Generate(ctx context.Context, draft *entity.Draft, artStyle string) ([]byte, StageDiag, error) {
	start := time.Now()
	image, err := s.genai.GenerateImage(ctx, prompts.Image(draft, artStyle))
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		genErr := &GenerationError{Stage: StageImage, Err: err}
		return nil, fatalDiag(StageImage, elapsed, genErr), genErr
	}
	if len(image) == 0 {
		genErr := &GenerationError{Stage: StageImage, Err: fmt.Errorf("vendor returned an empty image payload")}
		return nil, fatalDiag(StageImage, elapsed, genErr), genErr
	}

	s.logger.Debug("Image synthesized", "name", draft.Name, "bytes", len(image))
	return image, okDiag(StageImage, elapsed), nil
}
