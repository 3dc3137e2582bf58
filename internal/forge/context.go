package forge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/pkg/prompts"
	"github.com/jwebster45206/world-forge/pkg/rules"
	"github.com/jwebster45206/world-forge/pkg/world"
)

// ContextSynthesizer condenses ambient world state into a short narrative
// hint for the downstream stages. Context is an optional enhancement:
// this stage never fails the pipeline.
type ContextSynthesizer struct {
	genai  services.GenAIService
	logger *slog.Logger
}

func NewContextSynthesizer(genai services.GenAIService, logger *slog.Logger) *ContextSynthesizer {
	return &ContextSynthesizer{
		genai:  genai,
		logger: logger,
	}
}

// Synthesize returns a narrative summary of the world context. An empty
// context returns an empty summary without calling the vendor. Upstream
// failure returns an empty summary with a degraded diag; downstream
// stages proceed with no context.
func (s *ContextSynthesizer) Synthesize(ctx context.Context, wctx world.Context, r *rules.WorldRules) (string, StageDiag) {
	if wctx.IsEmpty() {
		return "", okDiag(StageContext, 0)
	}

	start := time.Now()
	summary, err := s.genai.CompleteText(ctx, prompts.ContextSummary(wctx, r))
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		s.logger.Warn("Context synthesis failed, proceeding without context", "error", err)
		return "", degradedDiag(StageContext, elapsed, err)
	}

	return strings.TrimSpace(summary), okDiag(StageContext, elapsed)
}
