package services

import (
	"context"
	"encoding/json"
)

// GenAIService defines the capability ports consumed from the
// generative-model vendor. The pipeline depends on these four operations
// only; the vendor's wire format stays behind the implementation.
type GenAIService interface {
	// InitModel initializes the model on startup, for vendors that need it
	InitModel(ctx context.Context, modelName string) error

	// CompleteStructured generates a completion constrained to a JSON schema
	CompleteStructured(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error)

	// CompleteText generates a free-text completion
	CompleteText(ctx context.Context, prompt string) (string, error)

	// GenerateImage generates an image from a text prompt
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)

	// EditImage applies a text instruction to an existing image. Used for
	// iterative editing outside the core pipeline; shares the vendor port.
	EditImage(ctx context.Context, image []byte, instruction string) ([]byte, error)
}
