package forge

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is surfaced at construction time, before any network
// call can be attempted.
var ErrMissingAPIKey = errors.New("generative vendor API key is not configured")

// GenerationError is a fatal stage failure. It aborts entity creation.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// CreateError is returned by CreateEntity on a fatal stage failure. It
// carries the diagnostic trace accumulated before and including the
// failing stage, so earlier successful stages are not lost to the caller.
type CreateError struct {
	Stage string
	Trace []StageDiag
	Err   error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("entity creation failed at %s stage: %v", e.Stage, e.Err)
}

func (e *CreateError) Unwrap() error {
	return e.Err
}
