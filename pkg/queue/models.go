package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/world"
)

// Request is one queued entity-generation request. Requests are
// independent of each other; the request id is the correlation key for
// telemetry and result lookup.
type Request struct {
	RequestID string         `json:"request_id"`
	Kind      entity.Kind    `json:"kind"`
	Prompt    string         `json:"prompt"`
	Context   *world.Context `json:"context,omitempty"` // overrides the worker's ambient context when set

	EnqueuedAt time.Time `json:"enqueued_at"`
}

func (r *Request) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("request_id cannot be empty")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("invalid kind: %q", r.Kind)
	}
	if r.Prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
