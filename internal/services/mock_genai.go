package services

import (
	"context"
	"encoding/json"
	"sync"
)

// MockGenAI is a mock implementation of GenAIService for testing
type MockGenAI struct {
	InitModelFunc          func(ctx context.Context, modelName string) error
	CompleteStructuredFunc func(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error)
	CompleteTextFunc       func(ctx context.Context, prompt string) (string, error)
	GenerateImageFunc      func(ctx context.Context, prompt string) ([]byte, error)
	EditImageFunc          func(ctx context.Context, image []byte, instruction string) ([]byte, error)

	// Track calls for testing
	InitModelCalls          []string
	CompleteStructuredCalls []StructuredCall
	CompleteTextCalls       []string
	GenerateImageCalls      []string
	EditImageCalls          []string

	mu sync.Mutex // protects all fields above
}

type StructuredCall struct {
	Prompt string
	Schema map[string]interface{}
}

// Ensure MockGenAI implements GenAIService
var _ GenAIService = (*MockGenAI)(nil)

// NewMockGenAI creates a new mock generative service
func NewMockGenAI() *MockGenAI {
	return &MockGenAI{
		InitModelCalls:          make([]string, 0),
		CompleteStructuredCalls: make([]StructuredCall, 0),
		CompleteTextCalls:       make([]string, 0),
		GenerateImageCalls:      make([]string, 0),
		EditImageCalls:          make([]string, 0),
	}
}

// InitModel mocks model initialization
func (m *MockGenAI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// CompleteStructured mocks schema-constrained completion
func (m *MockGenAI) CompleteStructured(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteStructuredCalls = append(m.CompleteStructuredCalls, StructuredCall{
		Prompt: prompt,
		Schema: schema,
	})

	if m.CompleteStructuredFunc != nil {
		return m.CompleteStructuredFunc(ctx, prompt, schema)
	}

	// Default behavior - empty object
	return json.RawMessage(`{}`), nil
}

// CompleteText mocks free-text completion
func (m *MockGenAI) CompleteText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteTextCalls = append(m.CompleteTextCalls, prompt)

	if m.CompleteTextFunc != nil {
		return m.CompleteTextFunc(ctx, prompt)
	}
	return "Mock summary", nil
}

// GenerateImage mocks text-to-image generation
func (m *MockGenAI) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateImageCalls = append(m.GenerateImageCalls, prompt)

	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt)
	}
	return []byte("mock-png"), nil
}

// EditImage mocks image editing
func (m *MockGenAI) EditImage(ctx context.Context, image []byte, instruction string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EditImageCalls = append(m.EditImageCalls, instruction)

	if m.EditImageFunc != nil {
		return m.EditImageFunc(ctx, image, instruction)
	}
	return image, nil
}

// Reset clears all call tracking
func (m *MockGenAI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.CompleteStructuredCalls = make([]StructuredCall, 0)
	m.CompleteTextCalls = make([]string, 0)
	m.GenerateImageCalls = make([]string, 0)
	m.EditImageCalls = make([]string, 0)
}

// SetCompleteStructuredError sets up the mock to return an error on CompleteStructured
func (m *MockGenAI) SetCompleteStructuredError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteStructuredFunc = func(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error) {
		return nil, err
	}
}

// SetCompleteStructuredResponse sets up the mock to return a fixed payload
func (m *MockGenAI) SetCompleteStructuredResponse(payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteStructuredFunc = func(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error) {
		return json.RawMessage(payload), nil
	}
}

// SetCompleteTextError sets up the mock to return an error on CompleteText
func (m *MockGenAI) SetCompleteTextError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteTextFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", err
	}
}

// SetGenerateImageError sets up the mock to return an error on GenerateImage
func (m *MockGenAI) SetGenerateImageError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateImageFunc = func(ctx context.Context, prompt string) ([]byte, error) {
		return nil, err
	}
}

// CallCounts returns call counts in a thread-safe way
func (m *MockGenAI) CallCounts() (structured, text, image int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CompleteStructuredCalls), len(m.CompleteTextCalls), len(m.GenerateImageCalls)
}
