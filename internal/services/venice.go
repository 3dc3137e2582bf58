package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwebster45206/world-forge/pkg/chat"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"

	DefaultVeniceTemperature    = 0.7
	StructuredVeniceTemperature = 0.0
	DefaultVeniceMaxTokens      = 1024
)

// VeniceService implements GenAIService for Venice AI. Venice serves all
// four capability ports: chat completions (free text and json_schema
// constrained) plus image generation and editing.
type VeniceService struct {
	apiKey         string
	modelName      string
	imageModelName string
	baseURL        string
	httpClient     *http.Client
}

type VeniceResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema VeniceJSONSchema `json:"json_schema"`
}

type VeniceJSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type VeniceParameters struct {
	IncludeVeniceSystemPrompt bool   `json:"include_venice_system_prompt"`
	EnableWebSearch           string `json:"enable_web_search"`
}

// VeniceChatRequest represents the request structure for Venice AI chat completions
type VeniceChatRequest struct {
	Model            string                `json:"model"`
	Messages         []chat.ChatMessage    `json:"messages"`
	Temperature      float64               `json:"temperature,omitempty"`
	MaxTokens        int                   `json:"max_tokens,omitempty"`
	Stream           bool                  `json:"stream"`
	ResponseFormat   *VeniceResponseFormat `json:"response_format,omitempty"`
	VeniceParameters VeniceParameters      `json:"venice_parameters"`
}

// VeniceChatChoice represents a single choice in the Venice AI response
type VeniceChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// VeniceChatResponse represents the response structure for Venice AI chat completions
type VeniceChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []VeniceChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// VeniceImageRequest represents the request structure for Venice AI image generation
type VeniceImageRequest struct {
	Model      string `json:"model"`
	Prompt     string `json:"prompt"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Format     string `json:"format,omitempty"`
	SafeMode   bool   `json:"safe_mode"`
	HideWater  bool   `json:"hide_watermark"`
	InitImage  string `json:"init_image,omitempty"` // base64, used for edits
}

// VeniceImageResponse represents the response structure for Venice AI image generation
type VeniceImageResponse struct {
	ID     string   `json:"id"`
	Images []string `json:"images"` // base64-encoded
	Error  *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewVeniceService creates a new Venice AI service
func NewVeniceService(apiKey string, modelName string, imageModelName string) *VeniceService {
	return &VeniceService{
		apiKey:         apiKey,
		modelName:      modelName,
		imageModelName: imageModelName,
		baseURL:        veniceBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// InitModel initializes the model (Venice AI doesn't require explicit model initialization)
func (v *VeniceService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// chatCompletion makes a chat completion request to Venice AI
func (v *VeniceService) chatCompletion(ctx context.Context, prompt string, temperature float64, responseFormat *VeniceResponseFormat) (string, error) {
	veniceReq := VeniceChatRequest{
		Model: v.modelName,
		Messages: []chat.ChatMessage{
			{Role: chat.ChatRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   DefaultVeniceMaxTokens,
		Stream:      false,
		VeniceParameters: VeniceParameters{
			IncludeVeniceSystemPrompt: false,
			EnableWebSearch:           "off",
		},
	}

	if responseFormat != nil {
		veniceReq.ResponseFormat = responseFormat
	}

	reqBody, err := json.Marshal(veniceReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", v.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var veniceResp VeniceChatResponse
	if err := json.Unmarshal(body, &veniceResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if veniceResp.Error != nil {
		return "", fmt.Errorf("API error: %s", veniceResp.Error.Message)
	}

	if len(veniceResp.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	return veniceResp.Choices[0].Message.Content, nil
}

// CompleteStructured generates a completion constrained to a JSON schema.
// Temperature 0 for deterministic structured output.
func (v *VeniceService) CompleteStructured(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error) {
	responseFormat := &VeniceResponseFormat{
		Type: "json_schema",
		JSONSchema: VeniceJSONSchema{
			Name:   "generation",
			Strict: true,
			Schema: schema,
		},
	}

	content, err := v.chatCompletion(ctx, prompt, StructuredVeniceTemperature, responseFormat)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(content), nil
}

// CompleteText generates a free-text completion
func (v *VeniceService) CompleteText(ctx context.Context, prompt string) (string, error) {
	return v.chatCompletion(ctx, prompt, DefaultVeniceTemperature, nil)
}

// imageRequest makes an image request against the given Venice endpoint
func (v *VeniceService) imageRequest(ctx context.Context, path string, veniceReq VeniceImageRequest) ([]byte, error) {
	reqBody, err := json.Marshal(veniceReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", v.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var veniceResp VeniceImageResponse
	if err := json.Unmarshal(body, &veniceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if veniceResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", veniceResp.Error.Message)
	}

	if len(veniceResp.Images) == 0 {
		return nil, fmt.Errorf("API returned no images")
	}

	decoded, err := base64.StdEncoding.DecodeString(veniceResp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	return decoded, nil
}

// GenerateImage generates an image from a text prompt
func (v *VeniceService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	return v.imageRequest(ctx, "/image/generate", VeniceImageRequest{
		Model:     v.imageModelName,
		Prompt:    prompt,
		Width:     512,
		Height:    512,
		Format:    "png",
		SafeMode:  true,
		HideWater: true,
	})
}

// EditImage applies a text instruction to an existing image
func (v *VeniceService) EditImage(ctx context.Context, image []byte, instruction string) ([]byte, error) {
	return v.imageRequest(ctx, "/image/edit", VeniceImageRequest{
		Model:     v.imageModelName,
		Prompt:    instruction,
		Format:    "png",
		SafeMode:  true,
		HideWater: true,
		InitImage: base64.StdEncoding.EncodeToString(image),
	})
}
