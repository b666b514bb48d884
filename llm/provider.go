// Package llm is the client for the remote transcription and organization
// collaborators. All supported providers speak the OpenAI chat-completion
// wire format; vision requests embed note images as base64 data URLs.
package llm

import (
	"context"
	"fmt"
)

// Provider is the interface the pipeline depends on.
type Provider interface {
	// Chat sends a text-only chat completion request.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ChatWithImages sends a chat request whose messages include images.
	ChatWithImages(ctx context.Context, req VisionChatRequest) (*ChatResponse, error)
}

// Config configures a provider endpoint.
type Config struct {
	Provider string `json:"provider" yaml:"provider"` // openai, openrouter, ollama, lmstudio, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// ChatRequest is a text-only chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	// ResponseFormat may be set to "json_object" to force JSON mode.
	ResponseFormat string `json:"response_format,omitempty"`
}

// VisionChatRequest is a chat request with image content parts.
type VisionChatRequest struct {
	Model          string          `json:"model"`
	Messages       []VisionMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat string          `json:"response_format,omitempty"`
}

// Message is a plain chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// VisionMessage is a chat message whose content mixes text and images.
type VisionMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is either text or an image reference in a vision message.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL holds a URL or base64 data URL for an image.
type ImageURL struct {
	URL string `json:"url"`
}

// TextAndImage builds the single-turn user message the transcriber sends:
// an instruction followed by one inline image.
func TextAndImage(prompt, dataURL string) VisionMessage {
	return VisionMessage{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
		},
	}
}

// ChatResponse is the decoded result of a completion.
type ChatResponse struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	FinishReason     string `json:"finish_reason"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// NewProvider creates a provider from configuration. BaseURL defaults per
// provider; "custom" requires an explicit BaseURL.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com"
		}
	case "openrouter":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://openrouter.ai/api"
		}
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434"
		}
	case "lmstudio":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:1234"
		}
	case "custom":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("custom llm provider requires base_url")
		}
	case "":
		return nil, fmt.Errorf("llm provider not specified")
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return newClient(cfg), nil
}
