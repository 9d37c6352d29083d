// Package genai wraps the OpenAI chat completion API for the Baseer gateway.
//
// Every text generation call threads the immutable seed dialogue prefix
// ahead of the user's turn; image turns are sent as a single multimodal
// request without any history threading.
package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/baseer-ai/baseer/internal/models"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.ChatModelGPT4oMini

// ErrNoChoicesReturned indicates that the API returned an empty choice list.
var ErrNoChoicesReturned = errors.New("no choices returned")

// chatService defines the minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  string
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat completion model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat  chatService
	model string
}

// NewClient initializes a new GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable when not provided via options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	slog.Debug("genai.NewClient: configuration loaded", "api_key_set", cfg.APIKey != "", "model", cfg.Model)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model}, nil
}

// Generate produces one reply for the user's prompt, with the seed dialogue
// prefix prepended to steer style. The seed is read-only; this method never
// modifies it.
func (c *Client) Generate(ctx context.Context, seed []models.DialogueTurn, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(seed)+1)
	for _, turn := range seed {
		switch turn.Role {
		case models.RoleModel:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("genai.Generate: chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return replyText(resp)
}

// GenerateWithImage produces one reply for a base64-encoded image plus an
// accompanying prompt, as a single combined request with no history.
func (c *Client) GenerateWithImage(ctx context.Context, imageB64, prompt string) (string, error) {
	if _, err := base64.StdEncoding.DecodeString(imageB64); err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/jpeg;base64," + imageB64,
		}),
	}
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	})
	if err != nil {
		slog.Error("genai.GenerateWithImage: chat completion failed", "error", err)
		return "", fmt.Errorf("image chat completion failed: %w", err)
	}
	return replyText(resp)
}

func replyText(resp *openai.ChatCompletion) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
