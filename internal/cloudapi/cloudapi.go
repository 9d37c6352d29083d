// Package cloudapi wraps the WhatsApp Cloud API (graph.facebook.com) for
// sending templated messages.
//
// The gateway sends one fixed body template with two parameters: the
// recipient's display name and the message subject.
package cloudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://graph.facebook.com/v21.0"
	defaultTemplateName = "baseer"
	defaultTemplateLang = "ar_EG"
	defaultTimeout      = 15 * time.Second
)

// Opts holds configuration options for the Cloud API client.
type Opts struct {
	BaseURL      string
	AccessToken  string
	PhoneID      string
	TemplateName string
	TemplateLang string
	HTTPClient   *http.Client
}

// Option defines a configuration option for the Cloud API client.
type Option func(*Opts)

// WithAccessToken sets the Cloud API bearer token.
func WithAccessToken(token string) Option {
	return func(o *Opts) { o.AccessToken = token }
}

// WithPhoneID sets the sending phone number id.
func WithPhoneID(id string) Option {
	return func(o *Opts) { o.PhoneID = id }
}

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithTemplate sets the template name and language code.
func WithTemplate(name, lang string) Option {
	return func(o *Opts) {
		o.TemplateName = name
		o.TemplateLang = lang
	}
}

// WithHTTPClient injects a custom HTTP client (used in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client sends WhatsApp template messages through the Cloud API.
type Client struct {
	baseURL      string
	accessToken  string
	phoneID      string
	templateName string
	templateLang string
	httpClient   *http.Client
}

// NewClient creates a Cloud API client. Token and phone id fall back to the
// WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_ID environment variables.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("WHATSAPP_ACCESS_TOKEN")
	}
	if cfg.PhoneID == "" {
		cfg.PhoneID = os.Getenv("WHATSAPP_PHONE_ID")
	}
	slog.Debug("cloudapi.NewClient: configuration loaded",
		"access_token_set", cfg.AccessToken != "",
		"phone_id_set", cfg.PhoneID != "")
	if cfg.AccessToken == "" || cfg.PhoneID == "" {
		return nil, fmt.Errorf("access token and phone id must be provided")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TemplateName == "" {
		cfg.TemplateName = defaultTemplateName
	}
	if cfg.TemplateLang == "" {
		cfg.TemplateLang = defaultTemplateLang
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		accessToken:  cfg.AccessToken,
		phoneID:      cfg.PhoneID,
		templateName: cfg.TemplateName,
		templateLang: cfg.TemplateLang,
		httpClient:   cfg.HTTPClient,
	}, nil
}

type templateParameter struct {
	Type          string `json:"type"`
	ParameterName string `json:"parameter_name,omitempty"`
	Text          string `json:"text"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templatePayload struct {
	Name       string              `json:"name"`
	Language   map[string]string   `json:"language"`
	Components []templateComponent `json:"components"`
}

type messagePayload struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Template         templatePayload `json:"template"`
}

// SendTemplate delivers the body template with the given name and subject
// parameters to a phone number and returns the message id reported by the
// API.
func (c *Client) SendTemplate(ctx context.Context, to, name, subject string) (string, error) {
	payload := messagePayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: templatePayload{
			Name:     c.templateName,
			Language: map[string]string{"code": c.templateLang},
			Components: []templateComponent{{
				Type: "body",
				Parameters: []templateParameter{
					{Type: "text", ParameterName: "name", Text: name},
					{Type: "text", ParameterName: "subject", Text: subject},
				},
			}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode template payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("cloudapi.SendTemplate: request failed", "error", err, "to", to)
		return "", fmt.Errorf("failed to send template message to %s: %w", to, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("cloudapi.SendTemplate: API error", "status", resp.StatusCode, "to", to)
		return "", fmt.Errorf("cloud API returned status %d for %s", resp.StatusCode, to)
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		slog.Warn("cloudapi.SendTemplate: could not parse response body", "error", err)
		return "", nil
	}
	var messageID string
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}
	slog.Debug("cloudapi.SendTemplate: message sent", "to", to, "message_id", messageID)
	return messageID, nil
}
