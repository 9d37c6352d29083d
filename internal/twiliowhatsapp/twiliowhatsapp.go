// Package twiliowhatsapp wraps the Twilio API for WhatsApp delivery.
package twiliowhatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender is the interface for sending WhatsApp messages via Twilio
// (satisfied by Client in production and MockClient in tests).
type Sender interface {
	SendTemplate(ctx context.Context, to, name, subject string) (string, error)
}

// Opts holds configuration options for the Twilio WhatsApp client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
	ContentSID string
}

// Option defines a configuration option for the Twilio WhatsApp client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromWhats sets the sending WhatsApp number ("whatsapp:+1234567890").
func WithFromWhats(from string) Option {
	return func(o *Opts) { o.FromWhats = from }
}

// WithContentSID sets the approved content template SID. When empty, sends
// fall back to a plain text body.
func WithContentSID(sid string) Option {
	return func(o *Opts) { o.ContentSID = sid }
}

// Client wraps the Twilio REST API for WhatsApp.
type Client struct {
	client     *twilio.RestClient
	fromWhats  string
	contentSID string
}

// NewClient creates a Twilio WhatsApp client, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER and
// TWILIO_CONTENT_SID environment variables for unset options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.ContentSID == "" {
		cfg.ContentSID = os.Getenv("TWILIO_CONTENT_SID")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromWhats_set", cfg.FromWhats != "",
		"ContentSID_set", cfg.ContentSID != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	client := twilio.NewRestClientWithParams(
		twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		},
	)

	return &Client{
		client:     client,
		fromWhats:  cfg.FromWhats,
		contentSID: cfg.ContentSID,
	}, nil
}

// SendTemplate sends the notification template with the name and subject
// parameters. Without a configured content SID it degrades to a plain text
// message carrying both values.
func (c *Client) SendTemplate(ctx context.Context, to, name, subject string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + to)
	params.SetFrom(c.fromWhats)

	if c.contentSID != "" {
		vars, err := json.Marshal(map[string]string{"name": name, "subject": subject})
		if err != nil {
			return "", fmt.Errorf("failed to encode content variables: %w", err)
		}
		params.SetContentSid(c.contentSID)
		params.SetContentVariables(string(vars))
	} else {
		params.SetBody(fmt.Sprintf("%s: %s", name, subject))
	}

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio SendTemplate failed", "to", to, "error", err)
		return "", fmt.Errorf("failed to send message to %s: %w", to, err)
	}

	var sid string
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.Debug("Twilio message sent", "to", to, "sid", sid)
	return sid, nil
}

// MockClient records sent messages instead of calling Twilio (for tests).
type MockClient struct {
	SentMessages []SentMessage
	Err          error
}

type SentMessage struct {
	To      string
	Name    string
	Subject string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendTemplate(ctx context.Context, to, name, subject string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Name: name, Subject: subject})
	return fmt.Sprintf("SM%04d", len(m.SentMessages)), nil
}
