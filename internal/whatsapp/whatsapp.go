// Package whatsapp wraps the Whatsmeow client for self-hosted WhatsApp
// delivery in the Baseer gateway.
//
// It handles the one-time QR/numeric login flow and message sending. When a
// content template is not available (Whatsmeow talks to WhatsApp directly,
// not through the Business API), notifications are delivered as plain text.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/baseer-ai/baseer/internal/store"
)

const (
	// DefaultSQLitePath is the default path for the whatsmeow session database
	DefaultSQLitePath = "/var/lib/baseer/whatsmeow.db"
	// JIDSuffix is the WhatsApp JID suffix for regular users
	JIDSuffix = "s.whatsapp.net"
)

// Sender is the interface for sending WhatsApp messages (production and tests).
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the WhatsApp client.
type Opts struct {
	DBDSN       string // whatsmeow session database connection string
	QRPath      string // path to write login QR code
	NumericCode bool   // use numeric login code instead of QR code
}

// Option defines a configuration option for the WhatsApp client.
type Option func(*Opts)

// WithDBDSN sets the whatsmeow session database connection string.
func WithDBDSN(dsn string) Option {
	return func(o *Opts) { o.DBDSN = dsn }
}

// WithQRCodeOutput writes the login QR code to the specified path.
func WithQRCodeOutput(path string) Option {
	return func(o *Opts) { o.QRPath = path }
}

// WithNumericCode uses a numeric login code instead of a QR code.
func WithNumericCode() Option {
	return func(o *Opts) { o.NumericCode = true }
}

// Client wraps the Whatsmeow client for modular use.
type Client struct {
	waClient *whatsmeow.Client
}

// NewClient creates a new WhatsApp client, performing the login flow when no
// stored session exists.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("whatsapp.NewClient: options set", "DBDSN_set", cfg.DBDSN != "", "QRPath_set", cfg.QRPath != "", "NumericCode", cfg.NumericCode)

	dbDSN := cfg.DBDSN
	if dbDSN == "" {
		dbDSN = DefaultSQLitePath
		slog.Debug("whatsapp.NewClient: no session DSN provided, using default SQLite path", "default_path", dbDSN)
	}

	var dbDriver string
	if store.DetectDSNType(dbDSN) == "postgres" {
		dbDriver = "postgres"
	} else {
		dbDriver = "sqlite3"
		// whatsmeow strongly recommends foreign keys for data integrity.
		if !strings.Contains(dbDSN, "foreign_keys") {
			slog.Warn("whatsapp.NewClient: SQLite session DB without foreign keys enabled",
				"dsn_example", "file:"+dbDSN+"?_foreign_keys=on")
		}
	}

	ctx := context.Background()
	container, err := sqlstore.New(ctx, dbDriver, dbDSN, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		slog.Error("whatsapp.NewClient: failed to initialize session store", "error", err)
		return nil, fmt.Errorf("failed to initialize WhatsApp session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		slog.Error("whatsapp.NewClient: failed to get device from store", "error", err)
		return nil, fmt.Errorf("failed to get device from WhatsApp store: %w", err)
	}

	waClient := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))

	if waClient.Store.ID == nil {
		slog.Info("whatsapp.NewClient: login required, starting QR code flow")
		qrChan, _ := waClient.GetQRChannel(context.Background())
		if err := waClient.Connect(); err != nil {
			slog.Error("whatsapp.NewClient: failed to connect during login", "error", err)
			return nil, fmt.Errorf("failed to connect to WhatsApp during login: %w", err)
		}
		writer := io.Writer(os.Stdout)
		if cfg.QRPath != "" {
			f, ferr := os.Create(cfg.QRPath)
			if ferr != nil {
				return nil, fmt.Errorf("failed to create QR file: %w", ferr)
			}
			defer f.Close()
			writer = f
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				if cfg.NumericCode {
					fmt.Fprintln(writer, evt.Code)
				} else {
					qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, writer)
				}
			} else {
				slog.Debug("whatsapp.NewClient: login event", "event", evt.Event)
			}
		}
	} else {
		slog.Debug("whatsapp.NewClient: already logged in, connecting to server")
		if err := waClient.Connect(); err != nil {
			slog.Error("whatsapp.NewClient: failed to connect", "error", err)
			return nil, fmt.Errorf("failed to connect to WhatsApp server: %w", err)
		}
	}
	slog.Info("whatsapp.NewClient: client connected successfully")
	return &Client{waClient: waClient}, nil
}

// SendMessage sends a WhatsApp text message to the specified phone number.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	if c.waClient == nil {
		return fmt.Errorf("whatsapp client not initialized")
	}
	if to == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	if body == "" {
		return fmt.Errorf("message body cannot be empty")
	}

	slog.Debug("whatsapp.SendMessage: sending", "to", to, "body_length", len(body))
	jid := types.NewJID(to, JIDSuffix)
	msg := &waE2E.Message{Conversation: &body}

	if _, err := c.waClient.SendMessage(ctx, jid, msg); err != nil {
		slog.Error("whatsapp.SendMessage failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	return nil
}

// Disconnect closes the WhatsApp connection.
func (c *Client) Disconnect() {
	if c.waClient != nil {
		c.waClient.Disconnect()
	}
}

// MockClient records messages instead of talking to WhatsApp (for tests).
type MockClient struct {
	SentMessages []SentMessage
	Err          error
}

type SentMessage struct {
	To   string
	Body string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return nil
}
