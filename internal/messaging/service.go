// Package messaging provides a pluggable notification delivery abstraction.
//
// A Sender delivers one templated notification (recipient display name plus
// a message subject) to a phone number. Backends cover the WhatsApp Cloud
// API, Twilio, and a self-hosted Whatsmeow connection; tests swap in a mock.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/baseer-ai/baseer/internal/models"
)

// DefaultCountryPrefix is prepended to resolved local numbers before
// delivery. Contact numbers are stored in national format (e.g. 01xxxxxxxxx)
// while every backend wants an international number.
const DefaultCountryPrefix = "2"

// phoneNumberRegex matches everything that is not a digit.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Sender delivers a templated notification to a phone number.
type Sender interface {
	// ValidateAndCanonicalizeRecipient validates a recipient phone number
	// and strips formatting, returning digits only.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// Send delivers the notification template with the given display name
	// and message to a canonicalized phone number.
	Send(ctx context.Context, name, phone, message string) (*models.DeliveryResult, error)
}

// CanonicalizeRecipient removes all non-numeric characters and validates
// that the result has at least 6 digits.
func CanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}
	if canonical != recipient {
		slog.Debug("messaging.CanonicalizeRecipient: recipient canonicalized", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// internationalize prepends the country prefix unless the number already
// carries it.
func internationalize(phone, prefix string) string {
	if prefix == "" || strings.HasPrefix(phone, prefix) {
		return phone
	}
	return prefix + phone
}

// MockSender records notifications instead of delivering them (for tests).
type MockSender struct {
	Sent []MockNotification
	Err  error
}

type MockNotification struct {
	Name    string
	Phone   string
	Message string
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizeRecipient(recipient)
}

func (m *MockSender) Send(ctx context.Context, name, phone, message string) (*models.DeliveryResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Sent = append(m.Sent, MockNotification{Name: name, Phone: phone, Message: message})
	return &models.DeliveryResult{Backend: "mock", To: phone, MessageID: fmt.Sprintf("mock-%d", len(m.Sent)), Status: "sent"}, nil
}
