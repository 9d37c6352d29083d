package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baseer-ai/baseer/internal/models"
	"github.com/baseer-ai/baseer/internal/twiliowhatsapp"
)

// TwilioService implements Sender using the Twilio WhatsApp API.
type TwilioService struct {
	client        twiliowhatsapp.Sender
	countryPrefix string
}

// NewTwilioService creates a TwilioService around a Twilio client.
func NewTwilioService(client twiliowhatsapp.Sender, countryPrefix string) *TwilioService {
	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	return &TwilioService{client: client, countryPrefix: countryPrefix}
}

func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizeRecipient(recipient)
}

func (s *TwilioService) Send(ctx context.Context, name, phone, message string) (*models.DeliveryResult, error) {
	to := internationalize(phone, s.countryPrefix)
	sid, err := s.client.SendTemplate(ctx, to, name, message)
	if err != nil {
		return nil, fmt.Errorf("twilio send failed: %w", err)
	}
	slog.Debug("TwilioService.Send: notification delivered", "to", to, "sid", sid)
	return &models.DeliveryResult{Backend: "twilio", To: to, MessageID: sid, Status: "sent"}, nil
}
