package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baseer-ai/baseer/internal/models"
	"github.com/baseer-ai/baseer/internal/whatsapp"
)

// WhatsAppService implements Sender using a self-hosted Whatsmeow
// connection. Whatsmeow talks to WhatsApp directly rather than through the
// Business API, so the template is flattened into a plain text message.
type WhatsAppService struct {
	client        whatsapp.Sender
	countryPrefix string
}

// NewWhatsAppService creates a WhatsAppService around a Whatsmeow client.
func NewWhatsAppService(client whatsapp.Sender, countryPrefix string) *WhatsAppService {
	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	return &WhatsAppService{client: client, countryPrefix: countryPrefix}
}

func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizeRecipient(recipient)
}

func (s *WhatsAppService) Send(ctx context.Context, name, phone, message string) (*models.DeliveryResult, error) {
	to := internationalize(phone, s.countryPrefix)
	body := fmt.Sprintf("رسالة من %s: %s", name, message)
	if err := s.client.SendMessage(ctx, to, body); err != nil {
		return nil, fmt.Errorf("whatsapp send failed: %w", err)
	}
	slog.Debug("WhatsAppService.Send: notification delivered", "to", to)
	return &models.DeliveryResult{Backend: "whatsmeow", To: to, Status: "sent"}, nil
}
