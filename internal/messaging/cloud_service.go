package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baseer-ai/baseer/internal/models"
)

// cloudTemplateSender is the slice of the Cloud API client used here.
type cloudTemplateSender interface {
	SendTemplate(ctx context.Context, to, name, subject string) (string, error)
}

// CloudService implements Sender using the WhatsApp Cloud API.
type CloudService struct {
	client        cloudTemplateSender
	countryPrefix string
}

// NewCloudService creates a CloudService around a Cloud API client.
func NewCloudService(client cloudTemplateSender, countryPrefix string) *CloudService {
	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	return &CloudService{client: client, countryPrefix: countryPrefix}
}

func (s *CloudService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizeRecipient(recipient)
}

func (s *CloudService) Send(ctx context.Context, name, phone, message string) (*models.DeliveryResult, error) {
	to := internationalize(phone, s.countryPrefix)
	id, err := s.client.SendTemplate(ctx, to, name, message)
	if err != nil {
		return nil, fmt.Errorf("cloud API send failed: %w", err)
	}
	slog.Debug("CloudService.Send: notification delivered", "to", to, "message_id", id)
	return &models.DeliveryResult{Backend: "cloudapi", To: to, MessageID: id, Status: "sent"}, nil
}
