package twiliowhatsapp

import (
	"context"
	"testing"
)

func TestNewClient_MissingCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestNewClient_MissingFromNumber(t *testing.T) {
	t.Setenv("TWILIO_FROM_NUMBER", "")
	_, err := NewClient(WithAccountSID("AC123"), WithAuthToken("token"))
	if err == nil {
		t.Error("expected error without from number")
	}
}

func TestNewClient_Complete(t *testing.T) {
	c, err := NewClient(
		WithAccountSID("AC123"),
		WithAuthToken("token"),
		WithFromWhats("whatsapp:+14155550000"),
		WithContentSID("HX123"),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.fromWhats != "whatsapp:+14155550000" || c.contentSID != "HX123" {
		t.Errorf("unexpected client config %+v", c)
	}
}

func TestMockClient_RecordsMessages(t *testing.T) {
	m := NewMockClient()
	sid, err := m.SendTemplate(context.Background(), "201000000002", "عمر", "رسالة")
	if err != nil {
		t.Fatalf("SendTemplate failed: %v", err)
	}
	if sid == "" {
		t.Error("expected a message sid")
	}
	if len(m.SentMessages) != 1 || m.SentMessages[0].To != "201000000002" {
		t.Errorf("unexpected recorded messages %+v", m.SentMessages)
	}
}
