package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/baseer-ai/baseer/internal/twiliowhatsapp"
	"github.com/baseer-ai/baseer/internal/whatsapp"
)

func TestCanonicalizeRecipient(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0100000002", "0100000002", false},
		{"+2 (010) 000-0002", "20100000002", false},
		{"", "", true},
		{"abc", "", true},
		{"12345", "", true},
	}
	for _, c := range cases {
		got, err := CanonicalizeRecipient(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("CanonicalizeRecipient(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("CanonicalizeRecipient(%q) = (%q, %v), want %q", c.in, got, err, c.want)
		}
	}
}

func TestInternationalize(t *testing.T) {
	if got := internationalize("0100000002", "2"); got != "20100000002" {
		t.Errorf("expected prefix applied, got %q", got)
	}
	if got := internationalize("20100000002", "2"); got != "20100000002" {
		t.Errorf("expected prefix not doubled, got %q", got)
	}
	if got := internationalize("0100000002", ""); got != "0100000002" {
		t.Errorf("expected number unchanged without prefix, got %q", got)
	}
}

func TestTwilioService_Send(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	svc := NewTwilioService(mock, "")

	res, err := svc.Send(context.Background(), "عمر", "0100000002", "رسالة")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.Backend != "twilio" || res.To != "20100000002" || res.MessageID == "" {
		t.Errorf("unexpected delivery result %+v", res)
	}
	if len(mock.SentMessages) != 1 || mock.SentMessages[0].To != "20100000002" {
		t.Errorf("unexpected sent messages %+v", mock.SentMessages)
	}
}

func TestTwilioService_SendError(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	mock.Err = errors.New("boom")
	svc := NewTwilioService(mock, "")
	if _, err := svc.Send(context.Background(), "عمر", "0100000002", "رسالة"); err == nil {
		t.Error("expected send error to propagate")
	}
}

func TestWhatsAppService_Send(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock, "2")

	res, err := svc.Send(context.Background(), "عمر", "0100000002", "تنبيه")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.Backend != "whatsmeow" || res.To != "20100000002" {
		t.Errorf("unexpected delivery result %+v", res)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected one sent message, got %d", len(mock.SentMessages))
	}
	if mock.SentMessages[0].Body != "رسالة من عمر: تنبيه" {
		t.Errorf("unexpected flattened body %q", mock.SentMessages[0].Body)
	}
}

func TestMockSender_Send(t *testing.T) {
	m := NewMockSender()
	res, err := m.Send(context.Background(), "عمر", "0100000002", "رسالة")
	if err != nil || res.Status != "sent" {
		t.Fatalf("Send = (%+v, %v)", res, err)
	}
	if len(m.Sent) != 1 || m.Sent[0].Phone != "0100000002" {
		t.Errorf("unexpected recorded notifications %+v", m.Sent)
	}
}
