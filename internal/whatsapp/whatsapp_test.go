package whatsapp

import (
	"context"
	"errors"
	"testing"
)

func TestClientSendMessage_Validation(t *testing.T) {
	c := &Client{}
	if err := c.SendMessage(context.Background(), "201000000002", "hi"); err == nil {
		t.Error("expected error for uninitialized client")
	}
}

func TestMockClient_RecordsMessages(t *testing.T) {
	m := NewMockClient()
	if err := m.SendMessage(context.Background(), "201000000002", "تنبيه"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(m.SentMessages) != 1 || m.SentMessages[0].Body != "تنبيه" {
		t.Errorf("unexpected recorded messages %+v", m.SentMessages)
	}
}

func TestMockClient_PropagatesError(t *testing.T) {
	m := NewMockClient()
	m.Err = errors.New("send failed")
	if err := m.SendMessage(context.Background(), "201000000002", "تنبيه"); err == nil {
		t.Error("expected injected error")
	}
	if len(m.SentMessages) != 0 {
		t.Errorf("expected no recorded messages on failure, got %+v", m.SentMessages)
	}
}
