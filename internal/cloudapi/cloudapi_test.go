package cloudapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendTemplate(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"id":"wamid.test123"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(
		WithAccessToken("token"),
		WithPhoneID("12345"),
		WithBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	id, err := client.SendTemplate(context.Background(), "201000000002", "عمر", "رسالة تجريبية")
	if err != nil {
		t.Fatalf("SendTemplate failed: %v", err)
	}
	if id != "wamid.test123" {
		t.Errorf("expected message id from response, got %q", id)
	}
	if gotPath != "/12345/messages" {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotPayload["messaging_product"] != "whatsapp" || gotPayload["to"] != "201000000002" {
		t.Errorf("unexpected payload %+v", gotPayload)
	}
	tmpl, _ := gotPayload["template"].(map[string]interface{})
	if tmpl == nil || tmpl["name"] != "baseer" {
		t.Errorf("expected default template name, got %+v", tmpl)
	}
}

func TestSendTemplate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(WithAccessToken("bad"), WithPhoneID("12345"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.SendTemplate(context.Background(), "201000000002", "عمر", "رسالة"); err == nil {
		t.Error("expected error on non-2xx response")
	}
}

func TestNewClient_MissingCredentials(t *testing.T) {
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "")
	t.Setenv("WHATSAPP_PHONE_ID", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when credentials are missing")
	}
}
