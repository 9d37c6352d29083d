package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRegisterRequestValidate(t *testing.T) {
	complete := RegisterRequest{
		Username:         "omar123",
		Fullname:         "عمر أحمد",
		Password:         "secret",
		Phone:            "0100000002",
		Address:          "القاهرة",
		Illness:          "none",
		Gender:           "male",
		Age:              "30",
		EmergencyContact: "0100000009",
	}
	if err := complete.Validate(); err != nil {
		t.Errorf("complete request should validate, got %v", err)
	}

	missing := complete
	missing.EmergencyContact = ""
	if err := missing.Validate(); err == nil {
		t.Error("expected validation error for missing emergency contact")
	}
}

func TestUserJSONOmitsPassword(t *testing.T) {
	data, err := json.Marshal(User{ID: 1, Username: "omar123", Password: "secret"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password leaked into JSON: %s", data)
	}
}

func TestUserJSONEmergencyContactFieldName(t *testing.T) {
	data, err := json.Marshal(User{EmergencyContact: "0100000009"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	// Existing clients depend on this exact field spelling.
	if !strings.Contains(string(data), `"imergency_contact"`) {
		t.Errorf("expected imergency_contact field, got %s", data)
	}
}

func TestIntentPriorityCoversAllIntents(t *testing.T) {
	seen := map[Intent]bool{}
	for _, in := range IntentPriority {
		if seen[in] {
			t.Errorf("intent %q listed twice", in)
		}
		seen[in] = true
	}
	if len(IntentPriority) != 9 {
		t.Errorf("expected 9 prioritized intents, got %d", len(IntentPriority))
	}
	if IntentPriority[0] != IntentCamera || IntentPriority[len(IntentPriority)-1] != IntentWhatsApp {
		t.Errorf("unexpected priority ordering: %v", IntentPriority)
	}
}
