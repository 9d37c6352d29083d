package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/baseer-ai/baseer/internal/models"
	"github.com/baseer-ai/baseer/internal/store"
)

// fakeChatService lets each test script the orchestrator's outcome.
type fakeChatService struct {
	chatResult *models.ChatResult
	chatErr    error
	imageReply string
	imageErr   error
	delivery   *models.DeliveryResult
	emergErr   error

	lastUserID int64
	lastPrompt string
}

func (f *fakeChatService) HandleChat(ctx context.Context, userID int64, prompt string) (*models.ChatResult, error) {
	f.lastUserID = userID
	f.lastPrompt = prompt
	return f.chatResult, f.chatErr
}

func (f *fakeChatService) HandleImage(ctx context.Context, userID int64, imageB64, prompt string) (string, error) {
	f.lastUserID = userID
	return f.imageReply, f.imageErr
}

func (f *fakeChatService) HandleEmergency(ctx context.Context, userID int64, message string) (*models.DeliveryResult, error) {
	f.lastUserID = userID
	return f.delivery, f.emergErr
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeChatService, *store.InMemoryStore) {
	t.Helper()
	chat := &fakeChatService{}
	st := store.NewInMemoryStore()
	srv := httptest.NewServer(NewServer(chat, st).Handler())
	t.Cleanup(srv.Close)
	return srv, chat, st
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) models.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var env models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response envelope: %v", err)
	}
	return env
}

func registerBody() models.RegisterRequest {
	return models.RegisterRequest{
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
}

func TestRegisterHandler(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/registeration", registerBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Status != models.APIStatusOK {
		t.Errorf("expected ok status, got %q", env.Status)
	}

	// Same username again conflicts.
	resp = postJSON(t, srv.URL+"/registeration", registerBody())
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterHandler_MissingField(t *testing.T) {
	srv, _, _ := newTestServer(t)
	body := registerBody()
	body.EmergencyContact = ""

	resp := postJSON(t, srv.URL+"/registeration", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing field, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginHandler(t *testing.T) {
	srv, _, st := newTestServer(t)
	id, err := st.CreateUser(context.Background(), models.User{Username: "omar123", Password: "secret", Phone: "0100000002"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	resp := postJSON(t, srv.URL+"/login", models.LoginRequest{Username: "omar123", Password: "secret"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	result, ok := env.Result.(map[string]interface{})
	if !ok || int64(result["user_id"].(float64)) != id {
		t.Errorf("expected user_id %d in result, got %+v", id, env.Result)
	}

	resp = postJSON(t, srv.URL+"/login", models.LoginRequest{Username: "omar123", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/login", models.LoginRequest{Username: "nobody", Password: "secret"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown username, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProfileHandler(t *testing.T) {
	srv, _, st := newTestServer(t)
	id, err := st.CreateUser(context.Background(), models.User{Username: "omar123", Password: "secret", Phone: "0100000002", Fullname: "عمر"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/profile/1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	resp.Body.Close()
	if strings.Contains(raw.String(), "secret") {
		t.Error("password must never appear in the profile response")
	}
	var env models.APIResponse
	if err := json.Unmarshal(raw.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	profile, ok := env.Result.(map[string]interface{})
	if !ok || int64(profile["id"].(float64)) != id {
		t.Errorf("unexpected profile result %+v", env.Result)
	}

	resp, _ = http.Get(srv.URL + "/profile/999")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(srv.URL + "/profile/abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestChatHandler(t *testing.T) {
	srv, chat, _ := newTestServer(t)
	chat.chatResult = &models.ChatResult{Intent: models.IntentCamera, Message: "جاري فتح الكاميرا"}

	resp := postJSON(t, srv.URL+"/chat", models.ChatRequest{UserID: "7", Message: "افتح الكاميرا"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	result, ok := env.Result.(map[string]interface{})
	if !ok || result["order"] != string(models.IntentCamera) {
		t.Errorf("expected CAMERA order in result, got %+v", env.Result)
	}
	if chat.lastUserID != 7 {
		t.Errorf("expected parsed user id 7, got %d", chat.lastUserID)
	}
}

func TestChatHandler_InvalidUserID(t *testing.T) {
	srv, chat, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/chat", models.ChatRequest{UserID: "not-a-number", Message: "مرحبا"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad user id, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	if chat.lastUserID != 0 {
		t.Error("orchestrator must not be invoked for unparsable user id")
	}
}

func TestChatHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty message", models.ErrInvalidInput, http.StatusBadRequest},
		{"no recipient", models.ErrNoRecipient, http.StatusBadRequest},
		{"unknown sender", models.ErrUserNotFound, http.StatusNotFound},
		{"backend failure", errors.New("model down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, chat, _ := newTestServer(t)
			chat.chatErr = tc.err

			resp := postJSON(t, srv.URL+"/chat", models.ChatRequest{UserID: "1", Message: "x"})
			if resp.StatusCode != tc.want {
				t.Errorf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			env := decodeEnvelope(t, resp)
			if tc.want == http.StatusInternalServerError && strings.Contains(env.Message, "model down") {
				t.Error("internal error details must not leak to clients")
			}
		})
	}
}

func TestImageHandler(t *testing.T) {
	srv, chat, _ := newTestServer(t)
	chat.imageReply = "صورة قطة"

	resp := postJSON(t, srv.URL+"/image", models.ImageRequest{UserID: "3", Image: "aGVsbG8=", Message: "صف الصورة"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	result, ok := env.Result.(map[string]interface{})
	if !ok || result["message"] != "صورة قطة" {
		t.Errorf("unexpected result %+v", env.Result)
	}
}

func TestEmergencyHandler(t *testing.T) {
	srv, chat, _ := newTestServer(t)
	chat.delivery = &models.DeliveryResult{Backend: "mock", To: "0100000009", Status: "sent"}

	resp := postJSON(t, srv.URL+"/emergency", models.ChatRequest{UserID: "5", Message: "أحتاج مساعدة"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Message == "" {
		t.Error("expected confirmation message in envelope")
	}
	if chat.lastUserID != 5 {
		t.Errorf("expected parsed user id 5, got %d", chat.lastUserID)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/chat", "/image", "/emergency", "/login", "/registeration"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s: expected 405, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestRootAndDocs(t *testing.T) {
	srv, _, _ := newTestServer(t)

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/docs" {
		t.Errorf("expected redirect to /docs, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/docs")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /docs, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCORSHeaders(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected allow-all origin header, got %q", got)
	}
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected allow-methods header on preflight response")
	}
}

func TestHealthHandler(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
