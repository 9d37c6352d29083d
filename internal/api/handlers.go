// Package api provides HTTP handlers for Baseer gateway endpoints.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/baseer-ai/baseer/internal/flow"
	"github.com/baseer-ai/baseer/internal/models"
)

// parseUserID converts the wire-level user id (clients send it as a JSON
// string) into the internal numeric id.
func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid user id %q", models.ErrInvalidInput, raw)
	}
	return id, nil
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	result, err := s.chat.HandleChat(r.Context(), userID, req.Message)
	if err != nil {
		slog.Error("Server.chatHandler: chat turn failed", "error", err, "user_id", userID)
		writeErrorResponse(w, err)
		return
	}
	slog.Info("Server.chatHandler: chat turn completed", "user_id", userID, "order", result.Intent)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) imageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.imageHandler: processing image request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.imageHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.imageHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	reply, err := s.chat.HandleImage(r.Context(), userID, req.Image, req.Message)
	if err != nil {
		slog.Error("Server.imageHandler: image turn failed", "error", err, "user_id", userID)
		writeErrorResponse(w, err)
		return
	}
	slog.Info("Server.imageHandler: image turn completed", "user_id", userID)
	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatResult{Message: reply}))
}

func (s *Server) emergencyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.emergencyHandler: processing emergency request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.emergencyHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.emergencyHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	delivery, err := s.chat.HandleEmergency(r.Context(), userID, req.Message)
	if err != nil {
		slog.Error("Server.emergencyHandler: emergency alert failed", "error", err, "user_id", userID)
		writeErrorResponse(w, err)
		return
	}
	slog.Info("Server.emergencyHandler: emergency alert delivered", "user_id", userID, "backend", delivery.Backend)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(flow.EmergencySentConfirmation, delivery))
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.registerHandler: processing registration", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.registerHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.registerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.registerHandler: validation failed", "error", err, "username", req.Username)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("All registration fields are required"))
		return
	}

	id, err := s.st.CreateUser(r.Context(), models.User{
		Username:         req.Username,
		Fullname:         req.Fullname,
		Password:         req.Password,
		Phone:            req.Phone,
		Address:          req.Address,
		Illness:          req.Illness,
		Gender:           req.Gender,
		Age:              req.Age,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		slog.Warn("Server.registerHandler: registration failed", "error", err, "username", req.Username)
		writeErrorResponse(w, err)
		return
	}
	slog.Info("Server.registerHandler: user registered", "user_id", id, "username", req.Username)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("User registered successfully", map[string]int64{"user_id": id}))
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.loginHandler: processing login", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.loginHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.loginHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Username and password are required"))
		return
	}

	id, err := s.st.AuthenticateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		// Invalid username and invalid password are indistinguishable on
		// the wire, so credential probing learns nothing.
		slog.Warn("Server.loginHandler: authentication failed", "username", req.Username)
		writeErrorResponse(w, err)
		return
	}
	slog.Info("Server.loginHandler: user authenticated", "user_id", id)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]int64{"user_id": id}))
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.profileHandler: processing profile request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.profileHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := parseUserID(strings.TrimPrefix(r.URL.Path, "/profile/"))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	user, err := s.st.GetUser(r.Context(), userID)
	if err != nil {
		slog.Warn("Server.profileHandler: profile lookup failed", "error", err, "user_id", userID)
		writeErrorResponse(w, err)
		return
	}
	// models.User omits the password from JSON serialization.
	writeJSONResponse(w, http.StatusOK, models.Success(user))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.st.Ping(r.Context()); err != nil {
		slog.Error("Server.healthHandler: store unreachable", "error", err)
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Store unreachable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	// The catch-all pattern also receives unknown paths.
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/docs", http.StatusFound)
}

func (s *Server) docsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, docsPage)
}

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Baseer API</title></head>
<body>
<h1>Baseer API</h1>
<p>Assistant gateway for visually impaired users.</p>
<ul>
<li><code>POST /chat</code> - send a text message, receive the assistant reply and any device order</li>
<li><code>POST /image</code> - send a base64 image plus prompt, receive a description</li>
<li><code>POST /emergency</code> - alert the registered emergency contact</li>
<li><code>POST /registeration</code> - create an account</li>
<li><code>POST /login</code> - authenticate, returns the numeric user id</li>
<li><code>GET /profile/{user_id}</code> - fetch a user profile</li>
<li><code>GET /health</code> - liveness and store connectivity</li>
</ul>
</body>
</html>
`
