// Package api provides HTTP handlers and the main API server logic for the
// Baseer gateway.
//
// It exposes endpoints for chatting with the assistant (text and image),
// account registration and login, profile retrieval, and emergency alerts.
// The API integrates with the flow, store, and messaging modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/baseer-ai/baseer/internal/models"
	"github.com/baseer-ai/baseer/internal/store"
)

// DefaultAddr is the listen address used when no override is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		if addr != "" {
			o.Addr = addr
		}
	}
}

// ChatService is the slice of the orchestrator the server depends on.
type ChatService interface {
	HandleChat(ctx context.Context, userID int64, prompt string) (*models.ChatResult, error)
	HandleImage(ctx context.Context, userID int64, imageB64, prompt string) (string, error)
	HandleEmergency(ctx context.Context, userID int64, message string) (*models.DeliveryResult, error)
}

// Server encapsulates the HTTP API server and its dependencies.
type Server struct {
	addr string
	chat ChatService
	st   store.Store
}

// NewServer creates a new API server with the given dependencies.
func NewServer(chat ChatService, st store.Store, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{addr: cfg.Addr, chat: chat, st: st}
}

// Handler builds the server's route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.rootHandler)
	mux.HandleFunc("/docs", s.docsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/image", s.imageHandler)
	mux.HandleFunc("/emergency", s.emergencyHandler)
	mux.HandleFunc("/login", s.loginHandler)
	mux.HandleFunc("/registeration", s.registerHandler)
	mux.HandleFunc("/profile/", s.profileHandler)
	return corsMiddleware(mux)
}

// corsMiddleware applies the allow-all CORS policy the browser clients rely
// on and answers preflight requests before they reach the method checks.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Server.Run: shutting down API server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
