// Package server is the HTTP front end: chat over REST, one session
// per conversation, sessions created on demand and closed together at
// shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/agent"
	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/types"
)

const drainTimeout = 5 * time.Second

// Factory opens a new session with its own adapters
type Factory func() (*agent.Session, error)

// Server serves the chat API
type Server struct {
	cfg     *config.Config
	factory Factory
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*agent.Session
	draining bool

	srv *http.Server
}

// MessageRequest is an incoming chat request. A request without a
// session ID starts a new conversation.
type MessageRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// MessageResponse is the reply to a chat request. The session ID is
// always the server's; clients echo it back to continue the
// conversation.
type MessageResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Error     string `json:"error,omitempty"`
}

// New builds the server; sessions are opened through the factory
func New(cfg *config.Config, factory Factory, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		factory:  factory,
		sessions: make(map[string]*agent.Session),
		logger:   logger.With().Str("component", "server").Logger(),
	}
}

// Handler returns the HTTP surface
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start opens the first session so broken tool connectivity fails the
// process at startup, then serves until Shutdown
func (s *Server) Start() error {
	session, err := s.factory()
	if err != nil {
		return fmt.Errorf("failed to open initial session: %w", err)
	}

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", s.srv.Addr).Msg("starting server")
	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and closes every session
func (s *Server) Shutdown() error {
	var errs []error

	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()

		if err := s.srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	s.mu.Lock()
	sessions := make([]*agent.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*agent.Session)
	s.mu.Unlock()

	for _, session := range sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session %s: %w", session.ID(), err))
		}
	}

	if len(errs) == 1 {
		return errs[0]
	}
	if len(errs) > 1 {
		return fmt.Errorf("multiple shutdown errors: %v", errs)
	}
	return nil
}

// session returns the session for an ID, opening a new one when the ID
// is absent or unknown
func (s *Server) session(id string) (*agent.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draining {
		return nil, errors.New("server is shutting down")
	}

	if id != "" {
		if session, ok := s.sessions[id]; ok {
			return session, nil
		}
	}

	session, err := s.factory()
	if err != nil {
		return nil, err
	}
	s.sessions[session.ID()] = session
	s.logger.Debug().Str("session_id", session.ID()).Msg("session opened")
	return session, nil
}

// handleChat processes chat messages
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.session(req.SessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to open session")
		writeJSON(w, http.StatusServiceUnavailable, MessageResponse{Error: err.Error()})
		return
	}

	reply, err := session.Respond(r.Context(), req.Message)
	resp := MessageResponse{SessionID: session.ID(), Response: reply}
	if err != nil {
		resp.Error = err.Error()
		if errors.Is(err, types.ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
