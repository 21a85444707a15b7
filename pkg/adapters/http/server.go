package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/mortar"
	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/aretw0/mortar/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Engine is a dialogue that can be persisted between requests.
// *mortar.Engine satisfies it.
type Engine interface {
	ports.Dialogue
	session.Snapshotter
}

// Factory builds a fresh, idle engine for a new or resumed session.
type Factory func() (Engine, error)

// Server drives one engine per session over JSON. Live engines stay in
// memory so run sequences keep their pacing; every change is also written
// through to the session store so another replica can resume it. A cached
// engine is only reused while the stored snapshot is the one it wrote.
type Server struct {
	factory  Factory
	sessions *session.Manager
	streams  *StreamManager
	logger   *slog.Logger
	metrics  http.Handler

	mu      sync.Mutex
	engines map[string]liveEngine
}

// liveEngine is a cached engine and the UpdatedAt stamp of its last write.
type liveEngine struct {
	eng   Engine
	stamp time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server storing sessions through manager.
func NewServer(factory Factory, manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		factory:  factory,
		sessions: manager,
		streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		engines:  make(map[string]liveEngine),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	return s
}

// NewHandler is a shortcut for NewServer(...).Handler().
func NewHandler(factory Factory, manager *session.Manager, opts ...Option) http.Handler {
	return NewServer(factory, manager, opts...).Handler()
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/advance", s.advance)
			r.Post("/select", s.selectChoice)
			r.Post("/confirm", s.confirm)
			r.Post("/poll", s.poll)
			r.Get("/events", s.subscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	Path string `json:"path"`
	Node string `json:"node"`
}

// SelectRequest is the body of POST /sessions/{id}/select.
type SelectRequest struct {
	Index int `json:"index"`
}

// PollRequest is the body of POST /sessions/{id}/poll. Cursor is optional.
// Replay rewinds the current text before the cursor is applied.
type PollRequest struct {
	ElapsedMS int64    `json:"elapsed_ms"`
	Cursor    *float64 `json:"cursor,omitempty"`
	Replay    bool     `json:"replay,omitempty"`
}

// SessionResponse describes a session after a request.
type SessionResponse struct {
	ID      string                    `json:"id"`
	Active  bool                      `json:"active"`
	Render  *domain.Rendered          `json:"render,omitempty"`
	Advance *domain.AdvanceOutcome    `json:"advance,omitempty"`
	Confirm *domain.ConfirmOutcome    `json:"confirm,omitempty"`
	Actions []domain.DispatchedAction `json:"actions,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StreamMessage is one server-sent event payload.
type StreamMessage struct {
	Type    string                    `json:"type"`
	Render  *domain.Rendered          `json:"render,omitempty"`
	Actions []domain.DispatchedAction `json:"actions,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" || body.Node == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be {\"path\", \"node\"}"))
		return
	}

	id := newSessionID()
	eng, err := s.factory()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	var resp SessionResponse
	err = s.sessions.WithLock(r.Context(), id, func(ctx context.Context) error {
		if err := eng.Start(ctx, body.Path, body.Node); err != nil {
			eng.Stop(ctx)
			return err
		}
		s.describe(ctx, id, eng, &resp)
		stamp, err := s.sessions.Checkpoint(ctx, id, eng)
		if err != nil {
			return err
		}
		s.keep(id, eng, stamp)
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("Session created", "session_id", id, "path", body.Path, "node", body.Node)
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(ctx context.Context, eng Engine, resp *SessionResponse) error {
		return nil
	})
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(ctx context.Context, eng Engine, resp *SessionResponse) error {
		out := eng.Advance(ctx)
		resp.Advance = &out
		return nil
	})
}

func (s *Server) selectChoice(w http.ResponseWriter, r *http.Request) {
	var body SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be {\"index\"}"))
		return
	}
	s.drive(w, r, func(ctx context.Context, eng Engine, resp *SessionResponse) error {
		return eng.Select(body.Index)
	})
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(ctx context.Context, eng Engine, resp *SessionResponse) error {
		out, err := eng.Confirm(ctx)
		if err != nil {
			return err
		}
		resp.Confirm = &out
		return nil
	})
}

func (s *Server) poll(w http.ResponseWriter, r *http.Request) {
	var body PollRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ElapsedMS < 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("body must be {\"elapsed_ms\", \"cursor\"}"))
			return
		}
	}
	s.drive(w, r, func(ctx context.Context, eng Engine, resp *SessionResponse) error {
		if body.Cursor != nil || body.Replay {
			// Render first so the current text is active before the cursor moves.
			eng.Render(ctx)
		}
		if body.Replay {
			eng.Replay()
		}
		if body.Cursor != nil {
			eng.SetProgress(*body.Cursor)
		}
		resp.Actions = eng.Poll(ctx, time.Duration(body.ElapsedMS)*time.Millisecond)
		return nil
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.sessions.WithLock(r.Context(), id, func(ctx context.Context) error {
		if live, ok := s.cached(id); ok {
			live.eng.Stop(ctx)
		}
		s.forget(id)
		return s.sessions.Store().Delete(ctx, id)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// drive runs op against the engine of the addressed session under its lock,
// then persists the result and notifies stream subscribers.
func (s *Server) drive(w http.ResponseWriter, r *http.Request, op func(context.Context, Engine, *SessionResponse) error) {
	id := chi.URLParam(r, "id")
	var resp SessionResponse
	err := s.sessions.WithLock(r.Context(), id, func(ctx context.Context) error {
		eng, err := s.engine(ctx, id)
		if err != nil {
			return err
		}
		opErr := op(ctx, eng, &resp)
		s.describe(ctx, id, eng, &resp)

		stamp, err := s.sessions.Checkpoint(ctx, id, eng)
		if err != nil {
			return err
		}
		if eng.Active() {
			s.keep(id, eng, stamp)
		} else {
			s.forget(id)
		}
		s.streams.Publish(id, StreamMessage{Type: "update", Render: resp.Render, Actions: resp.Actions})
		return opErr
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// engine returns the live engine for id. The stored snapshot wins when
// another replica wrote it after this one, or when this replica has not seen
// the session yet.
func (s *Server) engine(ctx context.Context, id string) (Engine, error) {
	snap, err := s.sessions.Store().Load(ctx, id)
	if err != nil {
		s.forget(id)
		return nil, err
	}
	live, ok := s.cached(id)
	if ok && live.stamp.Equal(snap.UpdatedAt) {
		return live.eng, nil
	}
	eng, err := s.factory()
	if err != nil {
		return nil, err
	}
	if err := eng.Restore(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}
	if ok {
		s.logger.Debug("Cached session is stale, reloaded from store", "session_id", id)
	} else {
		s.logger.Debug("Session resumed from store", "session_id", id)
	}
	s.keep(id, eng, snap.UpdatedAt)
	return eng, nil
}

func (s *Server) describe(ctx context.Context, id string, eng Engine, resp *SessionResponse) {
	resp.ID = id
	resp.Active = eng.Active()
	resp.Render = nil
	if view, ok := eng.Render(ctx); ok {
		resp.Render = &view
	}
}

func (s *Server) cached(id string) (liveEngine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.engines[id]
	return live, ok
}

func (s *Server) keep(id string, eng Engine, stamp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[id] = liveEngine{eng: eng, stamp: stamp}
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, id)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "mortar-http",
		"version": strings.TrimSpace(mortar.Version),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrProgramNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSelection),
		errors.Is(err, domain.ErrNoSelection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoSession),
		errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLockAcquire),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	} else {
		s.logger.Debug("Request rejected", "status", status, "err", err)
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func newSessionID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
