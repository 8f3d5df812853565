// Package httpapi serves the runner's status endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/repository"
)

// RunJournal is the read side of the run journal.
type RunJournal interface {
	LastRuns(ctx context.Context, bot string, limit int) ([]repository.Run, error)
}

// WakeFunc interrupts the bot's current sleep.
type WakeFunc func(ctx context.Context, reason string) error

type Server struct {
	httpServer *http.Server
	bot        string
	runs       RunJournal
	wake       WakeFunc
	started    time.Time
}

// NewServer builds the status server. wake may be nil, in which case
// POST /wake answers 501.
func NewServer(addr, bot string, runs RunJournal, wake WakeFunc) *Server {
	s := &Server{bot: bot, runs: runs, wake: wake, started: time.Now()}
	r := chi.NewRouter()
	s.registerRoutes(r)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: config.StatusReadTimeout,
		ReadTimeout:       config.StatusReadTimeout,
		WriteTimeout:      config.StatusWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"bot":     s.bot,
			"up_secs": int64(time.Since(s.started).Seconds()),
		})
	})
	r.Get("/runs", s.handleRuns)
	r.Post("/wake", s.handleWake)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := config.StatusRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, 10*config.StatusRunsLimit)
	}

	runs, err := s.runs.LastRuns(r.Context(), s.bot, limit)
	if err != nil {
		slog.Error("list runs", "bot", s.bot, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not read run journal")
		return
	}
	if runs == nil {
		runs = []repository.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bot": s.bot, "runs": runs})
}

func (s *Server) handleWake(w http.ResponseWriter, r *http.Request) {
	if s.wake == nil {
		writeError(w, http.StatusNotImplemented, "wake_disabled", "no wake channel configured")
		return
	}
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "status api"
	}
	if err := s.wake(r.Context(), reason); err != nil {
		slog.Error("wake bot", "bot", s.bot, "error", err)
		writeError(w, http.StatusBadGateway, "wake_failed", "could not publish wake-up")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}
