// Package httpapi serves the conversation service over plain HTTP for
// deployments outside Lambda.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"faq-assistant/internal/domain"
	"faq-assistant/internal/usecase"
)

type ConversationService interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
	Reset(ctx context.Context, conversationID string) error
	History(ctx context.Context, conversationID string) ([]domain.Turn, error)
}

type Server struct {
	svc     ConversationService
	popular []string
	mode    string
	metrics http.Handler
	logger  *slog.Logger
}

type Option func(*Server)

func WithPopular(questions []string) Option {
	return func(s *Server) { s.popular = append([]string(nil), questions...) }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithMode(mode string) Option {
	return func(s *Server) { s.mode = mode }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(svc ConversationService, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("httpapi: conversation service must not be nil")
	}
	s := &Server{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/v1/ask", s.handleAsk)
	r.Get("/v1/popular", s.handlePopular)
	r.Get("/v1/conversations/{id}", s.handleHistory)
	r.Post("/v1/conversations/{id}/reset", s.handleReset)

	return r
}

// ListenAndServe runs the router on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversationId,omitempty"`
}

type askResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversationId"`
}

type historyResponse struct {
	ConversationID string        `json:"conversationId"`
	Turns          []domain.Turn `json:"turns"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"mode":   s.mode,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, string(usecase.ErrorInvalidInput), "invalid_body")
		return
	}
	out, err := s.svc.Ask(r.Context(), usecase.AskInput{Question: req.Question, ConversationID: req.ConversationID})
	if err != nil {
		s.respondUseCaseError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, askResponse{Answer: out.Answer, ConversationID: out.ConversationID})
}

func (s *Server) handlePopular(w http.ResponseWriter, _ *http.Request) {
	questions := s.popular
	if questions == nil {
		questions = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	turns, err := s.svc.History(r.Context(), id)
	if err != nil {
		s.respondUseCaseError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, historyResponse{ConversationID: id, Turns: turns})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Reset(r.Context(), id); err != nil {
		s.respondUseCaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	if reason, ok := usecase.InvalidInputReason(err); ok {
		respondError(w, http.StatusBadRequest, string(usecase.ErrorInvalidInput), reason)
		return
	}
	s.logger.Error("request failed", "path", r.URL.Path, "requestId", middleware.GetReqID(r.Context()), "err", err)
	respondError(w, http.StatusInternalServerError, string(usecase.ErrorInternal), "")
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, reason string) {
	respondJSON(w, status, errorResponse{Error: code, Reason: reason})
}
