// Package handler adapts the conversation service to API Gateway proxy events.
//
// Conversations live in the service's in-process registry, which is scoped to
// one Lambda execution environment. A /history or /reset request served by a
// different warm instance sees an empty or unknown conversation.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"faq-assistant/internal/domain"
	"faq-assistant/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

const (
	errorNotFound         = "NOT_FOUND"
	errorMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type UseCase interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
	Reset(ctx context.Context, conversationID string) error
	History(ctx context.Context, conversationID string) ([]domain.Turn, error)
}

type Handler struct {
	uc      UseCase
	popular []string
	logger  *slog.Logger
}

type Option func(*Handler)

// WithPopular sets the questions served by GET /popular.
func WithPopular(questions []string) Option {
	return func(h *Handler) { h.popular = append([]string(nil), questions...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(uc UseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversationId,omitempty"`
}

type askResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversationId"`
}

type resetRequest struct {
	ConversationID string `json:"conversationId"`
}

type historyResponse struct {
	ConversationID string        `json:"conversationId"`
	Turns          []domain.Turn `json:"turns"`
}

type popularResponse struct {
	Questions []string `json:"questions"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)
	logger := h.logger.With("correlationId", corrID, "method", req.HTTPMethod, "path", req.Path)

	route := strings.TrimSuffix(req.Path, "/")
	var resp events.APIGatewayProxyResponse
	switch route {
	case "/ask":
		resp = h.onlyMethod(req, http.MethodPost, func() events.APIGatewayProxyResponse { return h.ask(ctx, logger, req) })
	case "/reset":
		resp = h.onlyMethod(req, http.MethodPost, func() events.APIGatewayProxyResponse { return h.reset(ctx, logger, req) })
	case "/history":
		resp = h.onlyMethod(req, http.MethodGet, func() events.APIGatewayProxyResponse { return h.history(ctx, logger, req) })
	case "/popular":
		resp = h.onlyMethod(req, http.MethodGet, func() events.APIGatewayProxyResponse {
			return jsonResponse(http.StatusOK, popularResponse{Questions: h.popular})
		})
	default:
		resp = jsonResponse(http.StatusNotFound, errorResponse{Error: errorNotFound})
	}

	resp.Headers[correlationHeader] = corrID
	logger.Info("request handled", "status", resp.StatusCode)
	return resp, nil
}

func (h *Handler) onlyMethod(req events.APIGatewayProxyRequest, method string, next func() events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if !strings.EqualFold(req.HTTPMethod, method) {
		resp := jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: errorMethodNotAllowed})
		resp.Headers["Allow"] = method
		return resp
	}
	return next()
}

func (h *Handler) ask(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in askRequest
	if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"})
	}
	out, err := h.uc.Ask(ctx, usecase.AskInput{Question: in.Question, ConversationID: in.ConversationID})
	if err != nil {
		return errorToResponse(logger, err)
	}
	return jsonResponse(http.StatusOK, askResponse{Answer: out.Answer, ConversationID: out.ConversationID})
}

func (h *Handler) reset(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in resetRequest
	if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"})
	}
	if err := h.uc.Reset(ctx, in.ConversationID); err != nil {
		return errorToResponse(logger, err)
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: map[string]string{}}
}

func (h *Handler) history(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	convID := req.QueryStringParameters["conversationId"]
	turns, err := h.uc.History(ctx, convID)
	if err != nil {
		return errorToResponse(logger, err)
	}
	return jsonResponse(http.StatusOK, historyResponse{ConversationID: strings.TrimSpace(convID), Turns: turns})
}

func errorToResponse(logger *slog.Logger, err error) events.APIGatewayProxyResponse {
	if reason, ok := usecase.InvalidInputReason(err); ok {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: reason})
	}
	logger.Error("request failed", "err", err)
	return jsonResponse(http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)})
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	headers := map[string]string{"Content-Type": "application/json"}
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"error":"INTERNAL_ERROR"}`,
		}
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(body)}
}

// correlationID returns the caller's X-Correlation-Id, matched
// case-insensitively, or a fresh one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}
