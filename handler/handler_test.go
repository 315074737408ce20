package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"faq-assistant/internal/domain"
	"faq-assistant/internal/usecase"
)

type stubUseCase struct {
	out     usecase.AskOutput
	err     error
	in      usecase.AskInput
	resetID string
	histID  string
	turns   []domain.Turn
}

func (s *stubUseCase) Ask(_ context.Context, in usecase.AskInput) (usecase.AskOutput, error) {
	s.in = in
	return s.out, s.err
}

func (s *stubUseCase) Reset(_ context.Context, conversationID string) error {
	s.resetID = conversationID
	return s.err
}

func (s *stubUseCase) History(_ context.Context, conversationID string) ([]domain.Turn, error) {
	s.histID = conversationID
	return s.turns, s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/ask",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.AskOutput{Answer: "hello", ConversationID: "conv-1"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"question":"How do I register?","conversationId":"conv-1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.AskInput{Question: "How do I register?", ConversationID: "conv-1"}, uc.in)

	out := parseBody[askResponse](t, resp.Body)
	require.Equal(t, "hello", out.Answer)
	require.Equal(t, "conv-1", out.ConversationID)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestHandle_InvalidBody(t *testing.T) {
	uc := &stubUseCase{}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
	require.Equal(t, "invalid_body", out.Reason)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		reason string
	}{
		{name: "empty question", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_question"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput), reason: "empty_question"},
		{name: "too long", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "question_too_long"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput), reason: "question_too_long"},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "registry"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			h, err := NewHandler(uc)
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(`{"question":"How do I register?"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
			require.Equal(t, tc.reason, out.Reason)
		})
	}
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	uc := &stubUseCase{out: usecase.AskOutput{Answer: "ok", ConversationID: "conv-1"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(`{"question":"How do I register?"}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHandle_Reset(t *testing.T) {
	uc := &stubUseCase{}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(`{"conversationId":"conv-9"}`)
	event.Path = "/reset/"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "conv-9", uc.resetID)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestHandle_ResetMissingID(t *testing.T) {
	uc := &stubUseCase{err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_conversation_id"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(`{}`)
	event.Path = "/reset"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "missing_conversation_id", parseBody[errorResponse](t, resp.Body).Reason)
}

func TestHandle_History(t *testing.T) {
	uc := &stubUseCase{turns: []domain.Turn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/history",
		QueryStringParameters: map[string]string{"conversationId": "conv-1"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "conv-1", uc.histID)

	out := parseBody[historyResponse](t, resp.Body)
	require.Equal(t, "conv-1", out.ConversationID)
	require.Equal(t, uc.turns, out.Turns)
	require.Contains(t, resp.Body, `"role":"assistant"`)
}

func TestHandle_Popular(t *testing.T) {
	h, err := NewHandler(&stubUseCase{}, WithPopular([]string{"One?", "Two?"}))
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/popular"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"One?", "Two?"}, parseBody[popularResponse](t, resp.Body).Questions)
}

func TestHandle_RoutingErrors(t *testing.T) {
	h, err := NewHandler(&stubUseCase{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/nope"})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/ask"})
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, http.MethodPost, resp.Headers["Allow"])
}
