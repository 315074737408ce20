package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"faq-assistant/internal/conversation"
	"faq-assistant/internal/domain"
)

const defaultMaxQuestion = 500

type AnswerResolver interface {
	Resolve(ctx context.Context, input string) string
}

// AskService runs conversational turns on top of a resolver: each Ask appends
// the user turn, resolves, then appends the assistant turn.
type AskService struct {
	resolver       AnswerResolver
	sessions       *conversation.Registry
	maxQuestionLen int
}

type AskInput struct {
	Question       string
	ConversationID string
}

type AskOutput struct {
	Answer         string
	ConversationID string
}

func NewAskService(resolver AnswerResolver, sessions *conversation.Registry, maxQuestionLen int) (*AskService, error) {
	if resolver == nil {
		return nil, errors.New("usecase: resolver must not be nil")
	}
	if sessions == nil {
		return nil, errors.New("usecase: session registry must not be nil")
	}
	if maxQuestionLen <= 0 {
		maxQuestionLen = defaultMaxQuestion
	}
	return &AskService{
		resolver:       resolver,
		sessions:       sessions,
		maxQuestionLen: maxQuestionLen,
	}, nil
}

func (s *AskService) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return AskOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if utf8.RuneCountInString(question) > s.maxQuestionLen {
		return AskOutput{}, newError(ErrorInvalidInput, "question_too_long", nil)
	}
	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		convID = newUUID()
	}

	var answer string
	s.sessions.Get(convID).Turn(func(st *conversation.State) {
		st.Append(domain.Turn{Role: domain.RoleUser, Content: question})
		answer = s.resolver.Resolve(ctx, question)
		st.Append(domain.Turn{Role: domain.RoleAssistant, Content: answer})
	})

	return AskOutput{Answer: answer, ConversationID: convID}, nil
}

// Reset clears a conversation's history. Unknown IDs are a no-op.
func (s *AskService) Reset(_ context.Context, conversationID string) error {
	convID := strings.TrimSpace(conversationID)
	if convID == "" {
		return newError(ErrorInvalidInput, "missing_conversation_id", nil)
	}
	if sess, ok := s.sessions.Lookup(convID); ok {
		sess.Turn(func(st *conversation.State) { st.Reset() })
	}
	return nil
}

// History returns the turns of a conversation, empty for unknown IDs.
func (s *AskService) History(_ context.Context, conversationID string) ([]domain.Turn, error) {
	convID := strings.TrimSpace(conversationID)
	if convID == "" {
		return nil, newError(ErrorInvalidInput, "missing_conversation_id", nil)
	}
	sess, ok := s.sessions.Lookup(convID)
	if !ok {
		return []domain.Turn{}, nil
	}
	return sess.State.All(), nil
}

var newUUID = func() string {
	return uuid.NewString()
}
