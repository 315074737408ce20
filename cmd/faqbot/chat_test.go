package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"faq-assistant/internal/conversation"
	"faq-assistant/internal/knowledge"
	"faq-assistant/internal/matcher"
	"faq-assistant/internal/usecase"
)

func init() {
	color.NoColor = true
}

func newLocalService(t *testing.T) (*usecase.AskService, *knowledge.Base) {
	t.Helper()
	base, err := knowledge.LoadDefault()
	require.NoError(t, err)
	local, err := matcher.New(base)
	require.NoError(t, err)
	resolver, err := usecase.NewResolver(usecase.ModeLocalOnly, base, local, nil)
	require.NoError(t, err)
	svc, err := usecase.NewAskService(resolver, conversation.NewRegistry(4), 500)
	require.NoError(t, err)
	return svc, base
}

func runChatScript(t *testing.T, script string) (string, *usecase.AskService, *knowledge.Base) {
	t.Helper()
	svc, base := newLocalService(t)
	var out bytes.Buffer
	s := &chatSession{
		backend:        svc,
		conversationID: "chat-test",
		popular:        base.Store.Popular(5),
		in:             bufio.NewScanner(strings.NewReader(script)),
		out:            &out,
		thinking:       directCall,
	}
	require.NoError(t, s.run(context.Background()))
	return out.String(), svc, base
}

func TestChat_AnswersAndRecordsHistory(t *testing.T) {
	out, svc, base := runChatScript(t, "How do I reset my password?\nis it free to join\n/history\nexit\n")

	pw, _ := base.Store.Lookup("How do I reset my password?")
	free, _ := base.Store.Lookup("Are the courses really free?")
	require.Contains(t, out, "Assistant: "+pw)
	require.Contains(t, out, "Assistant: "+free)
	require.Contains(t, out, "You: is it free to join")

	hist, err := svc.History(context.Background(), "chat-test")
	require.NoError(t, err)
	require.Len(t, hist, 4)
}

func TestChat_PopularShortcut(t *testing.T) {
	out, _, base := runChatScript(t, "/popular\n/3\n/9\n")

	require.Contains(t, out, "  1. What is DigiSkills.pk?")
	want, _ := base.Store.Lookup(base.Store.Popular(5)[2])
	require.Contains(t, out, "Assistant: "+want)
	require.Contains(t, out, `Unknown command "/9".`)
}

func TestChat_Clear(t *testing.T) {
	out, svc, _ := runChatScript(t, "What is the weather today?\n/clear\n/history\n")

	require.Contains(t, out, "Conversation cleared.")
	require.Contains(t, out, "No messages yet.")
	hist, err := svc.History(context.Background(), "chat-test")
	require.NoError(t, err)
	require.Empty(t, hist)
}

func TestChat_FallbackAndRejectedInput(t *testing.T) {
	long := strings.Repeat("a", 501)
	out, _, base := runChatScript(t, "What is the weather today?\n"+long+"\n")

	require.Contains(t, out, "Assistant: "+base.FallbackMessage)
	require.Contains(t, out, "Question rejected: question_too_long")
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FAQ_MODE", "local-only")
	t.Setenv("FAQ_TABLE", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_Ask(t *testing.T) {
	out, err := executeRoot(t, "ask", "How", "can", "I", "register", "for", "DigiSkills.pk?")
	require.NoError(t, err)
	require.Contains(t, out, "You can register by visiting the DigiSkills.pk website")
}

func TestRoot_Popular(t *testing.T) {
	out, err := executeRoot(t, "popular")
	require.NoError(t, err)
	require.Contains(t, out, "  5. Can I get a certificate after completing a course?")
	require.NotContains(t, out, "  6.")
}

func TestRoot_InvalidModeFlag(t *testing.T) {
	_, err := executeRoot(t, "--mode", "bogus", "popular")
	require.ErrorContains(t, err, "unknown mode")
}

func TestRoot_CatalogValidate(t *testing.T) {
	out, err := executeRoot(t, "catalog", "validate")
	require.NoError(t, err)
	require.Contains(t, out, "DigiSkills.pk: 15 entries, 14 keyword rules")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
fallback_message: nope
entries:
  - {question: "One?", answer: "1"}
keywords:
  - {trigger: two, question: "Two?"}
`), 0o600))
	_, err = executeRoot(t, "catalog", "validate", "--file", bad)
	require.ErrorContains(t, err, "unknown question")
}

func TestRoot_CatalogPushRequiresTable(t *testing.T) {
	_, err := executeRoot(t, "catalog", "push")
	require.ErrorContains(t, err, "FAQ_TABLE is not set")
}
