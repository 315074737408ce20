package usecase

import (
	"fmt"
	"strings"

	"faq-assistant/internal/domain"
)

// buildRemoteMessages assembles the two-message completion request: a fixed
// system instruction and a user message carrying the full FAQ context and
// the verbatim question.
func buildRemoteMessages(name, faqContext, question string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: string(domain.RoleSystem), Content: systemInstruction(name)},
		{Role: string(domain.RoleUser), Content: userPrompt(name, faqContext, question)},
	}
}

func systemInstruction(name string) string {
	name = subjectName(name)
	return strings.Join([]string{
		fmt.Sprintf("You are a helpful FAQ assistant for %s.", name),
		"Answer using only the FAQ information supplied in the user message.",
		"Keep answers friendly, accurate and concise.",
		fmt.Sprintf("If a question is not related to %s, politely decline to answer it and suggest asking about one of the FAQ topics instead.", name),
	}, "\n")
}

func userPrompt(name, faqContext, question string) string {
	name = subjectName(name)
	return fmt.Sprintf(
		"Use the following %s FAQ information to answer the user's question.\n\nFAQ Information:\n%s\n\nUser question: %s\n\n"+
			"If the question is off-topic, politely decline rather than answering it.",
		name,
		strings.TrimSpace(faqContext),
		question,
	)
}

func subjectName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "this service"
}
