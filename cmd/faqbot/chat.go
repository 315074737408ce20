package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"faq-assistant/internal/domain"
	"faq-assistant/internal/usecase"
)

// chatBackend is the slice of usecase.AskService the REPL drives.
type chatBackend interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
	Reset(ctx context.Context, conversationID string) error
	History(ctx context.Context, conversationID string) ([]domain.Turn, error)
}

type chatSession struct {
	backend        chatBackend
	conversationID string
	popular        []string
	in             *bufio.Scanner
	out            io.Writer
	// thinking wraps a blocking call with a progress indicator.
	thinking func(fn func())
}

var (
	userLabel      = color.New(color.FgCyan, color.Bold)
	assistantLabel = color.New(color.FgGreen, color.Bold)
	hintStyle      = color.New(color.Faint)
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.buildApp(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s assistant (%s mode)\n", displayName(a.Base.Name), a.Resolver.Mode())
			if a.Base.About != "" {
				hintStyle.Fprintln(out, a.Base.About)
			}
			hintStyle.Fprintln(out, "Commands: /popular, /1../5 to ask a popular question, /history, /clear, /exit")

			s := &chatSession{
				backend:        a.Service,
				conversationID: uuid.NewString(),
				popular:        a.Popular(),
				in:             bufio.NewScanner(cmd.InOrStdin()),
				out:            out,
				thinking:       directCall,
			}
			if a.Resolver.Mode() != usecase.ModeLocalOnly {
				s.thinking = withSpinner
			}
			return s.run(cmd.Context())
		},
	}
}

func (s *chatSession) run(ctx context.Context) error {
	for {
		userLabel.Fprint(s.out, "You: ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/exit" || line == "exit" || line == "quit":
			return nil
		case line == "/clear":
			if err := s.backend.Reset(ctx, s.conversationID); err != nil {
				return err
			}
			hintStyle.Fprintln(s.out, "Conversation cleared.")
		case line == "/history":
			if err := s.printHistory(ctx); err != nil {
				return err
			}
		case line == "/popular":
			printPopular(s.out, s.popular)
		case strings.HasPrefix(line, "/"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "/"))
			if err != nil || n < 1 || n > len(s.popular) {
				hintStyle.Fprintf(s.out, "Unknown command %q.\n", line)
				continue
			}
			if err := s.ask(ctx, s.popular[n-1]); err != nil {
				return err
			}
		default:
			if err := s.ask(ctx, line); err != nil {
				return err
			}
		}
	}
}

func (s *chatSession) ask(ctx context.Context, question string) error {
	var (
		out usecase.AskOutput
		err error
	)
	s.thinking(func() {
		out, err = s.backend.Ask(ctx, usecase.AskInput{Question: question, ConversationID: s.conversationID})
	})
	if err != nil {
		if reason, ok := usecase.InvalidInputReason(err); ok {
			hintStyle.Fprintf(s.out, "Question rejected: %s\n", reason)
			return nil
		}
		return err
	}
	assistantLabel.Fprint(s.out, "Assistant: ")
	fmt.Fprintln(s.out, out.Answer)
	return nil
}

func (s *chatSession) printHistory(ctx context.Context) error {
	turns, err := s.backend.History(ctx, s.conversationID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		hintStyle.Fprintln(s.out, "No messages yet.")
		return nil
	}
	for _, t := range turns {
		if t.Role == domain.RoleUser {
			userLabel.Fprint(s.out, "You: ")
		} else {
			assistantLabel.Fprint(s.out, "Assistant: ")
		}
		fmt.Fprintln(s.out, t.Content)
	}
	return nil
}

func printPopular(out io.Writer, questions []string) {
	for i, q := range questions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, q)
	}
}

func displayName(name string) string {
	if name == "" {
		return "FAQ"
	}
	return name
}

func directCall(fn func()) { fn() }

func withSpinner(fn func()) {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " Thinking..."
	sp.Start()
	defer sp.Stop()
	fn()
}
