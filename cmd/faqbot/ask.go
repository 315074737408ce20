package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"faq-assistant/internal/usecase"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd)
			if err != nil {
				return err
			}
			out, err := a.Service.Ask(cmd.Context(), usecase.AskInput{Question: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Answer)
			return nil
		},
	}
}
