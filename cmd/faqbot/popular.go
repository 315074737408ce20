package main

import (
	"github.com/spf13/cobra"
)

func newPopularCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "popular",
		Short: "List the popular questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.buildApp(cmd)
			if err != nil {
				return err
			}
			printPopular(cmd.OutOrStdout(), a.Popular())
			return nil
		},
	}
}
