package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"faq-assistant/internal/httpapi"
	"faq-assistant/internal/observability"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.buildApp(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.Config.HTTPAddr
			}

			srv, err := httpapi.New(a.Service,
				httpapi.WithPopular(a.Popular()),
				httpapi.WithMode(string(a.Resolver.Mode())),
				httpapi.WithMetricsHandler(observability.MetricsHandler(a.Registry)),
				httpapi.WithLogger(a.Logger),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
