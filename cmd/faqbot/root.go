package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"faq-assistant/internal/app"
	"faq-assistant/internal/config"
)

type rootOptions struct {
	envFile string
	mode    string
	verbose bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "faqbot",
		Short:        "Conversational FAQ assistant",
		Long:         "faqbot answers questions from a curated FAQ catalog, optionally falling back to an OpenAI-compatible chat model.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVarP(&opts.mode, "mode", "m", "", "resolution mode: local-only, remote-primary or hybrid (overrides FAQ_MODE)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newPopularCmd(opts),
		newServeCmd(opts),
		newCatalogCmd(opts),
	)
	return cmd
}

// loadConfig reads the dotenv file, if present, then the environment.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.noColor {
		color.NoColor = true
	}
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.mode != "" {
		cfg.Mode = o.mode
	}
	switch {
	case o.verbose:
		cfg.LogLevel = slog.LevelDebug
	case os.Getenv("LOG_LEVEL") == "":
		// Keep interactive output clean unless asked otherwise.
		cfg.LogLevel = slog.LevelWarn
	}
	return cfg, nil
}

func (o *rootOptions) newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

func (o *rootOptions) buildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := o.newLogger(cfg)
	slog.SetDefault(logger)
	return app.Build(cmd.Context(), cfg, logger)
}
