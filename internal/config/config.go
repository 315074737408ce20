// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Mode     string     `env:"FAQ_MODE" envDefault:"local-only"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	OpenAI OpenAIConfig

	// Catalog is read from DynamoDB when CatalogTable is set, otherwise the
	// embedded catalog is used.
	CatalogTable string `env:"FAQ_TABLE"`
	CatalogID    string `env:"FAQ_CATALOG_ID" envDefault:"digiskills"`

	MaxQuestionLength int    `env:"MAX_QUESTION_LENGTH" envDefault:"500"`
	MaxSessions       int    `env:"MAX_SESSIONS" envDefault:"1000"`
	HTTPAddr          string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsNamespace  string `env:"METRICS_NAMESPACE" envDefault:"faqbot"`
}

type OpenAIConfig struct {
	// APIKey may be empty; remote turns then answer with the configuration
	// message instead of failing at startup.
	APIKey      string        `env:"OPENAI_API_KEY"`
	ParamPrefix string        `env:"PARAM_PREFIX"`
	BaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model       string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	MaxTokens   int           `env:"OPENAI_MAX_TOKENS" envDefault:"1000"`
	Timeout     time.Duration `env:"OPENAI_TIMEOUT" envDefault:"30s"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.MaxQuestionLength <= 0 {
		errs = append(errs, errors.New("MAX_QUESTION_LENGTH must be positive"))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, errors.New("MAX_SESSIONS must be positive"))
	}
	if c.OpenAI.MaxTokens <= 0 {
		errs = append(errs, errors.New("OPENAI_MAX_TOKENS must be positive"))
	}
	if c.OpenAI.Timeout <= 0 {
		errs = append(errs, errors.New("OPENAI_TIMEOUT must be positive"))
	}
	if c.CatalogTable != "" && c.CatalogID == "" {
		errs = append(errs, errors.New("FAQ_CATALOG_ID is required with FAQ_TABLE"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger returns a JSON slog logger at the configured level.
func (c Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}
