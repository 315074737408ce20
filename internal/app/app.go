// Package app assembles the FAQ assistant from configuration. Both the Lambda
// entry point and the faqbot CLI build through here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"

	"faq-assistant/internal/config"
	"faq-assistant/internal/conversation"
	"faq-assistant/internal/credential"
	"faq-assistant/internal/domain"
	"faq-assistant/internal/integrations/openai"
	"faq-assistant/internal/integrations/paramstore"
	"faq-assistant/internal/knowledge"
	"faq-assistant/internal/matcher"
	"faq-assistant/internal/observability"
	"faq-assistant/internal/repository"
	"faq-assistant/internal/usecase"
)

const popularCount = 5

type App struct {
	Config   config.Config
	Base     *knowledge.Base
	Resolver *usecase.Resolver
	Service  *usecase.AskService
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Popular returns the quick-pick questions offered to users.
func (a *App) Popular() []string {
	return a.Base.Store.Popular(popularCount)
}

// AWSLoader returns the AWS SDK configuration. It is called only when the
// configuration references DynamoDB or SSM.
type AWSLoader func(ctx context.Context) (aws.Config, error)

func DefaultAWSLoader(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

type buildOptions struct {
	loadAWS  AWSLoader
	catalogs CatalogLoader
	secrets  credential.Getter
}

type Option func(*buildOptions)

// CatalogLoader is satisfied by *repository.Client.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

func WithAWSLoader(l AWSLoader) Option {
	return func(o *buildOptions) { o.loadAWS = l }
}

// WithCatalogLoader overrides the DynamoDB catalog source.
func WithCatalogLoader(l CatalogLoader) Option {
	return func(o *buildOptions) { o.catalogs = l }
}

// WithSecrets overrides the SSM parameter source.
func WithSecrets(g credential.Getter) Option {
	return func(o *buildOptions) { o.secrets = g }
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := buildOptions{loadAWS: DefaultAWSLoader}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	mode, err := usecase.ParseMode(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var awsCfg *aws.Config
	awsConfig := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := o.loadAWS(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	catalog, err := loadCatalog(ctx, cfg, o, awsConfig)
	if err != nil {
		return nil, err
	}
	base, err := knowledge.New(catalog)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	local, err := matcher.New(base)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry, cfg.MetricsNamespace)

	var remote usecase.Completer
	if mode != usecase.ModeLocalOnly {
		creds, err := credentialChain(cfg, o, awsConfig)
		if err != nil {
			return nil, err
		}
		client, err := openai.NewClient(creds,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithModel(cfg.OpenAI.Model),
			openai.WithMaxTokens(cfg.OpenAI.MaxTokens),
			openai.WithTimeout(cfg.OpenAI.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		remote = client
	}

	resolver, err := usecase.NewResolver(mode, base, local, remote,
		usecase.WithMetrics(metrics),
		usecase.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	svc, err := usecase.NewAskService(resolver, conversation.NewRegistry(cfg.MaxSessions), cfg.MaxQuestionLength)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	logger.Info("faq assistant ready",
		"mode", mode,
		"catalog", base.Name,
		"entries", base.Store.Len(),
		"keywords", len(base.Keywords.Rules()),
	)
	return &App{
		Config:   cfg,
		Base:     base,
		Resolver: resolver,
		Service:  svc,
		Registry: registry,
		Logger:   logger,
	}, nil
}

func loadCatalog(ctx context.Context, cfg config.Config, o buildOptions, awsConfig func() (aws.Config, error)) (domain.Catalog, error) {
	if cfg.CatalogTable == "" {
		c, err := knowledge.DefaultCatalog()
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("app: %w", err)
		}
		return c, nil
	}

	loader := o.catalogs
	if loader == nil {
		ac, err := awsConfig()
		if err != nil {
			return domain.Catalog{}, err
		}
		repo, err := repository.New(awsdynamodb.NewFromConfig(ac), cfg.CatalogTable)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("app: %w", err)
		}
		loader = repo
	}
	c, err := loader.LoadCatalog(ctx, cfg.CatalogID)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("app: load catalog %q from %s: %w", cfg.CatalogID, cfg.CatalogTable, err)
	}
	return c, nil
}

// credentialChain prefers the environment key and falls back to SSM when a
// parameter prefix is configured.
func credentialChain(cfg config.Config, o buildOptions, awsConfig func() (aws.Config, error)) (credential.Chain, error) {
	chain := credential.Chain{credential.Static(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.ParamPrefix == "" {
		return chain, nil
	}

	getter := o.secrets
	if getter == nil {
		ac, err := awsConfig()
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(ac))
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		getter = ps
	}
	ps, err := credential.NewParamStore(getter, cfg.OpenAI.ParamPrefix)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return append(chain, ps), nil
}
