package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"

	"faq-assistant/internal/config"
	"faq-assistant/internal/domain"
	"faq-assistant/internal/usecase"
)

type stubCatalogs struct {
	cat domain.Catalog
	err error
	id  string
}

func (s *stubCatalogs) LoadCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	s.id = catalogID
	return s.cat, s.err
}

type stubSecrets struct {
	vals map[string]string
}

func (s stubSecrets) GetParameter(_ context.Context, name string) (string, error) {
	v, ok := s.vals[name]
	if !ok {
		return "", errors.New("param not found: " + name)
	}
	return v, nil
}

func noAWS(context.Context) (aws.Config, error) {
	return aws.Config{}, errors.New("aws must not be loaded")
}

func baseConfig() config.Config {
	return config.Config{
		Mode:              "local-only",
		CatalogID:         "digiskills",
		MaxQuestionLength: 500,
		MaxSessions:       10,
		MetricsNamespace:  "test",
		OpenAI: config.OpenAIConfig{
			Model:     "gpt-3.5-turbo",
			MaxTokens: 1000,
			Timeout:   2 * time.Second,
		},
	}
}

func TestBuild_LocalOnlyEmbeddedCatalog(t *testing.T) {
	a, err := Build(context.Background(), baseConfig(), nil, WithAWSLoader(noAWS))
	require.NoError(t, err)
	require.Equal(t, usecase.ModeLocalOnly, a.Resolver.Mode())
	require.Equal(t, "DigiSkills.pk", a.Base.Name)
	require.Len(t, a.Popular(), 5)
	require.Equal(t, "What is DigiSkills.pk?", a.Popular()[0])

	out, err := a.Service.Ask(context.Background(), usecase.AskInput{Question: "What is the weather today?"})
	require.NoError(t, err)
	require.Equal(t, a.Base.FallbackMessage, out.Answer)
}

func TestBuild_InvalidMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = "remote-only"
	_, err := Build(context.Background(), cfg, nil, WithAWSLoader(noAWS))
	require.ErrorContains(t, err, "unknown mode")
}

func TestBuild_CatalogFromTable(t *testing.T) {
	cfg := baseConfig()
	cfg.CatalogTable = "faq-catalog"
	cfg.CatalogID = "demo"
	catalogs := &stubCatalogs{cat: domain.Catalog{
		Name:            "Demo",
		FallbackMessage: "Ask about the office.",
		Entries:         []domain.FAQEntry{{Question: "Where is the office?", Answer: "Downtown."}},
		Keywords:        []domain.KeywordRule{{Trigger: "office", TargetQuestion: "Where is the office?"}},
	}}

	a, err := Build(context.Background(), cfg, nil, WithAWSLoader(noAWS), WithCatalogLoader(catalogs))
	require.NoError(t, err)
	require.Equal(t, "demo", catalogs.id)
	require.Equal(t, "Downtown.", a.Resolver.Resolve(context.Background(), "office hours?"))
}

func TestBuild_CatalogLoadFailure(t *testing.T) {
	cfg := baseConfig()
	cfg.CatalogTable = "faq-catalog"
	_, err := Build(context.Background(), cfg, nil, WithCatalogLoader(&stubCatalogs{err: errors.New("throttled")}))
	require.ErrorContains(t, err, "load catalog")
}

func TestBuild_InvalidCatalogIsFatal(t *testing.T) {
	cfg := baseConfig()
	cfg.CatalogTable = "faq-catalog"
	catalogs := &stubCatalogs{cat: domain.Catalog{
		FallbackMessage: "x",
		Entries:         []domain.FAQEntry{{Question: "Q?", Answer: "A"}},
		Keywords:        []domain.KeywordRule{{Trigger: "q", TargetQuestion: "Missing?"}},
	}}
	_, err := Build(context.Background(), cfg, nil, WithCatalogLoader(catalogs))
	require.ErrorContains(t, err, "unknown question")
}

func TestBuild_AWSLoadFailure(t *testing.T) {
	cfg := baseConfig()
	cfg.CatalogTable = "faq-catalog"
	_, err := Build(context.Background(), cfg, nil, WithAWSLoader(noAWS))
	require.ErrorContains(t, err, "load AWS config")
}

func TestBuild_HybridUsesParamStoreKey(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"I can only help with DigiSkills.pk."}}]}`))
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.Mode = "hybrid"
	cfg.OpenAI.BaseURL = srv.URL
	cfg.OpenAI.ParamPrefix = "/faq/prod/"
	secrets := stubSecrets{vals: map[string]string{"/faq/prod/open-ai-token": `{"token":"sk-from-ssm"}`}}

	a, err := Build(context.Background(), cfg, nil, WithAWSLoader(noAWS), WithSecrets(secrets))
	require.NoError(t, err)

	res := a.Resolver.ResolveDetailed(context.Background(), "What is the weather today?")
	require.Equal(t, usecase.SourceRemote, res.Source)
	require.Equal(t, "I can only help with DigiSkills.pk.", res.Answer)
	require.Equal(t, "Bearer sk-from-ssm", auth.Load())

	res = a.Resolver.ResolveDetailed(context.Background(), "How do I reset my password?")
	require.Equal(t, usecase.SourceContainment, res.Source)
}

func TestBuild_RemotePrimaryWithoutKeyStarts(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = "remote-primary"
	a, err := Build(context.Background(), cfg, nil, WithAWSLoader(noAWS))
	require.NoError(t, err)
	require.Equal(t, usecase.ConfigurationMessage, a.Resolver.Resolve(context.Background(), "hello"))
}

func TestBuild_EnvKeyWinsOverParamStore(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.Mode = "remote-primary"
	cfg.OpenAI.BaseURL = srv.URL
	cfg.OpenAI.APIKey = "sk-env"
	cfg.OpenAI.ParamPrefix = "/faq/prod"

	a, err := Build(context.Background(), cfg, nil, WithAWSLoader(noAWS), WithSecrets(stubSecrets{}))
	require.NoError(t, err)
	require.Equal(t, "ok", a.Resolver.Resolve(context.Background(), "hi"))
	require.Equal(t, "Bearer sk-env", auth.Load())
}
