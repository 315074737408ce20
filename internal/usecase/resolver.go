package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"faq-assistant/internal/domain"
	"faq-assistant/internal/integrations/openai"
	"faq-assistant/internal/knowledge"
	"faq-assistant/internal/matcher"
	"faq-assistant/internal/observability"
)

// Mode selects the resolution policy for a deployment.
type Mode string

const (
	ModeLocalOnly     Mode = "local-only"
	ModeRemotePrimary Mode = "remote-primary"
	ModeHybrid        Mode = "hybrid"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLocalOnly, ModeRemotePrimary, ModeHybrid:
		return m, nil
	case "":
		return ModeLocalOnly, nil
	default:
		return "", fmt.Errorf("usecase: unknown mode %q (want local-only, remote-primary or hybrid)", s)
	}
}

func (m Mode) usesLocal() bool  { return m == ModeLocalOnly || m == ModeHybrid }
func (m Mode) usesRemote() bool { return m == ModeRemotePrimary || m == ModeHybrid }

// Source names where an answer came from.
type Source string

const (
	SourceContainment Source = "containment"
	SourceKeyword     Source = "keyword"
	SourceRemote      Source = "remote"
	SourceFallback    Source = "fallback"
	SourceError       Source = "error"
)

const (
	// ConfigurationMessage is shown when the remote credential is missing.
	ConfigurationMessage = "The AI assistant is not configured yet: no API key was provided. Please set the OPENAI_API_KEY environment variable and try again."
	errorMessagePrefix   = "Sorry, I encountered an error: "
)

type LocalMatcher interface {
	Match(input string) (matcher.Match, bool)
}

type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Resolution is the outcome of one Resolve call.
type Resolution struct {
	Answer string
	Source Source
}

// Resolver turns free text into an answer according to its Mode.
type Resolver struct {
	mode    Mode
	base    *knowledge.Base
	local   LocalMatcher
	remote  Completer
	metrics *observability.Metrics
	logger  *slog.Logger
}

type ResolverOption func(*Resolver)

func WithMetrics(m *observability.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver checks that the collaborators the mode needs are present. The
// remote client is not contacted here; a missing credential shows up as
// ConfigurationMessage on the first remote turn.
func NewResolver(mode Mode, base *knowledge.Base, local LocalMatcher, remote Completer, opts ...ResolverOption) (*Resolver, error) {
	switch mode {
	case ModeLocalOnly, ModeRemotePrimary, ModeHybrid:
	default:
		return nil, fmt.Errorf("usecase: invalid mode %q", mode)
	}
	if base == nil {
		return nil, errors.New("usecase: knowledge base must not be nil")
	}
	if mode.usesLocal() && local == nil {
		return nil, fmt.Errorf("usecase: mode %s requires a local matcher", mode)
	}
	if mode.usesRemote() && remote == nil {
		return nil, fmt.Errorf("usecase: mode %s requires a remote client", mode)
	}
	r := &Resolver{
		mode:   mode,
		base:   base,
		local:  local,
		remote: remote,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Resolver) Mode() Mode {
	return r.mode
}

// Resolve always returns a reply; failures become the reply text.
func (r *Resolver) Resolve(ctx context.Context, input string) string {
	return r.ResolveDetailed(ctx, input).Answer
}

func (r *Resolver) ResolveDetailed(ctx context.Context, input string) Resolution {
	res := r.resolve(ctx, input)
	r.metrics.ObserveResolution(string(r.mode), string(res.Source))
	r.logger.Debug("question resolved", "mode", r.mode, "source", res.Source)
	return res
}

func (r *Resolver) resolve(ctx context.Context, input string) Resolution {
	if r.mode.usesLocal() {
		if m, ok := r.local.Match(input); ok {
			return Resolution{Answer: m.Answer, Source: passSource(m.Pass)}
		}
		if r.mode == ModeLocalOnly {
			return Resolution{Answer: r.base.FallbackMessage, Source: SourceFallback}
		}
	}
	return r.resolveRemote(ctx, input)
}

func (r *Resolver) resolveRemote(ctx context.Context, input string) Resolution {
	messages := buildRemoteMessages(r.base.Name, r.base.Store.Context(), input)

	start := time.Now()
	answer, err := r.remote.Complete(ctx, messages)
	kind := ""
	if err != nil {
		kind = errorKind(err)
	}
	r.metrics.ObserveRemote(time.Since(start), kind)

	if err != nil {
		r.logger.Warn("remote completion failed", "mode", r.mode, "kind", kind, "err", err)
		return Resolution{Answer: remoteFailureMessage(err), Source: SourceError}
	}
	return Resolution{Answer: strings.TrimSpace(answer), Source: SourceRemote}
}

func passSource(p matcher.Pass) Source {
	if p == matcher.PassKeyword {
		return SourceKeyword
	}
	return SourceContainment
}

func errorKind(err error) string {
	var cfgErr *openai.ConfigurationError
	if errors.As(err, &cfgErr) {
		return "configuration"
	}
	if kind, ok := openai.KindOf(err); ok {
		return string(kind)
	}
	return "unknown"
}

func remoteFailureMessage(err error) string {
	var cfgErr *openai.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ConfigurationMessage
	}
	var remoteErr *openai.RemoteError
	if errors.As(err, &remoteErr) {
		return errorMessagePrefix + remoteErr.Message
	}
	return errorMessagePrefix + err.Error()
}
