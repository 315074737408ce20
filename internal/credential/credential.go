// Package credential resolves the remote completion API key.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"faq-assistant/internal/integrations/paramstore"
)

// ErrMissing means no source had a credential configured.
var ErrMissing = errors.New("credential: api key is not configured")

type Source interface {
	APIKey(ctx context.Context) (string, error)
}

// Static is a key read once from the process environment at startup.
type Static string

func (s Static) APIKey(context.Context) (string, error) {
	key := strings.TrimSpace(string(s))
	if key == "" {
		return "", ErrMissing
	}
	return key, nil
}

// Getter is satisfied by *paramstore.Client.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ParamStore fetches the key from SSM on first use and caches it for the
// process lifetime. Failures are not cached, so the next turn tries again. A
// parameter that does not exist reads as ErrMissing.
type ParamStore struct {
	getter Getter
	name   string

	mu     sync.Mutex
	cached string
}

// tokenPayload is the JSON shape the key may be stored in.
type tokenPayload struct {
	Token string `json:"token"`
}

func NewParamStore(getter Getter, paramPrefix string) (*ParamStore, error) {
	if getter == nil {
		return nil, errors.New("credential: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("credential: parameter prefix must not be empty")
	}
	return &ParamStore{getter: getter, name: paramPrefix + "/open-ai-token"}, nil
}

func (p *ParamStore) APIKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != "" {
		return p.cached, nil
	}

	raw, err := p.getter.GetParameter(ctx, p.name)
	if errors.Is(err, paramstore.ErrNotFound) {
		return "", ErrMissing
	}
	if err != nil {
		return "", fmt.Errorf("credential: fetch %s: %w", p.name, err)
	}
	key, err := parseToken(raw)
	if err != nil {
		return "", err
	}
	p.cached = key
	return key, nil
}

// parseToken accepts either {"token":"..."} or the bare key.
func parseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", fmt.Errorf("credential: unmarshal token payload: %w", err)
		}
		raw = strings.TrimSpace(tp.Token)
	}
	if raw == "" {
		return "", ErrMissing
	}
	return raw, nil
}

// Chain returns the first key any source yields. Sources reporting ErrMissing
// are skipped; any other error stops the chain.
type Chain []Source

func (c Chain) APIKey(ctx context.Context) (string, error) {
	for _, s := range c {
		if s == nil {
			continue
		}
		key, err := s.APIKey(ctx)
		if errors.Is(err, ErrMissing) {
			continue
		}
		if err != nil {
			return "", err
		}
		return key, nil
	}
	return "", ErrMissing
}
