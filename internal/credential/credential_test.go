package credential

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"faq-assistant/internal/integrations/paramstore"
)

type fakeGetter struct {
	val   string
	err   error
	calls int
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	return f.val, f.err
}

func TestStatic(t *testing.T) {
	key, err := Static(" sk-env ").APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-env", key)

	_, err = Static("").APIKey(context.Background())
	require.ErrorIs(t, err, ErrMissing)
}

func TestNewParamStore_Validates(t *testing.T) {
	_, err := NewParamStore(nil, "/faq")
	require.Error(t, err)

	_, err = NewParamStore(&fakeGetter{}, " / ")
	require.Error(t, err)

	p, err := NewParamStore(&fakeGetter{}, "/faq/")
	require.NoError(t, err)
	require.Equal(t, "/faq/open-ai-token", p.name)
}

func TestParamStore_CachesSuccess(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk-from-ssm"}`}
	p, err := NewParamStore(g, "/faq")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		key, err := p.APIKey(context.Background())
		require.NoError(t, err)
		require.Equal(t, "sk-from-ssm", key)
	}
	require.Equal(t, 1, g.calls)
}

func TestParamStore_RetriesAfterFailure(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	p, err := NewParamStore(g, "/faq")
	require.NoError(t, err)

	_, err = p.APIKey(context.Background())
	require.ErrorContains(t, err, "ssm unavailable")

	g.err = nil
	g.val = "sk-raw"
	key, err := p.APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-raw", key)
	require.Equal(t, 2, g.calls)
}

func TestParseToken(t *testing.T) {
	key, err := parseToken(`{"token":"sk-json"}`)
	require.NoError(t, err)
	require.Equal(t, "sk-json", key)

	key, err = parseToken(" sk-raw\n")
	require.NoError(t, err)
	require.Equal(t, "sk-raw", key)

	_, err = parseToken(`{"other":"value"}`)
	require.ErrorIs(t, err, ErrMissing)

	_, err = parseToken(`{"broken`)
	require.ErrorContains(t, err, "unmarshal")
}

func TestChain(t *testing.T) {
	key, err := Chain{Static(""), Static("sk-second")}.APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-second", key)

	_, err = Chain{Static(""), nil}.APIKey(context.Background())
	require.ErrorIs(t, err, ErrMissing)

	g := &fakeGetter{err: errors.New("denied")}
	p, err := NewParamStore(g, "/faq")
	require.NoError(t, err)
	_, err = Chain{Static(""), p, Static("never")}.APIKey(context.Background())
	require.ErrorContains(t, err, "denied")
}

func TestParamStore_NotFoundIsMissing(t *testing.T) {
	g := &fakeGetter{err: fmt.Errorf("%w: %q", paramstore.ErrNotFound, "/faq/open-ai-token")}
	p, err := NewParamStore(g, "/faq")
	require.NoError(t, err)

	_, err = p.APIKey(context.Background())
	require.ErrorIs(t, err, ErrMissing)

	_, err = Chain{Static(""), p}.APIKey(context.Background())
	require.ErrorIs(t, err, ErrMissing)
}
