package signer

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerFixture struct {
	manager *Manager
	signer  *Signer
	now     time.Time
}

func newManagerFixture(t *testing.T, mutate func(cfg *Config)) *managerFixture {
	t.Helper()
	f := &managerFixture{
		signer: NewSigner("client-1", "super-secret"),
		now:    time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
	cfg := Config{
		Signer: f.signer,
		Store:  NewMemoryStore(),
		Now:    func() time.Time { return f.now },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	f.manager = m
	return f
}

// decodeQuery rebuilds the payload a receiving service would verify: the
// decoded parameters minus the signature itself.
func decodeQuery(t *testing.T, query string) (map[string]any, string) {
	t.Helper()
	vals, err := url.ParseQuery(query)
	require.NoError(t, err)
	sig := vals.Get(DefaultSignatureParam)
	payload := make(map[string]any, len(vals))
	for k := range vals {
		if k == DefaultSignatureParam {
			continue
		}
		payload[k] = vals.Get(k)
	}
	return payload, sig
}

func TestManager_IssueAndVerify(t *testing.T) {
	f := newManagerFixture(t, nil)
	ctx := context.Background()

	token, query, err := f.manager.Issue(ctx, map[string]any{
		"page":         "https://wepay.com/account/12345",
		"redirect_uri": "https://partnersite.com/home",
	}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "client-1", token.ClientID)
	assert.Equal(t, f.now.Add(time.Minute), token.ExpiresAt)

	payload, sig := decodeQuery(t, query)
	assert.Equal(t, token.ID.String(), payload["token"])

	verified, err := f.manager.Verify(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, token.ID, verified.ID)
	assert.True(t, verified.Used)

	_, err = f.manager.Verify(ctx, payload, sig)
	assert.ErrorIs(t, err, ErrUsed)
}

func TestManager_VerifyExpired(t *testing.T) {
	f := newManagerFixture(t, nil)
	ctx := context.Background()

	_, query, err := f.manager.Issue(ctx, map[string]any{"page": "p"}, time.Minute)
	require.NoError(t, err)
	payload, sig := decodeQuery(t, query)

	f.now = f.now.Add(2 * time.Minute)
	_, err = f.manager.Verify(ctx, payload, sig)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestManager_VerifyRejectsBadInput(t *testing.T) {
	f := newManagerFixture(t, nil)
	ctx := context.Background()

	_, query, err := f.manager.Issue(ctx, map[string]any{"page": "p"}, time.Minute)
	require.NoError(t, err)
	payload, sig := decodeQuery(t, query)

	t.Run("tampered payload", func(t *testing.T) {
		tampered := map[string]any{}
		for k, v := range payload {
			tampered[k] = v
		}
		tampered["page"] = "q"
		_, err := f.manager.Verify(ctx, tampered, sig)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("garbage signature", func(t *testing.T) {
		_, err := f.manager.Verify(ctx, payload, "deadbeef")
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("missing token key", func(t *testing.T) {
		p := map[string]any{"page": "p"}
		validSig, err := f.signer.Sign(p)
		require.NoError(t, err)
		_, err = f.manager.Verify(ctx, p, validSig)
		assert.ErrorIs(t, err, ErrBadPayload)
	})

	t.Run("unknown token id", func(t *testing.T) {
		p := map[string]any{"page": "p", "token": uuid.NewString()}
		validSig, err := f.signer.Sign(p)
		require.NoError(t, err)
		_, err = f.manager.Verify(ctx, p, validSig)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestManager_IssueValidation(t *testing.T) {
	f := newManagerFixture(t, nil)

	_, _, err := f.manager.Issue(context.Background(), map[string]any{"page": "p"}, 0)
	assert.Error(t, err)
}

func TestManager_TTLClamping(t *testing.T) {
	f := newManagerFixture(t, func(cfg *Config) {
		cfg.MinTTL = time.Minute
		cfg.MaxTTL = time.Hour
	})
	ctx := context.Background()

	short, _, err := f.manager.Issue(ctx, map[string]any{"page": "p"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(time.Minute), short.ExpiresAt)

	long, _, err := f.manager.Issue(ctx, map[string]any{"page": "p"}, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(time.Hour), long.ExpiresAt)
}

func TestManager_RateLimit(t *testing.T) {
	f := newManagerFixture(t, func(cfg *Config) {
		cfg.RateLimiter = NewMemoryRateLimiter()
		cfg.RateLimit = 2
		cfg.RateWindow = time.Minute
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := f.manager.Issue(ctx, map[string]any{"page": "p"}, time.Minute)
		require.NoError(t, err)
	}
	_, _, err := f.manager.Issue(ctx, map[string]any{"page": "p"}, time.Minute)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestNewManager_RequiresSignerAndStore(t *testing.T) {
	_, err := NewManager(Config{Store: NewMemoryStore()})
	assert.Error(t, err)
	_, err = NewManager(Config{Signer: NewSigner("id", "secret")})
	assert.Error(t, err)
}
