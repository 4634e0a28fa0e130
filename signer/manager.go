package signer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const tokenParam = "token"

// Manager ties a Signer to a one-time token store. Issue mints a token,
// embeds it in the payload and signs the result; Verify checks the
// signature and consumes the token, so a signed query string can only be
// redeemed once before its TTL runs out.
type Manager struct {
	signer         *Signer
	store          Store
	now            func() time.Time
	signatureParam string
	minTTL         time.Duration
	maxTTL         time.Duration
	rateLimiter    RateLimiter
	rateLimit      int
	rateWindow     time.Duration
}

type Config struct {
	Signer         *Signer
	Store          Store
	Now            func() time.Time
	SignatureParam string
	MinTTL         time.Duration
	MaxTTL         time.Duration
	RateLimiter    RateLimiter
	RateLimit      int
	RateWindow     time.Duration
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Manager{
		signer:         cfg.Signer,
		store:          cfg.Store,
		now:            nowFn,
		signatureParam: cfg.SignatureParam,
		minTTL:         cfg.MinTTL,
		maxTTL:         cfg.MaxTTL,
		rateLimiter:    cfg.RateLimiter,
		rateLimit:      cfg.RateLimit,
		rateWindow:     cfg.RateWindow,
	}, nil
}

// Issue mints a one-time token, merges it into payload under "token", and
// returns the stored token record together with the signed query string.
// The caller's payload is never mutated.
func (m *Manager) Issue(ctx context.Context, payload map[string]any, ttl time.Duration) (Token, string, error) {
	if ttl <= 0 {
		return Token{}, "", fmt.Errorf("ttl must be positive")
	}

	if m.rateLimiter != nil && m.rateLimit > 0 {
		if err := m.rateLimiter.CheckAndIncrement(ctx, m.signer.ClientID(), m.rateLimit, m.rateWindow); err != nil {
			return Token{}, "", err
		}
	}

	if m.maxTTL > 0 && ttl > m.maxTTL {
		ttl = m.maxTTL
	}
	if m.minTTL > 0 && ttl < m.minTTL {
		ttl = m.minTTL
	}

	id := uuid.New()
	token := Token{
		ID:        id,
		ClientID:  m.signer.ClientID(),
		ExpiresAt: m.now().Add(ttl),
		Used:      false,
	}

	merged := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	merged[tokenParam] = id.String()

	query, err := m.signer.QueryParams(merged, m.signatureParam)
	if err != nil {
		return Token{}, "", err
	}

	if err := m.store.Save(ctx, token, ttl); err != nil {
		return Token{}, "", err
	}
	return token, query, nil
}

// Verify checks signature against payload and consumes the embedded
// one-time token. The payload must be the decoded original data including
// the "token" key, never the encoded query string.
func (m *Manager) Verify(ctx context.Context, payload map[string]any, signature string) (*Token, error) {
	ok, err := m.signer.Verify(payload, signature)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBadSignature
	}

	raw, _ := payload[tokenParam].(string)
	if raw == "" {
		return nil, ErrBadPayload
	}
	tokenID, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrBadPayload
	}

	token, err := m.store.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if token.ExpiresAt.Before(m.now()) {
		return nil, ErrExpired
	}
	if token.Used {
		return nil, ErrUsed
	}

	if err := m.store.MarkUsed(ctx, tokenID); err != nil {
		return nil, err
	}
	token.Used = true
	return token, nil
}
