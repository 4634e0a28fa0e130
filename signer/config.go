package signer

import (
	"hash"
	"time"

	"github.com/redis/go-redis/v9"
)

type ManagerOptions struct {
	ClientID       string
	ClientSecret   string
	SelfKey        string
	Hash           func() hash.Hash
	SignatureParam string
	RedisAddr      string
	RedisKeyPrefix string
	MinTTL         time.Duration
	MaxTTL         time.Duration
	RateLimit      int
	RateWindow     time.Duration
}

// NewManagerWithOptions wires up a Manager from flat options: an in-memory
// store by default, Redis-backed store and rate limiter when RedisAddr is
// set.
func NewManagerWithOptions(opts ManagerOptions) (*Manager, error) {
	var store Store
	var rateLimiter RateLimiter

	if opts.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})
		keyPrefix := opts.RedisKeyPrefix
		if keyPrefix == "" {
			keyPrefix = "sign-token:"
		}
		store = NewRedisStore(client, keyPrefix)
		if opts.RateLimit > 0 {
			rateLimiter = NewRedisRateLimiter(client, "sign-rate:")
		}
	} else {
		store = NewMemoryStore()
		if opts.RateLimit > 0 {
			rateLimiter = NewMemoryRateLimiter()
		}
	}

	rateWindow := opts.RateWindow
	if rateWindow == 0 && opts.RateLimit > 0 {
		rateWindow = 1 * time.Hour
	}

	cfg := Config{
		Signer: NewSignerWithOptions(opts.ClientID, opts.ClientSecret, Options{
			SelfKey: opts.SelfKey,
			Hash:    opts.Hash,
		}),
		Store:          store,
		SignatureParam: opts.SignatureParam,
		MinTTL:         opts.MinTTL,
		MaxTTL:         opts.MaxTTL,
		RateLimiter:    rateLimiter,
		RateLimit:      opts.RateLimit,
		RateWindow:     rateWindow,
	}
	return NewManager(cfg)
}
