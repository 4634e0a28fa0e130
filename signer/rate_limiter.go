package signer

import (
	"context"
	"time"
)

type RateLimiter interface {
	CheckAndIncrement(ctx context.Context, clientID string, limit int, window time.Duration) error
}
