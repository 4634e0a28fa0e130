package signer

import (
	"context"
	"sync"
	"time"
)

type MemoryRateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*clientLimit
}

type clientLimit struct {
	count     int
	windowEnd time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		clients: make(map[string]*clientLimit),
	}
}

func (r *MemoryRateLimiter) CheckAndIncrement(_ context.Context, clientID string, limit int, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cl, exists := r.clients[clientID]

	if !exists || now.After(cl.windowEnd) {
		r.clients[clientID] = &clientLimit{
			count:     1,
			windowEnd: now.Add(window),
		}
		return nil
	}

	if cl.count >= limit {
		return ErrRateLimitExceeded
	}

	cl.count++
	return nil
}
