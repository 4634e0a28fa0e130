package signer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Token is a one-time authorization issued by a Manager. Its ID travels
// inside the signed payload under the "token" key; the stored record tracks
// expiry and single use.
type Token struct {
	ID        uuid.UUID `json:"id"`
	ClientID  string    `json:"client_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

var (
	ErrNotFound          = errors.New("token not found")
	ErrExpired           = errors.New("token expired")
	ErrUsed              = errors.New("token already used")
	ErrBadSignature      = errors.New("signature mismatch")
	ErrBadPayload        = errors.New("invalid payload")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrUnsupportedType   = errors.New("unsupported payload type")
)
