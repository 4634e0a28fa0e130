package signer

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"hash"
)

const (
	// DefaultSelfKey identifies the signing party and salts the signing key
	// so the same client credentials yield different signatures for
	// different signing parties. Protocol constant.
	DefaultSelfKey = "WePay"

	// DefaultSignatureParam is the query parameter the signature is emitted
	// under when the caller does not pick a name.
	DefaultSignatureParam = "stoken"

	// SignatureHexLen is the length of a signature produced with the default
	// SHA-512 digest. Protocol constant: independent implementations must
	// agree on the digest width to interoperate.
	SignatureHexLen = 2 * sha512.Size

	clientIDParam     = "client_id"
	clientSecretParam = "client_secret"
)

// Signer signs payloads on behalf of a client keypair. The client party
// holds a public identifier (client id) and a matching secret; the signing
// party contributes its own short identifier (self key) as extra entropy in
// the key derivation. A Signer is immutable and safe for concurrent use.
type Signer struct {
	clientID     string
	clientSecret []byte
	selfKey      string
	hash         func() hash.Hash
}

// Options tunes a Signer beyond the client keypair. Zero values select the
// protocol defaults.
type Options struct {
	// SelfKey overrides DefaultSelfKey.
	SelfKey string
	// Hash overrides the digest. The default, sha512.New, produces
	// 128-hex-character signatures; overriding it changes the output length
	// and breaks interoperability with peers using the default.
	Hash func() hash.Hash
}

// NewSigner constructs a Signer with the protocol defaults.
//
// Empty credentials are not rejected: they still produce well-defined (if
// weak) signatures. Minimum-entropy policy belongs to whoever provisions
// the secret.
func NewSigner(clientID, clientSecret string) *Signer {
	return NewSignerWithOptions(clientID, clientSecret, Options{})
}

// NewSignerWithOptions constructs a Signer with explicit options.
func NewSignerWithOptions(clientID, clientSecret string, opts Options) *Signer {
	selfKey := opts.SelfKey
	if selfKey == "" {
		selfKey = DefaultSelfKey
	}
	hashFn := opts.Hash
	if hashFn == nil {
		hashFn = sha512.New
	}
	return &Signer{
		clientID:     clientID,
		clientSecret: []byte(clientSecret),
		selfKey:      selfKey,
		hash:         hashFn,
	}
}

// ClientID returns the public half of the client keypair.
func (s *Signer) ClientID() string {
	return s.clientID
}

// Sign produces the lowercase hex signature for payload. The client id and
// client secret are merged into the canonicalized data, binding the
// signature to the client identity; the keyed hash then runs in two stages:
//
//	signingKey = HMAC(clientSecret, selfKey)
//	signature  = hex(HMAC(signingKey, canonicalString))
//
// Sign is deterministic: the same identity and payload always produce the
// same signature. The only possible failure is ErrUnsupportedType from
// canonicalization.
func (s *Signer) Sign(payload map[string]any) (string, error) {
	merged := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		merged[k] = v
	}
	merged[clientIDParam] = s.clientID
	merged[clientSecretParam] = string(s.clientSecret)

	canonical, err := Canonicalize(merged)
	if err != nil {
		return "", err
	}

	signingKey := s.hmacSum(s.clientSecret, []byte(s.selfKey))
	return hex.EncodeToString(s.hmacSum(signingKey, []byte(canonical))), nil
}

// Verify reports whether signature matches payload. The comparison is
// constant-time; never substitute a short-circuiting string equality here.
func (s *Signer) Verify(payload map[string]any, signature string) (bool, error) {
	expected, err := s.Sign(payload)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

func (s *Signer) hmacSum(key, message []byte) []byte {
	mac := hmac.New(s.hash, key)
	mac.Write(message)
	return mac.Sum(nil)
}
