package signer

import (
	"crypto/sha256"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hex128 = regexp.MustCompile(`^[0-9a-f]{128}$`)

func testPayload() map[string]any {
	return map[string]any{
		"token":        "acb1b5b8-5d6b-4c8d-a393-dbd8a9ab4c",
		"page":         "https://wepay.com/account/12345",
		"redirect_uri": "https://partnersite.com/home",
	}
}

func TestSign_DeterministicFixedLengthHex(t *testing.T) {
	s := NewSigner("your_client_id", "your_client_secret")

	first, err := s.Sign(testPayload())
	require.NoError(t, err)
	assert.Len(t, first, SignatureHexLen)
	assert.Regexp(t, hex128, first)

	for i := 0; i < 10; i++ {
		again, err := s.Sign(testPayload())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSign_StructuralSensitivity(t *testing.T) {
	s := NewSigner("your_client_id", "your_client_secret")
	base, err := s.Sign(testPayload())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(p map[string]any)
	}{
		{"leaf value changed", func(p map[string]any) { p["page"] = "https://wepay.com/account/99999" }},
		{"key renamed", func(p map[string]any) { p["pagee"] = p["page"]; delete(p, "page") }},
		{"nesting depth changed", func(p map[string]any) { p["page"] = map[string]any{"page": p["page"]} }},
		{"key removed", func(p map[string]any) { delete(p, "redirect_uri") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testPayload()
			tc.mutate(p)
			sig, err := s.Sign(p)
			require.NoError(t, err)
			assert.NotEqual(t, base, sig)
		})
	}
}

func TestSign_IdentityBinding(t *testing.T) {
	payload := testPayload()

	a, err := NewSignerWithOptions("id", "secret", Options{SelfKey: "A"}).Sign(payload)
	require.NoError(t, err)
	b, err := NewSignerWithOptions("id", "secret", Options{SelfKey: "B"}).Sign(payload)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "same secret must sign differently for different signing parties")

	other, err := NewSignerWithOptions("other-id", "secret", Options{SelfKey: "A"}).Sign(payload)
	require.NoError(t, err)
	assert.NotEqual(t, a, other, "client id is part of the signed data")
}

func TestSign_EmptyPayloadAndEmptySecret(t *testing.T) {
	s := NewSigner("your_client_id", "your_client_secret")

	empty, err := s.Sign(map[string]any{})
	require.NoError(t, err)
	assert.Regexp(t, hex128, empty)

	nonEmpty, err := s.Sign(testPayload())
	require.NoError(t, err)
	assert.NotEqual(t, empty, nonEmpty)

	weak, err := NewSigner("", "").Sign(map[string]any{})
	require.NoError(t, err)
	assert.Regexp(t, hex128, weak)
}

func TestSign_HashOverride(t *testing.T) {
	s := NewSignerWithOptions("id", "secret", Options{Hash: sha256.New})
	sig, err := s.Sign(testPayload())
	require.NoError(t, err)
	assert.Len(t, sig, 2*sha256.Size)

	def, err := NewSigner("id", "secret").Sign(testPayload())
	require.NoError(t, err)
	assert.NotEqual(t, def, sig)
}

func TestSign_PropagatesUnsupportedType(t *testing.T) {
	s := NewSigner("id", "secret")
	_, err := s.Sign(map[string]any{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestVerify(t *testing.T) {
	s := NewSigner("your_client_id", "your_client_secret")
	payload := testPayload()

	sig, err := s.Sign(payload)
	require.NoError(t, err)

	ok, err := s.Verify(payload, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(payload, "not-a-signature")
	require.NoError(t, err)
	assert.False(t, ok)

	tampered := testPayload()
	tampered["page"] = "https://evil.example/account/12345"
	ok, err = s.Verify(tampered, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}
