package csrf

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/blake2b"
)

const HeaderName = "X-CSRF-Token"

var (
	ErrMissingSecret = errors.New("csrf secret must be at least 32 bytes")
	ErrMissingToken  = errors.New("missing csrf token")
	ErrInvalidToken  = errors.New("invalid csrf token")
)

// Tokens issues and checks header tokens bound to a session identifier.
type Tokens struct {
	key []byte
}

func New(secret string) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, ErrMissingSecret
	}
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Tokens{key: key}, nil
}

// Issue returns the token for session.
func (t *Tokens) Issue(session string) string {
	return base64.RawURLEncoding.EncodeToString(t.mac(session))
}

// Verify checks token against session in constant time.
func (t *Tokens) Verify(session, token string) error {
	if token == "" {
		return ErrMissingToken
	}
	got, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare(got, t.mac(session)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

func (t *Tokens) mac(session string) []byte {
	h, err := blake2b.New256(t.key)
	if err != nil {
		// key length is checked in New
		panic(err)
	}
	h.Write([]byte("csrf:"))
	h.Write([]byte(session))
	return h.Sum(nil)
}
