package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/roadboard/pkg/crypto"
)

var (
	ErrStateExpired = errors.New("login state: expired")
	ErrStateInvalid = errors.New("login state: invalid")
)

// DefaultStateTTL bounds how long a login round trip may take.
const DefaultStateTTL = 10 * time.Minute

// StateCodec seals the login state carried through the provider redirect.
type StateCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// StatePayload is what the callback needs to finish a login.
type StatePayload struct {
	Provider  string    `json:"p"`
	ReturnURL string    `json:"r"`
	Nonce     string    `json:"n"`
	PKCE      string    `json:"k"`
	Ref       string    `json:"ref,omitempty"`
	IssuedAt  time.Time `json:"iat"`
}

// NewStateCodec constructs a StateCodec with an AES key of 16, 24 or 32 bytes.
func NewStateCodec(key []byte, ttl time.Duration, now func() time.Time) (*StateCodec, error) {
	length := len(key)
	if length != 16 && length != 24 && length != 32 {
		return nil, fmt.Errorf("login state: key must be 16, 24, or 32 bytes, got %d", length)
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if now == nil {
		now = time.Now
	}
	return &StateCodec{key: key, ttl: ttl, now: now}, nil
}

// TTL reports how long an encoded state stays valid.
func (c *StateCodec) TTL() time.Duration { return c.ttl }

// Encode encrypts payload into an opaque, URL safe string.
func (c *StateCodec) Encode(payload StatePayload) (string, error) {
	payload.Provider = strings.ToLower(strings.TrimSpace(payload.Provider))
	if payload.Provider == "" {
		return "", errors.New("login state: provider is required")
	}
	payload.IssuedAt = c.now().UTC()

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("login state: marshal payload: %w", err)
	}
	encoded, err := crypto.Encrypt(raw, c.key)
	if err != nil {
		return "", fmt.Errorf("login state: encrypt payload: %w", err)
	}
	return encoded, nil
}

// Decode reverses Encode and enforces expiry.
func (c *StateCodec) Decode(token string) (StatePayload, error) {
	var payload StatePayload
	if strings.TrimSpace(token) == "" {
		return payload, ErrStateInvalid
	}

	raw, err := crypto.Decrypt(token, c.key)
	if err != nil {
		return payload, ErrStateInvalid
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, ErrStateInvalid
	}
	if payload.Provider == "" || payload.IssuedAt.IsZero() {
		return payload, ErrStateInvalid
	}
	if c.now().UTC().After(payload.IssuedAt.Add(c.ttl)) {
		return payload, ErrStateExpired
	}
	return payload, nil
}
