package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/charlesng35/roadboard/pkg/crypto"
)

// PKCEPair is an RFC 7636 verifier with its S256 challenge.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE produces a random verifier and its S256 challenge.
func GeneratePKCE() (PKCEPair, error) {
	verifier, err := crypto.GenerateToken(64)
	if err != nil {
		return PKCEPair{}, fmt.Errorf("pkce: generate verifier: %w", err)
	}
	return PKCEPair{Verifier: verifier, Challenge: challengeFor(verifier)}, nil
}

// VerifyPKCE reports whether verifier hashes to challenge.
func VerifyPKCE(verifier, challenge string) bool {
	return subtle.ConstantTimeCompare([]byte(challengeFor(verifier)), []byte(challenge)) == 1
}

func challengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
