package auth

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Pseudonymizer maps voter emails to stable opaque handles, so public
// vote lists can show that two votes came from the same person without
// showing who.
type Pseudonymizer struct {
	key []byte
}

// NewPseudonymizer keys the hash with secret. blake2b accepts keys of up
// to 64 bytes; longer secrets are hashed down first.
func NewPseudonymizer(secret string) *Pseudonymizer {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	return &Pseudonymizer{key: key}
}

// Pseudonym returns a 16 hex character handle for email. Emails are
// compared case-insensitively.
func (p *Pseudonymizer) Pseudonym(email string) string {
	h, err := blake2b.New(8, p.key)
	if err != nil {
		// only possible with an oversized key, which NewPseudonymizer rules out
		panic(err)
	}
	h.Write([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(h.Sum(nil))
}
