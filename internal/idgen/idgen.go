// Package idgen generates and recognizes the random identifiers handed out
// for checks and outcomes.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Identifier prefixes.
const (
	CheckPrefix   = "chk_"
	OutcomePrefix = "out_"
)

// randomBytes is the entropy behind every id: 12 bytes, 24 hex chars.
const randomBytes = 12

// WithPrefix returns prefix followed by 24 random hex chars.
func WithPrefix(prefix string) string {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

// Check returns a new check id.
func Check() string { return WithPrefix(CheckPrefix) }

// Outcome returns a new outcome id.
func Outcome() string { return WithPrefix(OutcomePrefix) }

// Valid reports whether id could have been produced by WithPrefix(prefix).
func Valid(prefix, id string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || len(rest) != 2*randomBytes {
		return false
	}
	for _, c := range rest {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
