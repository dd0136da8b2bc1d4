package qcontext

import (
	"crypto/sha256"
	"encoding/binary"
	"slices"
	"strings"
)

// Fingerprint identifies a normalized (query, language) pair.
type Fingerprint uint64

// NormalizeQuery lowercases a query, treats '+' as a space and sorts its
// tokens, so "Go+Tutorial" and "tutorial go" share one context.
func NormalizeQuery(query string) string {
	q := strings.ToLower(strings.ReplaceAll(query, "+", " "))
	tokens := strings.Fields(q)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

// FingerprintOf hashes the normalized query together with the language.
func FingerprintOf(query, lang string) Fingerprint {
	h := sha256.New()
	h.Write([]byte(NormalizeQuery(query)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(lang))))
	sum := h.Sum(nil)
	return Fingerprint(binary.BigEndian.Uint64(sum[:8]))
}
