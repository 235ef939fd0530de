// Package randx generates the opaque identifiers used across the auth
// backend: human-readable usernames and refresh-token ids share one fixed
// alphabet, recovery and confirmation tokens use hex.
package randx

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// Alphabet is the fixed identifier alphabet: uppercase letters and digits
// with the visually ambiguous I, O, 0 and 1 left out. It has 32 symbols, so
// mapping a random byte with a modulo introduces no bias.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Source produces random identifiers from an explicit entropy reader.
// Production code uses crypto/rand; tests may inject a deterministic reader.
type Source struct {
	r io.Reader
}

// New returns a Source backed by crypto/rand. Refresh-token ids act as
// long-lived bearer secrets, so the CSPRNG is not optional here.
func New() *Source {
	return &Source{r: rand.Reader}
}

// NewFromReader returns a Source that draws entropy from r.
func NewFromReader(r io.Reader) *Source {
	return &Source{r: r}
}

// Token returns a string of exactly length characters drawn independently
// and uniformly from Alphabet.
func (s *Source) Token(length int) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(s.r, b); err != nil {
		return "", err
	}
	for i, c := range b {
		b[i] = Alphabet[int(c)%len(Alphabet)]
	}
	return string(b), nil
}

// Hex returns a random hexadecimal string of 2*size characters.
func (s *Source) Hex(size int) (string, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(s.r, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
