// Package refcode generates the short, customer-facing order references
// ("BK-7XK2M9QD") that are quoted on receipts and in order lookups.
package refcode

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	prefix = "BK-"
	length = 8
	// Crockford base32: no I, L, O or U.
	alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// Generator produces reference codes from a random source.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading from r; nil means crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// New returns a fresh reference code. Uniqueness is enforced by the database;
// callers regenerate on collision.
func (g *Generator) New() (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	var sb strings.Builder
	sb.Grow(len(prefix) + length)
	sb.WriteString(prefix)
	for _, b := range buf {
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String(), nil
}

// New generates a code using crypto/rand.
func New() (string, error) {
	return NewGenerator(nil).New()
}

// Normalize turns user-typed input into the canonical stored form.
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	body := s
	switch {
	case strings.HasPrefix(s, prefix):
		body = s[len(prefix):]
	case strings.HasPrefix(s, "BK") && len(s) == len("BK")+length:
		body = s[len("BK"):]
	}
	body = strings.NewReplacer("O", "0", "I", "1", "L", "1", "-", "").Replace(body)
	return prefix + body
}

// Valid reports whether s is a well-formed, normalized code.
func Valid(s string) bool {
	if !strings.HasPrefix(s, prefix) || len(s) != len(prefix)+length {
		return false
	}
	for _, r := range s[len(prefix):] {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
