package normalize

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/nibras/internal/domain"
)

// Text lowercases, trims, and normalises line endings. Search terms and
// searchable fields both pass through it so matching is case-insensitive.
func Text(s string) string {
	p := strings.ToLower(s)
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return p
}

// Record joins the content-bearing fields of a record after normalising
// each one. Fields are separated by newlines so adjacent fields never fuse
// into a single word.
func Record(r domain.Record) string {
	parts := []string{
		strconv.Itoa(r.ID),
		Text(r.Title),
		Text(r.Body),
		Text(r.Narrator.Name),
		Text(r.Source.Label),
		Text(r.Category),
		Text(strings.Join(r.Topics, " ")),
	}
	return strings.Join(parts, "\n")
}

// Hash returns the SHA-256 of a normalised record as a hex string.
func Hash(r domain.Record) string {
	sum := sha256.Sum256([]byte(Record(r)))
	return fmt.Sprintf("%x", sum)
}

// Fingerprint hashes a whole corpus in order. Two loads of the same document
// produce the same fingerprint.
func Fingerprint(records []domain.Record) string {
	h := sha256.New()
	for _, r := range records {
		h.Write([]byte(Hash(r)))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
