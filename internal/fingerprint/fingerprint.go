package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
)

// Normalize concatenates a question's identifying content after cleaning
// each part. It trims whitespace, lowercases, and normalizes line endings
// so cosmetic edits in a bank file do not change the identity.
func Normalize(q domain.Question) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	parts := []string{
		normalizePart(q.ExamType),
		normalizePart(q.Text),
	}
	for _, opt := range q.Options {
		parts = append(parts, normalizePart(opt))
	}
	parts = append(parts, normalizePart(q.CorrectAnswer))

	// Joined with newlines so adjacent fields cannot run together and
	// collide with a differently-split question.
	return strings.Join(parts, "\n")
}

// Hash normalizes a question and returns its SHA-256 hash as a hex string.
func Hash(q domain.Question) string {
	normalized := Normalize(q)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
