package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateSessionID creates a human-readable id for one logger lifetime.
// Format: {product}-{8charHexUUID}
//
// Example:
//   - Input: product="Dev Console"
//   - Output: "dev-console-a3f8e2b1"
//
// The id travels in the startup marker so ops tooling can tell restarts apart
// in the unified stream.
func GenerateSessionID(product string) string {
	slug := slugify(product)
	if slug == "" {
		return generateShortUUID()
	}
	return slug + "-" + generateShortUUID()
}

// slugify lowercases s and collapses every run of non-alphanumerics into one hyphen.
//   - "Dev Console" -> "dev-console"
//   - "  logrelay!! " -> "logrelay"
func slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// generateShortUUID creates an 8-character hex string from a UUID.
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
