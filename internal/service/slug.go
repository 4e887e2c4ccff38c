package service

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"
)

const maxSlugLen = 80

// slugify lowercases s and joins its alphanumeric runs with hyphens.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "item"
	}
	return slug
}

// withSuffix appends a short random hex suffix, used after a slug collision.
func withSuffix(slug string) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return slug + "-" + hex.EncodeToString(buf)
}
