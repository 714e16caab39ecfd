package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Slugify lowercases s and replaces every run of non-alphanumeric characters with a single
// underscore. The result is at most maxLen runes; maxLen <= 0 means unlimited.
func Slugify(s string, maxLen int) string {
	var b strings.Builder
	pendingSep := false
	n := 0
	for _, r := range strings.ToLower(s) {
		if maxLen > 0 && n >= maxLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
				n++
				if maxLen > 0 && n >= maxLen {
					break
				}
			}
			pendingSep = false
			b.WriteRune(r)
			n++
			continue
		}
		pendingSep = true
	}
	return strings.TrimRight(b.String(), "_")
}

// ContentTag derives a stable tag from the given parts.
func ContentTag(prefix string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return prefix + "-" + hex.EncodeToString(h.Sum(nil))[:12]
}
