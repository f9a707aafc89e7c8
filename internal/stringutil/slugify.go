// Package stringutil holds small text helpers shared by the exporters.
package stringutil

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and joins its runs of letters and digits with single
// hyphens. Non-Latin letters, such as Arabic group names, are kept.
func Slugify(s string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteByte('-')
		}
		gap = false
		b.WriteRune(r)
	}
	return b.String()
}
