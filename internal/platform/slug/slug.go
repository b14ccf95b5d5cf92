package slug

import (
	"strings"
	"unicode"
)

const maxLen = 64

// Make lowercases input and collapses every run of characters that are not
// letters or digits into a single dash. Non-latin titles keep their letters.
func Make(input string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	runes := []rune(s)
	if len(runes) > maxLen {
		s = strings.TrimRight(string(runes[:maxLen]), "-")
	}
	return s
}
