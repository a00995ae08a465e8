package services

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy    = bluemonday.StrictPolicy()
	mentionPattern = regexp.MustCompile(`(^|[^A-Za-z0-9_])@([A-Za-z0-9_]{3,50})\b`)
)

// plainText removes any markup and surrounding whitespace. Entities that the
// sanitizer escapes are turned back into text. Only derived text such as
// notification excerpts goes through it; stored text is kept as written.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// excerpt shortens the plain text of s to at most limit runes, breaking on a
// word when the last space falls in the second half.
func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(plainText(s)), " ")
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)[:limit]
	cut := limit
	for i := limit - 1; i > limit/2; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimRight(string(runes[:cut]), " ,.;:") + "…"
}

// mentions returns the distinct @usernames in text, in order of appearance,
// capped at max.
func mentions(text string, max int) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		name := m[2]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		if max > 0 && len(names) == max {
			break
		}
	}
	return names
}
