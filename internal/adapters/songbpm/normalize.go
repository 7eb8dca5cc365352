package songbpm

import (
	"strings"
	"unicode"
)

// Tokens that describe a release rather than the song, dropped before
// lookup so remaster/remix noise doesn't derail the search.
var noiseTokens = map[string]struct{}{
	"clean":      {},
	"deluxe":     {},
	"edit":       {},
	"edition":    {},
	"explicit":   {},
	"extended":   {},
	"feat":       {},
	"featuring":  {},
	"ft":         {},
	"mix":        {},
	"original":   {},
	"radio":      {},
	"remaster":   {},
	"remastered": {},
	"version":    {},
}

// cleanLookupTerms prepares title and artist for the lookup query: first
// artist only when several are listed, bracketed segments stripped,
// separators collapsed, noise tokens dropped.
func cleanLookupTerms(title, artist string) (string, string) {
	if i := strings.IndexAny(artist, ",;"); i >= 0 {
		artist = artist[:i]
	}
	return normalizeTerm(title), normalizeTerm(artist)
}

func normalizeTerm(input string) string {
	if input == "" {
		return ""
	}

	lower := strings.ToLower(input)
	filtered := stripBracketedSegments(lower)
	tokens := strings.Fields(cleanSeparators(filtered))

	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := noiseTokens[token]; drop {
			continue
		}
		cleaned = append(cleaned, token)
	}
	return strings.Join(cleaned, " ")
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}
	return out.String()
}
