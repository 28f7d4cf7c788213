package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type SlugOptions struct {
	// Upper keeps the original casing; the zero value lowercases.
	Upper     bool
	MaxLength int
	Fallback  string
}

const slugFallback = "item"

// Slugify derives a URL-safe identifier from s: diacritics are stripped,
// runs of non-alphanumeric runes collapse to a single hyphen, and the
// result is trimmed, optionally truncated, and never empty. Deterministic
// and idempotent.
func Slugify(s string, opts SlugOptions) string {
	fallback := opts.Fallback
	if fallback == "" {
		fallback = slugFallback
	}

	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	lastHyphen := true // swallow leading separators
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining mark left over from decomposition
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !opts.Upper {
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")

	if opts.MaxLength > 0 {
		if runes := []rune(slug); len(runes) > opts.MaxLength {
			slug = strings.TrimRight(string(runes[:opts.MaxLength]), "-")
		}
	}

	if slug == "" {
		return fallback
	}
	return slug
}
