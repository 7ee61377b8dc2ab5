package export

import (
	"strings"
	"unicode"
)

// maxSlugBytes bounds filename fragments; generous titles get truncated on a
// rune boundary so multi-byte characters never split.
const maxSlugBytes = 80

const fallbackTitle = "Untitled"

// Sanitize maps an arbitrary title to a filesystem-safe fragment: letters,
// digits, '.', '-' and '_' pass through, whitespace runs collapse to a single
// underscore, everything else is dropped. Works for any filesystem a user is
// likely to export onto (NTFS being the strictest of the common ones).
func Sanitize(title string) string {
	var b strings.Builder
	sep := false
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			b.WriteRune(r)
			sep = false
		case unicode.IsSpace(r) || r == '_':
			if !sep && b.Len() > 0 {
				b.WriteByte('_')
				sep = true
			}
		}
	}

	slug := strings.Trim(b.String(), "._")
	slug = truncateRunes(slug, maxSlugBytes)
	slug = strings.Trim(slug, "._")
	if slug == "" {
		return fallbackTitle
	}
	return slug
}

func truncateRunes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	end := 0
	for i := range s {
		if i > maxBytes {
			break
		}
		end = i
	}
	return s[:end]
}
