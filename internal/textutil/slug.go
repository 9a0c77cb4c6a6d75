// Package textutil provides text helpers for filesystem-safe naming.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultSlugLength caps slug output so derived filenames stay portable.
const DefaultSlugLength = 80

// Slug converts value into a lowercase, hyphen-separated path segment.
// Unicode letters and digits survive (after NFKC normalization), whitespace
// and separator runs collapse to a single hyphen, everything else is dropped.
// An empty result falls back to the provided fallback.
func Slug(value, fallback string) string {
	return SlugN(value, fallback, DefaultSlugLength)
}

// SlugN is Slug with an explicit maximum length in runes.
func SlugN(value, fallback string, maxLen int) string {
	normalized := norm.NFKC.String(strings.TrimSpace(value))

	var out []rune
	prevHyphen := false
	for _, r := range normalized {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			out = append(out, unicode.ToLower(r))
			prevHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if len(out) > 0 && !prevHyphen {
				out = append(out, '-')
				prevHyphen = true
			}
		}
		if maxLen > 0 && len(out) >= maxLen {
			break
		}
	}

	slug := strings.Trim(string(out), "-")
	if slug == "" {
		return fallback
	}
	return slug
}

// CollapseRepeatedLines removes excessive consecutive repetitions of the same
// line, keeping at most maxRepeats occurrences. Speech-to-text output can loop
// on silence or noise, repeating one phrase hundreds of times.
func CollapseRepeatedLines(text string, maxRepeats int) string {
	if text == "" {
		return text
	}
	if maxRepeats < 1 {
		maxRepeats = 1
	}

	lines := strings.Split(text, "\n")
	var cleaned []string
	for i := 0; i < len(lines); {
		stripped := strings.TrimSpace(lines[i])
		if stripped == "" {
			cleaned = append(cleaned, lines[i])
			i++
			continue
		}

		// Count consecutive repeats, ignoring blank lines between them.
		run := 1
		j := i + 1
		for j < len(lines) {
			next := strings.TrimSpace(lines[j])
			if next == stripped {
				run++
				j++
			} else if next == "" {
				j++
			} else {
				break
			}
		}

		if run > maxRepeats {
			keep := maxRepeats
			if keep > 2 {
				keep = 2
			}
			for range keep {
				cleaned = append(cleaned, stripped)
			}
		} else {
			cleaned = append(cleaned, lines[i:j]...)
		}
		i = j
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
