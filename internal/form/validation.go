// Package form holds the blog post form rules: slug and locale checks,
// length caps, and an Editor that keeps translation rows sanitized and
// builds the create/update payload.
package form

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field limits.
const (
	MaxSlugLen    = 255
	MaxLocaleLen  = 10
	MaxTitleLen   = 200
	MaxContentLen = 100_000
)

var (
	slugRe   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	localeRe = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2,4})?$`)

	slugDrop   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// stripMarks removes combining marks after canonical decomposition, so "è" becomes "e".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func clamp(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Slugify turns a title into a URL-safe slug: lowercase ASCII letters,
// digits and single hyphens, capped at MaxSlugLen.
func Slugify(title string) string {
	s := stripMarks(strings.ToLower(strings.TrimSpace(title)))
	s = slugDrop.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return clamp(s, MaxSlugLen)
}

// ValidateSlug normalizes s (trim, lowercase) and checks it.
func ValidateSlug(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return "", errors.New("slug troppo corto")
	case len([]rune(s)) > MaxSlugLen:
		return "", fmt.Errorf("slug massimo %d caratteri", MaxSlugLen)
	case !slugRe.MatchString(s):
		return "", errors.New("slug: solo lettere minuscole, numeri e trattini")
	}
	return s, nil
}

// ValidateLocale normalizes a language code ("en", "pt-br") and checks it.
func ValidateLocale(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return "", errors.New("lingua obbligatoria")
	case len(s) < 2:
		return "", errors.New("codice lingua troppo corto")
	case len(s) > MaxLocaleLen:
		return "", fmt.Errorf("codice massimo %d caratteri", MaxLocaleLen)
	case !localeRe.MatchString(s):
		return "", errors.New("codice lingua non valido (es. en, it)")
	}
	return s, nil
}

// TrimTitle trims and caps a title.
func TrimTitle(s string) string { return clamp(strings.TrimSpace(s), MaxTitleLen) }

// TrimContent trims and caps an HTML body.
func TrimContent(s string) string { return clamp(strings.TrimSpace(s), MaxContentLen) }

// DuplicateLocales returns every normalized locale that appears more than
// once, in order of first repetition. Blank entries are ignored.
func DuplicateLocales(locales []string) []string {
	seen := make(map[string]bool, len(locales))
	var dups []string
	for _, l := range locales {
		n := strings.ToLower(strings.TrimSpace(l))
		if n == "" {
			continue
		}
		if seen[n] {
			if !slices.Contains(dups, n) {
				dups = append(dups, n)
			}
			continue
		}
		seen[n] = true
	}
	return dups
}
