package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/validate"
)

const (
	excerptLen     = 200
	wordsPerMinute = 200
)

var italianMonths = [...]string{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"}

// SelectTranslation picks lang, then English, then the first translation.
// fallback is true when lang itself was not available.
func SelectTranslation(ts []model.PublicTranslation, lang string) (t model.PublicTranslation, fallback, ok bool) {
	if len(ts) == 0 {
		return model.PublicTranslation{}, false, false
	}
	for _, tr := range ts {
		if strings.EqualFold(tr.Locale, lang) {
			return tr, false, true
		}
	}
	for _, tr := range ts {
		if strings.EqualFold(tr.Locale, fallbackLocale) {
			return tr, true, true
		}
	}
	return ts[0], true, true
}

// Excerpt shortens content to at most 200 characters, cutting at the last
// space and appending an ellipsis.
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) <= excerptLen {
		return content
	}
	cut := string(r[:excerptLen])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

// ReadTime estimates reading time at 200 words per minute ("3 min").
func ReadTime(content string) string {
	words := max(len(strings.Fields(content)), 1)
	return fmt.Sprintf("%d min", int(math.Ceil(float64(words)/wordsPerMinute)))
}

// FormatDate renders an ISO timestamp as "15 feb 2026". Unparseable input
// is returned unchanged.
func FormatDate(iso string) string {
	t, ok := validate.ParseISO(iso)
	if !ok {
		return iso
	}
	return fmt.Sprintf("%d %s %d", t.Day(), italianMonths[t.Month()-1], t.Year())
}

// sortKey is updatedAt when set, else createdAt; unparseable dates sort last.
func sortKey(p model.PublicPost) time.Time {
	iso := strings.TrimSpace(p.UpdatedAt)
	if iso == "" {
		iso = p.CreatedAt
	}
	t, _ := validate.ParseISO(iso)
	return t
}

func toDisplay(p model.PublicPost, tr model.PublicTranslation) model.DisplayPost {
	slug := tr.Slug
	if slug == "" {
		slug = p.Slug
	}
	return model.DisplayPost{
		ID:        p.ID,
		Slug:      slug,
		Title:     tr.Title,
		Content:   tr.Content,
		Excerpt:   Excerpt(tr.Content),
		Date:      FormatDate(p.CreatedAt),
		Locale:    tr.Locale,
		CreatedAt: p.CreatedAt,
		ReadTime:  ReadTime(tr.Content),
	}
}

// Display resolves p to lang. ok is false when the post has no translations.
func Display(p model.PublicPost, lang string) (model.DisplayPost, bool) {
	tr, fallback, ok := SelectTranslation(p.Translations, lang)
	if !ok {
		return model.DisplayPost{}, false
	}
	d := toDisplay(p, tr)
	if fallback {
		d.TranslationNotAvailableFor = lang
	}
	return d, true
}
