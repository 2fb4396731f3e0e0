package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/sanitize"
)

const opPayload = "form.payload"

// DefaultLocale is the locale of the first row of a new post.
const DefaultLocale = "it"

// Row is one translation being edited.
type Row struct {
	ID      string
	Locale  string
	Slug    string
	Title   string
	Content string
}

// Editor holds the state of a post form. Content is sanitized on every
// change, so a Row never holds markup outside the allow-list.
type Editor struct {
	Status string
	rows   []Row
	active int
	dirty  bool
	update bool
}

// NewEditor starts an empty draft with one Italian row.
func NewEditor() *Editor {
	return &Editor{Status: model.StatusDraft, rows: []Row{{Locale: DefaultLocale}}}
}

// EditorFor loads an existing post for editing.
func EditorFor(d model.PostDetail) *Editor {
	e := &Editor{Status: d.Status, update: true}
	if e.Status == "" {
		e.Status = model.StatusDraft
	}
	for _, t := range d.Translations {
		e.rows = append(e.rows, Row{ID: t.ID, Locale: t.Locale, Slug: t.Slug, Title: t.Title, Content: sanitize.HTML(t.Content)})
	}
	if len(e.rows) == 0 {
		e.rows = []Row{{Locale: DefaultLocale, Slug: d.Slug}}
	} else if strings.TrimSpace(e.rows[0].Slug) == "" {
		e.rows[0].Slug = d.Slug
	}
	return e
}

// Rows returns a copy of the rows.
func (e *Editor) Rows() []Row { return append([]Row(nil), e.rows...) }

// Dirty reports whether anything changed since construction.
func (e *Editor) Dirty() bool { return e.dirty }

// Active returns the index of the selected row.
func (e *Editor) Active() int { return e.active }

// Select moves the selection, clamped to the existing rows.
func (e *Editor) Select(i int) { e.active = min(max(i, 0), len(e.rows)-1) }

// Add appends an empty row, selects it and returns its index.
func (e *Editor) Add() int {
	e.rows = append(e.rows, Row{})
	e.active = len(e.rows) - 1
	e.dirty = true
	return e.active
}

// Remove deletes row i. The last remaining row cannot be removed.
func (e *Editor) Remove(i int) bool {
	if len(e.rows) <= 1 || i < 0 || i >= len(e.rows) {
		return false
	}
	e.rows = append(e.rows[:i], e.rows[i+1:]...)
	switch {
	case e.active == i:
		e.active = 0
	case e.active > i:
		e.active--
	}
	e.dirty = true
	return true
}

func (e *Editor) edit(i int, fn func(*Row)) bool {
	if i < 0 || i >= len(e.rows) {
		return false
	}
	fn(&e.rows[i])
	e.dirty = true
	return true
}

// SetLocale sets the locale of row i.
func (e *Editor) SetLocale(i int, v string) bool {
	return e.edit(i, func(r *Row) { r.Locale = v })
}

// SetSlug sets the slug of row i.
func (e *Editor) SetSlug(i int, v string) bool {
	return e.edit(i, func(r *Row) { r.Slug = v })
}

// SetTitle sets the title of row i. An empty slug is derived from it.
func (e *Editor) SetTitle(i int, v string) bool {
	return e.edit(i, func(r *Row) {
		r.Title = v
		if strings.TrimSpace(r.Slug) == "" {
			r.Slug = Slugify(v)
		}
	})
}

// SetContent sanitizes v and stores it in row i.
func (e *Editor) SetContent(i int, v string) bool {
	return e.edit(i, func(r *Row) { r.Content = sanitize.HTML(v) })
}

// Problems lists every validation failure, ready to show.
func (e *Editor) Problems() []string {
	var out []string
	for i, r := range e.rows {
		if strings.TrimSpace(r.Slug) == "" {
			continue
		}
		if _, err := ValidateSlug(r.Slug); err != nil {
			out = append(out, fmt.Sprintf("Slug (%s): %v", label(r, i), err))
		}
	}
	locales := make([]string, len(e.rows))
	for i, r := range e.rows {
		locales[i] = r.Locale
	}
	if d := DuplicateLocales(locales); len(d) > 0 {
		out = append(out, "Lingue duplicate: "+strings.Join(d, ", "))
	}
	for i, r := range e.rows {
		if _, err := ValidateLocale(r.Locale); err != nil {
			out = append(out, fmt.Sprintf("Traduzione %d: %v", i+1, err))
		}
	}
	for i, r := range e.rows {
		if TrimTitle(r.Title) == "" {
			out = append(out, fmt.Sprintf("Traduzione %d: titolo obbligatorio", i+1))
		}
		if len([]rune(sanitize.HTML(TrimContent(r.Content)))) > MaxContentLen {
			out = append(out, fmt.Sprintf("Traduzione %d: contenuto troppo lungo", i+1))
		}
	}
	if !e.update {
		if _, err := ValidateSlug(e.firstSlug()); err != nil {
			out = append(out, "Slug principale obbligatorio")
		}
	}
	return out
}

func label(r Row, i int) string {
	if l := strings.TrimSpace(r.Locale); l != "" {
		return l
	}
	return fmt.Sprint(i + 1)
}

func (e *Editor) firstSlug() string {
	if len(e.rows) == 0 {
		return ""
	}
	return strings.TrimSpace(e.rows[0].Slug)
}

// Valid reports whether Payload would succeed.
func (e *Editor) Valid() bool { return len(e.rows) > 0 && len(e.Problems()) == 0 }

// Payload builds the request body. The post slug is the first row's slug.
// Row ids are sent only when editing an existing post.
func (e *Editor) Payload() (model.PostPayload, error) {
	if p := e.Problems(); len(p) > 0 {
		return model.PostPayload{}, errs.Wrap(errs.KindValidation, opPayload, errors.New(strings.Join(p, "; ")))
	}
	slug := e.firstSlug()
	if n, err := ValidateSlug(slug); err == nil {
		slug = n
	} else {
		slug = strings.ToLower(slug)
	}
	p := model.PostPayload{Slug: slug, Status: strings.TrimSpace(e.Status)}
	for _, r := range e.rows {
		t := model.PayloadTranslation{
			Locale:  strings.ToLower(strings.TrimSpace(r.Locale)),
			Slug:    strings.TrimSpace(r.Slug),
			Title:   TrimTitle(r.Title),
			Content: sanitize.HTML(TrimContent(r.Content)),
		}
		if e.update {
			t.ID = r.ID
		}
		p.Translations = append(p.Translations, t)
	}
	return p, nil
}

// MarkSaved clears the dirty flag after a successful submit.
func (e *Editor) MarkSaved() { e.dirty = false }
