package validate

import (
	"github.com/and161185/folio-admin/internal/model"
)

const opPublic = "validate.public_posts"

// PublicPost decodes one published post. Stricter than the admin list:
// id, status and createdAt must be non-empty, and every translation needs a
// non-empty locale, title and content.
func PublicPost(v any) (model.PublicPost, error) {
	o, ok := object(v)
	if !ok {
		return model.PublicPost{}, invalid(opPublic, "post is not an object")
	}
	id, okID := nonEmpty(o, "id")
	status, okStatus := nonEmpty(o, "status")
	created, okCreated := nonEmpty(o, "createdAt")
	raw, okTr := o["translations"].([]any)
	if !okID || !okStatus || !okCreated || !okTr {
		return model.PublicPost{}, invalid(opPublic, "required post fields missing")
	}
	p := model.PublicPost{
		ID:           id,
		Status:       status,
		CreatedAt:    created,
		Translations: make([]model.PublicTranslation, 0, len(raw)),
	}
	p.Slug, _ = str(o, "slug")
	p.UpdatedAt, _ = str(o, "updatedAt")
	for _, it := range raw {
		t, ok := object(it)
		if !ok {
			return model.PublicPost{}, invalid(opPublic, "translation is not an object")
		}
		loc, okL := nonEmpty(t, "locale")
		title, okT := nonEmpty(t, "title")
		content, okC := nonEmpty(t, "content")
		if !okL || !okT || !okC {
			return model.PublicPost{}, invalid(opPublic, "translation fields missing")
		}
		tr := model.PublicTranslation{Locale: loc, Title: title, Content: content}
		tr.ID, _ = str(t, "id")
		tr.Slug, _ = str(t, "slug")
		p.Translations = append(p.Translations, tr)
	}
	return p, nil
}

// PublicPosts decodes GET /api/posts, a bare array.
func PublicPosts(v any) ([]model.PublicPost, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, invalid(opPublic, "posts is not an array")
	}
	out := make([]model.PublicPost, 0, len(items))
	for _, it := range items {
		p, err := PublicPost(it)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// PublicPostDetail decodes GET /api/posts/{locale}/{slug}, a flattened
// single-translation post. Missing fields fall back to the request values.
func PublicPostDetail(v any, locale, slug string) (model.PublicPost, model.PublicTranslation, error) {
	o, ok := object(v)
	if !ok {
		return model.PublicPost{}, model.PublicTranslation{}, invalid(opPublic, "post is not an object")
	}
	p := model.PublicPost{Slug: slug}
	p.ID, _ = str(o, "id")
	if s, ok := str(o, "slug"); ok {
		p.Slug = s
	}
	p.CreatedAt, _ = str(o, "createdAt")
	p.UpdatedAt, _ = str(o, "updatedAt")
	p.Status, _ = str(o, "status")
	tr := model.PublicTranslation{Locale: locale, Slug: p.Slug}
	if l, ok := str(o, "locale"); ok {
		tr.Locale = l
	}
	tr.Title, _ = str(o, "title")
	tr.Content, _ = str(o, "content")
	return p, tr, nil
}
