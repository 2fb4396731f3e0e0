package validate

import (
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/model"
)

// Length bounds applied to post fields.
const (
	MaxTitleLen = 200
	MaxSlugLen  = 255
)

const (
	opPost       = "validate.post"
	opPostDetail = "validate.post_detail"
	opCreatePost = "posts.create"
)

// NormalizeLocale trims and lower-cases a locale code.
func NormalizeLocale(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Translations normalizes both backend shapes into one map:
// {locale: {title, content}} and [{locale, title, content}].
// Malformed entries and empty locales are dropped; anything else yields an
// empty map. Titles are clamped. When several entries share a locale the
// last one wins: array order, or for the map shape sorted key order with
// keys already in normal form ahead of all others.
func Translations(v any) map[string]model.Translation {
	out := map[string]model.Translation{}
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			o, ok := object(it)
			if !ok {
				continue
			}
			loc, okL := str(o, "locale")
			title, okT := str(o, "title")
			content, okC := str(o, "content")
			if !okL || !okT || !okC {
				continue
			}
			put(out, loc, title, content)
		}
	case map[string]any:
		for _, loc := range mapLocales(t) {
			o, ok := object(t[loc])
			if !ok {
				continue
			}
			title, okT := str(o, "title")
			content, okC := str(o, "content")
			if !okT || !okC {
				continue
			}
			put(out, loc, title, content)
		}
	}
	return out
}

// mapLocales orders the keys of a map-shaped translations object so that
// collisions after normalization resolve the same way on every call.
func mapLocales(m map[string]any) []string {
	keys := slices.Sorted(maps.Keys(m))
	var raw, normal []string
	for _, k := range keys {
		if NormalizeLocale(k) == k {
			normal = append(normal, k)
		} else {
			raw = append(raw, k)
		}
	}
	return append(raw, normal...)
}

func put(out map[string]model.Translation, locale, title, content string) {
	loc := NormalizeLocale(locale)
	if loc == "" {
		return
	}
	out[loc] = model.Translation{Title: truncate(title, MaxTitleLen), Content: content}
}

// Post decodes one entry of GET /posts. id, slug and createdAt must be strings.
func Post(v any) (model.Post, error) {
	o, ok := object(v)
	if !ok {
		return model.Post{}, invalid(opPost, "post is not an object")
	}
	id, okID := str(o, "id")
	slug, okSlug := str(o, "slug")
	created, okCreated := str(o, "createdAt")
	if !okID || !okSlug || !okCreated {
		return model.Post{}, invalid(opPost, "id, slug or createdAt missing")
	}
	updated, ok := str(o, "updatedAt")
	if !ok {
		updated = created
	}
	status, _ := str(o, "status")
	return model.Post{
		ID:           id,
		Slug:         truncate(slug, MaxSlugLen),
		CreatedAt:    created,
		UpdatedAt:    updated,
		Status:       status,
		Translations: Translations(o["translations"]),
	}, nil
}

// PostList decodes GET /posts, which is either a bare array or a paged
// wrapper with a content array.
func PostList(v any) ([]model.Post, error) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		c, ok := t["content"].([]any)
		if !ok {
			return nil, invalid("validate.posts", "content is not an array")
		}
		items = c
	default:
		return nil, invalid("validate.posts", "neither array nor paged wrapper")
	}
	out := make([]model.Post, 0, len(items))
	for _, it := range items {
		p, err := Post(it)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func translationItem(v any) (model.TranslationItem, error) {
	o, ok := object(v)
	if !ok {
		return model.TranslationItem{}, invalid(opPostDetail, "translation is not an object")
	}
	loc, okL := str(o, "locale")
	title, okT := str(o, "title")
	content, okC := str(o, "content")
	if !okL || !okT || !okC {
		return model.TranslationItem{}, invalid(opPostDetail, "translation fields missing")
	}
	id, _ := str(o, "id")
	postID, _ := str(o, "postId")
	return model.TranslationItem{
		ID:      id,
		PostID:  postID,
		Locale:  NormalizeLocale(loc),
		Slug:    clamp(o["slug"], MaxSlugLen),
		Title:   truncate(title, MaxTitleLen),
		Content: content,
	}, nil
}

// PostDetail decodes GET /posts/{id}. Translations must be an array of
// well-formed items; a single bad item rejects the response.
func PostDetail(v any) (model.PostDetail, error) {
	o, ok := object(v)
	if !ok {
		return model.PostDetail{}, invalid(opPostDetail, "post is not an object")
	}
	id, okID := str(o, "id")
	slug, okSlug := str(o, "slug")
	created, okCreated := str(o, "createdAt")
	if !okID || !okSlug || !okCreated {
		return model.PostDetail{}, invalid(opPostDetail, "id, slug or createdAt missing")
	}
	d := model.PostDetail{
		ID:           id,
		Slug:         truncate(slug, MaxSlugLen),
		CreatedAt:    created,
		Translations: []model.TranslationItem{},
	}
	d.UpdatedAt, _ = str(o, "updatedAt")
	d.Status, _ = str(o, "status")
	if raw, ok := o["translations"].([]any); ok {
		for _, it := range raw {
			ti, err := translationItem(it)
			if err != nil {
				return model.PostDetail{}, err
			}
			d.Translations = append(d.Translations, ti)
		}
	}
	return d, nil
}

// CreatedID extracts the id of a created post from post.id or id.
func CreatedID(v any) (string, bool) {
	o, ok := object(v)
	if !ok {
		return "", false
	}
	if p, ok := object(o["post"]); ok {
		if id, ok := nonEmpty(p, "id"); ok {
			return id, true
		}
	}
	return nonEmpty(o, "id")
}

// CreatePost classifies the response of POST /posts. A 409 whose body still
// carries an id is a soft conflict: the post may exist. The body is read
// leniently: unparseable or non-JSON bodies count as empty.
func CreatePost(resp *http.Response) (model.CreateResult, error) {
	var body any
	if IsJSON(resp.Header.Get("Content-Type")) {
		body, _ = Parse(resp.Body, opCreatePost)
	}
	id, hasID := CreatedID(body)

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized:
		return model.CreateResult{}, errs.WithStatus(errs.KindUnauthorized, opCreatePost, code)
	case code == http.StatusForbidden:
		return model.CreateResult{}, errs.WithStatus(errs.KindForbidden, opCreatePost, code)
	case code == http.StatusConflict:
		if hasID {
			return model.CreateResult{ID: id, Conflict: true}, nil
		}
		return model.CreateResult{}, errs.WithStatus(errs.KindConflict, opCreatePost, code)
	case code < 200 || code > 299:
		return model.CreateResult{}, errs.WithStatus(errs.KindFetchFailed, opCreatePost, code)
	}
	if !hasID {
		return model.CreateResult{}, errs.WithStatus(errs.KindInvalidResponse, opCreatePost, resp.StatusCode)
	}
	return model.CreateResult{ID: id}, nil
}
