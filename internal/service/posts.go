package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/sanitize"
	"github.com/and161185/folio-admin/internal/validate"
)

const (
	opPostsList   = "posts.list"
	opPostsGet    = "posts.get"
	opPostsCreate = "posts.create"
	opPostsUpdate = "posts.update"
	opPostsDelete = "posts.delete"
	opPostsStatus = "posts.status"
)

// PostService manages blog posts.
type PostService interface {
	// List returns all posts, optionally filtered by title.
	List(ctx context.Context, title string) ([]model.Post, error)
	Get(ctx context.Context, id string) (model.PostDetail, error)
	// Create may report a soft conflict: see model.CreateResult.
	Create(ctx context.Context, p model.PostPayload) (model.CreateResult, error)
	Update(ctx context.Context, id string, p model.PostPayload) error
	Delete(ctx context.Context, id string) error
	// SetStatus changes only the status (draft, published, archived).
	SetStatus(ctx context.Context, id, status string) error
}

// PostServiceImpl implements PostService over the admin API.
type PostServiceImpl struct{ api Doer }

// NewPostService constructs a PostService.
func NewPostService(api Doer) *PostServiceImpl { return &PostServiceImpl{api: api} }

// cleanPayload returns a copy of p with every translation body sanitized.
func cleanPayload(p model.PostPayload) model.PostPayload {
	out := model.PostPayload{Slug: strings.TrimSpace(p.Slug), Status: p.Status}
	out.Translations = make([]model.PayloadTranslation, len(p.Translations))
	for i, t := range p.Translations {
		t.Content = sanitize.HTML(t.Content)
		out.Translations[i] = t
	}
	return out
}

// List implements PostService.
func (s *PostServiceImpl) List(ctx context.Context, title string) ([]model.Post, error) {
	var q url.Values
	if t := strings.TrimSpace(title); t != "" {
		q = url.Values{"title": {t}}
	}
	resp, err := s.api.Do(ctx, gateway.Request{Path: "/posts", Query: q})
	if err != nil {
		return nil, withOp(opPostsList, err)
	}
	defer gateway.Drain(resp)

	v, err := validate.Check(resp, opPostsList, validate.Options{})
	if err != nil {
		return nil, err
	}
	return validate.PostList(v)
}

// Get implements PostService.
func (s *PostServiceImpl) Get(ctx context.Context, id string) (model.PostDetail, error) {
	pid, err := pathID(opPostsGet, id)
	if err != nil {
		return model.PostDetail{}, err
	}
	resp, err := s.api.Do(ctx, gateway.Request{Path: "/posts/" + pid})
	if err != nil {
		return model.PostDetail{}, withOp(opPostsGet, err)
	}
	defer gateway.Drain(resp)

	v, err := validate.Check(resp, opPostsGet, validate.Options{NotFound: true})
	if err != nil {
		return model.PostDetail{}, err
	}
	return validate.PostDetail(v)
}

// Create implements PostService.
func (s *PostServiceImpl) Create(ctx context.Context, p model.PostPayload) (model.CreateResult, error) {
	resp, err := s.api.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/posts", Body: cleanPayload(p)})
	if err != nil {
		return model.CreateResult{}, withOp(opPostsCreate, err)
	}
	defer gateway.Drain(resp)
	return validate.CreatePost(resp)
}

// Update implements PostService.
func (s *PostServiceImpl) Update(ctx context.Context, id string, p model.PostPayload) error {
	pid, err := pathID(opPostsUpdate, id)
	if err != nil {
		return err
	}
	resp, err := s.api.Do(ctx, gateway.Request{Method: http.MethodPut, Path: "/posts/" + pid, Body: cleanPayload(p)})
	if err != nil {
		return withOp(opPostsUpdate, err)
	}
	defer gateway.Drain(resp)
	return validate.Status(resp.StatusCode, opPostsUpdate, validate.Options{NotFound: true, Conflict: true})
}

// Delete implements PostService.
func (s *PostServiceImpl) Delete(ctx context.Context, id string) error {
	pid, err := pathID(opPostsDelete, id)
	if err != nil {
		return err
	}
	resp, err := s.api.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: "/posts/" + pid})
	if err != nil {
		return withOp(opPostsDelete, err)
	}
	defer gateway.Drain(resp)
	return validate.Status(resp.StatusCode, opPostsDelete, validate.Options{NotFound: true})
}

// SetStatus implements PostService.
func (s *PostServiceImpl) SetStatus(ctx context.Context, id, status string) error {
	pid, err := pathID(opPostsStatus, id)
	if err != nil {
		return err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case model.StatusDraft, model.StatusPublished, model.StatusArchived:
	default:
		return errs.New(errs.KindValidation, opPostsStatus)
	}
	resp, err := s.api.Do(ctx, gateway.Request{
		Method: http.MethodPatch,
		Path:   "/posts/" + pid,
		Body:   map[string]string{"status": status},
	})
	if err != nil {
		return withOp(opPostsStatus, err)
	}
	defer gateway.Drain(resp)
	return validate.Status(resp.StatusCode, opPostsStatus, validate.Options{NotFound: true})
}
