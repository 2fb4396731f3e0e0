package service

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/validate"
)

const (
	opPublicPosts  = "public.posts"
	opPublicPost   = "public.post"
	opContact      = "public.contact"
	fallbackLocale = "en"
)

// HealthInterval is how often Watch polls the health endpoint.
const HealthInterval = 15 * time.Second

// PublicService is the anonymous client of the public site API.
type PublicService interface {
	Posts(ctx context.Context) ([]model.PublicPost, error)
	PostsForLanguage(ctx context.Context, lang string) ([]model.DisplayPost, error)
	PostBySlug(ctx context.Context, locale, slug string) (model.DisplayPost, error)
	SubmitContact(ctx context.Context, c model.ContactPayload) error
	Health(ctx context.Context) bool
}

// PublicServiceImpl implements PublicService. Requests never carry the admin token.
type PublicServiceImpl struct{ api Doer }

// NewPublicService constructs a PublicService over a gateway rooted at the
// public API base (".../api").
func NewPublicService(api Doer) *PublicServiceImpl { return &PublicServiceImpl{api: api} }

// Posts returns every published post; any malformed post fails the call.
func (s *PublicServiceImpl) Posts(ctx context.Context) ([]model.PublicPost, error) {
	resp, err := s.api.Do(ctx, gateway.Request{Path: "/posts", Anonymous: true})
	if err != nil {
		return nil, withOp(opPublicPosts, err)
	}
	defer gateway.Drain(resp)

	v, err := validate.Check(resp, opPublicPosts, validate.Options{NotFound: true})
	if err != nil {
		return nil, err
	}
	return validate.PublicPosts(v)
}

// PostsForLanguage returns posts resolved to lang, most recently updated first.
func (s *PublicServiceImpl) PostsForLanguage(ctx context.Context, lang string) ([]model.DisplayPost, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]model.PublicPost(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortKey(sorted[i]).After(sortKey(sorted[j]))
	})
	out := make([]model.DisplayPost, 0, len(sorted))
	for _, p := range sorted {
		if d, ok := Display(p, lang); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// PostBySlug fetches one post in one locale.
func (s *PublicServiceImpl) PostBySlug(ctx context.Context, locale, slug string) (model.DisplayPost, error) {
	locale, slug = strings.TrimSpace(locale), strings.TrimSpace(slug)
	if locale == "" || slug == "" {
		return model.DisplayPost{}, errs.New(errs.KindInvalidID, opPublicPost)
	}
	resp, err := s.api.Do(ctx, gateway.Request{
		Path:      "/posts/" + url.PathEscape(locale) + "/" + url.PathEscape(slug),
		Anonymous: true,
	})
	if err != nil {
		return model.DisplayPost{}, withOp(opPublicPost, err)
	}
	defer gateway.Drain(resp)

	v, err := validate.Check(resp, opPublicPost, validate.Options{NotFound: true})
	if err != nil {
		return model.DisplayPost{}, err
	}
	p, tr, err := validate.PublicPostDetail(v, locale, slug)
	if err != nil {
		return model.DisplayPost{}, err
	}
	d := toDisplay(p, tr)
	if tr.Content == "" {
		d.ReadTime = ""
	}
	return d, nil
}

// SubmitContact posts the contact form. Fields are trimmed and an empty
// honeypot is omitted. The backend must answer 201.
func (s *PublicServiceImpl) SubmitContact(ctx context.Context, c model.ContactPayload) error {
	body := model.ContactPayload{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Message: strings.TrimSpace(c.Message),
		Website: strings.TrimSpace(c.Website),
	}
	resp, err := s.api.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/contacts", Body: body, Anonymous: true})
	if err != nil {
		return withOp(opContact, err)
	}
	defer gateway.Drain(resp)

	if !validate.IsJSON(resp.Header.Get("Content-Type")) {
		return errs.WithStatus(errs.KindInvalidResponse, opContact, resp.StatusCode)
	}
	if _, err := validate.Parse(resp.Body, opContact); err != nil {
		return err
	}
	switch code := resp.StatusCode; {
	case code == http.StatusCreated:
		return nil
	case code == http.StatusBadRequest:
		return errs.WithStatus(errs.KindValidation, opContact, code)
	case code == http.StatusTooManyRequests:
		return errs.WithStatus(errs.KindRateLimit, opContact, code)
	default:
		return errs.WithStatus(errs.KindFetchFailed, opContact, code)
	}
}

// Health reports whether GET /health answers 2xx.
func (s *PublicServiceImpl) Health(ctx context.Context) bool {
	resp, err := s.api.Do(ctx, gateway.Request{Path: "/health", Anonymous: true})
	if err != nil {
		return false
	}
	defer gateway.Drain(resp)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// Watch checks health immediately and then every interval until ctx is
// done, reporting each result to fn.
func Watch(ctx context.Context, p PublicService, interval time.Duration, fn func(online bool)) {
	if interval <= 0 {
		interval = HealthInterval
	}
	fn(p.Health(ctx))
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
			fn(p.Health(ctx))
		}
	}
}
