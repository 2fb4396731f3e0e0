package view

import (
	"context"
	"slices"
	"strings"

	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/service"
)

// PostsPageSize is how many posts one client-side page shows.
const PostsPageSize = 10

// MessagesView is the contact messages screen.
type MessagesView struct {
	svc service.MessageService
	l   list[model.Message]
}

// NewMessages constructs a MessagesView.
func NewMessages(svc service.MessageService) *MessagesView {
	return &MessagesView{svc: svc, l: list[model.Message]{id: func(m model.Message) string { return m.ID }}}
}

// Load fetches page n and makes it current.
func (v *MessagesView) Load(ctx context.Context, n int) (model.Page[model.Message], error) {
	return v.l.load(ctx, func(ctx context.Context) (model.Page[model.Message], error) {
		return v.svc.List(ctx, n)
	})
}

// Page returns the current page and whether one was loaded.
func (v *MessagesView) Page() (model.Page[model.Message], bool) { return v.l.current() }

// Delete removes a message. The item also disappears from the page when
// the backend no longer has it.
func (v *MessagesView) Delete(ctx context.Context, id string) error {
	return v.l.mutate(id, true, func() error { return v.svc.Delete(ctx, id) }, v.l.remove(id))
}

// Pending returns the id being deleted, or "".
func (v *MessagesView) Pending() string { return v.l.pendingID() }

// Close cancels the in-flight load.
func (v *MessagesView) Close() { v.l.close() }

// AuditLogsView is the audit log screen. Filters are kept between loads.
type AuditLogsView struct {
	svc service.AuditLogService
	l   list[model.AuditLogEntry]
}

// NewAuditLogs constructs an AuditLogsView.
func NewAuditLogs(svc service.AuditLogService) *AuditLogsView {
	return &AuditLogsView{svc: svc, l: list[model.AuditLogEntry]{id: func(e model.AuditLogEntry) string { return e.ID }}}
}

// Load fetches the page described by q.
func (v *AuditLogsView) Load(ctx context.Context, q model.AuditLogQuery) (model.Page[model.AuditLogEntry], error) {
	return v.l.load(ctx, func(ctx context.Context) (model.Page[model.AuditLogEntry], error) {
		return v.svc.List(ctx, q)
	})
}

// Page returns the current page and whether one was loaded.
func (v *AuditLogsView) Page() (model.Page[model.AuditLogEntry], bool) { return v.l.current() }

// Close cancels the in-flight load.
func (v *AuditLogsView) Close() { v.l.close() }

// PostsView is the blog post list. The backend returns every post at once;
// paging is done here, PostsPageSize at a time.
type PostsView struct {
	svc service.PostService
	l   list[model.Post]
}

// NewPosts constructs a PostsView.
func NewPosts(svc service.PostService) *PostsView {
	return &PostsView{svc: svc, l: list[model.Post]{id: func(p model.Post) string { return p.ID }}}
}

// Load fetches all posts matching title and holds them as one page.
func (v *PostsView) Load(ctx context.Context, title string) ([]model.Post, error) {
	p, err := v.l.load(ctx, func(ctx context.Context) (model.Page[model.Post], error) {
		posts, err := v.svc.List(ctx, title)
		if err != nil {
			return model.Page[model.Post]{}, err
		}
		return model.Page[model.Post]{Content: posts, TotalElements: len(posts), Size: len(posts), TotalPages: 1, First: true, Last: true}, nil
	})
	return p.Content, err
}

// Page slices the held posts into page n of PostsPageSize. n is clamped
// to the available range.
func (v *PostsView) Page(n int) model.Page[model.Post] {
	all, _ := v.l.current()
	return Paginate(all.Content, n, PostsPageSize)
}

// Delete removes a post. NOT_FOUND also drops it from the list.
func (v *PostsView) Delete(ctx context.Context, id string) error {
	return v.l.mutate(id, true, func() error { return v.svc.Delete(ctx, id) }, v.l.remove(id))
}

// Archive sets the post status to archived and updates the held copy.
func (v *PostsView) Archive(ctx context.Context, id string) error {
	return v.l.mutate(id, false, func() error { return v.svc.SetStatus(ctx, id, model.StatusArchived) },
		func(p model.Page[model.Post]) model.Page[model.Post] {
			out := p
			out.Content = make([]model.Post, len(p.Content))
			for i, it := range p.Content {
				if it.ID == id {
					it.Status = model.StatusArchived
				}
				out.Content[i] = it
			}
			return out
		})
}

// Pending returns the id being deleted or archived, or "".
func (v *PostsView) Pending() string { return v.l.pendingID() }

// Close cancels the in-flight load.
func (v *PostsView) Close() { v.l.close() }

// Paginate cuts items into fixed-size pages. There is always at least one
// page, so an empty list yields page 0 of 1.
func Paginate[T any](items []T, n, size int) model.Page[T] {
	if size <= 0 {
		size = 1
	}
	total := len(items)
	pages := max((total+size-1)/size, 1)
	n = min(max(n, 0), pages-1)
	start := min(n*size, total)
	end := min(start+size, total)
	content := make([]T, end-start)
	copy(content, items[start:end])
	return model.Page[T]{
		Content:       content,
		TotalPages:    pages,
		TotalElements: total,
		Number:        n,
		Size:          size,
		First:         n == 0,
		Last:          n == pages-1,
	}
}

// Locales lists the translation locales of p, sorted.
func Locales(p model.Post) []string {
	out := make([]string, 0, len(p.Translations))
	for l := range p.Translations {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return out
}
