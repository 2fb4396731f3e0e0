// Package model defines the typed records produced by the response validators
// and consumed by services, views and the CLI.
package model

import (
	"strings"
	"time"
)

// RoleAdmin is the only role the admin backend grants.
const RoleAdmin = "ROLE_ADMIN"

// User is the authenticated admin identity returned by login.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
}

// State is a read-only snapshot of the session.
// IsAuthenticated holds iff Token and User are set and the last verification succeeded.
type State struct {
	Token           string    `json:"-" yaml:"-"`
	User            *User     `json:"user,omitempty" yaml:"user,omitempty"`
	Roles           []string  `json:"roles" yaml:"roles"`
	IsAuthenticated bool      `json:"isAuthenticated" yaml:"isAuthenticated"`
	IsVerifying     bool      `json:"isVerifying" yaml:"isVerifying"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"` // zero when the token carries no exp
}

// StoredSession is what session stores persist between runs.
type StoredSession struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Page is one page of a server-side paginated list. Pages are values:
// operations return new pages instead of mutating.
type Page[T any] struct {
	Content       []T  `json:"content" yaml:"content"`
	TotalPages    int  `json:"totalPages" yaml:"totalPages"`
	TotalElements int  `json:"totalElements" yaml:"totalElements"`
	Number        int  `json:"number" yaml:"number"`
	Size          int  `json:"size" yaml:"size"`
	First         bool `json:"first" yaml:"first"`
	Last          bool `json:"last" yaml:"last"`
}

// WithoutItem returns a copy of p without the items matched by drop and with
// TotalElements decremented by the number removed (never below zero).
func (p Page[T]) WithoutItem(drop func(T) bool) Page[T] {
	out := p
	out.Content = make([]T, 0, len(p.Content))
	removed := 0
	for _, it := range p.Content {
		if drop(it) {
			removed++
			continue
		}
		out.Content = append(out.Content, it)
	}
	out.TotalElements = max(p.TotalElements-removed, 0)
	return out
}

// Message is a contact-form submission shown to admins.
type Message struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	Message    string `json:"message" yaml:"message"`
	ReceivedAt string `json:"receivedAt" yaml:"receivedAt"`
}

// AuditLogEntry is an immutable record of a privileged action.
type AuditLogEntry struct {
	ID        string `json:"id" yaml:"id"`
	Action    string `json:"action" yaml:"action"`
	Entity    string `json:"entity" yaml:"entity"`
	UserEmail string `json:"userEmail" yaml:"userEmail"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	IPAddress string `json:"ipAddress" yaml:"ipAddress"`
}

// DisplayIP returns the address shortened for on-screen display.
func (e AuditLogEntry) DisplayIP() string {
	ip := []rune(strings.TrimSpace(e.IPAddress))
	switch {
	case len(ip) == 0:
		return "—"
	case len(ip) <= 12:
		return string(ip)
	}
	return string(ip[:8]) + "…"
}

// AuditLogQuery filters the audit-log listing. Empty filters are omitted.
type AuditLogQuery struct {
	Page      int
	Action    string
	UserEmail string
	DateFrom  string
	DateTo    string
}

// Post statuses known to the backend. Status stays an open string.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Translation is one locale version of a post in the list shape.
type Translation struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Post is a blog post as listed by GET /posts, translations keyed by locale.
type Post struct {
	ID           string                 `json:"id" yaml:"id"`
	Slug         string                 `json:"slug" yaml:"slug"`
	CreatedAt    string                 `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    string                 `json:"updatedAt" yaml:"updatedAt"`
	Status       string                 `json:"status,omitempty" yaml:"status,omitempty"`
	Translations map[string]Translation `json:"translations" yaml:"translations"`
}

// TranslationItem is one translation in the detail (edit) shape.
type TranslationItem struct {
	ID      string `json:"id" yaml:"id"`
	PostID  string `json:"postId" yaml:"postId"`
	Locale  string `json:"locale" yaml:"locale"`
	Slug    string `json:"slug" yaml:"slug"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// PostDetail is a post as returned by GET /posts/{id}.
type PostDetail struct {
	ID           string            `json:"id" yaml:"id"`
	Slug         string            `json:"slug" yaml:"slug"`
	CreatedAt    string            `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    string            `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Status       string            `json:"status,omitempty" yaml:"status,omitempty"`
	Translations []TranslationItem `json:"translations" yaml:"translations"`
}

// PayloadTranslation is one translation in a create/update body.
// ID is only meaningful on update.
type PayloadTranslation struct {
	ID      string `json:"id,omitempty"`
	Locale  string `json:"locale"`
	Slug    string `json:"slug,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostPayload is the body of POST /posts and PUT /posts/{id}. It has no
// server-owned fields (id, createdAt), so they can never be sent.
type PostPayload struct {
	Slug         string               `json:"slug"`
	Status       string               `json:"status,omitempty"`
	Translations []PayloadTranslation `json:"translations"`
}

// CreateResult reports a created post. Conflict is set when the backend
// answered 409 but still returned an id.
type CreateResult struct {
	ID       string `json:"id" yaml:"id"`
	Conflict bool   `json:"conflict,omitempty" yaml:"conflict,omitempty"`
}

// PublicTranslation is a translation as served by the public posts API.
type PublicTranslation struct {
	ID      string `json:"id,omitempty"`
	Locale  string `json:"locale"`
	Slug    string `json:"slug,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PublicPost is a published post from GET /api/posts.
type PublicPost struct {
	ID           string              `json:"id"`
	Slug         string              `json:"slug,omitempty"`
	Status       string              `json:"status"`
	CreatedAt    string              `json:"createdAt"`
	UpdatedAt    string              `json:"updatedAt,omitempty"`
	Translations []PublicTranslation `json:"translations"`
}

// DisplayPost is a public post resolved to one language for rendering.
type DisplayPost struct {
	ID        string `json:"id" yaml:"id"`
	Slug      string `json:"slug" yaml:"slug"`
	Title     string `json:"title" yaml:"title"`
	Content   string `json:"content" yaml:"content"`
	Excerpt   string `json:"excerpt" yaml:"excerpt"`
	Date      string `json:"date" yaml:"date"`
	Locale    string `json:"locale" yaml:"locale"`
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
	ReadTime  string `json:"readTime,omitempty" yaml:"readTime,omitempty"`
	// TranslationNotAvailableFor is the requested locale when a fallback was used.
	TranslationNotAvailableFor string `json:"translationNotAvailableFor,omitempty" yaml:"translationNotAvailableFor,omitempty"`
}

// ContactPayload is the public contact form. Website is the honeypot field.
type ContactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Website string `json:"website,omitempty"`
}
