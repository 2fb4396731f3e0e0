package fakeapi

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/folio-admin/internal/crypto"
)

// Message is a stored contact message.
type Message struct {
	ID         string
	Name       string
	Email      string
	Message    string
	ReceivedAt time.Time
}

// AuditEntry is a stored audit record.
type AuditEntry struct {
	ID           string
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Timestamp    time.Time
}

// Translation is one locale of a stored post.
type Translation struct {
	ID      string
	PostID  string
	Locale  string
	Slug    string
	Title   string
	Content string
}

// Post is a stored blog post.
type Post struct {
	ID           string
	Slug         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Translations []Translation
}

// admin is the single account of the backend.
type admin struct {
	ID       int64
	Username string
	Email    string
	Password crypto.PasswordHash
}

// store is the in-memory backend state.
type store struct {
	mu       sync.Mutex
	messages []Message
	audit    []AuditEntry
	posts    []Post
	nextRun  *time.Time
	resets   map[string]time.Time // token -> expiry
	issued   map[string]struct{}  // live token ids
	admin    admin
}

func newID() string { return uuid.Must(uuid.NewV4()).String() }

func (s *store) audited(now time.Time, actor, action, resType, resID, ip string) {
	s.audit = append(s.audit, AuditEntry{
		ID: newID(), Action: action, Actor: actor, ResourceType: resType,
		ResourceID: resID, IPAddress: ip, Timestamp: now,
	})
}

func (s *store) messagesByDate() []Message {
	out := append([]Message(nil), s.messages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out
}

func (s *store) auditByDate() []AuditEntry {
	out := append([]AuditEntry(nil), s.audit...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (s *store) postIndex(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *store) slugTaken(slug, exceptID string) bool {
	for _, p := range s.posts {
		if p.ID != exceptID && strings.EqualFold(p.Slug, slug) {
			return true
		}
	}
	return false
}

// translationSlugTaken reports whether another translation, stored or in
// pending, uses slug. Translation slugs are unique across locales.
func (s *store) translationSlugTaken(slug, exceptID string, pending []Translation) bool {
	taken := func(ts []Translation) bool {
		for _, t := range ts {
			if t.ID != exceptID && t.Slug == slug {
				return true
			}
		}
		return false
	}
	for _, p := range s.posts {
		if taken(p.Translations) {
			return true
		}
	}
	return taken(pending)
}

// uniqueTranslationSlug tries slug, then slug-locale, slug-locale-1 ...
func (s *store) uniqueTranslationSlug(slug, locale, exceptID string, pending []Translation) string {
	candidate := slug
	for n := 0; s.translationSlugTaken(candidate, exceptID, pending); n++ {
		candidate = slug + "-" + locale
		if n > 0 {
			candidate += "-" + strconv.Itoa(n)
		}
	}
	return candidate
}
