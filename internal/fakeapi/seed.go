package fakeapi

import (
	"time"

	"github.com/and161185/folio-admin/internal/form"
)

// AddMessage stores a contact message received now and returns its id.
func (s *Server) AddMessage(name, email, message string) string {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	m := Message{ID: newID(), Name: name, Email: email, Message: message, ReceivedAt: s.now()}
	s.st.messages = append(s.st.messages, m)
	return m.ID
}

// AddPost stores a post with the given translations. An empty slug is
// derived from the first title; translation slugs are derived and made
// unique the way the create endpoint does it.
func (s *Server) AddPost(slug, status string, translations ...Translation) Post {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	now := s.now()
	if slug == "" && len(translations) > 0 {
		slug = form.Slugify(translations[0].Title)
	}
	p := Post{ID: newID(), Slug: slug, Status: normalizeStatus(status), CreatedAt: now, UpdatedAt: now}
	for _, t := range translations {
		t.ID = newID()
		t.PostID = p.ID
		t.Slug = s.st.uniqueTranslationSlug(translationSlug(t.Slug, t.Title, t.Locale), t.Locale, "", p.Translations)
		p.Translations = append(p.Translations, t)
	}
	s.st.posts = append(s.st.posts, p)
	return p
}

// SetNextRun sets the next data-retention run; nil reports none scheduled.
func (s *Server) SetNextRun(t *time.Time) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.nextRun = t
}

// Messages returns a copy of the stored messages, newest first.
func (s *Server) Messages() []Message {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.messagesByDate()
}

// Audit returns a copy of the audit log, newest first.
func (s *Server) Audit() []AuditEntry {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.auditByDate()
}

// Posts returns a copy of the stored posts.
func (s *Server) Posts() []Post {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	out := make([]Post, len(s.st.posts))
	for i, p := range s.st.posts {
		p.Translations = append([]Translation(nil), p.Translations...)
		out[i] = p
	}
	return out
}
