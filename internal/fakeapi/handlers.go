package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/and161185/folio-admin/internal/form"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/sanitize"
	"github.com/and161185/folio-admin/internal/validate"
)

const maxBody = 1 << 20

var publicLocales = []string{"en", "it", "es"}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the backend's {status, details} error body.
func writeError(w http.ResponseWriter, code int, details string) {
	writeJSON(w, code, map[string]any{"status": code, "details": details})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Body JSON non valido.")
		return false
	}
	return true
}

func iso(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// pageOf slices items into page n of the given size.
func pageOf[T any](items []T, n, size int) map[string]any {
	n = max(n, 0)
	total := len(items)
	pages := (total + size - 1) / size
	lo := min(n*size, total)
	hi := min(lo+size, total)
	return map[string]any{
		"content":       items[lo:hi],
		"totalPages":    pages,
		"totalElements": total,
		"number":        n,
		"size":          size,
		"first":         n == 0,
		"last":          n >= pages-1,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func actor(r *http.Request) string {
	u, _ := userFrom(r.Context())
	return u
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Messages.

type messageJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Message    string `json:"message"`
	ReceivedAt string `json:"receivedAt"`
}

func toMessageJSON(m Message) messageJSON {
	return messageJSON{ID: m.ID, Name: m.Name, Email: m.Email, Message: m.Message, ReceivedAt: iso(m.ReceivedAt)}
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	size := queryInt(r, "size", MessagesPageSize)
	if size < 1 || size > MessagesPageSize {
		size = MessagesPageSize
	}
	s.st.mu.Lock()
	all := s.st.messagesByDate()
	s.st.mu.Unlock()

	out := make([]messageJSON, len(all))
	for i, m := range all {
		out[i] = toMessageJSON(m)
	}
	writeJSON(w, http.StatusOK, pageOf(out, queryInt(r, "page", 0), size))
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, m := range s.st.messages {
		if m.ID == id {
			writeJSON(w, http.StatusOK, toMessageJSON(m))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Messaggio non trovato con id: "+id)
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	i := slices.IndexFunc(s.st.messages, func(m Message) bool { return m.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "Messaggio non trovato con id: "+id)
		return
	}
	s.st.messages = slices.Delete(s.st.messages, i, i+1)
	s.st.audited(s.now(), actor(r), "DELETE_MESSAGE", "CONTACT", id, clientIP(r))
	w.WriteHeader(http.StatusNoContent)
}

// Audit logs.

type auditJSON struct {
	ID           string `json:"id"`
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId,omitempty"`
	Actor        string `json:"actor"`
	Timestamp    string `json:"timestamp"`
	IPAddress    string `json:"ipAddress"`
}

// auditFilter matches the optional action, userEmail, dateFrom and dateTo
// query parameters. Unparseable dates are ignored.
func auditFilter(r *http.Request) func(AuditEntry) bool {
	q := r.URL.Query()
	action := strings.TrimSpace(q.Get("action"))
	email := strings.ToLower(strings.TrimSpace(q.Get("userEmail")))
	from, hasFrom := validate.ParseISO(strings.TrimSpace(q.Get("dateFrom")))
	to, hasTo := validate.ParseISO(strings.TrimSpace(q.Get("dateTo")))
	if hasTo && len(strings.TrimSpace(q.Get("dateTo"))) == len("2006-01-02") {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return func(e AuditEntry) bool {
		switch {
		case action != "" && !strings.EqualFold(e.Action, action):
			return false
		case email != "" && !strings.Contains(strings.ToLower(e.Actor), email):
			return false
		case hasFrom && e.Timestamp.Before(from):
			return false
		case hasTo && e.Timestamp.After(to):
			return false
		}
		return true
	}
}

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	keep := auditFilter(r)
	s.st.mu.Lock()
	all := s.st.auditByDate()
	s.st.mu.Unlock()

	out := make([]auditJSON, 0, len(all))
	for _, e := range all {
		if !keep(e) {
			continue
		}
		out = append(out, auditJSON{
			ID: e.ID, Action: e.Action, ResourceType: e.ResourceType, ResourceID: e.ResourceID,
			Actor: e.Actor, Timestamp: iso(e.Timestamp), IPAddress: e.IPAddress,
		})
	}
	writeJSON(w, http.StatusOK, pageOf(out, queryInt(r, "page", 0), AuditPageSize))
}

// Posts.

type translationJSON struct {
	ID      string `json:"id"`
	PostID  string `json:"postId"`
	Locale  string `json:"locale"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type postJSON struct {
	ID           string            `json:"id"`
	Slug         string            `json:"slug"`
	Status       string            `json:"status"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    string            `json:"updatedAt"`
	Translations []translationJSON `json:"translations"`
}

func toPostJSON(p Post) postJSON {
	out := postJSON{
		ID: p.ID, Slug: p.Slug, Status: p.Status,
		CreatedAt: iso(p.CreatedAt), UpdatedAt: iso(p.UpdatedAt),
		Translations: make([]translationJSON, len(p.Translations)),
	}
	for i, t := range p.Translations {
		out.Translations[i] = translationJSON(t)
	}
	return out
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return model.StatusDraft
	}
	return s
}

func validStatus(s string) bool {
	switch s {
	case model.StatusDraft, model.StatusPublished, model.StatusArchived:
		return true
	}
	return false
}

// baseSlug derives the post slug from the first translation title, or from
// the requested slug when there are no translations.
func baseSlug(p model.PostPayload) (string, string) {
	if len(p.Translations) > 0 {
		slug := form.Slugify(p.Translations[0].Title)
		if slug == "" {
			return "", "Impossibile generare slug dal titolo della prima traduzione."
		}
		return slug, ""
	}
	slug := strings.ToLower(strings.TrimSpace(p.Slug))
	if slug == "" {
		return "", "Slug obbligatorio quando non ci sono traduzioni."
	}
	return slug, ""
}

func translationSlug(requested, title, locale string) string {
	if s := strings.ToLower(strings.TrimSpace(requested)); s != "" {
		return s
	}
	if s := form.Slugify(title); s != "" {
		return s
	}
	return locale
}

func checkPayload(p model.PostPayload) string {
	for _, t := range p.Translations {
		if strings.TrimSpace(t.Locale) == "" || strings.TrimSpace(t.Title) == "" {
			return "Ogni traduzione richiede locale e titolo."
		}
	}
	return ""
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	title := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("title")))
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))

	s.st.mu.Lock()
	out := make([]postJSON, 0, len(s.st.posts))
	for _, p := range s.st.posts {
		if status != "" && p.Status != status {
			continue
		}
		if title != "" && !slices.ContainsFunc(p.Translations, func(t Translation) bool {
			return strings.Contains(strings.ToLower(t.Title), title)
		}) {
			continue
		}
		out = append(out, toPostJSON(p))
	}
	s.st.mu.Unlock()

	slices.SortStableFunc(out, func(a, b postJSON) int { return strings.Compare(b.CreatedAt, a.CreatedAt) })
	writeJSON(w, http.StatusOK, pageOf(out, 0, max(len(out), 1)))
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	i := s.st.postIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post non trovato con id: "+id)
		return
	}
	writeJSON(w, http.StatusOK, toPostJSON(s.st.posts[i]))
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req model.PostPayload
	if !readJSON(w, r, &req) {
		return
	}
	if msg := checkPayload(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	slug, msg := baseSlug(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.slugTaken(slug, "") {
		writeError(w, http.StatusConflict, "Slug già in uso: "+slug)
		return
	}
	now := s.now()
	p := Post{ID: newID(), Slug: slug, Status: normalizeStatus(req.Status), CreatedAt: now, UpdatedAt: now}
	for _, t := range req.Translations {
		loc := validate.NormalizeLocale(t.Locale)
		p.Translations = append(p.Translations, Translation{
			ID:      newID(),
			PostID:  p.ID,
			Locale:  loc,
			Slug:    s.st.uniqueTranslationSlug(translationSlug(t.Slug, t.Title, loc), loc, "", p.Translations),
			Title:   sanitize.HTML(form.TrimTitle(t.Title)),
			Content: sanitize.HTML(t.Content),
		})
	}
	s.st.posts = append(s.st.posts, p)
	s.st.audited(now, actor(r), "CREATE_POST", "POST", p.ID, clientIP(r))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "post": toPostJSON(p)})
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req model.PostPayload
	if !readJSON(w, r, &req) {
		return
	}
	if msg := checkPayload(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	i := s.st.postIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post non trovato con id: "+id)
		return
	}
	slug, msg := baseSlug(req)
	if msg != "" {
		slug = s.st.posts[i].Slug
	}
	if s.st.slugTaken(slug, id) {
		writeError(w, http.StatusConflict, "Slug già in uso: "+slug)
		return
	}

	p := s.st.posts[i]
	p.Slug = slug
	p.Status = normalizeStatus(req.Status)
	p.UpdatedAt = s.now()

	existing := p.Translations
	p.Translations = nil
	s.st.posts[i].Translations = nil
	for _, t := range req.Translations {
		loc := validate.NormalizeLocale(t.Locale)
		tr := Translation{ID: newID(), PostID: id, Locale: loc}
		if j := slices.IndexFunc(existing, func(e Translation) bool { return e.Locale == loc }); j >= 0 {
			tr.ID = existing[j].ID
		}
		tr.Slug = s.st.uniqueTranslationSlug(translationSlug(t.Slug, t.Title, loc), loc, tr.ID, p.Translations)
		tr.Title = sanitize.HTML(form.TrimTitle(t.Title))
		tr.Content = sanitize.HTML(t.Content)
		p.Translations = append(p.Translations, tr)
	}
	s.st.posts[i] = p
	s.st.audited(p.UpdatedAt, actor(r), "UPDATE_POST", "POST", id, clientIP(r))
	writeJSON(w, http.StatusOK, toPostJSON(p))
}

func (s *Server) patchPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status string `json:"status"`
		Slug   string `json:"slug"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if status == "" && slug == "" {
		writeError(w, http.StatusBadRequest, "Invia almeno uno tra 'status' e 'slug'.")
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	i := s.st.postIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post non trovato con id: "+id)
		return
	}
	if status != "" && !validStatus(status) {
		writeError(w, http.StatusBadRequest, "Il campo 'status' deve essere: published, draft o archived.")
		return
	}
	if slug != "" && s.st.slugTaken(slug, id) {
		writeError(w, http.StatusConflict, "Slug già in uso: "+slug)
		return
	}
	p := &s.st.posts[i]
	if status != "" {
		p.Status = status
	}
	if slug != "" {
		p.Slug = slug
	}
	p.UpdatedAt = s.now()
	s.st.audited(p.UpdatedAt, actor(r), "UPDATE_POST", "POST", id, clientIP(r))
	writeJSON(w, http.StatusOK, toPostJSON(*p))
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	i := s.st.postIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post non trovato con id: "+id)
		return
	}
	s.st.posts = slices.Delete(s.st.posts, i, i+1)
	s.st.audited(s.now(), actor(r), "DELETE_POST", "POST", id, clientIP(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) nextRun(w http.ResponseWriter, _ *http.Request) {
	s.st.mu.Lock()
	next := s.st.nextRun
	s.st.mu.Unlock()
	body := map[string]any{"nextRun": nil}
	if next != nil {
		body["nextRun"] = iso(*next)
	}
	writeJSON(w, http.StatusOK, body)
}

// Public API.

type publicTranslationJSON struct {
	ID      string `json:"id"`
	Locale  string `json:"locale"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type publicPostJSON struct {
	ID           string                  `json:"id"`
	Slug         string                  `json:"slug"`
	Status       string                  `json:"status"`
	CreatedAt    string                  `json:"createdAt"`
	UpdatedAt    string                  `json:"updatedAt"`
	Translations []publicTranslationJSON `json:"translations"`
}

// publicPosts lists published posts. Translations without a title or
// content are not exposed.
func (s *Server) publicPosts(w http.ResponseWriter, _ *http.Request) {
	s.st.mu.Lock()
	out := []publicPostJSON{}
	for _, p := range s.st.posts {
		if p.Status != model.StatusPublished {
			continue
		}
		pp := publicPostJSON{
			ID: p.ID, Slug: p.Slug, Status: p.Status,
			CreatedAt: iso(p.CreatedAt), UpdatedAt: iso(p.UpdatedAt),
			Translations: []publicTranslationJSON{},
		}
		for _, t := range p.Translations {
			if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Content) == "" {
				continue
			}
			pp.Translations = append(pp.Translations, publicTranslationJSON{
				ID: t.ID, Locale: t.Locale, Slug: t.Slug, Title: t.Title, Content: t.Content,
			})
		}
		out = append(out, pp)
	}
	s.st.mu.Unlock()
	slices.SortStableFunc(out, func(a, b publicPostJSON) int { return strings.Compare(b.CreatedAt, a.CreatedAt) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) publicPost(w http.ResponseWriter, r *http.Request) {
	locale := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "locale")))
	slug := chi.URLParam(r, "slug")
	if !slices.Contains(publicLocales, locale) {
		writeError(w, http.StatusBadRequest, "Locale non supportato: "+locale+". Valori ammessi: it, en, es.")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, p := range s.st.posts {
		if p.Status != model.StatusPublished {
			continue
		}
		for _, t := range p.Translations {
			if t.Locale == locale && t.Slug == slug {
				writeJSON(w, http.StatusOK, map[string]any{
					"id": p.ID, "slug": t.Slug, "locale": t.Locale, "title": t.Title,
					"content": t.Content, "createdAt": iso(p.CreatedAt),
					"updatedAt": iso(p.UpdatedAt), "status": p.Status,
				})
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, "Post non trovato per locale '"+locale+"' e slug '"+slug+"'")
}

const (
	msgContactSent    = "Messaggio inviato con successo."
	msgContactNoHTML  = "Nome, email e messaggio non possono contenere tag HTML o i caratteri < e >. Usa solo testo semplice."
	msgContactInvalid = "Nome, email valida e messaggio sono obbligatori."
)

func validContact(c model.ContactPayload) bool {
	if c.Name == "" || c.Message == "" {
		return false
	}
	_, err := mail.ParseAddress(c.Email)
	return err == nil
}

// createContact stores a contact message. A filled honeypot gets the same
// answer but nothing is stored.
func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactPayload
	if !readJSON(w, r, &req) {
		return
	}
	ok := map[string]any{"success": true, "message": msgContactSent}
	if strings.TrimSpace(req.Website) != "" {
		writeJSON(w, http.StatusCreated, ok)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	for _, v := range []string{req.Name, req.Email, req.Message} {
		if strings.ContainsAny(v, "<>") {
			writeError(w, http.StatusBadRequest, msgContactNoHTML)
			return
		}
	}
	if !validContact(req) {
		writeError(w, http.StatusBadRequest, msgContactInvalid)
		return
	}
	s.AddMessage(req.Name, req.Email, req.Message)
	writeJSON(w, http.StatusCreated, ok)
}
