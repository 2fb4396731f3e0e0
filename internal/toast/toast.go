// Package toast turns classified errors into short user-facing notices.
// Raw backend text never passes through here: every message comes from a
// fixed table keyed by action and error kind.
package toast

import (
	"strings"

	"github.com/and161185/folio-admin/internal/errs"
)

// Level is the notice severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Toast is one notice. RedirectToLogin is set when the session is gone.
type Toast struct {
	Level           Level
	Message         string
	RedirectToLogin bool
}

// Action names the user operation that produced an outcome.
type Action string

const (
	MessagesLoad  Action = "messages.load"
	MessageDelete Action = "messages.delete"
	AuditLoad     Action = "audit.load"
	PostsLoad     Action = "posts.load"
	PostLoad      Action = "post.load"
	PostCreate    Action = "post.create"
	PostUpdate    Action = "post.update"
	PostDelete    Action = "post.delete"
	PostArchive   Action = "post.archive"
	RetentionLoad Action = "retention.load"
	Generic       Action = "generic"
)

// Languages with a message table.
const (
	LangIT = "it"
	LangEN = "en"
)

type texts struct {
	success   string
	forbidden string
	notFound  string
	conflict  string
	failed    string
}

type catalog struct {
	sessionExpired  string
	sessionReLogin  string
	rateLimit       string
	network         string
	notConfigured   string
	invalidID       string
	validation      string
	createdConflict string
	actions         map[Action]texts
}

var catalogs = map[string]catalog{
	LangIT: {
		sessionExpired:  "Sessione scaduta.",
		sessionReLogin:  "Sessione scaduta. Effettua di nuovo l'accesso.",
		rateLimit:       "Troppe richieste. Riprova tra poco.",
		network:         "Impossibile contattare il server. Verifica la connessione.",
		notConfigured:   "API non configurata: imposta api_url.",
		invalidID:       "Identificativo non valido.",
		validation:      "Dati non validi.",
		createdConflict: "Articolo creato ma con conflitto (es. una traduzione non salvata). Apri la modifica per verificare.",
		actions: map[Action]texts{
			MessagesLoad: {forbidden: "Non hai i permessi per visualizzare i messaggi.", failed: "Impossibile caricare i messaggi."},
			MessageDelete: {
				success: "Messaggio eliminato.", forbidden: "Permessi insufficienti.",
				notFound: "Messaggio non trovato o già eliminato.", failed: "Eliminazione non riuscita.",
			},
			AuditLoad: {forbidden: "Non hai i permessi per visualizzare i log.", failed: "Impossibile caricare i log di audit."},
			PostsLoad: {forbidden: "Non hai i permessi per visualizzare gli articoli.", failed: "Impossibile caricare gli articoli."},
			PostLoad:  {forbidden: "Non hai i permessi per visualizzare l'articolo.", notFound: "Articolo non trovato.", failed: "Impossibile caricare l'articolo."},
			PostCreate: {
				success: "Articolo creato.", forbidden: "Non hai i permessi per creare articoli.",
				conflict: "Conflitto (409). Se l'articolo è stato creato comunque, cercalo nell'elenco e aprilo in modifica per aggiungere le traduzioni.",
				failed:   "Impossibile creare l'articolo.",
			},
			PostUpdate: {
				success: "Articolo aggiornato.", forbidden: "Non hai i permessi per modificare articoli.",
				notFound: "Articolo non trovato.", conflict: "Conflitto: slug già in uso.",
				failed: "Impossibile salvare l'articolo.",
			},
			PostDelete: {
				success: "Articolo eliminato.", forbidden: "Non hai i permessi per eliminare.",
				notFound: "Articolo non trovato.", failed: "Impossibile eliminare l'articolo.",
			},
			PostArchive: {
				success: "Articolo archiviato.", forbidden: "Non hai i permessi per archiviare.",
				notFound: "Articolo non trovato.", failed: "Impossibile archiviare l'articolo.",
			},
			RetentionLoad: {forbidden: "Permessi insufficienti.", failed: "Impossibile leggere la prossima esecuzione."},
			Generic:       {success: "Fatto.", forbidden: "Permessi insufficienti.", notFound: "Non trovato.", failed: "Operazione non riuscita."},
		},
	},
	LangEN: {
		sessionExpired:  "Session expired.",
		sessionReLogin:  "Session expired. Please sign in again.",
		rateLimit:       "Too many requests. Try again shortly.",
		network:         "Cannot reach the server. Check your connection.",
		notConfigured:   "API not configured: set api_url.",
		invalidID:       "Invalid identifier.",
		validation:      "Invalid input.",
		createdConflict: "Post created with a conflict (e.g. a translation was not saved). Open it for editing to check.",
		actions: map[Action]texts{
			MessagesLoad: {forbidden: "You are not allowed to view messages.", failed: "Could not load messages."},
			MessageDelete: {
				success: "Message deleted.", forbidden: "Insufficient permissions.",
				notFound: "Message not found or already deleted.", failed: "Delete failed.",
			},
			AuditLoad: {forbidden: "You are not allowed to view audit logs.", failed: "Could not load audit logs."},
			PostsLoad: {forbidden: "You are not allowed to view posts.", failed: "Could not load posts."},
			PostLoad:  {forbidden: "You are not allowed to view this post.", notFound: "Post not found.", failed: "Could not load the post."},
			PostCreate: {
				success: "Post created.", forbidden: "You are not allowed to create posts.",
				conflict: "Conflict (409). If the post was created anyway, find it in the list and edit it to add translations.",
				failed:   "Could not create the post.",
			},
			PostUpdate: {
				success: "Post updated.", forbidden: "You are not allowed to edit posts.",
				notFound: "Post not found.", conflict: "Conflict: slug already in use.",
				failed: "Could not save the post.",
			},
			PostDelete: {
				success: "Post deleted.", forbidden: "You are not allowed to delete.",
				notFound: "Post not found.", failed: "Could not delete the post.",
			},
			PostArchive: {
				success: "Post archived.", forbidden: "You are not allowed to archive.",
				notFound: "Post not found.", failed: "Could not archive the post.",
			},
			RetentionLoad: {forbidden: "Insufficient permissions.", failed: "Could not read the next run."},
			Generic:       {success: "Done.", forbidden: "Insufficient permissions.", notFound: "Not found.", failed: "Operation failed."},
		},
	},
}

func lookup(lang string) catalog {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if c, ok := catalogs[lang]; ok {
		return c
	}
	return catalogs[LangIT]
}

func (c catalog) forAction(a Action) texts {
	if t, ok := c.actions[a]; ok {
		return t
	}
	return c.actions[Generic]
}

// loads reports whether a is a read: reads ask the user to sign in again.
func loads(a Action) bool {
	return strings.HasSuffix(string(a), ".load")
}

// FromError maps err to a notice for action a. ok is false when nothing
// should be shown: a nil error or a cancelled request.
func FromError(a Action, err error, lang string) (Toast, bool) {
	if err == nil || errs.IsAborted(err) {
		return Toast{}, false
	}
	c := lookup(lang)
	t := c.forAction(a)
	msg := t.failed
	switch errs.KindOf(err) {
	case errs.KindUnauthorized:
		msg = c.sessionExpired
		if loads(a) {
			msg = c.sessionReLogin
		}
		return Toast{Level: LevelError, Message: msg, RedirectToLogin: true}, true
	case errs.KindForbidden:
		msg = t.forbidden
	case errs.KindNotFound:
		msg = t.notFound
	case errs.KindConflict:
		msg = t.conflict
	case errs.KindRateLimit:
		msg = c.rateLimit
	case errs.KindNetwork:
		msg = c.network
	case errs.KindNotConfigured:
		msg = c.notConfigured
	case errs.KindInvalidID:
		msg = c.invalidID
	case errs.KindValidation:
		msg = c.validation
	}
	if msg == "" {
		msg = t.failed
	}
	return Toast{Level: LevelError, Message: msg}, true
}

// Success returns the confirmation notice for a.
func Success(a Action, lang string) Toast {
	t := lookup(lang).forAction(a)
	if t.success == "" {
		t = lookup(lang).forAction(Generic)
	}
	return Toast{Level: LevelSuccess, Message: t.success}
}

// Created reports the outcome of a post create, including a soft conflict.
func Created(conflict bool, lang string) Toast {
	if conflict {
		return Toast{Level: LevelInfo, Message: lookup(lang).createdConflict}
	}
	return Success(PostCreate, lang)
}
