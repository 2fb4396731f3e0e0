package main

import (
	"github.com/spf13/cobra"

	"github.com/and161185/folio-admin/internal/toast"
)

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pa",
		Short: "Portfolio admin client",
		Long: `pa manages the portfolio backend from the terminal: contact messages,
audit logs, blog posts and the public site API.

The session is kept between runs in the configured store (file, memory,
redis or postgres) and verified against the backend before every
authenticated command.

Configuration comes from $XDG_CONFIG_HOME/folio-admin/config.yaml,
PA_* environment variables and the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	f := cmd.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/folio-admin/config.yaml)")
	f.String("api-url", "", "admin API base URL, e.g. https://example.com/api/admin")
	f.String("public-url", "", "public API base URL (default: api-url without /admin)")
	f.Duration("timeout", 0, "HTTP timeout")
	f.String("lang", "", "notice language (it, en)")
	f.StringP("output", "o", "", "output format (table, json, yaml)")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("profile", "", "session profile")
	f.String("trace-file", "", "append request spans as JSON to this file")
	f.String("metrics-file", "", "write request metrics in the Prometheus text format to this file")

	cmd.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.statusCmd(),
		a.passwordCmd(),
		a.messagesCmd(),
		a.auditCmd(),
		a.postsCmd(),
		a.retentionCmd(),
		a.sanitizeCmd(),
		a.publicCmd(),
		a.contactCmd(),
		a.healthCmd(),
		versionCmd(),
	)
	return cmd
}

// CLI-only strings; notices about API outcomes come from package toast.
type text int

const (
	textLoginRequired text = iota
	textLoginHint
	textLoggedIn
	textLoggedOut
	textOnline
	textOffline
	textNoNextRun
	textContactSent
	textNoPosts
	textFallback
)

var texts = map[string]map[text]string{
	toast.LangIT: {
		textLoginRequired: "Accesso richiesto: esegui 'pa login'.",
		textLoginHint:     "Esegui 'pa login'.",
		textLoggedIn:      "Accesso effettuato come %s.",
		textLoggedOut:     "Disconnesso.",
		textOnline:        "Backend raggiungibile.",
		textOffline:       "Backend non raggiungibile.",
		textNoNextRun:     "Nessuna esecuzione pianificata.",
		textContactSent:   "Messaggio inviato.",
		textNoPosts:       "Nessun articolo.",
		textFallback:      "Traduzione non disponibile per %q, mostrata %q.",
	},
	toast.LangEN: {
		textLoginRequired: "Sign-in required: run 'pa login'.",
		textLoginHint:     "Run 'pa login'.",
		textLoggedIn:      "Signed in as %s.",
		textLoggedOut:     "Signed out.",
		textOnline:        "Backend reachable.",
		textOffline:       "Backend unreachable.",
		textNoNextRun:     "No run scheduled.",
		textContactSent:   "Message sent.",
		textNoPosts:       "No posts.",
		textFallback:      "Translation not available for %q, showing %q.",
	},
}

func (a *app) text(t text) string {
	lang := toast.LangIT
	if a.cfg != nil && a.cfg.Lang == toast.LangEN {
		lang = toast.LangEN
	}
	return texts[lang][t]
}
