package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/form"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/output"
	"github.com/and161185/folio-admin/internal/service"
	"github.com/and161185/folio-admin/internal/toast"
	"github.com/and161185/folio-admin/internal/view"
)

func (a *app) postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Blog posts",
	}
	cmd.AddCommand(
		a.postsListCmd(),
		a.postsShowCmd(),
		a.postsCreateCmd(),
		a.postsUpdateCmd(),
		a.postsDeleteCmd(),
		a.postsArchiveCmd(),
	)
	return cmd
}

func (a *app) postsListCmd() *cobra.Command {
	var (
		title string
		page  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			v := view.NewPosts(service.NewPostService(m.Gateway()))
			defer v.Close()
			if _, err := v.Load(ctx, title); err != nil {
				return a.fail(toast.PostsLoad, err)
			}
			p := v.Page(page - 1)
			rows := make([][]string, 0, len(p.Content))
			for _, post := range p.Content {
				locales := view.Locales(post)
				rows = append(rows, []string{
					post.ID, post.Slug, post.Status, strings.Join(locales, ","),
					clip(postTitle(post, locales), 50), when(post.UpdatedAt),
				})
			}
			return a.printer.Table(output.Table{
				Headers: []string{"ID", "SLUG", "STATUS", "LOCALES", "TITLE", "UPDATED"},
				Rows:    rows,
				Footer:  pageFooter(p),
				Value:   p,
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title contains")
	cmd.Flags().IntVar(&page, "page", 1, "page number, from 1")
	return cmd
}

// postTitle prefers the Italian title.
func postTitle(p model.Post, locales []string) string {
	if t, ok := p.Translations[form.DefaultLocale]; ok && t.Title != "" {
		return t.Title
	}
	for _, l := range locales {
		if t := p.Translations[l].Title; t != "" {
			return t
		}
	}
	return ""
}

func (a *app) postsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post with its translations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			d, err := service.NewPostService(m.Gateway()).Get(ctx, args[0])
			if err != nil {
				return a.fail(toast.PostLoad, err)
			}
			rows := make([][]string, 0, len(d.Translations))
			for _, t := range d.Translations {
				rows = append(rows, []string{t.Locale, t.Slug, clip(t.Title, 50), service.ReadTime(t.Content)})
			}
			return a.printer.Table(output.Table{
				Headers: []string{"LOCALE", "SLUG", "TITLE", "READ"},
				Rows:    rows,
				Footer:  fmt.Sprintf("%s  %s  %s  %s", d.ID, d.Slug, d.Status, when(d.CreatedAt)),
				Value:   d,
			})
		},
	}
}

// translationFlags are the repeated per-translation flags of create and
// update. The n-th --title and --content-file belong to the n-th --locale.
type translationFlags struct {
	slug     string
	status   string
	locales  []string
	titles   []string
	contents []string
}

func (tf *translationFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&tf.slug, "slug", "", "post slug (default: derived from the first title)")
	f.StringVar(&tf.status, "status", "", "status (draft, published, archived)")
	f.StringArrayVar(&tf.locales, "locale", nil, "translation locale, repeatable")
	f.StringArrayVar(&tf.titles, "title", nil, "translation title, repeatable")
	f.StringArrayVar(&tf.contents, "content-file", nil, "translation HTML file or -, repeatable")
}

// apply writes the flags into e. On a new post the n-th --locale fills the
// n-th row; on an existing one rows are matched by locale and unknown
// locales add a row.
func (a *app) apply(e *form.Editor, tf translationFlags, fresh bool) error {
	n := max(len(tf.locales), len(tf.titles), len(tf.contents))
	if len(tf.locales) < n && (len(tf.locales) > 0 || n > 1) {
		return errors.New("every --title and --content-file needs its --locale")
	}
	if tf.status != "" {
		e.Status = strings.ToLower(strings.TrimSpace(tf.status))
	}
	for i := range n {
		row := 0
		if len(tf.locales) > 0 {
			loc := strings.TrimSpace(tf.locales[i])
			row = rowFor(e, loc, fresh, i)
			e.SetLocale(row, loc)
		}
		if i < len(tf.titles) {
			e.SetTitle(row, tf.titles[i])
		}
		if i < len(tf.contents) {
			b, err := a.readAll(tf.contents[i])
			if err != nil {
				return fmt.Errorf("read content: %w", err)
			}
			e.SetContent(row, string(b))
		}
	}
	if tf.slug != "" {
		e.SetSlug(0, tf.slug)
	}
	return nil
}

func rowFor(e *form.Editor, locale string, fresh bool, n int) int {
	switch {
	case fresh && n == 0:
		return 0
	case fresh:
		return e.Add()
	}
	for i, r := range e.Rows() {
		if strings.EqualFold(strings.TrimSpace(r.Locale), locale) {
			return i
		}
	}
	return e.Add()
}

// payload builds the request body or reports every form problem.
func payload(e *form.Editor) (model.PostPayload, error) {
	p, err := e.Payload()
	if errs.KindOf(err) == errs.KindValidation {
		return p, errors.New(strings.Join(e.Problems(), "\n"))
	}
	return p, err
}

func (a *app) postsCreateCmd() *cobra.Command {
	var tf translationFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Example: `  pa posts create --locale it --title "Primo articolo" --content-file it.html \
    --locale en --title "First post" --content-file en.html --status published`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := form.NewEditor()
			if err := a.apply(e, tf, true); err != nil {
				return err
			}
			p, err := payload(e)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			res, err := service.NewPostService(m.Gateway()).Create(ctx, p)
			if err != nil {
				return a.fail(toast.PostCreate, err)
			}
			e.MarkSaved()
			t := toast.Created(res.Conflict, a.cfg.Lang)
			if a.printer.Format() != output.FormatTable {
				return a.printer.Value(res)
			}
			return a.printer.Message(t.Message + " " + res.ID)
		},
	}
	tf.bind(cmd)
	return cmd
}

func (a *app) postsUpdateCmd() *cobra.Command {
	var (
		tf     translationFlags
		remove []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a post",
		Long: `Edit a post. Translations are matched by --locale: an existing one is
changed, a new one is added. Flags left out keep their current values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			svc := service.NewPostService(m.Gateway())
			d, err := svc.Get(ctx, args[0])
			if err != nil {
				return a.fail(toast.PostLoad, err)
			}
			e := form.EditorFor(d)
			for _, loc := range remove {
				for i, r := range e.Rows() {
					if strings.EqualFold(r.Locale, strings.TrimSpace(loc)) {
						e.Remove(i)
						break
					}
				}
			}
			if err := a.apply(e, tf, false); err != nil {
				return err
			}
			p, err := payload(e)
			if err != nil {
				return err
			}
			if err := svc.Update(ctx, d.ID, p); err != nil {
				return a.fail(toast.PostUpdate, err)
			}
			e.MarkSaved()
			return a.notify(toast.Success(toast.PostUpdate, a.cfg.Lang))
		},
	}
	tf.bind(cmd)
	cmd.Flags().StringArrayVar(&remove, "remove-locale", nil, "drop the translation for a locale, repeatable")
	return cmd
}

func (a *app) postsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			v := view.NewPosts(service.NewPostService(m.Gateway()))
			defer v.Close()
			if err := v.Delete(ctx, args[0]); err != nil {
				return a.fail(toast.PostDelete, err)
			}
			return a.notify(toast.Success(toast.PostDelete, a.cfg.Lang))
		},
	}
}

func (a *app) postsArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			v := view.NewPosts(service.NewPostService(m.Gateway()))
			defer v.Close()
			if err := v.Archive(ctx, args[0]); err != nil {
				return a.fail(toast.PostArchive, err)
			}
			return a.notify(toast.Success(toast.PostArchive, a.cfg.Lang))
		},
	}
}
