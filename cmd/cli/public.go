package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/output"
	"github.com/and161185/folio-admin/internal/service"
	"github.com/and161185/folio-admin/internal/toast"
)

func (a *app) publicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "public",
		Short: "Read the public site API",
	}
	cmd.AddCommand(a.publicPostsCmd(), a.publicPostCmd())
	return cmd
}

func (a *app) publicService() (*service.PublicServiceImpl, error) {
	gw, err := a.public()
	if err != nil {
		return nil, err
	}
	return service.NewPublicService(gw), nil
}

func (a *app) publicPostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "List published posts in the --lang language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.publicService()
			if err != nil {
				return err
			}
			posts, err := svc.PostsForLanguage(cmd.Context(), a.cfg.Lang)
			if err != nil {
				return a.fail(toast.PostsLoad, err)
			}
			if len(posts) == 0 && a.printer.Format() == output.FormatTable {
				return a.printer.Message(a.text(textNoPosts))
			}
			rows := make([][]string, 0, len(posts))
			for _, p := range posts {
				title := p.Title
				if p.TranslationNotAvailableFor != "" {
					title += " [" + p.Locale + "]"
				}
				rows = append(rows, []string{p.Date, p.Slug, clip(title, 50), p.ReadTime, clip(p.Excerpt, 60)})
			}
			return a.printer.Table(output.Table{
				Headers: []string{"DATE", "SLUG", "TITLE", "READ", "EXCERPT"},
				Rows:    rows,
				Value:   posts,
			})
		},
	}
}

func (a *app) publicPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <locale> <slug>",
		Short: "Show one published post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.publicService()
			if err != nil {
				return err
			}
			d, err := svc.PostBySlug(cmd.Context(), args[0], args[1])
			if err != nil {
				return a.fail(toast.PostLoad, err)
			}
			if a.printer.Format() != output.FormatTable {
				return a.printer.Value(d)
			}
			if d.TranslationNotAvailableFor != "" {
				if err := a.printer.Message(fmt.Sprintf(a.text(textFallback), d.TranslationNotAvailableFor, d.Locale)); err != nil {
					return err
				}
			}
			head := d.Title + "\n" + d.Date
			if d.ReadTime != "" {
				head += " · " + d.ReadTime
			}
			return a.printer.Message(head + "\n\n" + d.Content)
		},
	}
}

func (a *app) contactCmd() *cobra.Command {
	var c model.ContactPayload
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message through the public contact form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.publicService()
			if err != nil {
				return err
			}
			if err := svc.SubmitContact(cmd.Context(), c); err != nil {
				return a.fail(toast.Generic, err)
			}
			return a.printer.Message(a.text(textContactSent))
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.Name, "name", "", "your name")
	f.StringVar(&c.Email, "email", "", "your email")
	f.StringVar(&c.Message, "message", "", "message text")
	f.StringVar(&c.Website, "website", "", "honeypot field, leave empty")
	_ = f.MarkHidden("website")
	return cmd
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.publicService()
			if err != nil {
				return err
			}
			if !svc.Health(cmd.Context()) {
				if cmd.Context().Err() != nil {
					return errInterrupted
				}
				return errors.New(a.text(textOffline))
			}
			return a.printer.Message(a.text(textOnline))
		},
	}
}
