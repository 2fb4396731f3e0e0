package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/output"
	"github.com/and161185/folio-admin/internal/service"
	"github.com/and161185/folio-admin/internal/toast"
	"github.com/and161185/folio-admin/internal/validate"
	"github.com/and161185/folio-admin/internal/view"
)

func (a *app) messagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msg"},
		Short:   "Contact-form messages",
	}
	cmd.AddCommand(a.messagesListCmd(), a.messagesDeleteCmd())
	return cmd
}

func (a *app) messagesListCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			v := view.NewMessages(service.NewMessageService(m.Gateway()))
			defer v.Close()
			p, err := v.Load(ctx, page-1)
			if err != nil {
				return a.fail(toast.MessagesLoad, err)
			}
			rows := make([][]string, 0, len(p.Content))
			for _, msg := range p.Content {
				rows = append(rows, []string{msg.ID, when(msg.ReceivedAt), msg.Name, msg.Email, clip(msg.Message, 60)})
			}
			return a.printer.Table(output.Table{
				Headers: []string{"ID", "RECEIVED", "NAME", "EMAIL", "MESSAGE"},
				Rows:    rows,
				Footer:  pageFooter(p),
				Value:   p,
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, from 1")
	return cmd
}

func (a *app) messagesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			v := view.NewMessages(service.NewMessageService(m.Gateway()))
			defer v.Close()
			if err := v.Delete(ctx, args[0]); err != nil {
				return a.fail(toast.MessageDelete, err)
			}
			return a.notify(toast.Success(toast.MessageDelete, a.cfg.Lang))
		},
	}
}

func (a *app) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log of privileged actions",
	}
	cmd.AddCommand(a.auditListCmd())
	return cmd
}

func (a *app) auditListCmd() *cobra.Command {
	var (
		page int
		q    model.AuditLogQuery
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries, newest first",
		Long: `List audit log entries. Dates are ISO 8601 (2026-02-15 or
2026-02-15T10:00:00Z); a date-only --to covers the whole day.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			v := view.NewAuditLogs(service.NewAuditLogService(m.Gateway()))
			defer v.Close()
			q.Page = page - 1
			p, err := v.Load(ctx, q)
			if err != nil {
				return a.fail(toast.AuditLoad, err)
			}
			rows := make([][]string, 0, len(p.Content))
			for _, e := range p.Content {
				rows = append(rows, []string{when(e.Timestamp), e.Action, e.Entity, e.UserEmail, e.DisplayIP()})
			}
			return a.printer.Table(output.Table{
				Headers: []string{"TIME", "ACTION", "ENTITY", "USER", "IP"},
				Rows:    rows,
				Footer:  pageFooter(p),
				Value:   p,
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", 1, "page number, from 1")
	f.StringVar(&q.Action, "action", "", "action, e.g. LOGIN_SUCCESS")
	f.StringVar(&q.UserEmail, "user", "", "user email contains")
	f.StringVar(&q.DateFrom, "from", "", "from date")
	f.StringVar(&q.DateTo, "to", "", "to date")
	return cmd
}

// when renders an ISO timestamp in local time, or returns it unchanged.
func when(iso string) string {
	t, ok := validate.ParseISO(iso)
	if !ok {
		return iso
	}
	return t.Local().Format(time.DateTime)
}

// clip shortens s to n runes on one line.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pageFooter[T any](p model.Page[T]) string {
	return fmt.Sprintf("page %d/%d, %d total", p.Number+1, max(p.TotalPages, 1), p.TotalElements)
}
