package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/folio-admin/internal/config"
	"github.com/and161185/folio-admin/internal/output"
	"github.com/and161185/folio-admin/internal/session"
	"github.com/and161185/folio-admin/internal/toast"
)

func (a *app) loginCmd() *cobra.Command {
	var login, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Long: `Sign in with a username or email. Without --password the password is
read from the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.configured(); err != nil {
				return err
			}
			if strings.TrimSpace(login) == "" {
				return errors.New("--user is required")
			}
			if password == "" {
				p, err := a.readLine("Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = p
			}
			ctx := cmd.Context()
			m, err := a.session(ctx)
			if err != nil {
				return err
			}
			res := m.Login(ctx, strings.TrimSpace(login), password)
			if !res.Success {
				if res.Message == "" {
					return errInterrupted
				}
				return errors.New(res.Message)
			}
			name := login
			if u := m.State().User; u != nil {
				name = u.Username
			}
			return a.printer.Message(fmt.Sprintf(a.text(textLoggedIn), name))
		},
	}
	cmd.Flags().StringVarP(&login, "user", "u", "", "username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.session(ctx)
			if err != nil {
				return err
			}
			m.Verify(ctx)
			m.Logout(ctx)
			return a.printer.Message(a.text(textLoggedOut))
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the verified session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.session(ctx)
			if err != nil {
				return err
			}
			st := m.Verify(ctx)
			row := []string{"", "", fmt.Sprint(st.IsAuthenticated), "", ""}
			if st.User != nil {
				row[0], row[1] = st.User.Username, st.User.Email
			}
			if len(st.Roles) > 0 {
				row[3] = strings.Join(st.Roles, ",")
			}
			if !st.ExpiresAt.IsZero() {
				row[4] = st.ExpiresAt.Local().Format(time.DateTime)
			}
			headers := []string{"USER", "EMAIL", "AUTHENTICATED", "ROLES", "EXPIRES"}
			if a.store == nil && a.cfg.Session.Store == config.StorePostgres {
				v, err := a.schemaVersion(ctx)
				if err != nil {
					return err
				}
				headers = append(headers, "SCHEMA")
				row = append(row, v)
			}
			return a.printer.Table(output.Table{
				Headers: headers,
				Rows:    [][]string{row},
				Value:   st,
			})
		},
	}
}

func (a *app) passwordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover a forgotten password",
	}
	cmd.AddCommand(a.resetRequestCmd(), a.resetConfirmCmd())
	return cmd
}

func (a *app) resetRequestCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-request",
		Short: "Mail a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.configured(); err != nil {
				return err
			}
			ctx := cmd.Context()
			m, err := a.session(ctx)
			if err != nil {
				return err
			}
			return a.ack(m.RequestPasswordReset(ctx, email))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *app) resetConfirmCmd() *cobra.Command {
	var token, password, confirm string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the token from the reset mail",
		Long: `Set a new password. ` + session.PasswordHint + `.
Without --password the new password and its confirmation are read from
standard input, one per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.configured(); err != nil {
				return err
			}
			if strings.TrimSpace(token) == "" {
				return errors.New(session.MissingResetToken)
			}
			if password == "" {
				var err error
				if password, err = a.readLine("New password: "); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				if confirm, err = a.readLine("Confirm: "); err != nil {
					return fmt.Errorf("read confirmation: %w", err)
				}
			} else if !cmd.Flags().Changed("confirm") {
				confirm = password
			}
			if password != confirm {
				return errors.New(session.PasswordMismatch)
			}
			ctx := cmd.Context()
			m, err := a.session(ctx)
			if err != nil {
				return err
			}
			return a.ack(m.ConfirmPasswordReset(ctx, token, password))
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the reset link")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password")
	return cmd
}

// ack prints the backend acknowledgement of a reset step.
func (a *app) ack(res session.Result) error {
	if !res.Success {
		if res.Message == "" {
			return errInterrupted
		}
		return errors.New(res.Message)
	}
	if res.Message == "" {
		return a.notify(toast.Success(toast.Generic, a.cfg.Lang))
	}
	return a.printer.Message(res.Message)
}
