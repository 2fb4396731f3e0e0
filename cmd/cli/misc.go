package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/folio-admin/internal/output"
	"github.com/and161185/folio-admin/internal/sanitize"
	"github.com/and161185/folio-admin/internal/service"
	"github.com/and161185/folio-admin/internal/toast"
)

func (a *app) retentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Data-retention scheduler",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "next-run",
		Short: "Show when old messages and logs are purged next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := a.authed(ctx)
			if err != nil {
				return err
			}
			next, err := service.NewSchedulerService(m.Gateway()).NextRun(ctx)
			if err != nil {
				return a.fail(toast.RetentionLoad, err)
			}
			if a.printer.Format() != output.FormatTable {
				return a.printer.Value(map[string]any{"nextRun": next})
			}
			if next == nil {
				return a.printer.Message(a.text(textNoNextRun))
			}
			return a.printer.Message(next.Local().Format(time.DateTime))
		},
	})
	return cmd
}

func (a *app) sanitizeCmd() *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "sanitize <file|->",
		Short: "Clean HTML the way post content is stored",
		Long: `Print the file (or standard input) restricted to the tags and
attributes allowed in post content. With --preview external links also
get target="_blank" and rel="noopener noreferrer", as on the site.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			b, err := a.readAll(args[0])
			if err != nil {
				return err
			}
			clean := sanitize.HTML(string(b))
			if preview {
				clean = sanitize.Preview(string(b))
			}
			_, err = fmt.Fprintln(a.out, clean)
			return err
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "sanitize for display")
	return cmd
}

func versionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(w, version)
				return
			}
			fmt.Fprintf(w, "pa %s (built %s, %s, %s/%s)\n", version, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")
	return cmd
}
