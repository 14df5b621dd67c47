package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/vendsite"
	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/logging"
)

func newRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "vendsite",
		Short:         "Vending solutions marketing site and admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (environment variables override it)")

	root.AddCommand(
		serveCommand(&cfgFile),
		exportCommand(&cfgFile),
		statusCommand(&cfgFile),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "vendsite %s\n", version)
			},
		},
	)
	return root
}

func serveCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vendsite.LoadConfig(*cfgFile)
			if err != nil {
				return err
			}
			app := vendsite.New(cfg, vendsite.DefaultViews())
			if err := app.Init(); err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- app.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
			defer cancel()
			return app.Shutdown(shutdownCtx)
		},
	}
}

func exportCommand(cfgFile *string) *cobra.Command {
	var (
		source string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every content type as one JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vendsite.LoadConfig(*cfgFile)
			if err != nil {
				return err
			}
			switch content.Source(source) {
			case "":
			case content.SourceCMS:
				cfg.Legacy.DSN = ""
			case content.SourceLegacy:
				cfg.Contentful.SpaceID = ""
			default:
				return fmt.Errorf("unknown source %q (want %s or %s)", source, content.SourceCMS, content.SourceLegacy)
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			bundle, err := vendsite.ExportCatalog(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "read only from this source (cms or legacy)")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file")
	return cmd
}

func statusCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the migration status of each content type",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vendsite.LoadConfig(*cfgFile)
			if err != nil {
				return err
			}
			store, err := vendsite.NewStore(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			statuses, err := store.ListMigrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tSTATUS\tUPDATED\tNOTE")
			for _, s := range statuses {
				updated := "-"
				if !s.UpdatedAt.IsZero() {
					updated = s.UpdatedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ContentType, s.Status, updated, s.Note)
			}
			return tw.Flush()
		},
	}
}
