package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/folio"
	"github.com/eringen/folio/content"
)

func newImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load post documents into the local document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			docs, err := folio.DecodeDocuments(f)
			if err != nil {
				return err
			}

			store, err := content.NewSQLiteSource(opts.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open document store: %w", err)
			}
			defer store.Close()

			n, err := folio.ImportDocuments(cmd.Context(), store, docs)
			if err != nil {
				return err
			}
			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents into %s (%d total)\n", n, opts.cfg.DatabasePath, total)
			return nil
		},
	}
}
