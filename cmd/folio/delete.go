package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/folio/content"
)

func newDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|slug>",
		Short: "Remove a post document from the local document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := content.NewSQLiteSource(opts.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open document store: %w", err)
			}
			defer store.Close()

			n, err := store.DeleteDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("no document with id or slug %q in %s", args[0], opts.cfg.DatabasePath)
			}
			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d documents from %s (%d left)\n", n, opts.cfg.DatabasePath, total)
			return nil
		},
	}
}
