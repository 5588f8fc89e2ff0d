package main

import (
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/folio"
)

// version is set at build time via ldflags.
var version = "dev"

type options struct {
	configFile string
	debug      bool
	cfg        folio.SiteConfig
}

func (o *options) logger() *log.Logger {
	l := log.New("folio")
	l.SetLevel(log.WARN)
	if o.debug {
		l.SetLevel(log.DEBUG)
	}
	return l
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "folio",
		Short:         "A portfolio blog backed by a headless content store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := folio.LoadConfig(opts.configFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (environment variables override it)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(opts),
		newPostsCommand(opts),
		newImportCommand(opts),
		newDeleteCommand(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the folio version",
			// Printing the version needs no config.
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
			},
		},
	)
	return root
}
