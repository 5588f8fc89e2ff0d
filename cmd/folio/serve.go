package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/folio"
)

func newServeCommand(opts *options) *cobra.Command {
	var addr, static string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the blog server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Addr = addr
			}
			app := folio.New(cfg, folio.DefaultViews, folio.WithStaticDir(static))
			if opts.debug {
				app.Echo.Logger.SetLevel(log.DEBUG)
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
			shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.Echo.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&static, "static", "public", "directory served under /public")
	return cmd
}
