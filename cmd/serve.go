package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/relmap/internal/editor"
	"github.com/msalah0e/relmap/internal/server"
	"github.com/msalah0e/relmap/internal/ui"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor over HTTP",
		Long: `Serve the map over HTTP with a JSON API for every edit, import and
export, and Prometheus metrics at /metrics. Changes are saved after a quiet
period and on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ws, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			saver := editor.NewAutoSaver(ws, a.cfg.Editor.AutosaveDelay.Duration, a.logger, nil)
			ws.store.Subscribe(saver.Schedule)

			srv := server.New(server.Config{Addr: addr, Generator: ws.gen}, ws.store, a.logger, a.metrics)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ui.Banner(cmd.OutOrStdout(), "serving")
			ui.Info.Fprintf(cmd.OutOrStdout(), "  http://%s\n", addr)
			ui.Subtle.Fprintf(cmd.OutOrStdout(), "  Stored in %s · Ctrl+C to stop\n", ws.location)
			if open {
				_ = openBrowser("http://" + addr)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				saver.Flush(context.Background())
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Saved and stopped\n", ui.StatusIcon(true))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the editor in the browser")
	return cmd
}
