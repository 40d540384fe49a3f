package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/homesweep/internal/daemon"
	"github.com/fenilsonani/homesweep/internal/server"
)

var (
	serveListen     string
	serveNoSchedule bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run scheduled report scans",
	Long: `Starts the HTTP API (GET /api/scan, POST /api/apply, GET /api/status,
GET /api/trash, POST /api/trash/{id}/restore) and, unless disabled, the
report-only schedules from the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Server.Listen
		if serveListen != "" {
			addr = serveListen
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)

		srv := server.New(a.engine, a.cfg.Server.StaticDir, a.log)
		g.Go(func() error {
			return srv.ListenAndServe(ctx, addr)
		})

		if !serveNoSchedule && len(a.cfg.Schedules) > 0 {
			d := daemon.New(a.engine, a.cfg, a.log)
			g.Go(func() error {
				return d.Run(ctx)
			})
		}

		g.Go(func() error {
			pruneCache(ctx, a.cfg.CacheTTLDuration(), a.engine.PruneCache)
			return nil
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "do not run configured schedules")
}

// pruneCache drops expired reports once per TTL until ctx is done
func pruneCache(ctx context.Context, ttl time.Duration, prune func() int) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
