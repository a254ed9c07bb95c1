package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/UWorldJK/stocks-etl/internal/app/router"
	"github.com/UWorldJK/stocks-etl/internal/platform/http/handler"
	"github.com/UWorldJK/stocks-etl/internal/platform/scheduler"
)

const stopTimeout = 30 * time.Second

var runNow bool

// runCmd hosts the pipeline on a cron schedule until SIGINT or SIGTERM.
// A failed run is logged and the schedule keeps going; the service only
// exits on shutdown or on a startup error.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}
		defer c.Close()

		policy, err := scheduler.ParseOverlapPolicy(cfg.Schedule.OverlapPolicy)
		if err != nil {
			return err
		}
		sched := scheduler.New(slog.Default(), policy)
		if err := sched.Schedule(cfg.Schedule.CronSpec, "daily-pipeline", c.Pipeline.Run); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sched.Start()

		var srv *http.Server
		if cfg.App.StatusPort > 0 {
			statusH := handler.NewStatusHandler(sched, c.Query)
			srv = &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.App.StatusPort),
				Handler: router.NewRouter(statusH),
			}
			go func() {
				slog.Info("status server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("status server failed", "error", err)
				}
			}()
		}

		if runNow {
			// Goes through the scheduler so the startup pass shows up in
			// /status and is drained by Stop on shutdown.
			sched.RunNow()
		}

		<-ctx.Done()
		slog.Info("shutdown signal received")

		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if srv != nil {
			if err := srv.Shutdown(stopCtx); err != nil {
				slog.Error("status server shutdown failed", "error", err)
			}
		}
		return sched.Stop(stopCtx)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNow, "run-now", false, "run one pipeline pass immediately on startup")
}
