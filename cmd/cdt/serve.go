package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpapi "github.com/tbourn/compound-data-tool/internal/http"
	"github.com/tbourn/compound-data-tool/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local store over HTTP",
		Long: `Runs a JSON API over the local store. When REFRESH_SCHEDULE is set, every
cached compound is actualized again on that cron schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	gin.SetMode(a.cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.svc, a.cfg, a.log)
	srv := httpapi.NewServer(a.cfg, r)

	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return err
	}

	var sched *scheduler.Scheduler
	if a.cfg.RefreshSchedule != "" {
		sched, err = scheduler.New(a.cfg.RefreshSchedule, a.svc, a.log)
		if err != nil {
			_ = ln.Close()
			return err
		}
		sched.Start()
		a.log.Info().Str("schedule", a.cfg.RefreshSchedule).Msg("refresh scheduled")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
	if a.onListen != nil {
		a.onListen(ln.Addr().String())
	}

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("scheduler stop")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
