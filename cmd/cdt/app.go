package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/compound-data-tool/internal/config"
	"github.com/tbourn/compound-data-tool/internal/observability"
	"github.com/tbourn/compound-data-tool/internal/pdbe"
	"github.com/tbourn/compound-data-tool/internal/repo"
	"github.com/tbourn/compound-data-tool/internal/services"
	"github.com/tbourn/compound-data-tool/internal/sysutil"
)

// annotationNoStore marks commands that run without opening the store.
const annotationNoStore = "cdt/no-store"

// app holds the per-process state shared by all commands. It is populated
// by setup once cobra has picked the command and released by close.
type app struct {
	cfg     config.Config
	verbose bool

	log          zerolog.Logger
	logReady     bool
	logFile      io.Closer
	shutdownOTel observability.ShutdownFunc
	db           *gorm.DB
	svc          *services.CompoundService

	// fetcher replaces the PDBe client when set.
	fetcher pdbe.Fetcher
	// onListen is called with the bound address once serve is accepting.
	onListen func(addr string)
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	log, closer, err := sysutil.NewLogger(cmd.ErrOrStderr(), cfg.LogFile, level, cfg.LogPretty)
	if err != nil {
		return err
	}
	a.log, a.logFile, a.logReady = log, closer, true
	a.log.Debug().Str("command", cmd.Name()).Strs("args", args).Msg("command started")

	mode := "cli"
	if cmd.Name() == "serve" {
		mode = "serve"
	}
	a.shutdownOTel, err = observability.SetupOTel(cmd.Context(), cfg.OTEL, version, mode, a.log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	// cobra's built-in help and completion commands share the root hooks.
	if cmd.Annotations[annotationNoStore] == "true" || cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	a.db, err = repo.Open(cfg.DSN(), a.verbose)
	if err != nil {
		return err
	}
	fetcher := a.fetcher
	if fetcher == nil {
		fetcher = pdbe.NewClient(cfg.PDBEBaseURL, cfg.HTTPTimeout, a.log)
	}
	a.svc = &services.CompoundService{
		DB:      a.db,
		Fetcher: pdbe.NewPaced(fetcher, cfg.DownloadDelay),
		Log:     a.log,
	}
	return nil
}

// close releases everything setup acquired, in reverse order. The metrics
// textfile is written first so it covers the whole run.
func (a *app) close() error {
	var errs []error
	if a.logReady {
		if err := observability.WriteTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.shutdownOTel(ctx))
		cancel()
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// run executes one command line and tears the app down. Errors that reach
// here are infrastructure failures or malformed invocations; they are logged
// (or printed when logging is not set up yet) and returned.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, a *app) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		if a.logReady {
			a.log.Error().Err(err).Msg("command failed")
		} else {
			fmt.Fprintln(stderr, "Error:", err)
		}
	}
	if cerr := a.close(); cerr != nil {
		fmt.Fprintln(stderr, "Error:", cerr)
		if err == nil {
			err = cerr
		}
	}
	return err
}
