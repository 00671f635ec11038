package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lirsacc/crible/internal/config"
	"github.com/lirsacc/crible/internal/executor"
	"github.com/lirsacc/crible/internal/httpapi"
	"github.com/lirsacc/crible/internal/logging"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP server over a backend",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "backend", EnvVars: []string{config.EnvBackend}, Value: "memory://", Usage: "backend url (memory://, fs://, redis://)"},
		&cli.StringFlag{Name: "listen", EnvVars: []string{config.EnvBind}, Value: config.DefaultBind, Usage: "address to listen on"},
		&cli.BoolFlag{Name: "read-only", EnvVars: []string{config.EnvReadOnly}, Usage: "reject all mutating operations"},
		&cli.IntFlag{Name: "refresh", EnvVars: []string{config.EnvRefreshTimeout}, Usage: "periodic backend reload interval in milliseconds (0 disables)"},
		&cli.IntFlag{Name: "threads", EnvVars: []string{config.EnvThreadCount}, Usage: "worker pool size (default: number of CPUs)"},
		&cli.IntFlag{Name: "queue-size", EnvVars: []string{config.EnvRequestQueueSize}, Usage: "admission queue size (default: threads * 10)"},
		&cli.IntFlag{Name: "tcp-keep-alive", Value: 15, Usage: "TCP keep-alive interval in seconds"},
		&cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	cfg := config.Server{
		BackendURL:      c.String("backend"),
		Bind:            c.String("listen"),
		ReadOnly:        c.Bool("read-only"),
		RefreshInterval: c.Int("refresh"),
		Threads:         c.Int("threads"),
		QueueSize:       c.Int("queue-size"),
		Debug:           c.Bool("debug"),
	}

	log := logging.New(c.App.Writer, cfg.Debug)
	if !cfg.ReadOnly && cfg.RefreshInterval > 0 {
		log.Warn("periodic reload is enabled in read-write mode; a reload can overwrite mutations that have not been flushed yet")
	}

	be, err := cfg.BuildBackend()
	if err != nil {
		return err
	}

	idx, err := be.Load(c.Context)
	if err != nil {
		return err
	}

	ex := executor.New(be, idx, cfg.ExecutorOptions())
	defer ex.Close()

	log.WithFields(map[string]interface{}{
		"backend":   cfg.BackendURL,
		"threads":   cfg.ResolvedThreads(),
		"read_only": cfg.ReadOnly,
		"listen":    cfg.Bind,
	}).Info("starting crible server")

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lc := net.ListenConfig{KeepAlive: time.Duration(c.Int("tcp-keep-alive")) * time.Second}
	ln, err := lc.Listen(ctx, "tcp", cfg.Bind)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: httpapi.New(ex, log)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if cfg.RefreshInterval > 0 {
		g.Go(func() error {
			return runPeriodicReload(gctx, ex, time.Duration(cfg.RefreshInterval)*time.Millisecond, log)
		})
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("error during graceful shutdown")
	}

	return g.Wait()
}

// runPeriodicReload reloads the index from the backend on a fixed
// interval, used with --refresh in read-heavy deployments where another
// process owns writes to the backend.
func runPeriodicReload(ctx context.Context, ex *executor.Executor, every time.Duration, log *logrus.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := ex.Reload(ctx); err != nil {
				log.WithError(err).Warn("periodic reload failed")
			}
		}
	}
}
