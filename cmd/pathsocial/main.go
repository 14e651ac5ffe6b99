package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/pathsocial/internal/buildinfo"
	"github.com/dmitrijs2005/pathsocial/internal/cli"
	"github.com/dmitrijs2005/pathsocial/internal/config"
	"github.com/dmitrijs2005/pathsocial/internal/logging"
	"github.com/dmitrijs2005/pathsocial/internal/metrics"
	"github.com/dmitrijs2005/pathsocial/internal/persistence"
	"github.com/dmitrijs2005/pathsocial/internal/store"
	"github.com/dmitrijs2005/pathsocial/internal/watch"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	logger := logging.NewConsoleLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	initSignalHandler(cancel)

	pm, err := persistence.New(cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("data dir init error: %w", err)
	}

	st, err := store.Open(ctx, store.Options{
		Persister: pm,
		Detector:  watch.NewMTimeDetector(pm.DataPath()),
		Logger:    logger,
		Metrics:   metrics.New(),
	})
	if err != nil {
		return fmt.Errorf("store init error: %w", err)
	}
	defer st.Close()

	logger.Info(ctx, "store ready", "data_dir", cfg.DataDir, "poll_interval", cfg.PollInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return st.Watch(gctx, cfg.PollInterval)
	})
	g.Go(func() error {
		// Leaving the shell stops the watcher too.
		defer cancel()
		return cli.NewShell(st, os.Stdin, os.Stdout, logger).Run(gctx)
	})

	return g.Wait()
}

func initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancel()
	}()
}
