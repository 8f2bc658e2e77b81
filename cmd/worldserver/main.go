package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/chunks"
	"github.com/LdDl/osmworld/internal/logging"
	"github.com/LdDl/osmworld/internal/observability"
	"github.com/LdDl/osmworld/internal/server"
	"github.com/LdDl/osmworld/pathfinder"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	dataDir        = flag.String("data-dir", "data", "Directory with 'roads.json' and 'pois.json' documents")
	addr           = flag.String("addr", ":8080", "Listen address")
	chunkSize      = flag.Float64("chunk-size", chunks.DefaultChunkSize, "Side of square chunk (meters)")
	loadDistance   = flag.Int("load-distance", chunks.DefaultLoadDistance, "Radius of loaded chunk window (chunks)")
	unloadDistance = flag.Int("unload-distance", chunks.DefaultUnloadDistance, "Radius beyond which chunks are unloaded (chunks)")
	updateInterval = flag.Duration("update-interval", chunks.DefaultUpdateInterval, "Minimum time between two effective observer updates")
	logLevel       = flag.String("log-level", "info", "Log level. Expected values: debug / info / warn / error")
	logFormat      = flag.String("log-format", "console", "Log format. Expected values: console / json")
)

func main() {
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("Server failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	dataset, err := osmworld.LoadDataset(*dataDir)
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded", zap.Int("roads", len(dataset.Roads)), zap.Int("pois", len(dataset.POIs)))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pfMetrics, err := observability.NewPathfinderMetrics(reg)
	if err != nil {
		return err
	}
	chunkMetrics, err := observability.NewChunkMetrics(reg)
	if err != nil {
		return err
	}

	manager, err := chunks.NewManager(nil,
		chunks.WithChunkSize(*chunkSize),
		chunks.WithLoadDistance(*loadDistance),
		chunks.WithUnloadDistance(*unloadDistance),
		chunks.WithUpdateInterval(*updateInterval),
		chunks.WithLogger(logger),
		chunks.WithMetrics(chunkMetrics),
	)
	if err != nil {
		return err
	}
	logger.Debug("Chunk manager configured", zap.Stringer("manager", manager))
	pf := pathfinder.New(pathfinder.WithLogger(logger), pathfinder.WithMetrics(pfMetrics))

	st := time.Now()
	world := server.NewWorld(dataset, pf, manager)
	logger.Info("World is ready", zap.Duration("elapsed", time.Since(st)), zap.Int("nodes", pf.NodeCount()), zap.Int("edges", pf.EdgeCount()))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(world, server.WithLogger(logger), server.WithGatherer(reg)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	errs := make(chan error, 1)
	go func() {
		logger.Info("Listening...", zap.String("addr", *addr))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "Can't serve")
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
