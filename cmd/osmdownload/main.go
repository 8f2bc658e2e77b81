package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/LdDl/osmworld/internal/logging"
	"github.com/LdDl/osmworld/overpass"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	regionName = flag.String("region", "reykjavik", "Name of region to download. Use --list to see available regions")
	out        = flag.String("out", "data/iceland.osm", "Filename of downloaded OSM XML extract")
	list       = flag.Bool("list", false, "Print available regions and exit")
	maxTries   = flag.Uint("max-tries", overpass.DefaultMaxTries, "Number of attempts per Overpass endpoint")
	noProgress = flag.Bool("no-progress", false, "Disable progress bar")
	logLevel   = flag.String("log-level", "info", "Log level. Expected values: debug / info / warn / error")
	logFormat  = flag.String("log-format", "console", "Log format. Expected values: console / json")
)

func main() {
	flag.Parse()

	if *list {
		for _, region := range overpass.Regions() {
			fmt.Println(region)
		}
		return
	}

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("Download failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	region, err := overpass.LookupRegion(*regionName)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	options := []func(*overpass.Client){
		overpass.WithMaxTries(*maxTries),
		overpass.WithLogger(logger),
	}
	if !*noProgress {
		bar := progressbar.DefaultBytes(-1, "Downloading "+region.Name)
		defer bar.Finish()
		options = append(options, overpass.WithProgress(bar))
	}
	client := overpass.NewClient(options...)
	logger.Debug("Client configured", zap.Stringer("client", client))
	logger.Info("Downloading region...", zap.String("region", region.Name), zap.Stringer("center", region.Center()))

	dir := filepath.Dir(*out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "Can't create output directory")
	}
	tmp, err := os.CreateTemp(dir, ".osmdownload-*")
	if err != nil {
		return errors.Wrap(err, "Can't create temporary file")
	}
	defer os.Remove(tmp.Name())

	st := time.Now()
	n, err := client.Download(ctx, region, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "Can't close temporary file")
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), *out); err != nil {
		return errors.Wrap(err, "Can't move extract into place")
	}
	logger.Info("Done", zap.Duration("elapsed", time.Since(st)), zap.Int64("bytes", n), zap.String("file", *out))
	return nil
}
