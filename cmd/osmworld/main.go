package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/elevation"
	"github.com/LdDl/osmworld/internal/logging"
	"go.uber.org/zap"
)

var (
	input       = flag.String("input", "data/iceland.osm", "Filename of OSM extract. Expected extensions: .osm / .xml / .osm.pbf")
	outDir      = flag.String("out-dir", "data", "Directory for output documents ('roads.json' and 'pois.json')")
	originLat   = flag.Float64("origin-lat", osmworld.DefaultOrigin.Lat, "Latitude of planar origin")
	originLon   = flag.Float64("origin-lon", osmworld.DefaultOrigin.Lon, "Longitude of planar origin")
	workers     = flag.Int("workers", runtime.NumCPU(), "Number of ingestion workers")
	maxDistance = flag.Float64("max-interpolation", elevation.DefaultMaxDistance, "Maximum distance (degrees) to elevation samples used for interpolation")
	geojsonOut  = flag.String("geojson", "", "Optional filename for GeoJSON export of roads and POIs")
	logLevel    = flag.String("log-level", "info", "Log level. Expected values: debug / info / warn / error")
	logFormat   = flag.String("log-format", "console", "Log format. Expected values: console / json")
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
		logger.Error("Processing failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ingester := osmworld.NewIngester(
		osmworld.WithOrigin(osmworld.GeoPoint{Lat: *originLat, Lon: *originLon}),
		osmworld.WithWorkers(*workers),
		osmworld.WithMaxInterpolationDistance(*maxDistance),
		osmworld.WithLogger(logger),
	)
	logger.Debug("Ingester configured", zap.Stringer("ingester", ingester))

	st := time.Now()
	dataset, stats, err := ingester.IngestFile(ctx, *input)
	if err != nil {
		return err
	}
	fmt.Println(stats)

	logger.Info("Writing documents...", zap.String("dir", *outDir))
	if err := dataset.WriteFiles(*outDir); err != nil {
		return err
	}
	logger.Info("Done",
		zap.String("roads", filepath.Join(*outDir, osmworld.RoadsFileName)),
		zap.String("pois", filepath.Join(*outDir, osmworld.POIsFileName)),
	)

	if *geojsonOut != "" {
		logger.Info("Writing GeoJSON...", zap.String("file", *geojsonOut))
		if err := dataset.WriteGeoJSON(*geojsonOut); err != nil {
			return err
		}
	}
	logger.Info("Processing finished", zap.Duration("elapsed", time.Since(st)))
	return nil
}
