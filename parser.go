package osmworld

import (
	"fmt"
	"runtime"

	"github.com/LdDl/osmworld/elevation"
	"go.uber.org/zap"
)

// Ingester turns raw OSM documents into the canonical road/POI dataset
type Ingester struct {
	logger                   *zap.Logger
	origin                   GeoPoint
	workers                  int
	maxInterpolationDistance float64
}

func (ing *Ingester) String() string {
	return fmt.Sprintf(`
Ingester parameters:
	origin: %s
	workers: %d
	max_interpolation_distance: %f
	`,
		ing.origin,
		ing.workers,
		ing.maxInterpolationDistance,
	)
}

func NewIngester(options ...func(*Ingester)) *Ingester {
	ing := &Ingester{
		logger:                   zap.NewNop(),
		origin:                   DefaultOrigin,
		workers:                  runtime.NumCPU(),
		maxInterpolationDistance: elevation.DefaultMaxDistance,
	}
	for _, option := range options {
		option(ing)
	}
	if ing.workers <= 0 {
		ing.workers = 1
	}
	if ing.logger == nil {
		ing.logger = zap.NewNop()
	}
	return ing
}

func WithOrigin(origin GeoPoint) func(*Ingester) {
	return func(ing *Ingester) {
		ing.origin = origin
	}
}

func WithWorkers(workers int) func(*Ingester) {
	return func(ing *Ingester) {
		ing.workers = workers
	}
}

func WithMaxInterpolationDistance(degrees float64) func(*Ingester) {
	return func(ing *Ingester) {
		ing.maxInterpolationDistance = degrees
	}
}

func WithLogger(logger *zap.Logger) func(*Ingester) {
	return func(ing *Ingester) {
		ing.logger = logger
	}
}
