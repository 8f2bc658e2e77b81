// Package server exposes one world instance (road graph, chunk window and POI index) over HTTP.
package server

import (
	"sync"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/chunks"
	"github.com/LdDl/osmworld/pathfinder"
)

// World bundles runtime consumers of a single dataset. Every call is serialized by
// one mutex so the pathfinder and chunk manager keep single control thread
type World struct {
	mu         sync.Mutex
	dataset    *osmworld.Dataset
	pathfinder *pathfinder.Pathfinder
	chunks     *chunks.Manager
	pois       *chunks.POIIndex
}

// NewWorld builds road graph, chunk index and POI index over dataset
func NewWorld(dataset *osmworld.Dataset, pf *pathfinder.Pathfinder, manager *chunks.Manager) *World {
	pf.Build(dataset.Roads)
	manager.Init(dataset.Roads, dataset.POIs)
	return &World{
		dataset:    dataset,
		pathfinder: pf,
		chunks:     manager,
		pois:       chunks.NewPOIIndex(dataset.POIs),
	}
}

// FindPath serializes Pathfinder.FindPath
func (w *World) FindPath(x1, z1, x2, z2 float64) ([]osmworld.Point3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathfinder.FindPath(x1, z1, x2, z2)
}

// MoveObserver serializes Manager.Update and returns observer chunk with loaded chunks afterwards
func (w *World) MoveObserver(x, z float64) (bool, chunks.Coord, []chunks.Coord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	updated := w.chunks.Update(x, z)
	return updated, w.chunks.CoordOf(x, z), w.chunks.LoadedChunks()
}

// IsPositionLoaded serializes Manager.IsPositionLoaded
func (w *World) IsPositionLoaded(x, z float64) (bool, chunks.Coord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks.IsPositionLoaded(x, z), w.chunks.CoordOf(x, z)
}

// LoadedChunks returns loaded chunks and manager counters
func (w *World) LoadedChunks() ([]chunks.Coord, chunks.Stats) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks.LoadedChunks(), w.chunks.Stats()
}

// NearestPOI returns closest POI of category. POI index is immutable and needs no lock
func (w *World) NearestPOI(x, z float64, category osmworld.POICategory) (*osmworld.POI, float64, bool) {
	return w.pois.Nearest(x, z, category)
}

// Ready reports whether road graph is built
func (w *World) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathfinder.IsReady()
}

// Meta returns dataset metadata
func (w *World) Meta() osmworld.Meta {
	return w.dataset.Meta
}
