package pathfinder

import (
	"math"

	"github.com/paulmach/orb"
)

// cellKey is integer coordinate of grid cell
type cellKey struct {
	cx int
	cz int
}

// spatialGrid buckets node identifiers by fixed-size square cells over XZ plane
type spatialGrid struct {
	cellSize float64
	cells    map[cellKey][]int64
}

func newSpatialGrid(cellSize float64) *spatialGrid {
	return &spatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int64),
	}
}

func (grid *spatialGrid) key(pt orb.Point) cellKey {
	return cellKey{
		cx: int(math.Floor(pt[0] / grid.cellSize)),
		cz: int(math.Floor(pt[1] / grid.cellSize)),
	}
}

func (grid *spatialGrid) insert(id int64, pt orb.Point) {
	k := grid.key(pt)
	grid.cells[k] = append(grid.cells[k], id)
}

// neighbourhood calls fn for each node in cells within Chebyshev distance `radius` of center cell
func (grid *spatialGrid) neighbourhood(center cellKey, radius int, fn func(id int64)) {
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			for _, id := range grid.cells[cellKey{cx: center.cx + dx, cz: center.cz + dz}] {
				fn(id)
			}
		}
	}
}

// ring calls fn for each node in cells at exactly Chebyshev distance `radius` of center cell
func (grid *spatialGrid) ring(center cellKey, radius int, fn func(id int64)) {
	if radius == 0 {
		for _, id := range grid.cells[center] {
			fn(id)
		}
		return
	}
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if abs(dx) != radius && abs(dz) != radius {
				continue
			}
			for _, id := range grid.cells[cellKey{cx: center.cx + dx, cz: center.cz + dz}] {
				fn(id)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
