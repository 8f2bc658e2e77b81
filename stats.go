package osmworld

import (
	"fmt"
)

// Stats summarizes single ingestion run
type Stats struct {
	TotalNodes         int
	TotalWays          int
	RoadsKept          int
	WaysUnclassified   int
	RoadsTooShort      int
	MissingNodeRefs    int
	TotalPoints        int
	PointsDirect       int
	PointsInterpolated int
	PointsDefaulted    int
	ElevationSamples   int
	TotalPOIs          int
	RoadLengthKm       float64
	Bounds             Bounds
}

// PointsWithElevation returns number of points with known (direct or interpolated) elevation
func (st *Stats) PointsWithElevation() int {
	return st.PointsDirect + st.PointsInterpolated
}

// ElevationCoverage returns share of points with known elevation in [0, 1]
func (st *Stats) ElevationCoverage() float64 {
	if st.TotalPoints == 0 {
		return 0
	}
	return float64(st.PointsWithElevation()) / float64(st.TotalPoints)
}

func (st *Stats) add(other *Stats) {
	st.RoadsKept += other.RoadsKept
	st.WaysUnclassified += other.WaysUnclassified
	st.RoadsTooShort += other.RoadsTooShort
	st.MissingNodeRefs += other.MissingNodeRefs
	st.TotalPoints += other.TotalPoints
	st.PointsDirect += other.PointsDirect
	st.PointsInterpolated += other.PointsInterpolated
	st.PointsDefaulted += other.PointsDefaulted
	st.RoadLengthKm += other.RoadLengthKm
}

func (st *Stats) String() string {
	return fmt.Sprintf(`
Ingestion summary:
	nodes: %d
	ways: %d
	roads: %d
	skipped ways (no road class): %d
	skipped roads (under 2 points): %d
	missing node references: %d
	points: %d
	points with elevation: %d (direct %d, interpolated %d, defaulted %d, coverage %.1f%%)
	elevation samples: %d
	POIs: %d
	road length: %.3f km
	bounds: x [%.2f, %.2f] y [%.2f, %.2f] z [%.2f, %.2f]
	`,
		st.TotalNodes,
		st.TotalWays,
		st.RoadsKept,
		st.WaysUnclassified,
		st.RoadsTooShort,
		st.MissingNodeRefs,
		st.TotalPoints,
		st.PointsWithElevation(), st.PointsDirect, st.PointsInterpolated, st.PointsDefaulted, 100*st.ElevationCoverage(),
		st.ElevationSamples,
		st.TotalPOIs,
		st.RoadLengthKm,
		st.Bounds.MinX, st.Bounds.MaxX, st.Bounds.MinY, st.Bounds.MaxY, st.Bounds.MinZ, st.Bounds.MaxZ,
	)
}
