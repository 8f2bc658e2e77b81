package pathfinder

import (
	"github.com/LdDl/osmworld"
	"github.com/paulmach/orb/planar"
)

// Simplify drops points deviating less than tolerance (meters) from the segment
// joining the last kept point and the next point. Single pass; first and last
// points are always kept.
func Simplify(points []osmworld.Point3, tolerance float64) []osmworld.Point3 {
	if len(points) < 3 {
		return points
	}
	result := make([]osmworld.Point3, 0, len(points))
	result = append(result, points[0])
	for i := 1; i < len(points)-1; i++ {
		last := result[len(result)-1]
		deviation := planar.DistanceFromSegment(last.XZ(), points[i+1].XZ(), points[i].XZ())
		if deviation < tolerance {
			continue
		}
		result = append(result, points[i])
	}
	return append(result, points[len(points)-1])
}
