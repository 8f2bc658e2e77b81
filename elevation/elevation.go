// Package elevation estimates terrain height at arbitrary coordinates from a
// sparse set of known samples using inverse-distance weighting (IDW).
//
// All functions are pure: samples are passed explicitly and never retained,
// so callers may interpolate from many goroutines at once.
package elevation

import (
	"math"
	"sort"
)

const (
	// DefaultMaxDistance is the search radius (degrees) used when the caller has no preference
	DefaultMaxDistance = 0.1
	// ExactMatchDistance is the radius (degrees, ~11 m) inside which a sample is returned as-is
	ExactMatchDistance = 0.0001
	// SeaLevel is returned when no sample is close enough
	SeaLevel = 0.0
)

// Sample is a known elevation measured at a geodetic point
type Sample struct {
	Lat       float64
	Lon       float64
	Elevation float64
}

// Interpolate returns the IDW elevation estimate at (lat, lon).
//
// Distances are measured in degrees. The closest sample within ExactMatchDistance
// replaces the weighting. Samples farther than maxDistance are ignored;
// maxDistance <= 0 means DefaultMaxDistance.
//
// The boolean is false when no sample was in range. The returned value is then
// SeaLevel, which is indistinguishable from genuine zero elevation unless the
// caller checks the flag.
func Interpolate(lat, lon float64, samples []Sample, maxDistance float64) (float64, bool) {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	weightSum := 0.0
	valueSum := 0.0
	var exact *Sample
	exactDist := 0.0
	for i := range samples {
		s := &samples[i]
		dLat := s.Lat - lat
		dLon := s.Lon - lon
		dist := math.Sqrt(dLat*dLat + dLon*dLon)
		if dist < ExactMatchDistance {
			if exact == nil || dist < exactDist {
				exact = s
				exactDist = dist
			}
			continue
		}
		if dist > maxDistance {
			continue
		}
		w := 1.0 / (dist * dist)
		weightSum += w
		valueSum += w * s.Elevation
	}
	if exact != nil {
		return exact.Elevation, true
	}
	if weightSum == 0 {
		return SeaLevel, false
	}
	return valueSum / weightSum, true
}

// Sort orders samples by latitude, then longitude, then elevation.
//
// Floating point accumulation in Interpolate depends on sample order, so
// sorting once after collection makes results reproducible regardless of how
// samples were gathered.
func Sort(samples []Sample) {
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Lat != samples[j].Lat {
			return samples[i].Lat < samples[j].Lat
		}
		if samples[i].Lon != samples[j].Lon {
			return samples[i].Lon < samples[j].Lon
		}
		return samples[i].Elevation < samples[j].Elevation
	})
}
