package elevation

import (
	"math"
	"sync"
	"testing"
)

func TestInterpolateExactMatch(t *testing.T) {
	samples := []Sample{
		{Lat: 64.1, Lon: -21.9, Elevation: 42.5},
		{Lat: 64.12, Lon: -21.92, Elevation: 100},
	}
	// 0.00005 degrees away from the first sample
	value, ok := Interpolate(64.10005, -21.9, samples, DefaultMaxDistance)
	if !ok {
		t.Errorf("Interpolation near a sample must succeed")
	}
	if value != 42.5 {
		t.Errorf("Elevation must be exactly %f, but got %f", 42.5, value)
	}
}

func TestInterpolateExactMatchPicksClosest(t *testing.T) {
	// Both samples are within exact radius, the second one is closer to the query
	samples := []Sample{
		{Lat: 64.10000, Lon: -21.9, Elevation: 10},
		{Lat: 64.10008, Lon: -21.9, Elevation: 20},
	}
	Sort(samples)
	value, ok := Interpolate(64.10007, -21.9, samples, DefaultMaxDistance)
	if !ok {
		t.Errorf("Interpolation near a sample must succeed")
	}
	if value != 20 {
		t.Errorf("Elevation must be taken from closest sample %f, but got %f", 20.0, value)
	}
}

func TestInterpolateOutOfRange(t *testing.T) {
	samples := []Sample{
		{Lat: 64.1, Lon: -21.9, Elevation: 42.5},
	}
	value, ok := Interpolate(64.5, -21.9, samples, 0.1)
	if ok {
		t.Errorf("Interpolation beyond max distance must report no result")
	}
	if value != SeaLevel {
		t.Errorf("Elevation must default to %f, but got %f", SeaLevel, value)
	}

	value, ok = Interpolate(64.5, -21.9, nil, 0.1)
	if ok || value != SeaLevel {
		t.Errorf("Interpolation without samples must be (%f, false), but got (%f, %t)", SeaLevel, value, ok)
	}
}

func TestInterpolateWeighted(t *testing.T) {
	// Query point is midway between two samples: equal weights
	samples := []Sample{
		{Lat: 64.0, Lon: -21.0, Elevation: 10},
		{Lat: 64.0, Lon: -21.02, Elevation: 30},
	}
	value, ok := Interpolate(64.0, -21.01, samples, 0.1)
	if !ok {
		t.Errorf("Interpolation must succeed")
	}
	if math.Abs(value-20) > 1e-9 {
		t.Errorf("Elevation should be %f, but got %f", 20.0, value)
	}

	// Closer sample dominates: distances 0.01 and 0.03 give weights 9:1
	samples = []Sample{
		{Lat: 64.0, Lon: -21.0, Elevation: 10},
		{Lat: 64.0, Lon: -21.04, Elevation: 110},
	}
	value, _ = Interpolate(64.0, -21.01, samples, 0.1)
	correct := (9*10.0 + 1*110.0) / 10.0
	if math.Abs(value-correct) > 1e-9 {
		t.Errorf("Elevation should be %f, but got %f", correct, value)
	}
}

func TestInterpolateIgnoresFarSamples(t *testing.T) {
	samples := []Sample{
		{Lat: 64.0, Lon: -21.0, Elevation: 10},
		{Lat: 65.0, Lon: -21.0, Elevation: 1000},
	}
	value, _ := Interpolate(64.0, -21.01, samples, 0.1)
	if math.Abs(value-10) > 1e-9 {
		t.Errorf("Far sample must be ignored: want %f, but got %f", 10.0, value)
	}
}

func TestInterpolateDefaultDistance(t *testing.T) {
	samples := []Sample{{Lat: 64.0, Lon: -21.0, Elevation: 10}}
	if _, ok := Interpolate(64.05, -21.0, samples, 0); !ok {
		t.Errorf("Zero max distance must fall back to %f degrees", DefaultMaxDistance)
	}
}

func TestInterpolateConcurrent(t *testing.T) {
	samples := []Sample{
		{Lat: 64.0, Lon: -21.0, Elevation: 10},
		{Lat: 64.02, Lon: -21.02, Elevation: 50},
	}
	want, _ := Interpolate(64.01, -21.005, samples, 0.1)
	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Interpolate(64.01, -21.005, samples, 0.1)
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if got != want {
			t.Errorf("Worker %d got %f, but want %f", i, got, want)
		}
	}
}

func TestSort(t *testing.T) {
	samples := []Sample{
		{Lat: 2, Lon: 1, Elevation: 0},
		{Lat: 1, Lon: 2, Elevation: 0},
		{Lat: 1, Lon: 1, Elevation: 5},
		{Lat: 1, Lon: 1, Elevation: 3},
	}
	Sort(samples)
	correct := []Sample{
		{Lat: 1, Lon: 1, Elevation: 3},
		{Lat: 1, Lon: 1, Elevation: 5},
		{Lat: 1, Lon: 2, Elevation: 0},
		{Lat: 2, Lon: 1, Elevation: 0},
	}
	for i := range correct {
		if samples[i] != correct[i] {
			t.Errorf("Sample %d should be %v, but got %v", i, correct[i], samples[i])
		}
	}
}
