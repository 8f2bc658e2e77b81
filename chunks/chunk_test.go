package chunks

import (
	"testing"

	"github.com/LdDl/osmworld"
)

func lineRoad(id int64, xz ...float64) osmworld.Road {
	pts := make([]osmworld.Point3, 0, len(xz)/2)
	for i := 0; i+1 < len(xz); i += 2 {
		pts = append(pts, osmworld.Point3{xz[i], 0, xz[i+1]})
	}
	return osmworld.Road{ID: id, Type: osmworld.ROAD_PRIMARY, Points: pts}
}

func TestRoadSlices(t *testing.T) {
	roads := []osmworld.Road{lineRoad(7, 100, 100, 400, 100, 600, 100, 900, 100, 1100, 100)}
	index := buildIndex(roads, nil, 500)
	correct := map[Coord][2]int{
		{CX: 0, CZ: 0}: {0, 2},
		{CX: 1, CZ: 0}: {1, 4},
		{CX: 2, CZ: 0}: {3, 4},
	}
	if len(index) != len(correct) {
		t.Fatalf("Number of chunks should be %d, but got %d", len(correct), len(index))
	}
	for c, bounds := range correct {
		content, ok := index[c]
		if !ok || len(content.Roads) != 1 {
			t.Errorf("Chunk %s should hold single road slice", c)
			continue
		}
		slice := content.Roads[0]
		if slice.Road.ID != 7 || slice.Start != bounds[0] || slice.End != bounds[1] {
			t.Errorf("Slice in chunk %s should be [%d, %d], but got [%d, %d]", c, bounds[0], bounds[1], slice.Start, slice.End)
		}
		if len(slice.Points()) != bounds[1]-bounds[0]+1 {
			t.Errorf("Slice in chunk %s should have %d points, but got %d", c, bounds[1]-bounds[0]+1, len(slice.Points()))
		}
	}
}

func TestRoadReenteringChunk(t *testing.T) {
	roads := []osmworld.Road{lineRoad(1, 100, 100, 700, 100, 300, 100)}
	index := buildIndex(roads, nil, 500)
	content := index[Coord{}]
	if len(content.Roads) != 2 {
		t.Fatalf("Road leaving and re-entering chunk should produce %d slices, but got %d", 2, len(content.Roads))
	}
	if content.Roads[0].Start != 0 || content.Roads[0].End != 1 || content.Roads[1].Start != 1 || content.Roads[1].End != 2 {
		t.Errorf("Unexpected slices: %+v", content.Roads)
	}
}

func TestChunkCoverage(t *testing.T) {
	roads := []osmworld.Road{
		lineRoad(1, -1200, -300, -100, 50, 10, 10, 480, 520, 2600, 1900),
		lineRoad(2, 0, 0, 499.99, 0, 500, 0, 500, -0.01),
	}
	chunkSize := 250.0
	index := buildIndex(roads, nil, chunkSize)
	for i := range roads {
		for j, pt := range roads[i].Points {
			c := coordOf(pt.X(), pt.Z(), chunkSize)
			content, ok := index[c]
			if !ok {
				t.Errorf("Chunk %s of road %d point %d should be indexed", c, roads[i].ID, j)
				continue
			}
			covered := false
			for _, slice := range content.Roads {
				if slice.Road.ID == roads[i].ID && slice.Start <= j && j <= slice.End {
					covered = true
				}
			}
			if !covered {
				t.Errorf("Point %d of road %d should be covered by chunk %s", j, roads[i].ID, c)
			}
		}
	}
}

func TestPOIIndexing(t *testing.T) {
	pois := []osmworld.POI{
		{ID: 1, Type: osmworld.POI_CITY, X: -10, Z: -10},
		{ID: 2, Type: osmworld.POI_FUEL, X: 10, Z: 10},
	}
	index := buildIndex(nil, pois, 500)
	if len(index) != 2 {
		t.Fatalf("Number of chunks should be %d, but got %d", 2, len(index))
	}
	if content := index[Coord{CX: -1, CZ: -1}]; content == nil || content.POIs[0].ID != 1 {
		t.Errorf("POI 1 should be indexed under chunk (-1, -1)")
	}
}

func TestCoordDistance(t *testing.T) {
	a := Coord{CX: 0, CZ: 0}
	if d := a.Distance(Coord{CX: 3, CZ: -2}); d != 3 {
		t.Errorf("Chebyshev distance should be %d, but got %d", 3, d)
	}
	if c := coordOf(-0.5, 499.9, 500); c != (Coord{CX: -1, CZ: 0}) {
		t.Errorf("Coordinate should be (-1, 0), but got %s", c)
	}
}
