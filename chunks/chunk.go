// Package chunks partitions the road/POI dataset into square grid cells and keeps
// a window of loaded cells around a moving observer.
package chunks

import (
	"fmt"
	"math"
	"sort"

	"github.com/LdDl/osmworld"
)

type ChunkState uint8

const (
	CHUNK_UNLOADED = ChunkState(iota)
	CHUNK_LOADING
	CHUNK_LOADED
	CHUNK_UNLOADING
)

func (iotaIdx ChunkState) String() string {
	if iotaIdx > CHUNK_UNLOADING {
		return "unknown"
	}
	return [...]string{"unloaded", "loading", "loaded", "unloading"}[iotaIdx]
}

// Coord is integer grid coordinate of chunk
type Coord struct {
	CX int `json:"cx"`
	CZ int `json:"cz"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.CX, c.CZ)
}

// Distance returns Chebyshev distance between chunks
func (c Coord) Distance(other Coord) int {
	return max(abs(c.CX-other.CX), abs(c.CZ-other.CZ))
}

func coordOf(x, z, chunkSize float64) Coord {
	return Coord{
		CX: int(math.Floor(x / chunkSize)),
		CZ: int(math.Floor(z / chunkSize)),
	}
}

func sortCoords(coords []Coord) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].CX == coords[j].CX {
			return coords[i].CZ < coords[j].CZ
		}
		return coords[i].CX < coords[j].CX
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RoadSlice is a contiguous run of road points [Start, End] belonging to single chunk.
// The run is extended by one neighbouring point on each side so geometry joins across chunk borders
type RoadSlice struct {
	Road  *osmworld.Road
	Start int
	End   int
}

// Points returns slice geometry. The result shares memory with the road
func (rs RoadSlice) Points() []osmworld.Point3 {
	return rs.Road.Points[rs.Start : rs.End+1]
}

// Content is everything indexed under single chunk
type Content struct {
	Coord Coord
	Roads []RoadSlice
	POIs  []*osmworld.POI
}

// Chunk is runtime record of chunk which is being loaded, loaded or being unloaded
type Chunk struct {
	Coord   Coord
	State   ChunkState
	Content *Content
	objects []Renderable
}

// buildIndex assigns every road run and every POI to the chunk containing it
func buildIndex(roads []osmworld.Road, pois []osmworld.POI, chunkSize float64) map[Coord]*Content {
	index := make(map[Coord]*Content)
	content := func(c Coord) *Content {
		found, ok := index[c]
		if !ok {
			found = &Content{Coord: c}
			index[c] = found
		}
		return found
	}
	for i := range roads {
		road := &roads[i]
		n := len(road.Points)
		if n == 0 {
			continue
		}
		runStart := 0
		runCoord := coordOf(road.Points[0].X(), road.Points[0].Z(), chunkSize)
		for j := 1; j <= n; j++ {
			if j < n {
				c := coordOf(road.Points[j].X(), road.Points[j].Z(), chunkSize)
				if c == runCoord {
					continue
				}
				addRun(content(runCoord), road, runStart, j-1)
				runStart = j
				runCoord = c
				continue
			}
			addRun(content(runCoord), road, runStart, n-1)
		}
	}
	for i := range pois {
		poi := &pois[i]
		c := content(coordOf(poi.X, poi.Z, chunkSize))
		c.POIs = append(c.POIs, poi)
	}
	return index
}

func addRun(content *Content, road *osmworld.Road, start, end int) {
	content.Roads = append(content.Roads, RoadSlice{
		Road:  road,
		Start: max(start-1, 0),
		End:   min(end+1, len(road.Points)-1),
	})
}
