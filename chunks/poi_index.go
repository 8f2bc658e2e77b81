package chunks

import (
	"math"

	"github.com/LdDl/osmworld"
	"github.com/dhconnelly/rtreego"
)

// poiEpsilon is the side of degenerate POI rectangle, R-tree requires non-zero dimensions (meters)
const poiEpsilon = 0.01

// POIIndex answers nearest POI queries over planar XZ positions
type POIIndex struct {
	rtree *rtreego.Rtree
	size  int
}

// indexedPOI wraps POI for R-tree storage
type indexedPOI struct {
	poi *osmworld.POI
}

// Bounds implements rtreego.Spatial interface
func (p *indexedPOI) Bounds() rtreego.Rect {
	point := rtreego.Point{p.poi.X, p.poi.Z}
	rect, _ := rtreego.NewRect(point, []float64{poiEpsilon, poiEpsilon})
	return rect
}

// NewPOIIndex indexes given POIs. POIs must not be modified afterwards
func NewPOIIndex(pois []osmworld.POI) *POIIndex {
	rtree := rtreego.NewTree(2, 25, 50)
	for i := range pois {
		rtree.Insert(&indexedPOI{poi: &pois[i]})
	}
	return &POIIndex{
		rtree: rtree,
		size:  len(pois),
	}
}

// Size returns number of indexed POIs
func (idx *POIIndex) Size() int {
	return idx.size
}

// Nearest returns closest POI to (x, z) and planar distance to it. Empty category matches any POI
func (idx *POIIndex) Nearest(x, z float64, category osmworld.POICategory) (*osmworld.POI, float64, bool) {
	if idx.size == 0 {
		return nil, 0, false
	}
	filter := func(results []rtreego.Spatial, object rtreego.Spatial) (bool, bool) {
		if category == "" {
			return false, false
		}
		return object.(*indexedPOI).poi.Type != category, false
	}
	found := idx.rtree.NearestNeighbors(1, rtreego.Point{x, z}, filter)
	if len(found) == 0 || found[0] == nil {
		return nil, 0, false
	}
	poi := found[0].(*indexedPOI).poi
	return poi, math.Hypot(poi.X-x, poi.Z-z), true
}
