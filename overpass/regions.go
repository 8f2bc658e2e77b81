// Package overpass downloads raw OSM extracts of predefined regions from Overpass API mirrors.
package overpass

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/LdDl/osmworld"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownRegion is returned for region names missing in the predefined set
	ErrUnknownRegion = errors.New("unknown region")
)

// Region is a named bounding box. Bound.Min is south-west corner, Bound.Max is north-east corner (lon, lat)
type Region struct {
	Name  string
	Title string
	Bound orb.Bound
}

func (r Region) String() string {
	width, height := r.SizeKm()
	return fmt.Sprintf("%-16s %-40s %.1f x %.1f km", r.Name, r.Title, width, height)
}

// Center returns geodetic center of region bounding box
func (r Region) Center() osmworld.GeoPoint {
	center := r.Bound.Center()
	return osmworld.GeoPoint{Lat: center.Lat(), Lon: center.Lon()}
}

// SizeKm returns width and height of region bounding box (kilometers)
func (r Region) SizeKm() (float64, float64) {
	return geo.BoundWidth(r.Bound) / 1000.0, geo.BoundHeight(r.Bound) / 1000.0
}

func bound(south, west, north, east float64) orb.Bound {
	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
}

var regions = map[string]Region{
	"reykjavik": {
		Name:  "reykjavik",
		Title: "Reykjavik city",
		Bound: bound(64.08, -22.05, 64.18, -21.70),
	},
	"capital-region": {
		Name:  "capital-region",
		Title: "Capital region (Hafnarfjordur to Mosfellsbaer)",
		Bound: bound(63.95, -22.10, 64.30, -21.50),
	},
	"golden-circle": {
		Name:  "golden-circle",
		Title: "Golden Circle (Thingvellir, Geysir, Gullfoss)",
		Bound: bound(64.00, -21.50, 64.45, -20.00),
	},
	"south-coast": {
		Name:  "south-coast",
		Title: "South coast (Selfoss to Vik)",
		Bound: bound(63.35, -20.50, 63.95, -18.00),
	},
	"snaefellsnes": {
		Name:  "snaefellsnes",
		Title: "Snaefellsnes peninsula",
		Bound: bound(64.70, -24.10, 65.10, -22.50),
	},
}

// Regions returns predefined regions sorted by name
func Regions() []Region {
	result := make([]Region, 0, len(regions))
	for _, r := range regions {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// LookupRegion returns predefined region by its name
func LookupRegion(name string) (Region, error) {
	r, ok := regions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Region{}, errors.Wrapf(ErrUnknownRegion, "'%s'", name)
	}
	return r, nil
}

// BuildQuery returns Overpass QL query for recognized roads, city/town places and fuel stations
// inside region, with every referenced node included
func BuildQuery(r Region) string {
	bbox := strings.Join([]string{
		formatCoord(r.Bound.Min.Lat()),
		formatCoord(r.Bound.Min.Lon()),
		formatCoord(r.Bound.Max.Lat()),
		formatCoord(r.Bound.Max.Lon()),
	}, ",")
	highways := strings.Join(osmworld.HighwayNames(), "|")
	return fmt.Sprintf(`[out:xml][timeout:180][bbox:%s];
(
  way["highway"~"^(%s)$"];
  node["place"~"^(city|town)$"];
  node["amenity"="fuel"];
);
(._;>;);
out body;`, bbox, highways)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
