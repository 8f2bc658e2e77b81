package osmworld

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// RoadsFileName is default name of roads document
	RoadsFileName = "roads.json"
	// POIsFileName is default name of POIs document
	POIsFileName = "pois.json"
)

type POICategory string

const (
	POI_CITY POICategory = "city"
	POI_TOWN POICategory = "town"
	POI_FUEL POICategory = "fuel"
)

// Road is a classified road with planar geometry. Points keep source way order
type Road struct {
	ID         int64    `json:"id"`
	Type       RoadType `json:"type"`
	Name       string   `json:"name,omitempty"`
	Width      float64  `json:"width"`
	SpeedLimit float64  `json:"speedLimit"`
	Lanes      int      `json:"lanes"`
	Surface    string   `json:"surface"`
	Points     []Point3 `json:"points"`
}

// POI is a point of interest in planar coordinates
type POI struct {
	ID   int64       `json:"id"`
	Type POICategory `json:"type"`
	Name string      `json:"name,omitempty"`
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
	Z    float64     `json:"z"`
}

// Position returns POI position as planar point
func (poi POI) Position() Point3 {
	return Point3{poi.X, poi.Y, poi.Z}
}

type Origin struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Bounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

// extend grows bounds to include point. Empty bounds are initialized by first point
func (b *Bounds) extend(pt Point3, empty bool) {
	if empty {
		*b = Bounds{MinX: pt[0], MaxX: pt[0], MinY: pt[1], MaxY: pt[1], MinZ: pt[2], MaxZ: pt[2]}
		return
	}
	if pt[0] < b.MinX {
		b.MinX = pt[0]
	}
	if pt[0] > b.MaxX {
		b.MaxX = pt[0]
	}
	if pt[1] < b.MinY {
		b.MinY = pt[1]
	}
	if pt[1] > b.MaxY {
		b.MaxY = pt[1]
	}
	if pt[2] < b.MinZ {
		b.MinZ = pt[2]
	}
	if pt[2] > b.MaxZ {
		b.MaxZ = pt[2]
	}
}

type Meta struct {
	Origin              Origin `json:"origin"`
	Bounds              Bounds `json:"bounds"`
	TotalRoads          int    `json:"totalRoads"`
	TotalPoints         int    `json:"totalPoints"`
	PointsWithElevation int    `json:"pointsWithElevation"`
	TotalPOIs           int    `json:"totalPOIs"`
}

type RoadsDocument struct {
	Meta  Meta   `json:"meta"`
	Roads []Road `json:"roads"`
}

type POIsDocument struct {
	Origin Origin `json:"origin"`
	POIs   []POI  `json:"pois"`
}

// Dataset is the canonical immutable road/POI data shared by runtime consumers
type Dataset struct {
	Projection Projection
	Meta       Meta
	Roads      []Road
	POIs       []POI
}

// RoadsDocument returns serializable roads document
func (ds *Dataset) RoadsDocument() RoadsDocument {
	return RoadsDocument{Meta: ds.Meta, Roads: ds.Roads}
}

// POIsDocument returns serializable POIs document
func (ds *Dataset) POIsDocument() POIsDocument {
	return POIsDocument{Origin: ds.Meta.Origin, POIs: ds.POIs}
}

// WriteFiles writes roads and POIs documents into given directory.
//
// Both documents are staged in temporary files and renamed into place only after
// both have been written.
func (ds *Dataset) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "Can't create output directory")
	}
	roadsTmp, err := writeJSONTemp(dir, ds.RoadsDocument())
	if err != nil {
		return errors.Wrap(err, "Can't write roads document")
	}
	poisTmp, err := writeJSONTemp(dir, ds.POIsDocument())
	if err != nil {
		os.Remove(roadsTmp)
		return errors.Wrap(err, "Can't write POIs document")
	}
	if err := os.Rename(roadsTmp, filepath.Join(dir, RoadsFileName)); err != nil {
		os.Remove(roadsTmp)
		os.Remove(poisTmp)
		return errors.Wrap(err, "Can't move roads document into place")
	}
	if err := os.Rename(poisTmp, filepath.Join(dir, POIsFileName)); err != nil {
		os.Remove(poisTmp)
		return errors.Wrap(err, "Can't move POIs document into place")
	}
	return nil
}

func writeJSONTemp(dir string, v interface{}) (string, error) {
	file, err := os.CreateTemp(dir, ".osmworld-*.json")
	if err != nil {
		return "", errors.Wrap(err, "Can't create file")
	}
	name := file.Name()
	if err := json.NewEncoder(file).Encode(v); err != nil {
		file.Close()
		os.Remove(name)
		return "", errors.Wrap(err, "Can't encode JSON")
	}
	if err := file.Close(); err != nil {
		os.Remove(name)
		return "", errors.Wrap(err, "Can't close file")
	}
	return name, nil
}

// LoadRoads reads roads document
func LoadRoads(fname string) (*RoadsDocument, error) {
	doc := RoadsDocument{}
	if err := readJSON(fname, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadPOIs reads POIs document
func LoadPOIs(fname string) (*POIsDocument, error) {
	doc := POIsDocument{}
	if err := readJSON(fname, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadDataset reads both documents from directory written by WriteFiles
func LoadDataset(dir string) (*Dataset, error) {
	roads, err := LoadRoads(filepath.Join(dir, RoadsFileName))
	if err != nil {
		return nil, errors.Wrap(err, "Can't load roads")
	}
	pois, err := LoadPOIs(filepath.Join(dir, POIsFileName))
	if err != nil {
		return nil, errors.Wrap(err, "Can't load POIs")
	}
	origin := GeoPoint{Lat: roads.Meta.Origin.Lat, Lon: roads.Meta.Origin.Lon}
	return &Dataset{
		Projection: NewProjection(origin),
		Meta:       roads.Meta,
		Roads:      roads.Roads,
		POIs:       pois.POIs,
	}, nil
}

func readJSON(fname string, v interface{}) error {
	file, err := os.Open(fname)
	if err != nil {
		return errors.Wrap(err, "File open")
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(v); err != nil {
		return errors.Wrapf(err, "Can't decode '%s'", fname)
	}
	return nil
}
