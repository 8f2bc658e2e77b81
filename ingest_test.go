package osmworld

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="osmworld-test">
 <node id="1" lat="64.1466" lon="-21.9426"><tag k="ele" v="10"/></node>
 <node id="2" lat="64.1476" lon="-21.9426"/>
 <node id="3" lat="64.1486" lon="-21.9426"><tag k="ele" v="30 m"/></node>
 <node id="4" lat="64.1466" lon="-21.9400"/>
 <node id="5" lat="64.1500" lon="-21.9300"><tag k="amenity" v="fuel"/></node>
 <node id="6" lat="64.1400" lon="-21.9500"><tag k="place" v="city"/><tag k="name" v="Reykjavik"/></node>
 <node id="7" lat="64.1600" lon="-21.9500"><tag k="place" v="village"/></node>
 <node id="-8" lat="64.1470" lon="-21.9410"><tag k="amenity" v="fuel"/><tag k="name" v="N1"/></node>
 <way id="100">
  <nd ref="1"/><nd ref="2"/><nd ref="3"/>
  <tag k="highway" v="primary"/><tag k="name" v="Main"/><tag k="maxspeed" v="50"/>
 </way>
 <way id="101">
  <nd ref="1"/><nd ref="4"/>
  <tag k="highway" v="secondary_link"/><tag k="lanes" v="4"/><tag k="surface" v="paved"/>
 </way>
 <way id="102">
  <nd ref="2"/><nd ref="4"/><nd ref="2"/>
  <tag k="building" v="yes"/>
 </way>
 <way id="103">
  <nd ref="1"/><nd ref="999"/>
  <tag k="highway" v="tertiary"/>
 </way>
 <way id="104">
  <nd ref="3"/><nd ref="4"/>
  <tag k="highway" v="footway"/>
 </way>
 <relation id="5000">
  <member type="way" ref="100" role=""/>
  <tag k="type" v="route"/>
 </relation>
</osm>`

func ingestSample(t *testing.T, workers int) (*Dataset, *Stats) {
	t.Helper()
	ing := NewIngester(WithWorkers(workers))
	dataset, stats, err := ing.Ingest(context.Background(), []byte(sampleOSM), "xml")
	if err != nil {
		t.Fatal(err)
	}
	return dataset, stats
}

func findRoad(roads []Road, id int64) *Road {
	for i := range roads {
		if roads[i].ID == id {
			return &roads[i]
		}
	}
	return nil
}

func TestIngestRoads(t *testing.T) {
	dataset, stats := ingestSample(t, 2)
	if len(dataset.Roads) != 2 {
		t.Fatalf("Number of roads should be %d, but got %d", 2, len(dataset.Roads))
	}
	if dataset.Roads[0].ID != 100 || dataset.Roads[1].ID != 101 {
		t.Errorf("Roads should be sorted by ID, but got %d, %d", dataset.Roads[0].ID, dataset.Roads[1].ID)
	}

	primary := findRoad(dataset.Roads, 100)
	if primary.Type != ROAD_PRIMARY {
		t.Errorf("Road type should be %s, but got %s", ROAD_PRIMARY, primary.Type)
	}
	if primary.Name != "Main" {
		t.Errorf("Road name should be '%s', but got '%s'", "Main", primary.Name)
	}
	if primary.SpeedLimit != 50 {
		t.Errorf("Explicit speed limit should be %f, but got %f", 50.0, primary.SpeedLimit)
	}
	if primary.Width != 10 || primary.Lanes != DefaultLanes || primary.Surface != "asphalt" {
		t.Errorf("Derived fields should be (10, %d, asphalt), but got (%f, %d, %s)", DefaultLanes, primary.Width, primary.Lanes, primary.Surface)
	}
	if len(primary.Points) != 3 {
		t.Fatalf("Road should have %d points, but got %d", 3, len(primary.Points))
	}
	if primary.Points[0] != (Point3{0, 10, 0}) {
		t.Errorf("First point should be at origin with elevation 10, but got %v", primary.Points[0])
	}
	if primary.Points[1].Y() != 20 {
		t.Errorf("Middle point elevation should be interpolated to %f, but got %f", 20.0, primary.Points[1].Y())
	}
	if primary.Points[2].Y() != 30 || math.Abs(primary.Points[2].Z()-(-222.64)) > 0.011 {
		t.Errorf("Last point should be (0, 30, -222.64), but got %v", primary.Points[2])
	}

	link := findRoad(dataset.Roads, 101)
	if link.Type != ROAD_SECONDARY {
		t.Errorf("Link road type should be %s, but got %s", ROAD_SECONDARY, link.Type)
	}
	if link.Lanes != 4 || link.Surface != "paved" || link.SpeedLimit != 80 || link.Width != 8 {
		t.Errorf("Link road fields should be (4, paved, 80, 8), but got (%d, %s, %f, %f)", link.Lanes, link.Surface, link.SpeedLimit, link.Width)
	}
	if link.Points[1].Y() <= 10 || link.Points[1].Y() >= 30 {
		t.Errorf("Interpolated elevation should be inside (10, 30), but got %f", link.Points[1].Y())
	}

	if stats.TotalNodes != 8 || stats.TotalWays != 5 {
		t.Errorf("Input counts should be (8, 5), but got (%d, %d)", stats.TotalNodes, stats.TotalWays)
	}
	if stats.WaysUnclassified != 2 {
		t.Errorf("Unclassified ways should be %d, but got %d", 2, stats.WaysUnclassified)
	}
	if stats.RoadsTooShort != 1 || stats.MissingNodeRefs != 1 {
		t.Errorf("Short roads and missing refs should be (1, 1), but got (%d, %d)", stats.RoadsTooShort, stats.MissingNodeRefs)
	}
	if stats.TotalPoints != 5 || stats.PointsDirect != 3 || stats.PointsInterpolated != 2 || stats.PointsDefaulted != 0 {
		t.Errorf("Point counts should be (5, 3, 2, 0), but got (%d, %d, %d, %d)", stats.TotalPoints, stats.PointsDirect, stats.PointsInterpolated, stats.PointsDefaulted)
	}
	if stats.ElevationSamples != 2 {
		t.Errorf("Elevation samples should be %d, but got %d", 2, stats.ElevationSamples)
	}
	if stats.RoadLengthKm <= 0 {
		t.Errorf("Road length should be positive, but got %f", stats.RoadLengthKm)
	}
}

func TestIngestMeta(t *testing.T) {
	dataset, _ := ingestSample(t, 3)
	meta := dataset.Meta
	if meta.TotalRoads != 2 || meta.TotalPoints != 5 || meta.PointsWithElevation != 5 || meta.TotalPOIs != 3 {
		t.Errorf("Meta counters are wrong: %+v", meta)
	}
	if meta.Origin.Lat != DefaultOrigin.Lat || meta.Origin.Lon != DefaultOrigin.Lon {
		t.Errorf("Meta origin should be %v, but got %v", DefaultOrigin, meta.Origin)
	}
	if meta.Bounds.MinX != 0 || meta.Bounds.MaxZ != 0 || meta.Bounds.MinY != 10 || meta.Bounds.MaxY != 30 {
		t.Errorf("Bounds are wrong: %+v", meta.Bounds)
	}
	if meta.Bounds.MaxX <= 100 || meta.Bounds.MinZ >= -200 {
		t.Errorf("Bounds should span the sample roads: %+v", meta.Bounds)
	}
}

func TestIngestPOIs(t *testing.T) {
	dataset, _ := ingestSample(t, 4)
	if len(dataset.POIs) != 3 {
		t.Fatalf("Number of POIs should be %d, but got %d", 3, len(dataset.POIs))
	}
	correct := []struct {
		id       int64
		category POICategory
		name     string
	}{
		{-8, POI_FUEL, "N1"},
		{5, POI_FUEL, FuelStationDefaultName},
		{6, POI_CITY, "Reykjavik"},
	}
	for i, c := range correct {
		poi := dataset.POIs[i]
		if poi.ID != c.id || poi.Type != c.category || poi.Name != c.name {
			t.Errorf("POI %d should be (%d, %s, %s), but got (%d, %s, %s)", i, c.id, c.category, c.name, poi.ID, poi.Type, poi.Name)
		}
	}
}

func TestIngestIdempotent(t *testing.T) {
	first, _ := ingestSample(t, 1)
	second, _ := ingestSample(t, 4)
	third, _ := ingestSample(t, 4)
	encode := func(ds *Dataset) []byte {
		roads, err := json.Marshal(ds.RoadsDocument())
		if err != nil {
			t.Fatal(err)
		}
		pois, err := json.Marshal(ds.POIsDocument())
		if err != nil {
			t.Fatal(err)
		}
		return append(roads, pois...)
	}
	a, b, c := encode(first), encode(second), encode(third)
	if !bytes.Equal(a, b) || !bytes.Equal(b, c) {
		t.Errorf("Repeated ingestion should produce identical documents:\n%s\n%s", a, b)
	}
}

func TestIngestRoundTrip(t *testing.T) {
	dataset, _ := ingestSample(t, 2)
	primary := findRoad(dataset.Roads, 100)
	back := dataset.Projection.ToGeo(primary.Points[1].X(), primary.Points[1].Z())
	if math.Abs(back.Lat-64.1476) > 1e-6 || math.Abs(back.Lon-(-21.9426)) > 1e-6 {
		t.Errorf("Inverse transform should recover (64.1476, -21.9426), but got %v", back)
	}
}

func TestIngestWithoutElevation(t *testing.T) {
	doc := `<osm version="0.6">
 <node id="1" lat="64.0" lon="-21.0"/>
 <node id="2" lat="64.001" lon="-21.0"/>
 <way id="1"><nd ref="1"/><nd ref="2"/><tag k="highway" v="trunk"/></way>
</osm>`
	dataset, stats, err := NewIngester().Ingest(context.Background(), []byte(doc), "xml")
	if err != nil {
		t.Fatal(err)
	}
	if stats.PointsDefaulted != 2 || dataset.Meta.PointsWithElevation != 0 {
		t.Errorf("Both points should default, but got defaulted=%d withElevation=%d", stats.PointsDefaulted, dataset.Meta.PointsWithElevation)
	}
	for _, pt := range dataset.Roads[0].Points {
		if pt.Y() != 0 {
			t.Errorf("Defaulted elevation should be 0, but got %f", pt.Y())
		}
	}
}

func TestIngestErrors(t *testing.T) {
	ing := NewIngester()
	_, _, err := ing.Ingest(context.Background(), []byte("   "), "xml")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Empty input should fail with %v, but got %v", ErrEmptyInput, err)
	}
	_, _, err = ing.Ingest(context.Background(), []byte("<html><body/></html>"), "xml")
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Wrong root should fail with %v, but got %v", ErrMalformedDocument, err)
	}
	_, _, err = ing.Ingest(context.Background(), []byte("<osm>"), "csv")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Unknown format should fail with %v, but got %v", ErrUnsupportedFormat, err)
	}
	_, _, err = ing.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.osm"))
	if err == nil {
		t.Errorf("Missing file should fail")
	}
	_, _, err = ing.IngestFile(context.Background(), "map.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Unknown extension should fail with %v, but got %v", ErrUnsupportedFormat, err)
	}
}

func TestIngestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewIngester().Ingest(ctx, []byte(sampleOSM), "xml")
	if err == nil {
		t.Errorf("Cancelled ingestion should fail")
	}
}

func TestIngestFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "sample.osm")
	if err := os.WriteFile(fname, []byte(sampleOSM), 0o644); err != nil {
		t.Fatal(err)
	}
	dataset, _, err := NewIngester().IngestFile(context.Background(), fname)
	if err != nil {
		t.Fatal(err)
	}
	if len(dataset.Roads) != 2 {
		t.Errorf("Number of roads should be %d, but got %d", 2, len(dataset.Roads))
	}
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"map.osm":        ".osm",
		"MAP.OSM.PBF":    ".osm.pbf",
		"dir.v2/map.xml": ".xml",
		"extract.pbf":    ".pbf",
	}
	for fname, correct := range cases {
		if ext := fileExtension(fname); ext != correct {
			t.Errorf("Extension of '%s' should be '%s', but got '%s'", fname, correct, ext)
		}
	}
}
