package osmworld

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// PrepareGeoJSONLinestring returns GeoJSON geometry of planar line in geodetic coordinates
func PrepareGeoJSONLinestring(proj Projection, pts []Point3) *geojson.Geometry {
	return geojson.NewLineStringGeometry(lineToGeodetic(proj, pts))
}

// PrepareGeoJSONPoint returns GeoJSON geometry of planar point in geodetic coordinates
func PrepareGeoJSONPoint(proj Projection, pt Point3) *geojson.Geometry {
	return geojson.NewPointGeometry(pointToGeodetic(proj, pt))
}

func pointToGeodetic(proj Projection, pt Point3) []float64 {
	gp := proj.ToGeo(pt.X(), pt.Z())
	return []float64{gp.Lon, gp.Lat, pt.Y()}
}

func lineToGeodetic(proj Projection, pts []Point3) [][]float64 {
	pts2d := make([][]float64, len(pts))
	for i := range pts {
		pts2d[i] = pointToGeodetic(proj, pts[i])
	}
	return pts2d
}

// FeatureCollection returns roads as LineString features and POIs as Point features
func (ds *Dataset) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range ds.Roads {
		road := &ds.Roads[i]
		feature := geojson.NewFeature(PrepareGeoJSONLinestring(ds.Projection, road.Points))
		feature.ID = road.ID
		feature.SetProperty("kind", "road")
		feature.SetProperty("type", road.Type.String())
		feature.SetProperty("name", road.Name)
		feature.SetProperty("width", road.Width)
		feature.SetProperty("speedLimit", road.SpeedLimit)
		feature.SetProperty("lanes", road.Lanes)
		feature.SetProperty("surface", road.Surface)
		fc.AddFeature(feature)
	}
	for i := range ds.POIs {
		poi := &ds.POIs[i]
		feature := geojson.NewFeature(PrepareGeoJSONPoint(ds.Projection, poi.Position()))
		feature.ID = poi.ID
		feature.SetProperty("kind", "poi")
		feature.SetProperty("type", string(poi.Type))
		feature.SetProperty("name", poi.Name)
		fc.AddFeature(feature)
	}
	return fc
}

// WriteGeoJSON writes FeatureCollection of the dataset to file
func (ds *Dataset) WriteGeoJSON(fname string) error {
	b, err := ds.FeatureCollection().MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't convert dataset to geojson format")
	}
	if err := os.WriteFile(fname, b, 0o644); err != nil {
		return errors.Wrap(err, "Can't write geojson file")
	}
	return nil
}
