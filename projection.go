package osmworld

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// metersPerDegree is the length of one degree of latitude (and of longitude at the equator)
	metersPerDegree = 111320.0
)

var (
	// DefaultOrigin is the world origin used when none is configured (Reykjavik)
	DefaultOrigin = GeoPoint{Lat: 64.1466, Lon: -21.9426}
)

// Point3 is a planar game-space point: X east, Y elevation, Z south (meters)
type Point3 [3]float64

// X returns easting
func (p Point3) X() float64 { return p[0] }

// Y returns elevation
func (p Point3) Y() float64 { return p[1] }

// Z returns southing
func (p Point3) Z() float64 { return p[2] }

// XZ returns ground-plane projection of the point
func (p Point3) XZ() orb.Point { return orb.Point{p[0], p[2]} }

// Projection converts geodetic coordinates into local planar meters around an origin.
//
// It is a linear approximation with scale factors fixed for the origin latitude,
// which is precise enough over a single bounded region.
type Projection struct {
	Origin             GeoPoint
	MetersPerDegreeLat float64
	MetersPerDegreeLon float64
}

// NewProjection returns projection with scale factors fixed for latitude of the given origin
func NewProjection(origin GeoPoint) Projection {
	return Projection{
		Origin:             origin,
		MetersPerDegreeLat: metersPerDegree,
		MetersPerDegreeLon: metersPerDegree * math.Cos(degreesToRadians(origin.Lat)),
	}
}

// ToPlanar returns (x, z) in meters for given latitude and longitude
func (p Projection) ToPlanar(lat, lon float64) (float64, float64) {
	x := (lon - p.Origin.Lon) * p.MetersPerDegreeLon
	z := -(lat - p.Origin.Lat) * p.MetersPerDegreeLat
	return x, z
}

// ToGeo is inverse of ToPlanar
func (p Projection) ToGeo(x, z float64) GeoPoint {
	return GeoPoint{
		Lat: p.Origin.Lat - z/p.MetersPerDegreeLat,
		Lon: p.Origin.Lon + x/p.MetersPerDegreeLon,
	}
}

// Point returns planar point with centimeter precision for given coordinates and elevation
func (p Projection) Point(lat, lon, elevation float64) Point3 {
	x, z := p.ToPlanar(lat, lon)
	return Point3{roundCentimeters(x), roundCentimeters(elevation), roundCentimeters(z)}
}
