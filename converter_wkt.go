package osmworld

import (
	"fmt"
	"strings"
)

// PrepareWKTLinestring returns WKT representation of planar line (X and Z, meters)
func PrepareWKTLinestring(pts []Point3) string {
	ptsStr := make([]string, len(pts))
	for i := range pts {
		ptsStr[i] = fmt.Sprintf("%f %f", pts[i].X(), pts[i].Z())
	}
	return fmt.Sprintf("LINESTRING(%s)", strings.Join(ptsStr, ","))
}

// PrepareWKTPoint returns WKT representation of planar point (X and Z, meters)
func PrepareWKTPoint(pt Point3) string {
	return fmt.Sprintf("POINT(%f %f)", pt.X(), pt.Z())
}
