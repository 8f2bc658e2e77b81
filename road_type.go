package osmworld

import (
	"sort"

	"github.com/pkg/errors"
)

type RoadType uint16

const (
	ROAD_MOTORWAY = RoadType(iota + 1)
	ROAD_TRUNK
	ROAD_PRIMARY
	ROAD_SECONDARY
	ROAD_TERTIARY
	ROAD_OTHER
)

func (iotaIdx RoadType) String() string {
	if iotaIdx < ROAD_MOTORWAY || iotaIdx > ROAD_OTHER {
		return "unknown"
	}
	return [...]string{"motorway", "trunk", "primary", "secondary", "tertiary", "other"}[iotaIdx-1]
}

// MarshalText encodes road type as its name
func (iotaIdx RoadType) MarshalText() ([]byte, error) {
	if iotaIdx < ROAD_MOTORWAY || iotaIdx > ROAD_OTHER {
		return nil, errors.Errorf("Unknown road type: %d", iotaIdx)
	}
	return []byte(iotaIdx.String()), nil
}

// UnmarshalText decodes road type from its name. Unknown names become ROAD_OTHER
func (iotaIdx *RoadType) UnmarshalText(text []byte) error {
	if found, ok := roadTypesByName[string(text)]; ok {
		*iotaIdx = found
		return nil
	}
	*iotaIdx = ROAD_OTHER
	return nil
}

const (
	// DefaultLanes is lane count when way has no usable `lanes` tag
	DefaultLanes = 2
	// defaultKey is the fallback entry of every classification lookup table
	defaultKey = "default"
)

var (
	roadTypesByName = map[string]RoadType{
		"motorway":  ROAD_MOTORWAY,
		"trunk":     ROAD_TRUNK,
		"primary":   ROAD_PRIMARY,
		"secondary": ROAD_SECONDARY,
		"tertiary":  ROAD_TERTIARY,
		"other":     ROAD_OTHER,
	}

	// Recognized `highway` values. Everything else is not a road
	roadTypeByHighway = map[string]RoadType{
		"motorway":       ROAD_MOTORWAY,
		"motorway_link":  ROAD_MOTORWAY,
		"trunk":          ROAD_TRUNK,
		"trunk_link":     ROAD_TRUNK,
		"primary":        ROAD_PRIMARY,
		"primary_link":   ROAD_PRIMARY,
		"secondary":      ROAD_SECONDARY,
		"secondary_link": ROAD_SECONDARY,
		"tertiary":       ROAD_TERTIARY,
		"tertiary_link":  ROAD_TERTIARY,
		"unclassified":   ROAD_OTHER,
		"residential":    ROAD_OTHER,
		"living_street":  ROAD_OTHER,
		"service":        ROAD_OTHER,
		"track":          ROAD_OTHER,
	}

	// meters
	roadWidths = map[string]float64{
		"motorway":  14,
		"trunk":     12,
		"primary":   10,
		"secondary": 8,
		"tertiary":  7,
		defaultKey:  6,
	}

	// km/h
	roadSpeedLimits = map[string]float64{
		"motorway":  110,
		"trunk":     90,
		"primary":   90,
		"secondary": 80,
		"tertiary":  60,
		defaultKey:  50,
	}

	roadSurfaces = map[string]string{
		"motorway":  "asphalt",
		"trunk":     "asphalt",
		"primary":   "asphalt",
		"secondary": "asphalt",
		"tertiary":  "asphalt",
		defaultKey:  "gravel",
	}
)

// HighwayNames returns every recognized `highway` tag value in sorted order
func HighwayNames() []string {
	names := make([]string, 0, len(roadTypeByHighway))
	for name := range roadTypeByHighway {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getRoadType(highway string) (RoadType, bool) {
	found, ok := roadTypeByHighway[highway]
	return found, ok
}

func lookupFloat(table map[string]float64, roadType RoadType) float64 {
	if v, ok := table[roadType.String()]; ok {
		return v
	}
	return table[defaultKey]
}

func lookupString(table map[string]string, roadType RoadType) string {
	if v, ok := table[roadType.String()]; ok {
		return v
	}
	return table[defaultKey]
}

// Width returns default carriageway width for road type (meters)
func (iotaIdx RoadType) Width() float64 {
	return lookupFloat(roadWidths, iotaIdx)
}

// SpeedLimit returns default speed limit for road type (km/h)
func (iotaIdx RoadType) SpeedLimit() float64 {
	return lookupFloat(roadSpeedLimits, iotaIdx)
}

// Surface returns default surface for road type
func (iotaIdx RoadType) Surface() string {
	return lookupString(roadSurfaces, iotaIdx)
}
