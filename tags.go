package osmworld

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

const (
	kmhPerMph = 1.609344
	// FuelStationDefaultName is the name of fuel POI without `name` tag
	FuelStationDefaultName = "Gas Station"
)

var (
	numberRegExp = regexp.MustCompile(`-?\d+\.?\d*`)
	mphRegExp    = regexp.MustCompile(`^\s*\d+\.?\d*\s*mph\s*$`)
	kmhRegExp    = regexp.MustCompile(`^\s*\d+\.?\d*\s*(km/h|kmh|kph)?\s*$`)
)

// RawNode is a parsed OSM node with recognized tags flattened into typed fields
type RawNode struct {
	ID           int64
	Lat          float64
	Lon          float64
	Elevation    float64
	HasElevation bool
	Name         string
	Place        string
	Amenity      string
}

// RawWay is a parsed OSM way with recognized tags flattened into typed fields
type RawWay struct {
	ID       int64
	NodeIDs  []int64
	Name     string
	Highway  string
	MaxSpeed string
	Lanes    string
	Surface  string
}

func rawNodeFromOSM(node *osm.Node) RawNode {
	raw := RawNode{
		ID:      int64(node.ID),
		Lat:     node.Lat,
		Lon:     node.Lon,
		Name:    node.Tags.Find("name"),
		Place:   node.Tags.Find("place"),
		Amenity: node.Tags.Find("amenity"),
	}
	raw.Elevation, raw.HasElevation = parseElevation(node.Tags.Find("ele"))
	return raw
}

func rawWayFromOSM(way *osm.Way) RawWay {
	raw := RawWay{
		ID:       int64(way.ID),
		NodeIDs:  make([]int64, 0, len(way.Nodes)),
		Name:     way.Tags.Find("name"),
		Highway:  way.Tags.Find("highway"),
		MaxSpeed: way.Tags.Find("maxspeed"),
		Lanes:    way.Tags.Find("lanes"),
		Surface:  way.Tags.Find("surface"),
	}
	for _, node := range way.Nodes {
		raw.NodeIDs = append(raw.NodeIDs, int64(node.ID))
	}
	return raw
}

// parseElevation extracts meters from `ele` tag values like "123", "123.4 m" or "-2"
func parseElevation(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	text, ok := normalizeDecimalComma(text)
	if !ok {
		return 0, false
	}
	num := numberRegExp.FindString(text)
	if num == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// normalizeDecimalComma turns single decimal comma into point ("12,5" -> "12.5").
// Values with both separators or with exactly 3 digits after the comma ("1,234")
// are ambiguous thousands separators and rejected
func normalizeDecimalComma(text string) (string, bool) {
	idx := strings.Index(text, ",")
	if idx < 0 {
		return text, true
	}
	if strings.Contains(text, ".") || strings.Count(text, ",") > 1 {
		return "", false
	}
	digits := 0
	for _, r := range text[idx+1:] {
		if r < '0' || r > '9' {
			break
		}
		digits++
	}
	if digits == 3 {
		return "", false
	}
	return strings.Replace(text, ",", ".", 1), true
}

// parseMaxSpeed returns speed in km/h for `maxspeed` values. Symbolic values like "IS:rural" are not handled
func parseMaxSpeed(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	factor := 1.0
	switch {
	case mphRegExp.MatchString(text):
		factor = kmhPerMph
	case kmhRegExp.MatchString(text):
	default:
		return 0, false
	}
	value, err := strconv.ParseFloat(numberRegExp.FindString(text), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value * factor, true
}

// parseLanes returns positive lane count for `lanes` values
func parseLanes(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	lanes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || lanes <= 0 {
		return 0, false
	}
	return lanes, true
}
