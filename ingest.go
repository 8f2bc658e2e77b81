package osmworld

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LdDl/osmworld/elevation"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type elevationSource uint8

const (
	ELEVATION_DIRECT = elevationSource(iota + 1)
	ELEVATION_INTERPOLATED
	ELEVATION_DEFAULT
)

// nodesPartial is the local result of a single node worker
type nodesPartial struct {
	nodes   map[int64]*RawNode
	pois    []*RawNode
	samples []elevation.Sample
}

// roadsPartial is the local result of a single way worker
type roadsPartial struct {
	roads []Road
	stats Stats
}

// IngestFile reads whole file into memory and ingests it. Format is guessed by file extension
func (ing *Ingester) IngestFile(ctx context.Context, fileName string) (*Dataset, *Stats, error) {
	format, err := formatFromExtension(fileExtension(fileName))
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, nil, errors.Wrap(err, "File read")
	}
	return ing.Ingest(ctx, data, format)
}

// fileExtension returns extension treating ".osm.pbf" as a whole
func fileExtension(fileName string) string {
	lower := strings.ToLower(fileName)
	if strings.HasSuffix(lower, ".osm.pbf") {
		return ".osm.pbf"
	}
	return filepath.Ext(lower)
}

// Ingest converts buffered document of given format ("xml" or "pbf") into dataset
func (ing *Ingester) Ingest(ctx context.Context, data []byte, format string) (*Dataset, *Stats, error) {
	logger := ing.logger
	projection := NewProjection(ing.origin)

	logger.Info("Parsing document...", zap.String("format", format), zap.Int("bytes", len(data)))
	st := time.Now()
	raw, err := readOSM(ctx, data, format)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't parse OSM data")
	}
	logger.Info("Done", zap.Duration("elapsed", time.Since(st)), zap.Int("nodes", len(raw.nodes)), zap.Int("ways", len(raw.ways)))

	stats := Stats{
		TotalNodes: len(raw.nodes),
		TotalWays:  len(raw.ways),
	}

	/* Nodes: lookup map, POI candidates and elevation samples */
	logger.Info("Processing nodes...")
	st = time.Now()
	nodes := make(map[int64]*RawNode, len(raw.nodes))
	poiCandidates := []*RawNode{}
	samples := []elevation.Sample{}
	err = runPartitioned(ctx, len(raw.nodes), ing.workers,
		func(lo, hi int) nodesPartial {
			return processNodes(raw.nodes[lo:hi])
		},
		func(part nodesPartial) {
			for id, node := range part.nodes {
				nodes[id] = node
			}
			poiCandidates = append(poiCandidates, part.pois...)
			samples = append(samples, part.samples...)
		},
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Nodes processing interrupted")
	}
	elevation.Sort(samples)
	stats.ElevationSamples = len(samples)
	logger.Info("Done", zap.Duration("elapsed", time.Since(st)), zap.Int("elevation_samples", len(samples)), zap.Int("poi_candidates", len(poiCandidates)))

	resolver := elevationResolver{
		samples:     samples,
		maxDistance: ing.maxInterpolationDistance,
	}

	/* Ways: classification, point resolution, derived fields */
	logger.Info("Processing ways...")
	st = time.Now()
	roads := make([]Road, 0, len(raw.ways))
	err = runPartitioned(ctx, len(raw.ways), ing.workers,
		func(lo, hi int) roadsPartial {
			return processWays(raw.ways[lo:hi], nodes, projection, resolver)
		},
		func(part roadsPartial) {
			roads = append(roads, part.roads...)
			stats.add(&part.stats)
		},
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Ways processing interrupted")
	}
	sort.Slice(roads, func(i, j int) bool {
		return roads[i].ID < roads[j].ID
	})
	logger.Info("Done", zap.Duration("elapsed", time.Since(st)), zap.Int("roads", len(roads)))

	/* POIs */
	logger.Info("Processing POIs...")
	st = time.Now()
	pois := make([]POI, 0, len(poiCandidates))
	err = runPartitioned(ctx, len(poiCandidates), ing.workers,
		func(lo, hi int) []POI {
			return processPOIs(poiCandidates[lo:hi], projection, resolver)
		},
		func(part []POI) {
			pois = append(pois, part...)
		},
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "POIs processing interrupted")
	}
	sort.Slice(pois, func(i, j int) bool {
		return pois[i].ID < pois[j].ID
	})
	stats.TotalPOIs = len(pois)
	logger.Info("Done", zap.Duration("elapsed", time.Since(st)), zap.Int("pois", len(pois)))

	bounds := Bounds{}
	empty := true
	for i := range roads {
		for _, pt := range roads[i].Points {
			bounds.extend(pt, empty)
			empty = false
		}
	}
	stats.Bounds = bounds

	dataset := &Dataset{
		Projection: projection,
		Meta: Meta{
			Origin:              Origin{Lat: ing.origin.Lat, Lon: ing.origin.Lon},
			Bounds:              bounds,
			TotalRoads:          len(roads),
			TotalPoints:         stats.TotalPoints,
			PointsWithElevation: stats.PointsWithElevation(),
			TotalPOIs:           len(pois),
		},
		Roads: roads,
		POIs:  pois,
	}
	if stats.PointsDefaulted > 0 {
		logger.Warn("Some points have no elevation data nearby and default to sea level", zap.Int("points", stats.PointsDefaulted))
	}
	return dataset, &stats, nil
}

func processNodes(chunk []RawNode) nodesPartial {
	part := nodesPartial{
		nodes: make(map[int64]*RawNode, len(chunk)),
	}
	for i := range chunk {
		node := &chunk[i]
		part.nodes[node.ID] = node
		if node.HasElevation {
			part.samples = append(part.samples, elevation.Sample{Lat: node.Lat, Lon: node.Lon, Elevation: node.Elevation})
		}
		if _, ok := poiCategory(node); ok {
			part.pois = append(part.pois, node)
		}
	}
	return part
}

func processWays(chunk []RawWay, nodes map[int64]*RawNode, projection Projection, resolver elevationResolver) roadsPartial {
	part := roadsPartial{
		roads: make([]Road, 0, len(chunk)),
	}
	for i := range chunk {
		way := &chunk[i]
		roadType, ok := getRoadType(way.Highway)
		if !ok {
			part.stats.WaysUnclassified++
			continue
		}
		points := make([]Point3, 0, len(way.NodeIDs))
		geoLine := make([]GeoPoint, 0, len(way.NodeIDs))
		var direct, interpolated, defaulted int
		for _, nodeID := range way.NodeIDs {
			node, ok := nodes[nodeID]
			if !ok {
				part.stats.MissingNodeRefs++
				continue
			}
			ele, source := resolver.resolve(node)
			switch source {
			case ELEVATION_DIRECT:
				direct++
			case ELEVATION_INTERPOLATED:
				interpolated++
			default:
				defaulted++
			}
			points = append(points, projection.Point(node.Lat, node.Lon, ele))
			geoLine = append(geoLine, GeoPoint{Lat: node.Lat, Lon: node.Lon})
		}
		if len(points) < 2 {
			part.stats.RoadsTooShort++
			continue
		}
		part.stats.RoadsKept++
		part.stats.TotalPoints += len(points)
		part.stats.PointsDirect += direct
		part.stats.PointsInterpolated += interpolated
		part.stats.PointsDefaulted += defaulted
		part.stats.RoadLengthKm += getSphericalLength(geoLine)
		part.roads = append(part.roads, newRoad(way, roadType, points))
	}
	return part
}

func newRoad(way *RawWay, roadType RoadType, points []Point3) Road {
	road := Road{
		ID:         way.ID,
		Type:       roadType,
		Name:       way.Name,
		Width:      roadType.Width(),
		SpeedLimit: roadType.SpeedLimit(),
		Lanes:      DefaultLanes,
		Surface:    roadType.Surface(),
		Points:     points,
	}
	if speed, ok := parseMaxSpeed(way.MaxSpeed); ok {
		road.SpeedLimit = speed
	}
	if lanes, ok := parseLanes(way.Lanes); ok {
		road.Lanes = lanes
	}
	if way.Surface != "" {
		road.Surface = way.Surface
	}
	return road
}

func poiCategory(node *RawNode) (POICategory, bool) {
	switch node.Place {
	case "city":
		return POI_CITY, true
	case "town":
		return POI_TOWN, true
	}
	if node.Amenity == "fuel" {
		return POI_FUEL, true
	}
	return "", false
}

func processPOIs(chunk []*RawNode, projection Projection, resolver elevationResolver) []POI {
	pois := make([]POI, 0, len(chunk))
	for _, node := range chunk {
		category, ok := poiCategory(node)
		if !ok {
			continue
		}
		ele, _ := resolver.resolve(node)
		pt := projection.Point(node.Lat, node.Lon, ele)
		poi := POI{
			ID:   node.ID,
			Type: category,
			Name: node.Name,
			X:    pt.X(),
			Y:    pt.Y(),
			Z:    pt.Z(),
		}
		if poi.Name == "" && category == POI_FUEL {
			poi.Name = FuelStationDefaultName
		}
		pois = append(pois, poi)
	}
	return pois
}

// elevationResolver resolves point elevation: direct tag, then IDW, then sea level
type elevationResolver struct {
	samples     []elevation.Sample
	maxDistance float64
}

func (r elevationResolver) resolve(node *RawNode) (float64, elevationSource) {
	if node.HasElevation {
		return node.Elevation, ELEVATION_DIRECT
	}
	if value, ok := elevation.Interpolate(node.Lat, node.Lon, r.samples, r.maxDistance); ok {
		return value, ELEVATION_INTERPOLATED
	}
	return elevation.SeaLevel, ELEVATION_DEFAULT
}
