// Package pathfinder builds a routing graph over road polylines by merging nearby
// points into shared nodes and answers A* shortest path queries over it.
package pathfinder

import (
	"fmt"
	"time"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/internal/observability"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

const (
	// CellSize is the side of spatial grid cell (meters)
	CellSize = 100.0
	// MergeDistance is the distance below which two points share one graph node (meters)
	MergeDistance = 5.0
	// NodeSpacing is the accumulated road length after which a new node is placed (meters)
	NodeSpacing = 50.0
	// SimplifyTolerance is the deviation below which path points are dropped (meters)
	SimplifyTolerance = 5.0
	// maxSearchSteps caps expanding-radius search for nearest node (in cells)
	maxSearchSteps = 20
)

// Edge is a directed half of bidirectional road connection
type Edge struct {
	Neighbor     int64
	Distance     float64
	SourceRoadID int64
}

// GraphNode is a deduplicated routing vertex
type GraphNode struct {
	ID       int64
	Position osmworld.Point3
	Edges    []Edge
}

// Pathfinder owns the routing graph and its spatial grid.
//
// It is not safe for concurrent use: callers drive it from a single control thread.
type Pathfinder struct {
	logger  *zap.Logger
	metrics *observability.PathfinderMetrics

	nodes     []*GraphNode
	grid      *spatialGrid
	edgeCount int
	ready     bool
}

func (pf *Pathfinder) String() string {
	return fmt.Sprintf(`
Pathfinder:
	ready: %t
	nodes: %d
	edges: %d
	`,
		pf.ready,
		len(pf.nodes),
		pf.edgeCount,
	)
}

// New returns empty pathfinder. Call Build before querying
func New(options ...func(*Pathfinder)) *Pathfinder {
	pf := &Pathfinder{
		logger: zap.NewNop(),
		grid:   newSpatialGrid(CellSize),
	}
	for _, option := range options {
		option(pf)
	}
	if pf.logger == nil {
		pf.logger = zap.NewNop()
	}
	return pf
}

func WithLogger(logger *zap.Logger) func(*Pathfinder) {
	return func(pf *Pathfinder) {
		pf.logger = logger
	}
}

func WithMetrics(metrics *observability.PathfinderMetrics) func(*Pathfinder) {
	return func(pf *Pathfinder) {
		pf.metrics = metrics
	}
}

// Build replaces current graph with one built from given roads
func (pf *Pathfinder) Build(roads []osmworld.Road) {
	pf.logger.Info("Building road graph...", zap.Int("roads", len(roads)))
	st := time.Now()
	pf.nodes = pf.nodes[:0]
	pf.grid = newSpatialGrid(CellSize)
	pf.edgeCount = 0
	pf.ready = false

	for i := range roads {
		pf.addRoad(&roads[i])
	}

	pf.ready = true
	pf.metrics.SetGraphSize(len(pf.nodes), pf.edgeCount)
	pf.logger.Info("Done", zap.Duration("elapsed", time.Since(st)), zap.Int("nodes", len(pf.nodes)), zap.Int("edges", pf.edgeCount))
}

// addRoad places nodes at road ends and every time accumulated length exceeds NodeSpacing
func (pf *Pathfinder) addRoad(road *osmworld.Road) {
	last := len(road.Points) - 1
	if last < 1 {
		return
	}
	prevNode := int64(-1)
	accumulated := 0.0
	for i, pt := range road.Points {
		if i > 0 {
			accumulated += planar.Distance(road.Points[i-1].XZ(), pt.XZ())
		}
		if i != 0 && i != last && accumulated <= NodeSpacing {
			continue
		}
		nodeID := pf.findOrCreateNode(pt)
		if prevNode >= 0 && nodeID != prevNode {
			pf.addEdge(prevNode, nodeID, accumulated, road.ID)
			pf.addEdge(nodeID, prevNode, accumulated, road.ID)
		}
		prevNode = nodeID
		accumulated = 0
	}
}

// findOrCreateNode returns closest existing node within MergeDistance or creates new one
func (pf *Pathfinder) findOrCreateNode(pt osmworld.Point3) int64 {
	xz := pt.XZ()
	found := int64(-1)
	best := MergeDistance
	pf.grid.neighbourhood(pf.grid.key(xz), 1, func(id int64) {
		d := planar.Distance(pf.nodes[id].Position.XZ(), xz)
		if d < best {
			best = d
			found = id
		}
	})
	if found >= 0 {
		return found
	}
	node := &GraphNode{
		ID:       int64(len(pf.nodes)),
		Position: pt,
	}
	pf.nodes = append(pf.nodes, node)
	pf.grid.insert(node.ID, xz)
	return node.ID
}

// addEdge adds directed edge unless the pair is already connected
func (pf *Pathfinder) addEdge(from, to int64, distance float64, roadID int64) {
	node := pf.nodes[from]
	for _, edge := range node.Edges {
		if edge.Neighbor == to {
			return
		}
	}
	node.Edges = append(node.Edges, Edge{
		Neighbor:     to,
		Distance:     distance,
		SourceRoadID: roadID,
	})
	pf.edgeCount++
}

// NearestNode returns closest node to given position using expanding-radius search
// over grid cells. Nodes farther than maxSearchSteps cells are not considered
func (pf *Pathfinder) NearestNode(x, z float64) (*GraphNode, bool) {
	if len(pf.nodes) == 0 {
		return nil, false
	}
	target := osmworld.Point3{x, 0, z}.XZ()
	center := pf.grid.key(target)
	var found *GraphNode
	best := 0.0
	for step := 0; step <= maxSearchSteps; step++ {
		pf.grid.ring(center, step, func(id int64) {
			d := planar.Distance(pf.nodes[id].Position.XZ(), target)
			if found == nil || d < best || (d == best && id < found.ID) {
				best = d
				found = pf.nodes[id]
			}
		})
		// Any node in outer rings is at least step*CellSize away
		if found != nil && best <= float64(step)*CellSize {
			return found, true
		}
	}
	if found != nil {
		return found, true
	}
	return nil, false
}

// IsReady reports whether graph has been built
func (pf *Pathfinder) IsReady() bool {
	return pf.ready
}

// NodeCount returns number of graph nodes
func (pf *Pathfinder) NodeCount() int {
	return len(pf.nodes)
}

// EdgeCount returns number of directed edges (each road connection counts twice)
func (pf *Pathfinder) EdgeCount() int {
	return pf.edgeCount
}

// Nodes returns graph nodes indexed by their ID. The slice must not be modified
func (pf *Pathfinder) Nodes() []*GraphNode {
	return pf.nodes
}
