package pathfinder

import (
	"time"

	"github.com/LdDl/ch"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ContractionHierarchy exports routing graph into contraction hierarchies graph.
// Vertex labels are GraphNode identifiers, weights are meters
func (pf *Pathfinder) ContractionHierarchy(contract bool) (*ch.Graph, error) {
	if !pf.ready {
		return nil, errors.New("graph is not built")
	}
	graph := ch.Graph{}
	for _, node := range pf.nodes {
		err := graph.CreateVertex(node.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "Can not create vertex %d", node.ID)
		}
	}
	for _, node := range pf.nodes {
		for _, edge := range node.Edges {
			err := graph.AddEdge(node.ID, edge.Neighbor, edge.Distance)
			if err != nil {
				return nil, errors.Wrapf(err, "Can not wrap vertices %d and %d as edge", node.ID, edge.Neighbor)
			}
		}
	}
	if contract {
		pf.logger.Info("Starting contraction process...")
		st := time.Now()
		graph.PrepareContractionHierarchies()
		pf.logger.Info("Done contraction process", zap.Duration("elapsed", time.Since(st)))
	}
	return &graph, nil
}
