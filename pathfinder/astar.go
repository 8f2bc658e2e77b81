package pathfinder

import (
	"container/heap"
	"time"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/internal/observability"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// FindPath returns simplified sequence of node positions connecting graph nodes
// nearest to start and end positions. Returns false when graph is not built, when no
// node is near either position or when the nodes are disconnected.
func (pf *Pathfinder) FindPath(startX, startZ, endX, endZ float64) ([]osmworld.Point3, bool) {
	if !pf.ready {
		pf.metrics.ObserveSearch(observability.SearchNotReady, 0)
		return nil, false
	}
	st := time.Now()
	path, ok := pf.findPath(startX, startZ, endX, endZ)
	result := observability.SearchFound
	if !ok {
		result = observability.SearchNotFound
	}
	pf.metrics.ObserveSearch(result, time.Since(st).Seconds())
	return path, ok
}

func (pf *Pathfinder) findPath(startX, startZ, endX, endZ float64) ([]osmworld.Point3, bool) {
	start, ok := pf.NearestNode(startX, startZ)
	if !ok {
		pf.logger.Warn("No graph node near start position", zap.Float64("x", startX), zap.Float64("z", startZ))
		return nil, false
	}
	goal, ok := pf.NearestNode(endX, endZ)
	if !ok {
		pf.logger.Warn("No graph node near end position", zap.Float64("x", endX), zap.Float64("z", endZ))
		return nil, false
	}
	ids, ok := pf.aStar(start.ID, goal.ID)
	if !ok {
		pf.logger.Warn("No path found", zap.Int64("from_node", start.ID), zap.Int64("to_node", goal.ID))
		return nil, false
	}
	points := make([]osmworld.Point3, len(ids))
	for i, id := range ids {
		points[i] = pf.nodes[id].Position
	}
	return Simplify(points, SimplifyTolerance), true
}

// aStar searches graph with straight-line heuristic. Returns node identifiers from start to goal
func (pf *Pathfinder) aStar(startID, goalID int64) ([]int64, bool) {
	goal := pf.nodes[goalID].Position.XZ()
	heuristic := func(id int64) float64 {
		return planar.Distance(pf.nodes[id].Position.XZ(), goal)
	}

	gScore := map[int64]float64{startID: 0}
	cameFrom := make(map[int64]int64)
	closed := make(map[int64]bool)

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{node: startID, priority: heuristic(startID)})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		current := item.node
		if current == goalID {
			return reconstructPath(cameFrom, current), true
		}
		if closed[current] {
			continue
		}
		closed[current] = true
		for _, e := range pf.nodes[current].Edges {
			if closed[e.Neighbor] {
				continue
			}
			tentative := gScore[current] + e.Distance
			if old, ok := gScore[e.Neighbor]; !ok || tentative < old {
				cameFrom[e.Neighbor] = current
				gScore[e.Neighbor] = tentative
				heap.Push(pq, &pqItem{node: e.Neighbor, priority: tentative + heuristic(e.Neighbor)})
			}
		}
	}
	return nil, false
}

func reconstructPath(cameFrom map[int64]int64, current int64) []int64 {
	path := []int64{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type pqItem struct {
	node     int64
	priority float64
}

// priorityQueue is min-heap on priority; ties are broken by node identifier
type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority == pq[j].priority {
		return pq[i].node < pq[j].node
	}
	return pq[i].priority < pq[j].priority
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}
