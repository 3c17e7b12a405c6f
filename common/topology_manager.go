package common

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// TopologyManager owns a TopologyGraph and the one lock that guards it.
// Every event handler runs its whole read-modify-write section inside
// WithLock, which also covers the first-sighting check of host learning.
type TopologyManager struct {
	topology *TopologyGraph
	mutex    sync.Mutex
}

func NewTopologyManager() *TopologyManager {
	return &TopologyManager{
		topology: NewTopologyGraph(),
	}
}

func (tm *TopologyManager) WithLock(fn func(g *TopologyGraph)) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	fn(tm.topology)
}

// Stats returns node and directed edge counts.
func (tm *TopologyManager) Stats() (nodes, links int) {
	tm.WithLock(func(g *TopologyGraph) {
		nodes, links = g.NodeCount(), g.LinkCount()
	})
	return nodes, links
}

func (tm *TopologyManager) LogTopology() {
	tm.WithLock(func(g *TopologyGraph) {
		log.Debugf(">>>> Nodes <<<< %v", g.GetAllNodes())
		edges := g.GetAllEdges()
		pairs := make([]string, 0, len(edges))
		for _, e := range edges {
			pairs = append(pairs, e.From.String()+"->"+e.To.String())
		}
		log.Debugf(">>>> Edges <<<< %v", pairs)
	})
}
