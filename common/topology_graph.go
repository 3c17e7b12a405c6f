package common

import "sort"

type egress struct {
	port    uint32
	hasPort bool
}

// TopologyGraph is the directed switch/host graph. It does no locking of
// its own; callers go through TopologyManager.
type TopologyGraph struct {
	Links map[Node]map[Node]egress
}

func NewTopologyGraph() *TopologyGraph {
	return &TopologyGraph{
		Links: make(map[Node]map[Node]egress),
	}
}

func (t *TopologyGraph) AddNode(n Node) {
	if _, exists := t.Links[n]; !exists {
		t.Links[n] = make(map[Node]egress)
	}
}

// AddEdge inserts from->to, creating missing endpoints. Re-adding an
// existing edge overwrites its port.
func (t *TopologyGraph) AddEdge(from, to Node, port uint32, hasPort bool) {
	t.AddNode(from)
	t.AddNode(to)
	t.Links[from][to] = egress{port: port, hasPort: hasPort}
}

func (t *TopologyGraph) HasNode(n Node) bool {
	_, exists := t.Links[n]
	return exists
}

func (t *TopologyGraph) Edge(from, to Node) (Edge, bool) {
	targets, exists := t.Links[from]
	if !exists {
		return Edge{}, false
	}
	e, exists := targets[to]
	if !exists {
		return Edge{}, false
	}
	return Edge{From: from, To: to, Port: e.port, HasPort: e.hasPort}, true
}

// Neighbors returns the outgoing edges of n, switches first by dpid then
// hosts by address.
func (t *TopologyGraph) Neighbors(n Node) []Edge {
	targets := t.Links[n]
	result := make([]Edge, 0, len(targets))
	for to, e := range targets {
		result = append(result, Edge{From: n, To: to, Port: e.port, HasPort: e.hasPort})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].To.less(result[j].To) })
	return result
}

func (t *TopologyGraph) NodeCount() int {
	return len(t.Links)
}

func (t *TopologyGraph) LinkCount() int {
	count := 0
	for _, targets := range t.Links {
		count += len(targets)
	}
	return count
}

func (t *TopologyGraph) GetAllNodes() []Node {
	nodes := make([]Node, 0, len(t.Links))
	for n := range t.Links {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].less(nodes[j]) })
	return nodes
}

func (t *TopologyGraph) GetAllEdges() []Edge {
	var edges []Edge
	for _, n := range t.GetAllNodes() {
		edges = append(edges, t.Neighbors(n)...)
	}
	return edges
}
