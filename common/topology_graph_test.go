package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeCreatesEndpoints(t *testing.T) {
	g := NewTopologyGraph()
	g.AddEdge(SwitchNode(1), SwitchNode(2), 3, true)

	assert.True(t, g.HasNode(SwitchNode(1)))
	assert.True(t, g.HasNode(SwitchNode(2)))
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.LinkCount())
}

func TestAddEdgeIsIdempotentAndUpdatesPort(t *testing.T) {
	g := NewTopologyGraph()
	g.AddEdge(SwitchNode(1), SwitchNode(2), 3, true)
	g.AddEdge(SwitchNode(1), SwitchNode(2), 7, true)

	require.Equal(t, 1, g.LinkCount())
	e, ok := g.Edge(SwitchNode(1), SwitchNode(2))
	require.True(t, ok)
	assert.Equal(t, uint32(7), e.Port)
	assert.True(t, e.HasPort)
}

func TestNeighborsOrderAndPorts(t *testing.T) {
	g := NewTopologyGraph()
	s1 := SwitchNode(1)
	g.AddEdge(s1, HostNode("00:00:00:00:00:01"), 1, true)
	g.AddEdge(s1, SwitchNode(3), 4, true)
	g.AddEdge(s1, SwitchNode(2), 2, true)

	n := g.Neighbors(s1)
	require.Len(t, n, 3)
	assert.Equal(t, SwitchNode(2), n[0].To)
	assert.Equal(t, SwitchNode(3), n[1].To)
	assert.Equal(t, HostNode("00:00:00:00:00:01"), n[2].To)
	assert.Equal(t, uint32(1), n[2].Port)
}

func TestPortlessEdge(t *testing.T) {
	g := NewTopologyGraph()
	h := HostNode("00:00:00:00:00:05")
	g.AddEdge(h, SwitchNode(5), 0, false)

	e, ok := g.Edge(h, SwitchNode(5))
	require.True(t, ok)
	assert.False(t, e.HasPort)

	_, ok = g.Edge(SwitchNode(5), h)
	assert.False(t, ok)
	assert.Empty(t, g.Neighbors(SwitchNode(5)))
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "s12", SwitchNode(12).String())
	assert.Equal(t, "aa:bb", HostNode("aa:bb").String())
	assert.Equal(t, "[s1 s2 aa:bb]", Path{SwitchNode(1), SwitchNode(2), HostNode("aa:bb")}.String())
}

func TestTopologyManagerStats(t *testing.T) {
	tm := NewTopologyManager()
	tm.WithLock(func(g *TopologyGraph) {
		g.AddEdge(SwitchNode(1), SwitchNode(2), 1, true)
		g.AddEdge(SwitchNode(2), SwitchNode(1), 1, true)
	})

	nodes, links := tm.Stats()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 2, links)
}
