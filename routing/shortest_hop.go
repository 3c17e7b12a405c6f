package routing

import (
	t "github.com/a-powelson/Ryu-Firewall/common"
)

const AlgorithmShortestHop = "shortest_hop"

// ShortestHop finds a fewest-hop path with a breadth-first search. Ties
// go to whichever neighbor Neighbors lists first.
//
// Only edges that carry an egress port are followed. Host->switch edges
// record attachment and have no port, so a host can end a path but never
// sit inside one.
type ShortestHop struct{}

func (ShortestHop) ComputePath(g *t.TopologyGraph, src, dst t.Node) (t.Path, error) {
	if !g.HasNode(src) || !g.HasNode(dst) {
		return nil, ErrNoPath
	}
	if src == dst {
		return t.Path{src}, nil
	}

	prev := map[t.Node]t.Node{src: src}
	queue := []t.Node{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range g.Neighbors(cur) {
			if !e.HasPort {
				continue
			}
			if _, seen := prev[e.To]; seen {
				continue
			}
			prev[e.To] = cur
			if e.To == dst {
				return walkBack(prev, src, dst), nil
			}
			queue = append(queue, e.To)
		}
	}

	return nil, ErrNoPath
}

func walkBack(prev map[t.Node]t.Node, src, dst t.Node) t.Path {
	var rev t.Path
	for n := dst; n != src; n = prev[n] {
		rev = append(rev, n)
	}
	rev = append(rev, src)

	path := make(t.Path, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}
