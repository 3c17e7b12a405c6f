package topology

import (
	t "github.com/a-powelson/Ryu-Firewall/common"
	"github.com/a-powelson/Ryu-Firewall/protocol"
	log "github.com/sirupsen/logrus"
)

type LearnResult int

const (
	// Learned means the source was seen for the first time and was added
	// to the graph. No routing happens for this packet.
	Learned LearnResult = iota
	// Route means both endpoints are known and the packet should be routed.
	Route
	// UnknownDestination means the source is known but the destination
	// has not announced itself yet.
	UnknownDestination
)

func (r LearnResult) String() string {
	switch r {
	case Learned:
		return "Learned"
	case Route:
		return "Route"
	case UnknownDestination:
		return "UnknownDestination"
	default:
		return "Unknown"
	}
}

// Learn attaches a previously unseen source address to its ingress switch.
// Hosts are assumed stationary: once learned, later sightings on other
// ports do not move them.
func Learn(g *t.TopologyGraph, pi protocol.PacketIn) LearnResult {
	src := t.HostNode(pi.EthSrc)
	dst := t.HostNode(pi.EthDst)
	ingress := t.SwitchNode(pi.SwitchID)

	if !g.HasNode(src) {
		g.AddNode(src)
		g.AddEdge(ingress, src, pi.InPort, true)
		// attachment only, a host has no egress port
		g.AddEdge(src, ingress, 0, false)
		log.Infof("learned host %s on s%d port %d", pi.EthSrc, pi.SwitchID, pi.InPort)
		return Learned
	}

	if !g.HasNode(dst) {
		return UnknownDestination
	}
	return Route
}
