package topology

import (
	t "github.com/a-powelson/Ryu-Firewall/common"
	"github.com/a-powelson/Ryu-Firewall/protocol"
	log "github.com/sirupsen/logrus"
)

type SnapshotStats struct {
	Switches int
	Links    int
}

// OnSwitchEnter records a newly discovered switch.
func OnSwitchEnter(g *t.TopologyGraph, dpid uint64) {
	g.AddNode(t.SwitchNode(dpid))
}

// ApplySnapshot reconciles g with a full discovery snapshot. Every link
// becomes a pair of directed edges carrying the local egress port of each
// side. Already known switches and links are left as they are.
func ApplySnapshot(g *t.TopologyGraph, snap protocol.TopologySnapshot) SnapshotStats {
	declared := make(map[uint64]bool, len(snap.Switches))
	for _, dpid := range snap.Switches {
		OnSwitchEnter(g, dpid)
		declared[dpid] = true
	}

	for _, link := range snap.Links {
		if !declared[link.SrcSwitch] || !declared[link.DstSwitch] {
			log.Warningf("link s%d->s%d references undeclared switch", link.SrcSwitch, link.DstSwitch)
		}

		src, dst := t.SwitchNode(link.SrcSwitch), t.SwitchNode(link.DstSwitch)
		g.AddEdge(src, dst, link.SrcPort, true)
		g.AddEdge(dst, src, link.DstPort, true)
	}

	return SnapshotStats{Switches: len(snap.Switches), Links: len(snap.Links)}
}
