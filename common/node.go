package common

import "fmt"

type NodeKind uint8

const (
	KindSwitch NodeKind = iota + 1
	KindHost
)

// Node identifies a vertex of the topology graph. Switches and learned
// hosts share one identity space; only the field matching Kind is set.
type Node struct {
	Kind   NodeKind
	Switch uint64
	Addr   string
}

func SwitchNode(dpid uint64) Node {
	return Node{Kind: KindSwitch, Switch: dpid}
}

func HostNode(addr string) Node {
	return Node{Kind: KindHost, Addr: addr}
}

func (n Node) IsSwitch() bool { return n.Kind == KindSwitch }

func (n Node) IsHost() bool { return n.Kind == KindHost }

func (n Node) String() string {
	switch n.Kind {
	case KindSwitch:
		return fmt.Sprintf("s%d", n.Switch)
	case KindHost:
		return n.Addr
	default:
		return "<invalid>"
	}
}

// less orders switches before hosts, switches by dpid, hosts by address.
func (n Node) less(o Node) bool {
	if n.Kind != o.Kind {
		return n.Kind < o.Kind
	}
	if n.Kind == KindSwitch {
		return n.Switch < o.Switch
	}
	return n.Addr < o.Addr
}

// Edge is a directed adjacency. HasPort is false for host->switch edges,
// which only record attachment and carry no usable egress port.
type Edge struct {
	From    Node
	To      Node
	Port    uint32
	HasPort bool
}

// Path is an ordered node sequence, source first.
type Path []Node

func (p Path) String() string {
	s := "["
	for i, n := range p {
		if i > 0 {
			s += " "
		}
		s += n.String()
	}
	return s + "]"
}
