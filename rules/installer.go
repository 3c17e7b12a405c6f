package rules

import (
	"errors"
	"fmt"

	t "github.com/a-powelson/Ryu-Firewall/common"
	"github.com/a-powelson/Ryu-Firewall/protocol"
	log "github.com/sirupsen/logrus"
)

const (
	PriorityDefault uint16 = 0
	PriorityForward uint16 = 1
	PriorityDrop    uint16 = 2
)

var ErrMissingPort = errors.New("hop has no egress port")

// Hop is one switch of an installed path with the port it forwards on.
type Hop struct {
	SwitchID uint64
	OutPort  uint32
}

// SendObserver is told about every command handed to the southbound side.
type SendObserver func(cmd protocol.Command, err error)

type Installer struct {
	southbound protocol.Southbound
	observe    SendObserver
}

func NewInstaller(sb protocol.Southbound, observe SendObserver) *Installer {
	return &Installer{southbound: sb, observe: observe}
}

func (in *Installer) send(cmd protocol.Command) {
	err := in.southbound.Send(cmd)
	if err != nil {
		log.Warnf("send %s to s%d failed: %v", cmd.MessageType(), cmd.Target(), err)
	}
	if in.observe != nil {
		in.observe(cmd, err)
	}
}

// DefaultRule is the rule an InstallDefaultRule command stands for:
// everything unmatched goes to the controller unbuffered.
func DefaultRule(dpid uint64) protocol.InstallRule {
	return protocol.InstallRule{
		SwitchID: dpid,
		Priority: PriorityDefault,
		Actions:  []protocol.Action{protocol.ToController(protocol.MaxLenNoBuffer)},
	}
}

func ForwardRule(dpid uint64, dst string, port uint32) protocol.InstallRule {
	return protocol.InstallRule{
		SwitchID: dpid,
		Priority: PriorityForward,
		Match:    protocol.Match{EthDst: dst},
		Actions:  []protocol.Action{protocol.Output(port)},
	}
}

func DropRule(dpid uint64, src, dst string) protocol.InstallRule {
	return protocol.InstallRule{
		SwitchID: dpid,
		Priority: PriorityDrop,
		Match:    protocol.Match{EthSrc: src, EthDst: dst},
	}
}

// InstallDefault installs the table-miss rule. It is sent on every call,
// so a switch that reconnects gets another copy.
func (in *Installer) InstallDefault(dpid uint64) {
	in.send(protocol.InstallDefaultRule{SwitchID: dpid})
	log.Infof("Added default rule on s%d", dpid)
}

// InstallPath installs a forwarding rule for dst on every switch of path
// except the last node, plus a higher priority drop rule for the exact
// src/dst pair when blocked is set. blocked depends only on the endpoint
// pair and is decided once by the caller. It returns the first hop.
func (in *Installer) InstallPath(g *t.TopologyGraph, path t.Path, src, dst string, blocked bool) (Hop, error) {
	if len(path) < 2 {
		return Hop{}, fmt.Errorf("path %v has no hop", path)
	}

	hops := make([]Hop, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		cur, next := path[i], path[i+1]
		e, ok := g.Edge(cur, next)
		if !ok || !e.HasPort || !cur.IsSwitch() {
			return Hop{}, fmt.Errorf("%s->%s: %w", cur, next, ErrMissingPort)
		}
		hops = append(hops, Hop{SwitchID: cur.Switch, OutPort: e.Port})
	}

	for _, hop := range hops {
		in.send(ForwardRule(hop.SwitchID, dst, hop.OutPort))
		log.Infof("Added rule on s%d: eth_dst=%s out_port=%d", hop.SwitchID, dst, hop.OutPort)

		if blocked {
			in.send(DropRule(hop.SwitchID, src, dst))
			log.Infof("Added firewall rule on s%d: eth_src=%s eth_dst=%s", hop.SwitchID, src, dst)
		}
	}

	return hops[0], nil
}
