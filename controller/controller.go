package controller

import (
	"errors"
	"fmt"

	t "github.com/a-powelson/Ryu-Firewall/common"
	"github.com/a-powelson/Ryu-Firewall/metrics"
	"github.com/a-powelson/Ryu-Firewall/policy"
	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/a-powelson/Ryu-Firewall/routing"
	"github.com/a-powelson/Ryu-Firewall/rules"
	"github.com/a-powelson/Ryu-Firewall/topology"
	log "github.com/sirupsen/logrus"
)

type Outcome string

const (
	OutcomeLearned            Outcome = "learned"
	OutcomeUnknownDestination Outcome = "unknown_destination"
	OutcomeNoPath             Outcome = "no_path"
	OutcomeInstallFailed      Outcome = "install_failed"
	OutcomeBlocked            Outcome = "blocked"
	OutcomeForwarded          Outcome = "forwarded"
	OutcomeMalformed          Outcome = "malformed"
)

type Options struct {
	Southbound protocol.Southbound
	Policy     policy.Engine
	Calculator routing.PathCalculator
	// Metrics is optional.
	Metrics *metrics.Registry
}

// Controller is the reactive decision core. Events are handled one at a
// time under the topology lock, so concurrent callers of Handle are safe.
type Controller struct {
	topology   *t.TopologyManager
	policy     policy.Engine
	calculator routing.PathCalculator
	installer  *rules.Installer
	southbound protocol.Southbound
	metrics    *metrics.Registry
}

func New(opts Options) (*Controller, error) {
	if opts.Southbound == nil {
		return nil, errors.New("controller needs a southbound")
	}
	if opts.Policy == nil {
		opts.Policy = policy.ParityPolicy{}
	}
	if opts.Calculator == nil {
		opts.Calculator = routing.ShortestHop{}
	}

	c := &Controller{
		topology:   t.NewTopologyManager(),
		policy:     opts.Policy,
		calculator: opts.Calculator,
		southbound: opts.Southbound,
		metrics:    opts.Metrics,
	}
	c.installer = rules.NewInstaller(opts.Southbound, c.observeSend)
	return c, nil
}

func (c *Controller) observeSend(cmd protocol.Command, err error) {
	if c.metrics != nil {
		c.metrics.RecordCommand(cmd.MessageType().String(), err)
	}
}

// Topology exposes the manager for inspection.
func (c *Controller) Topology() *t.TopologyManager {
	return c.topology
}

// Handle dispatches one inbound event.
func (c *Controller) Handle(ev protocol.Event) {
	if c.metrics != nil {
		c.metrics.RecordEvent(ev.MessageType().String())
	}

	switch e := ev.(type) {
	case protocol.SwitchConnected:
		c.HandleSwitchConnected(e)
	case protocol.TopologySnapshot:
		c.HandleTopologySnapshot(e)
	case protocol.PacketIn:
		c.HandlePacketIn(e)
	default:
		log.Warnf("ignoring unsupported event %T", ev)
	}
}

func (c *Controller) HandleSwitchConnected(ev protocol.SwitchConnected) {
	var nodes, links int
	c.topology.WithLock(func(g *t.TopologyGraph) {
		topology.OnSwitchEnter(g, ev.SwitchID)
		c.installer.InstallDefault(ev.SwitchID)
		nodes, links = g.NodeCount(), g.LinkCount()
	})
	c.updateTopologyGauges(nodes, links)
}

func (c *Controller) HandleTopologySnapshot(ev protocol.TopologySnapshot) {
	var nodes, links int
	c.topology.WithLock(func(g *t.TopologyGraph) {
		stats := topology.ApplySnapshot(g, ev)
		nodes, links = g.NodeCount(), g.LinkCount()
		log.Infof("topology snapshot applied: %d switches, %d links, graph now %d nodes %d edges",
			stats.Switches, stats.Links, nodes, links)
	})
	c.updateTopologyGauges(nodes, links)
}

// HandlePacketIn learns the source, routes towards the destination,
// installs rules along the path and forwards the triggering frame when
// the endpoint pair is allowed.
func (c *Controller) HandlePacketIn(ev protocol.PacketIn) Outcome {
	var outcome Outcome
	var nodes, links int

	c.topology.WithLock(func(g *t.TopologyGraph) {
		outcome = c.packetIn(g, ev)
		nodes, links = g.NodeCount(), g.LinkCount()
	})

	if outcome == OutcomeLearned {
		c.topology.LogTopology()
	}
	c.updateTopologyGauges(nodes, links)
	if c.metrics != nil {
		c.metrics.RecordPacketIn(string(outcome))
	}
	return outcome
}

func (c *Controller) packetIn(g *t.TopologyGraph, ev protocol.PacketIn) Outcome {
	if err := ev.FillAddrs(); err != nil {
		log.Warnf("packet-in on s%d without usable addresses: %v", ev.SwitchID, err)
		return OutcomeMalformed
	}

	switch topology.Learn(g, ev) {
	case topology.Learned:
		return OutcomeLearned
	case topology.UnknownDestination:
		log.Debugf("destination %s not learned yet, dropping packet from %s", ev.EthDst, ev.EthSrc)
		return OutcomeUnknownDestination
	}

	log.Debugf("Packet_In From a Known Source & Dst: %s -> %s", ev.EthSrc, ev.EthDst)

	path, err := c.calculator.ComputePath(g, t.SwitchNode(ev.SwitchID), t.HostNode(ev.EthDst))
	if err != nil {
		if errors.Is(err, routing.ErrNoPath) {
			log.Infof("No path from s%d to %s", ev.SwitchID, ev.EthDst)
		} else {
			log.Warnf("path computation s%d -> %s failed: %v", ev.SwitchID, ev.EthDst, err)
		}
		return OutcomeNoPath
	}
	log.Infof("path %s -> %s: %s", ev.EthSrc, ev.EthDst, path)

	blocked := c.policy.IsBlocked(ev.EthSrc, ev.EthDst)

	first, err := c.installer.InstallPath(g, path, ev.EthSrc, ev.EthDst, blocked)
	if err != nil {
		log.Warnf("rule installation for %s: %v", path, err)
		return OutcomeInstallFailed
	}
	if c.metrics != nil {
		c.metrics.ObservePath(len(path) - 1)
	}

	if blocked {
		return OutcomeBlocked
	}

	c.forward(ev, first)
	return OutcomeForwarded
}

func (c *Controller) forward(ev protocol.PacketIn, first rules.Hop) {
	cmd := protocol.ForwardPacket{
		SwitchID: ev.SwitchID,
		InPort:   ev.InPort,
		OutPort:  first.OutPort,
		Data:     ev.Data,
		BufferID: ev.BufferID,
	}
	err := c.southbound.Send(cmd)
	if err != nil {
		log.Warnf("forward on s%d port %d failed: %v", ev.SwitchID, first.OutPort, err)
	}
	c.observeSend(cmd, err)
}

func (c *Controller) updateTopologyGauges(nodes, links int) {
	if c.metrics != nil {
		c.metrics.SetTopology(nodes, links)
	}
}

// NewFromConfig resolves the policy and algorithm names.
func NewFromConfig(sb protocol.Southbound, policyMode, algorithm string, reg *metrics.Registry) (*Controller, error) {
	engine, err := policy.New(policyMode)
	if err != nil {
		return nil, err
	}
	calc, err := routing.Lookup(algorithm)
	if err != nil {
		return nil, fmt.Errorf("routing algorithm: %w", err)
	}
	return New(Options{Southbound: sb, Policy: engine, Calculator: calc, Metrics: reg})
}
