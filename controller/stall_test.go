package controller

import (
	"net"
	"testing"
	"time"

	t "github.com/a-powelson/Ryu-Firewall/common"
	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/a-powelson/Ryu-Firewall/southbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtaci/smux"
)

// A switch whose agent stopped reading must not hold up events for other
// switches.
func TestStalledSwitchDoesNotBlockOthers(tt *testing.T) {
	peer, conn := net.Pipe()
	defer peer.Close()

	session, err := smux.Server(conn, southbound.DefaultSmuxConfig())
	require.NoError(tt, err)
	sessions := southbound.NewSessionPool()
	sessions.Add(1, session)

	sender, err := southbound.NewSmuxSender(sessions, 1)
	require.NoError(tt, err)
	defer sender.Close()

	c, err := New(Options{Southbound: sender})
	require.NoError(tt, err)

	for i := 0; i < 3; i++ {
		c.Handle(protocol.SwitchConnected{SwitchID: 1})
	}

	done := make(chan struct{})
	go func() {
		c.Handle(protocol.SwitchConnected{SwitchID: 2})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		tt.Fatal("event for s2 blocked behind stalled s1")
	}

	c.Topology().WithLock(func(g *t.TopologyGraph) {
		assert.True(tt, g.HasNode(t.SwitchNode(2)))
	})
	assert.GreaterOrEqual(tt, sender.Failed(), uint64(2))
}
