package southbound

import (
	"fmt"
	"net"

	"github.com/a-powelson/Ryu-Firewall/protocol"
	log "github.com/sirupsen/logrus"
	"github.com/xtaci/smux"
)

// Agent is the switch side of a southbound connection. It announces its
// dpid, raises events and receives commands.
type Agent struct {
	dpid     uint64
	session  *smux.Session
	commands chan protocol.Command
}

func Dial(addr string, dpid uint64, config *smux.Config) (*Agent, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial controller %s: %w", addr, err)
	}
	return NewAgent(conn, dpid, config)
}

// NewAgent runs the smux client side over conn and sends the
// SwitchConnected hello.
func NewAgent(conn net.Conn, dpid uint64, config *smux.Config) (*Agent, error) {
	if config == nil {
		config = DefaultSmuxConfig()
	}
	session, err := smux.Client(conn, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMUX: %w", err)
	}

	a := &Agent{
		dpid:     dpid,
		session:  session,
		commands: make(chan protocol.Command, 256),
	}
	go a.receive()

	if err := a.Send(protocol.SwitchConnected{SwitchID: dpid}); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Agent) Send(ev protocol.Event) error {
	stream, err := a.session.OpenStream()
	if err != nil {
		return err
	}
	defer stream.Close()
	return protocol.WriteMessage(stream, ev)
}

func (a *Agent) receive() {
	defer close(a.commands)
	for {
		stream, err := a.session.AcceptStream()
		if err != nil {
			return
		}
		msg, err := protocol.ReadMessage(stream)
		stream.Close()
		if err != nil {
			log.Warnf("agent s%d: unreadable command: %v", a.dpid, err)
			continue
		}
		cmd, ok := msg.(protocol.Command)
		if !ok {
			log.Warnf("agent s%d: unexpected %s", a.dpid, msg.MessageType())
			continue
		}
		a.commands <- cmd
	}
}

// Commands yields received commands until the session closes.
func (a *Agent) Commands() <-chan protocol.Command {
	return a.commands
}

func (a *Agent) Close() error {
	return a.session.Close()
}
