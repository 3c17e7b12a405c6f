package southbound

import (
	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/a-powelson/Ryu-Firewall/rules"
	log "github.com/sirupsen/logrus"
)

// LogSender is a dry-run southbound that only logs what would be sent.
type LogSender struct{}

func (LogSender) Send(cmd protocol.Command) error {
	switch c := cmd.(type) {
	case protocol.InstallDefaultRule:
		r := rules.DefaultRule(c.SwitchID)
		log.Infof("[dry-run] s%d default rule prio=%d actions=%+v", c.SwitchID, r.Priority, r.Actions)
	case protocol.InstallRule:
		log.Infof("[dry-run] s%d rule prio=%d match=%+v actions=%+v", c.SwitchID, c.Priority, c.Match, c.Actions)
	case protocol.ForwardPacket:
		log.Infof("[dry-run] s%d packet-out in=%d out=%d len=%d", c.SwitchID, c.InPort, c.OutPort, len(c.Data))
	default:
		log.Infof("[dry-run] s%d %s", cmd.Target(), cmd.MessageType())
	}
	return nil
}
