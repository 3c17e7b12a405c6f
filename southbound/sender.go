package southbound

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/a-powelson/Ryu-Firewall/common"
	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

// WriteTimeout bounds how long a worker waits on a switch that stopped
// reading.
const WriteTimeout = 5 * time.Second

var ErrOverloaded = errors.New("southbound workers busy")

// SmuxSender delivers commands to switch agents. Send only resolves the
// session and queues the write on the worker pool; delivery errors are
// logged and counted but never reported back or retried. Send never waits
// for a worker: when all of them are busy the command is dropped.
type SmuxSender struct {
	sessions *SessionPool
	pool     *ants.Pool
	failed   atomic.Uint64
}

func NewSmuxSender(sessions *SessionPool, workers int) (*SmuxSender, error) {
	pool, err := common.NewPool(common.PoolConfig{MaxWorkers: workers, Nonblocking: true})
	if err != nil {
		return nil, err
	}
	return &SmuxSender{sessions: sessions, pool: pool}, nil
}

func (s *SmuxSender) Send(cmd protocol.Command) error {
	if s.pool.IsClosed() {
		return ErrClosed
	}
	session, err := s.sessions.Get(cmd.Target())
	if err != nil {
		return err
	}
	frame, err := protocol.Pack(cmd)
	if err != nil {
		return err
	}

	err = s.pool.Submit(func() {
		stream, err := session.OpenStream()
		if err != nil {
			s.failed.Add(1)
			log.Warnf("open stream to s%d failed: %v", cmd.Target(), err)
			return
		}
		defer stream.Close()

		stream.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if _, err := stream.Write(frame); err != nil {
			s.failed.Add(1)
			log.Warnf("write %s to s%d failed: %v", cmd.MessageType(), cmd.Target(), err)
		}
	})
	if errors.Is(err, ants.ErrPoolOverload) {
		s.failed.Add(1)
		return fmt.Errorf("%s to s%d: %w", cmd.MessageType(), cmd.Target(), ErrOverloaded)
	}
	return err
}

// Failed reports commands that did not make it onto the wire, including
// those dropped because every worker was busy.
func (s *SmuxSender) Failed() uint64 {
	return s.failed.Load()
}

func (s *SmuxSender) Close() {
	s.pool.Release()
}
