package southbound

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xtaci/smux"
)

var (
	ErrClosed    = errors.New("southbound is closed")
	ErrNoSession = errors.New("no session for switch")
)

func DefaultSmuxConfig() *smux.Config {
	return &smux.Config{
		Version:           1,
		KeepAliveInterval: 5 * time.Second,
		KeepAliveTimeout:  30 * time.Second,
		MaxFrameSize:      32768,
		MaxReceiveBuffer:  4194304,
		MaxStreamBuffer:   65536,
	}
}

// SessionPool maps switch dpids to the smux session of their agent. A
// reconnecting switch replaces its previous session.
type SessionPool struct {
	sessions map[uint64]*smux.Session
	mu       sync.RWMutex
}

func NewSessionPool() *SessionPool {
	return &SessionPool{
		sessions: make(map[uint64]*smux.Session),
	}
}

func (p *SessionPool) Add(dpid uint64, session *smux.Session) {
	if session == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if old, exists := p.sessions[dpid]; exists && old != session && !old.IsClosed() {
		old.Close()
	}
	p.sessions[dpid] = session
	log.Infof("southbound session added, dpid=%d remote=%v", dpid, session.RemoteAddr())
}

// Remove drops every dpid bound to session.
func (p *SessionPool) Remove(session *smux.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for dpid, s := range p.sessions {
		if s == session {
			delete(p.sessions, dpid)
			log.Infof("southbound session removed, dpid=%d", dpid)
		}
	}
}

func (p *SessionPool) Get(dpid uint64) (*smux.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	session, exists := p.sessions[dpid]
	if !exists || session.IsClosed() {
		return nil, ErrNoSession
	}
	return session, nil
}

func (p *SessionPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

func (p *SessionPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for dpid, session := range p.sessions {
		if !session.IsClosed() {
			session.Close()
		}
		delete(p.sessions, dpid)
	}
	log.Infof("SMUX, CloseAllSessions")
}
