package southbound

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/xtaci/smux"
)

// EventHandler receives decoded events. It may be called from several
// sessions at once.
type EventHandler func(ev protocol.Event)

// Server accepts switch agent connections. Each TCP connection carries
// one smux session; every stream on it carries exactly one framed message.
type Server struct {
	sessions *SessionPool
	handler  EventHandler
	config   *smux.Config

	mu       sync.Mutex
	listener net.Listener
	active   map[*smux.Session]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewServer(sessions *SessionPool, handler EventHandler, config *smux.Config) *Server {
	if config == nil {
		config = DefaultSmuxConfig()
	}
	return &Server{
		sessions: sessions,
		handler:  handler,
		config:   config,
		active:   make(map[*smux.Session]struct{}),
	}
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Infof("southbound listening, addr=%s", ln.Addr())
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrClosed
	}
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(conn)
		}()
	}
}

// ServeConn runs the smux server side over conn until the session ends.
func (s *Server) ServeConn(conn net.Conn) {
	connID := uuid.NewString()
	session, err := smux.Server(conn, s.config)
	if err != nil {
		log.Errorf("smux server on %v failed: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		session.Close()
		return
	}
	s.active[session] = struct{}{}
	s.mu.Unlock()
	log.Infof("switch agent connected, conn=%s remote=%v", connID, conn.RemoteAddr())

	defer func() {
		s.mu.Lock()
		delete(s.active, session)
		s.mu.Unlock()
		s.sessions.Remove(session)
		session.Close()
		log.Infof("switch agent disconnected, conn=%s", connID)
	}()

	for {
		stream, err := session.AcceptStream()
		if err != nil {
			return
		}
		s.serveStream(session, stream)
	}
}

func (s *Server) serveStream(session *smux.Session, stream *smux.Stream) {
	defer stream.Close()

	msg, err := protocol.ReadMessage(stream)
	if err != nil {
		log.Warnf("dropping unreadable frame on stream %d: %v", stream.ID(), err)
		return
	}
	ev, ok := msg.(protocol.Event)
	if !ok {
		log.Warnf("dropping %s sent by a switch agent", msg.MessageType())
		return
	}
	if hello, ok := ev.(protocol.SwitchConnected); ok {
		s.sessions.Add(hello.SwitchID, session)
	}
	s.handler(ev)
}

func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	active := make([]*smux.Session, 0, len(s.active))
	for session := range s.active {
		active = append(active, session)
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, session := range active {
		session.Close()
	}
	s.sessions.CloseAll()
	s.wg.Wait()
	return err
}
