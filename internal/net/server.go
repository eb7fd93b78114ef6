// Package net serves the spectator feed: per-tick snapshots go out over
// websocket and control commands come back to the game loop.
package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arenashooter/arena/internal/net/packet"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Options tune the feed.
type Options struct {
	SendQueue      int           // snapshots buffered per session
	WriteTimeout   time.Duration // per frame
	MaxClients     int           // 0 = unlimited
	CommandsPerSec int           // 0 = unlimited
}

// Server accepts spectator connections on /ws. Commands from all sessions
// are funneled into one channel drained by the game loop.
type Server struct {
	listener net.Listener
	http     *http.Server
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	sessions map[uint64]*Session

	commands chan packet.Command
	opts     Options
	log      *zap.Logger
}

func NewServer(bindAddr string, opts Options, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	s := &Server{
		listener: ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[uint64]*Session),
		commands: make(chan packet.Command, 256),
		opts:     opts,
		log:      log,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s, nil
}

// Serve blocks accepting connections until Shutdown.
func (s *Server) Serve() error {
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	return err
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Commands returns the channel of decoded control commands.
func (s *Server) Commands() <-chan packet.Command {
	return s.commands
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if limit := s.opts.MaxClients; limit > 0 && s.SessionCount() >= limit {
		http.Error(w, "too many spectators", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.opts.SendQueue, s.opts.CommandsPerSec, s.opts.WriteTimeout, s.log)
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	sess.Start(s.commands)

	s.log.Info("spectator connected", zap.Uint64("session", id), zap.String("ip", sess.IP))
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if !sess.IsClosed() {
			n++
		}
	}
	return n
}

// Broadcast encodes snap once and queues it on every session. Closed and
// slow sessions are dropped.
func (s *Server) Broadcast(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	for id, sess := range s.sessions {
		if sess.IsClosed() || !sess.Send(data) {
			delete(s.sessions, id)
			s.log.Info("spectator disconnected", zap.Uint64("session", id))
		}
	}
	return nil
}
