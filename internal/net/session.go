package net

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arenashooter/arena/internal/net/packet"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Session is one spectator connection. Network I/O runs in dedicated
// goroutines; the game loop only calls Send.
type Session struct {
	ID   uint64
	conn *websocket.Conn
	IP   string

	OutQueue chan []byte // writer goroutine reads from here

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second command rate limiter (readLoop goroutine only, no lock needed)
	cmdPerSec  int
	cmdCount   int
	cmdResetAt int64

	writeTimeout time.Duration
	log          *zap.Logger
}

func NewSession(conn *websocket.Conn, id uint64, outSize, cmdPerSec int, writeTimeout time.Duration, log *zap.Logger) *Session {
	return &Session{
		ID:           id,
		conn:         conn,
		IP:           conn.RemoteAddr().String(),
		OutQueue:     make(chan []byte, outSize),
		closeCh:      make(chan struct{}),
		cmdPerSec:    cmdPerSec,
		writeTimeout: writeTimeout,
		log:          log.With(zap.Uint64("session", id)),
	}
}

// Start launches the reader and writer goroutines. Decoded commands are
// pushed onto cmds.
func (s *Session) Start(cmds chan<- packet.Command) {
	go s.readLoop(cmds)
	go s.writeLoop()
}

// Send queues a frame for the writer. Non-blocking: if OutQueue is full the
// session is disconnected (backpressure) and Send returns false.
func (s *Session) Send(data []byte) bool {
	if s.closed.Load() {
		return false
	}
	select {
	case s.OutQueue <- data:
		return true
	default:
		s.log.Warn("output queue full, dropping slow spectator")
		s.Close()
		return false
	}
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop reads control commands and forwards them to the game loop.
// Text frames and undecodable commands are skipped.
func (s *Session) readLoop(cmds chan<- packet.Command) {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		if s.cmdPerSec > 0 {
			now := time.Now().Unix()
			if now != s.cmdResetAt {
				s.cmdCount = 0
				s.cmdResetAt = now
			}
			s.cmdCount++
			if s.cmdCount > s.cmdPerSec {
				s.log.Warn("command rate exceeded, disconnecting", zap.Int("per_sec", s.cmdCount))
				return
			}
		}

		cmd, err := packet.Decode(data)
		if err != nil {
			if errors.Is(err, packet.ErrUnknownOp) {
				s.log.Debug("unknown command", zap.Error(err))
			} else {
				s.log.Debug("bad command frame", zap.Error(err))
			}
			continue
		}

		select {
		case cmds <- cmd:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop writes queued snapshots as binary frames and keeps the
// connection alive with pings.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case data := <-s.OutQueue:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
