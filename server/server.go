// File: server/server.go
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lguibr/crypt/bollywood"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

const (
	defaultAskTimeout = 2 * time.Second
	defaultWorkers    = 4
	// Frames a slow client may have queued before older snapshots are dropped.
	defaultOutboxLimit = 32
)

// Server exposes the rooms of a RoomManager over HTTP and WebSocket.
type Server struct {
	engine      *bollywood.Engine
	roomManager *bollywood.PID
	logger      *zap.Logger
	pool        *ants.Pool
	askTimeout  time.Duration
	outboxLimit int
	workers     int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkers sets the size of the pool that writes frames to sockets.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithAskTimeout bounds every request the server makes to an actor.
func WithAskTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.askTimeout = d
		}
	}
}

// New creates a server in front of the RoomManager at roomManagerPID.
func New(engine *bollywood.Engine, roomManagerPID *bollywood.PID, opts ...Option) (*Server, error) {
	s := &Server{
		engine:      engine,
		roomManager: roomManagerPID,
		logger:      zap.NewNop(),
		askTimeout:  defaultAskTimeout,
		outboxLimit: defaultOutboxLimit,
		workers:     defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}

	pool, err := ants.NewPool(s.workers,
		ants.WithPanicHandler(func(p interface{}) {
			s.logger.Error("Server: writer panicked", zap.Any("reason", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create writer pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// GetEngine returns the actor engine.
func (s *Server) GetEngine() *bollywood.Engine { return s.engine }

// GetRoomManagerPID returns the PID of the RoomManager.
func (s *Server) GetRoomManagerPID() *bollywood.PID { return s.roomManager }

// Routes returns the HTTP handler serving every endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/subscribe", websocket.Handler(s.HandleSubscribe()))
	mux.HandleFunc("/state", s.HandleState())
	mux.HandleFunc("/ascii", s.HandleASCII())
	mux.HandleFunc("/spawn", s.HandleSpawn())
	mux.HandleFunc("/rooms", s.HandleRooms())
	mux.HandleFunc("/health", s.HandleHealth())
	return mux
}

// Close releases the writer pool. Pending writes are abandoned.
func (s *Server) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}
