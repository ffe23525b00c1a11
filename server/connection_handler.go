// File: server/connection_handler.go
package server

import (
	"sync"

	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/game"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// ConnectionHandlerActor is the subscriber side of one WebSocket connection. It
// receives broadcasts from the GameActor and hands them to the writer pool, so
// a slow socket never blocks an actor. Frames for one connection are written in
// the order they arrived.
type ConnectionHandlerActor struct {
	id     string
	logger *zap.Logger
	pool   *ants.Pool
	write  frameWriter
	limit  int
	done   chan struct{}

	mu       sync.Mutex
	outbox   []interface{}
	draining bool
	closed   bool
	dropped  int
	failed   bool
}

// ConnectionHandlerArgs holds arguments for creating the actor.
type ConnectionHandlerArgs struct {
	ID     string
	Logger *zap.Logger
	Pool   *ants.Pool
	Write  frameWriter
	Limit  int
	Done   chan struct{} // Closed once the actor has stopped
}

// NewConnectionHandlerProducer creates a producer for ConnectionHandlerActor.
func NewConnectionHandlerProducer(args ConnectionHandlerArgs) bollywood.Producer {
	return func() bollywood.Actor {
		logger := args.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		limit := args.Limit
		if limit <= 0 {
			limit = defaultOutboxLimit
		}
		return &ConnectionHandlerActor{
			id:     args.ID,
			logger: logger.With(zap.String("subscriber", args.ID)),
			pool:   args.Pool,
			write:  args.Write,
			limit:  limit,
			done:   args.Done,
		}
	}
}

// Receive handles messages for the ConnectionHandlerActor.
func (a *ConnectionHandlerActor) Receive(ctx bollywood.Context) {
	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.logger.Debug("ConnectionHandler: started")

	case game.SnapshotMessage, game.GameOverMessage, game.PlayerJoined:
		if frame, ok := wireFrame(msg); ok {
			a.enqueue(frame)
		}

	case bollywood.Stopping:
		a.mu.Lock()
		a.closed = true
		a.outbox = nil
		a.mu.Unlock()

	case bollywood.Stopped:
		a.logger.Debug("ConnectionHandler: stopped", zap.Int("dropped", a.Dropped()))
		if a.done != nil {
			close(a.done)
		}
	}
}

// enqueue appends a frame and schedules a drain if none is running. When the
// outbox is full the oldest snapshot is dropped; game over frames are kept.
func (a *ConnectionHandlerActor) enqueue(frame interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.failed {
		return
	}
	if len(a.outbox) >= a.limit {
		a.dropOldestSnapshot()
	}
	a.outbox = append(a.outbox, frame)
	if a.draining {
		return
	}
	a.draining = true
	if err := a.pool.Submit(a.drain); err != nil {
		a.draining = false
		a.logger.Warn("ConnectionHandler: writer pool rejected drain", zap.Error(err))
	}
}

func (a *ConnectionHandlerActor) dropOldestSnapshot() {
	for i, f := range a.outbox {
		if _, ok := f.(game.Snapshot); ok {
			a.outbox = append(a.outbox[:i], a.outbox[i+1:]...)
			a.dropped++
			return
		}
	}
}

// drain runs on a pool worker until the outbox is empty.
func (a *ConnectionHandlerActor) drain() {
	for {
		a.mu.Lock()
		if len(a.outbox) == 0 || a.closed || a.failed {
			a.draining = false
			a.mu.Unlock()
			return
		}
		frame := a.outbox[0]
		a.outbox = a.outbox[1:]
		a.mu.Unlock()

		if err := a.write(frame); err != nil {
			a.logger.Debug("ConnectionHandler: write failed", zap.Error(err))
			a.mu.Lock()
			a.failed = true
			a.outbox = nil
			a.draining = false
			a.mu.Unlock()
			return
		}
	}
}

// Dropped returns how many snapshots were discarded for this connection.
func (a *ConnectionHandlerActor) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}
