// File: game/room_manager.go
package game

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/utils"
	"go.uber.org/zap"
)

var (
	// ErrNoRoom is returned when every room is full and no new one may be created.
	ErrNoRoom = errors.New("no room available")
	// ErrUnknownRoom is returned for room IDs the manager does not host.
	ErrUnknownRoom = errors.New("unknown room")
)

// room is the manager's view of one GameActor.
type room struct {
	id      string
	pid     *bollywood.PID
	players int // Slots handed out, never decremented
	ended   bool
	created uint64
}

// RoomManagerActor hosts many GameActors. Players are packed into the oldest
// room with a free slot; finished rooms stay queryable for cfg.RoomLinger and
// are then stopped.
type RoomManagerActor struct {
	engine  *bollywood.Engine
	cfg     utils.Config
	logger  *zap.Logger
	rooms   map[string]*room
	created uint64
	selfPID *bollywood.PID
}

// NewRoomManagerProducer creates a producer for the RoomManagerActor.
func NewRoomManagerProducer(engine *bollywood.Engine, cfg utils.Config, logger *zap.Logger) bollywood.Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func() bollywood.Actor {
		return &RoomManagerActor{
			engine: engine,
			cfg:    cfg,
			logger: logger,
			rooms:  make(map[string]*room),
		}
	}
}

// Receive Method
func (a *RoomManagerActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("RoomManager: panic recovered in Receive",
				zap.Any("reason", r), zap.ByteString("stack", debug.Stack()))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.logger.Info("RoomManager: started", zap.Int("maxRooms", a.cfg.MaxRooms))

	case FindRoomRequest:
		ctx.Reply(a.handleFindRoom(msg.Spectate))

	case GetRoomRequest:
		ctx.Reply(a.handleGetRoom(msg.RoomID))

	case GetRoomListRequest:
		ctx.Reply(RoomListResponse{Rooms: a.list()})

	case GameOverMessage:
		a.handleGameOver(msg)

	case reapRoom:
		if r, ok := a.rooms[msg.RoomID]; ok && r.ended {
			a.logger.Info("RoomManager: reaping room", zap.String("room", r.id))
			delete(a.rooms, r.id)
			a.engine.Stop(r.pid)
		}

	case bollywood.Stopping:
		a.logger.Info("RoomManager: stopping, shutting down all rooms", zap.Int("rooms", len(a.rooms)))
		for id, r := range a.rooms {
			delete(a.rooms, id)
			a.engine.Stop(r.pid)
		}

	case bollywood.Stopped:
		a.logger.Debug("RoomManager: stopped")

	default:
		a.logger.Warn("RoomManager: unknown message type", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (a *RoomManagerActor) handleFindRoom(spectate bool) AssignRoomResponse {
	if spectate {
		if r := a.busiest(); r != nil {
			return AssignRoomResponse{RoomID: r.id, RoomPID: r.pid}
		}
	} else if r := a.oldestOpen(); r != nil {
		r.players++
		return AssignRoomResponse{RoomID: r.id, RoomPID: r.pid}
	}

	r, err := a.spawnRoom()
	if err != nil {
		a.logger.Warn("RoomManager: no room assigned", zap.Error(err))
		return AssignRoomResponse{Err: err}
	}
	if !spectate {
		r.players++
	}
	return AssignRoomResponse{RoomID: r.id, RoomPID: r.pid}
}

func (a *RoomManagerActor) handleGetRoom(id string) AssignRoomResponse {
	if id == "" {
		if r := a.busiest(); r != nil {
			return AssignRoomResponse{RoomID: r.id, RoomPID: r.pid}
		}
		return AssignRoomResponse{Err: ErrUnknownRoom}
	}
	r, ok := a.rooms[id]
	if !ok {
		return AssignRoomResponse{RoomID: id, Err: fmt.Errorf("%w: %s", ErrUnknownRoom, id)}
	}
	return AssignRoomResponse{RoomID: r.id, RoomPID: r.pid}
}

func (a *RoomManagerActor) handleGameOver(msg GameOverMessage) {
	r, ok := a.rooms[msg.SessionID]
	if !ok || r.ended {
		return
	}
	r.ended = true
	a.logger.Info("RoomManager: room ended",
		zap.String("room", r.id), zap.String("reason", msg.Reason), zap.Duration("linger", a.cfg.RoomLinger))

	self, engine, id := a.selfPID, a.engine, r.id
	time.AfterFunc(a.cfg.RoomLinger, func() {
		engine.Send(self, reapRoom{RoomID: id}, nil)
	})
}

func (a *RoomManagerActor) spawnRoom() (*room, error) {
	if len(a.rooms) >= a.cfg.MaxRooms {
		return nil, fmt.Errorf("%w: %d rooms hosted", ErrNoRoom, len(a.rooms))
	}
	id := uuid.NewString()
	pid := a.engine.Spawn(bollywood.NewProps(NewSessionProducer(a.engine, a.cfg, a.logger, id)))
	a.engine.Send(pid, WatchGameOver{PID: a.selfPID}, a.selfPID)

	a.created++
	r := &room{id: id, pid: pid, created: a.created}
	a.rooms[id] = r
	a.logger.Info("RoomManager: room created", zap.String("room", id), zap.Int("rooms", len(a.rooms)))
	return r, nil
}

// oldestOpen returns the first created running room with a free player slot.
func (a *RoomManagerActor) oldestOpen() *room {
	var best *room
	for _, r := range a.rooms {
		if r.ended || r.players >= utils.MaxPlayers {
			continue
		}
		if best == nil || r.created < best.created {
			best = r
		}
	}
	return best
}

// busiest returns the running room with the most players, the oldest on ties.
func (a *RoomManagerActor) busiest() *room {
	var best *room
	for _, r := range a.rooms {
		if r.ended {
			continue
		}
		if best == nil || r.players > best.players || (r.players == best.players && r.created < best.created) {
			best = r
		}
	}
	return best
}

func (a *RoomManagerActor) list() []RoomInfo {
	ordered := make([]*room, 0, len(a.rooms))
	for _, r := range a.rooms {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].created < ordered[j].created })

	out := make([]RoomInfo, len(ordered))
	for i, r := range ordered {
		out[i] = RoomInfo{ID: r.id, Players: r.players, Ended: r.ended}
	}
	return out
}
