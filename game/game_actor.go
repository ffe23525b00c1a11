// File: game/game_actor.go
package game

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/physics"
	"github.com/lguibr/crypt/utils"
	"go.uber.org/zap"
)

// GameActor owns one Simulation and serializes every access to it: ticks, joins,
// input, spawns and snapshot requests all arrive as messages.
type GameActor struct {
	cfg          utils.Config
	logger       *zap.Logger
	engine       *bollywood.Engine
	sim          *Simulation
	sessionID    string
	subscribers  map[string]*bollywood.PID
	watchers     map[string]*bollywood.PID
	ticker       *time.Ticker
	stopTickerCh chan struct{}
	selfPID      *bollywood.PID
	gameOverSent bool
}

// NewGameActorProducer creates a producer for the GameActor with a fresh session ID.
func NewGameActorProducer(engine *bollywood.Engine, cfg utils.Config, logger *zap.Logger) bollywood.Producer {
	return NewSessionProducer(engine, cfg, logger, "")
}

// NewSessionProducer creates a GameActor producer for a known session ID. An
// empty sessionID gets a random one.
func NewSessionProducer(engine *bollywood.Engine, cfg utils.Config, logger *zap.Logger, sessionID string) bollywood.Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func() bollywood.Actor {
		id := sessionID
		if id == "" {
			id = uuid.NewString()
		}
		sessionLogger := logger.With(zap.String("session", id))
		return &GameActor{
			cfg:          cfg,
			logger:       sessionLogger,
			engine:       engine,
			sim:          NewSimulation(cfg, sessionLogger),
			sessionID:    id,
			subscribers:  make(map[string]*bollywood.PID),
			watchers:     make(map[string]*bollywood.PID),
			stopTickerCh: make(chan struct{}),
		}
	}
}

// Receive is the main message handler for the GameActor.
func (a *GameActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(*physics.InvariantViolation); ok {
				// Contact state can no longer be trusted. Let the engine stop us.
				a.logger.Error("GameActor: contact graph invariant violated", zap.Error(v))
				a.stopTicker()
				panic(v)
			}
			a.logger.Error("GameActor: panic recovered in Receive",
				zap.Any("reason", r), zap.ByteString("stack", debug.Stack()))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch m := ctx.Message().(type) {
	case bollywood.Started:
		a.logger.Info("GameActor: started", zap.String("pid", a.selfPID.String()), zap.Duration("tick", a.cfg.TickPeriod))
		a.ticker = time.NewTicker(a.cfg.TickPeriod)
		go a.runTickerLoop(a.selfPID)

	case GameTick:
		a.handleTick()

	case PlayerJoinRequest:
		index, err := a.sim.Join()
		if err != nil {
			a.logger.Warn("GameActor: join rejected", zap.Error(err))
		}
		ctx.Reply(PlayerJoined{MessageType: "playerJoined", Index: index, SessionID: a.sessionID, Err: err})

	case PlayerInput:
		if err := a.sim.SetInput(m.Index, m.Direction, m.Fire); err != nil {
			a.logger.Debug("GameActor: input dropped", zap.Error(err))
		}

	case SpawnEnemyCommand:
		if _, err := a.sim.SpawnEnemy(m.Position); err != nil {
			a.logger.Warn("GameActor: spawn failed", zap.Error(err))
		}

	case Subscribe:
		if m.PID != nil {
			a.subscribers[m.PID.ID] = m.PID
			a.logger.Debug("GameActor: subscriber added", zap.String("pid", m.PID.ID), zap.Int("subscribers", len(a.subscribers)))
		}

	case Unsubscribe:
		if m.PID != nil {
			delete(a.subscribers, m.PID.ID)
		}

	case WatchGameOver:
		if m.PID != nil {
			a.watchers[m.PID.ID] = m.PID
		}

	case GetSnapshotRequest:
		ctx.Reply(a.snapshot())

	case bollywood.Stopping:
		a.logger.Info("GameActor: stopping", zap.Uint64("tick", a.sim.Tick()))
		a.stopTicker()
		a.sendGameOver("stopped")
		a.sim.Close()

	case bollywood.Stopped:
		a.logger.Debug("GameActor: stopped")

	default:
		a.logger.Warn("GameActor: unknown message type", zap.String("type", fmt.Sprintf("%T", m)))
	}
}

func (a *GameActor) handleTick() {
	if a.gameOverSent {
		return
	}
	if err := a.sim.Step(); err != nil {
		a.logger.Debug("GameActor: tick ignored", zap.Error(err))
		return
	}

	tick := a.sim.Tick()
	if a.sim.GameOver() {
		a.broadcast(SnapshotMessage{Snapshot: a.snapshot()})
		a.sendGameOver("all players out of lives")
		a.stopTicker()
		return
	}
	if tick%uint64(a.cfg.BroadcastEvery) == 0 {
		a.broadcast(SnapshotMessage{Snapshot: a.snapshot()})
	}
}

func (a *GameActor) snapshot() Snapshot {
	snap := a.sim.Snapshot()
	snap.SessionID = a.sessionID
	return snap
}

func (a *GameActor) broadcast(msg interface{}) {
	for _, pid := range a.subscribers {
		a.engine.Send(pid, msg, a.selfPID)
	}
}

func (a *GameActor) sendGameOver(reason string) {
	if a.gameOverSent {
		return
	}
	a.gameOverSent = true

	snap := a.sim.Snapshot()
	scores := make([]int, len(snap.Players))
	for i, p := range snap.Players {
		scores[i] = p.Score
	}
	a.logger.Info("GameActor: game over", zap.String("reason", reason), zap.Ints("scores", scores))
	msg := GameOverMessage{
		MessageType: "gameOver",
		SessionID:   a.sessionID,
		Reason:      reason,
		FinalScores: scores,
		Tick:        snap.Tick,
	}
	a.broadcast(msg)
	for _, pid := range a.watchers {
		a.engine.Send(pid, msg, a.selfPID)
	}
}

func (a *GameActor) stopTicker() {
	if a.ticker != nil {
		a.ticker.Stop()
	}
	select {
	case <-a.stopTickerCh:
	default:
		close(a.stopTickerCh)
	}
}

// runTickerLoop sends GameTick messages to the actor's own mailbox at regular intervals.
func (a *GameActor) runTickerLoop(self *bollywood.PID) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("GameActor: panic recovered in ticker loop", zap.Any("reason", r))
		}
	}()

	ticker := a.ticker
	for {
		select {
		case <-a.stopTickerCh:
			return
		case <-ticker.C:
			select {
			case <-a.stopTickerCh:
				return
			default:
				a.engine.Send(self, GameTick{}, nil)
			}
		}
	}
}
