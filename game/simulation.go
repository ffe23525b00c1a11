// File: game/simulation.go
package game

import (
	"errors"
	"fmt"

	"github.com/lguibr/crypt/component"
	"github.com/lguibr/crypt/physics"
	"github.com/lguibr/crypt/utils"
	"github.com/mlange-42/ark-tools/app"
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
)

var (
	// ErrGameFull is returned by Join when every player slot is taken.
	ErrGameFull = errors.New("game: all player slots taken")
	// ErrNoSuchPlayer is returned for input addressed to an unknown or dead player.
	ErrNoSuchPlayer = errors.New("game: no such player")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("game: simulation closed")
)

// Simulation is one game: the ECS app, its physics world and the game rules.
// It is not safe for concurrent use; GameActor serializes access to it.
type Simulation struct {
	cfg         utils.Config
	logger      *zap.Logger
	tool        *app.App
	world       *ecs.World
	physics     *physics.World
	collidables *physics.Collidables
	commands    *CommandBuffer
	rules       *Rules
	prefabs     *Prefabs

	playerMap *ecs.Map[component.Player]
	positions *ecs.Map[component.Position]

	tick    uint64
	players map[int]ecs.Entity // Live ships by player index
	joined  int
	closed  bool
}

// NewSimulation builds the ECS pipeline for cfg and initializes it.
func NewSimulation(cfg utils.Config, logger *zap.Logger) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}

	tool := app.New(1024).Seed(cfg.Seed)
	// Ticks are paced by the owner of the simulation, not by the app.
	tool.TPS = 0

	world := &tool.World
	phys := physics.NewWorld(physics.Config{
		QueueCapacity: cfg.QueueCapacity,
		MaxEntities:   cfg.MaxEntities,
		Logger:        logger.Named("physics"),
	})
	commands := NewCommandBuffer()
	rules := NewRules(world, commands, cfg.EnemyScore, logger.Named("rules"))

	s := &Simulation{
		cfg:         cfg,
		logger:      logger,
		tool:        tool,
		world:       world,
		physics:     phys,
		collidables: physics.NewCollidables(world, phys),
		commands:    commands,
		rules:       rules,
		prefabs:     NewPrefabs(world, cfg, phys, rules),
		playerMap:   ecs.NewMap[component.Player](world),
		positions:   ecs.NewMap[component.Position](world),
		players:     make(map[int]ecs.Entity),
	}

	phys.AddReceiver(ecs.Entity{}, rules.Receiver())

	tool.AddSystem(&InputSystem{sim: s})
	tool.AddSystem(&SpawnSystem{sim: s})
	tool.AddSystem(&SteeringSystem{sim: s})
	tool.AddSystem(&MovementSystem{})
	tool.AddSystem(&ArenaSystem{sim: s})
	tool.AddSystem(&LifetimeSystem{sim: s})
	tool.AddSystem(&physics.BoundsSystem{})
	tool.AddSystem(&physics.ContactSystem{Physics: phys})
	tool.AddSystem(&physics.DispatchSystem{Physics: phys})
	tool.AddSystem(&CommandSystem{sim: s})
	tool.Initialize()

	return s
}

// Step advances the simulation by one tick.
func (s *Simulation) Step() error {
	if s.closed {
		return ErrClosed
	}
	s.tick++
	s.tool.Update()
	s.prunePlayers()
	return nil
}

func (s *Simulation) prunePlayers() {
	for index, e := range s.players {
		if !s.world.Alive(e) {
			delete(s.players, index)
			s.logger.Info("Simulation: player ship destroyed", zap.Int("player", index), zap.Uint64("tick", s.tick))
		}
	}
}

// Join spawns a ship for the next free player index.
func (s *Simulation) Join() (int, error) {
	if s.closed {
		return -1, ErrClosed
	}
	if s.joined >= utils.MaxPlayers {
		return -1, ErrGameFull
	}
	index := s.joined
	s.joined++

	slot := s.cfg.ArenaWidth / float64(utils.MaxPlayers+1)
	pos := utils.Vec2{
		X: -s.cfg.ArenaWidth/2 + slot*float64(index+1),
		Y: -s.cfg.ArenaHeight/2 + 2*s.cfg.PlayerHalfSize,
	}
	s.players[index] = s.prefabs.SpawnPlayer(index, pos)
	s.logger.Info("Simulation: player joined", zap.Int("player", index))
	return index, nil
}

// SetInput stores the requested direction and trigger state for player index.
func (s *Simulation) SetInput(index int, direction utils.Vec2, firing bool) error {
	if s.closed {
		return ErrClosed
	}
	e, ok := s.players[index]
	if !ok || !s.world.Alive(e) {
		return fmt.Errorf("set input for player %d: %w", index, ErrNoSuchPlayer)
	}
	p := s.playerMap.Get(e)
	p.Input = direction
	p.Firing = firing
	return nil
}

// SpawnEnemy places an enemy at pos, clamped into the arena.
func (s *Simulation) SpawnEnemy(pos utils.Vec2) (ecs.Entity, error) {
	if s.closed {
		return ecs.Entity{}, ErrClosed
	}
	halfW := s.cfg.ArenaWidth/2 - s.cfg.EnemyHalfSize
	halfH := s.cfg.ArenaHeight/2 - s.cfg.EnemyHalfSize
	pos.X = utils.Clamp(pos.X, -halfW, halfW)
	pos.Y = utils.Clamp(pos.Y, -halfH, halfH)
	return s.prefabs.SpawnEnemy(pos), nil
}

// GameOver reports whether every player that joined has lost all lives.
func (s *Simulation) GameOver() bool {
	return s.joined > 0 && len(s.players) == 0
}

// Tick is the number of completed steps.
func (s *Simulation) Tick() uint64 { return s.tick }

// Physics exposes the contact-tracking world.
func (s *Simulation) Physics() *physics.World { return s.physics }

// Close finalizes every system, which also tears the physics world down. It is
// safe to call more than once.
func (s *Simulation) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.tool.Finalize()
	s.logger.Info("Simulation: closed", zap.Uint64("ticks", s.tick), zap.Any("events", s.physics.Stats()))
}
