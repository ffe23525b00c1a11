// File: game/systems.go
package game

import (
	"math"
	"math/rand/v2"

	"github.com/lguibr/crypt/component"
	"github.com/lguibr/crypt/utils"
	"github.com/mlange-42/ark-tools/resource"
	"github.com/mlange-42/ark/ecs"
)

// InputSystem turns the latest player input into velocity and fires bullets.
type InputSystem struct {
	sim    *Simulation
	filter *ecs.Filter3[component.Player, component.Position, component.Velocity]
	shots  []shot
}

type shot struct {
	owner int
	pos   utils.Vec2
}

func (s *InputSystem) Initialize(w *ecs.World) {
	s.filter = ecs.NewFilter3[component.Player, component.Position, component.Velocity](w)
}

func (s *InputSystem) Update(w *ecs.World) {
	cfg := s.sim.cfg
	query := s.filter.Query()
	for query.Next() {
		p, pos, vel := query.Get()
		vel.Vec2 = p.Input.Normalize().Scale(cfg.PlayerSpeed)
		if p.Cooldown > 0 {
			p.Cooldown--
		}
		if p.Firing && p.Cooldown == 0 {
			p.Cooldown = cfg.PlayerFireCooldown
			muzzle := pos.Add(utils.Vec2{Y: cfg.PlayerHalfSize + cfg.BulletHalfSize})
			s.shots = append(s.shots, shot{owner: p.Index, pos: muzzle})
		}
	}

	for _, sh := range s.shots {
		s.sim.prefabs.SpawnBullet(sh.owner, sh.pos, utils.Vec2{Y: 1})
	}
	s.shots = s.shots[:0]
}

func (s *InputSystem) Finalize(w *ecs.World) {}

// SpawnSystem drops a new enemy at the top edge every EnemySpawnEvery ticks.
type SpawnSystem struct {
	sim     *Simulation
	enemies *ecs.Filter1[component.Enemy]
	rng     *rand.Rand
}

// Initialize draws spawn positions from the app's seeded Rand resource.
func (s *SpawnSystem) Initialize(w *ecs.World) {
	s.enemies = ecs.NewFilter1[component.Enemy](w)
	s.rng = rand.New(ecs.GetResource[resource.Rand](w))
}

func (s *SpawnSystem) Update(w *ecs.World) {
	cfg := s.sim.cfg
	if cfg.EnemySpawnEvery <= 0 || s.sim.tick%uint64(cfg.EnemySpawnEvery) != 0 {
		return
	}

	count := 0
	query := s.enemies.Query()
	for query.Next() {
		count++
	}
	if count >= cfg.MaxEnemies {
		return
	}

	halfW := cfg.ArenaWidth/2 - cfg.EnemyHalfSize
	x := (s.rng.Float64()*2 - 1) * halfW
	y := cfg.ArenaHeight/2 - cfg.EnemyHalfSize
	s.sim.prefabs.SpawnEnemy(utils.Vec2{X: x, Y: y})
}

func (s *SpawnSystem) Finalize(w *ecs.World) {}

// SteeringSystem points every enemy at the nearest player, or straight down when
// no player is left.
type SteeringSystem struct {
	sim     *Simulation
	players *ecs.Filter2[component.Player, component.Position]
	enemies *ecs.Filter3[component.Enemy, component.Position, component.Velocity]
	targets []utils.Vec2
}

func (s *SteeringSystem) Initialize(w *ecs.World) {
	s.players = ecs.NewFilter2[component.Player, component.Position](w)
	s.enemies = ecs.NewFilter3[component.Enemy, component.Position, component.Velocity](w)
}

func (s *SteeringSystem) Update(w *ecs.World) {
	s.targets = s.targets[:0]
	pq := s.players.Query()
	for pq.Next() {
		_, pos := pq.Get()
		s.targets = append(s.targets, pos.Vec2)
	}

	speed := s.sim.cfg.EnemySpeed
	eq := s.enemies.Query()
	for eq.Next() {
		_, pos, vel := eq.Get()
		if len(s.targets) == 0 {
			vel.Vec2 = utils.Vec2{Y: -speed}
			continue
		}
		nearest := s.targets[0]
		best := math.Inf(1)
		for _, t := range s.targets {
			if d := t.Sub(pos.Vec2).Len(); d < best {
				best, nearest = d, t
			}
		}
		vel.Vec2 = nearest.Sub(pos.Vec2).Normalize().Scale(speed)
	}
}

func (s *SteeringSystem) Finalize(w *ecs.World) {}

// MovementSystem applies velocity to position.
type MovementSystem struct {
	filter *ecs.Filter2[component.Position, component.Velocity]
}

func (s *MovementSystem) Initialize(w *ecs.World) {
	s.filter = ecs.NewFilter2[component.Position, component.Velocity](w)
}

func (s *MovementSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel := query.Get()
		pos.Vec2 = pos.Add(vel.Vec2)
	}
}

func (s *MovementSystem) Finalize(w *ecs.World) {}

// ArenaSystem keeps players inside the arena and culls anything else that left it.
type ArenaSystem struct {
	sim     *Simulation
	players *ecs.Filter3[component.Player, component.Position, component.Box]
	others  *ecs.Filter2[component.Position, component.Box]
}

func (s *ArenaSystem) Initialize(w *ecs.World) {
	s.players = ecs.NewFilter3[component.Player, component.Position, component.Box](w)
	s.others = ecs.NewFilter2[component.Position, component.Box](w).
		Without(ecs.C[component.Player]())
}

func (s *ArenaSystem) Update(w *ecs.World) {
	halfW, halfH := s.sim.cfg.ArenaWidth/2, s.sim.cfg.ArenaHeight/2

	pq := s.players.Query()
	for pq.Next() {
		_, pos, box := pq.Get()
		pos.X = utils.Clamp(pos.X, -halfW+box.Half.X, halfW-box.Half.X)
		pos.Y = utils.Clamp(pos.Y, -halfH+box.Half.Y, halfH-box.Half.Y)
	}

	oq := s.others.Query()
	for oq.Next() {
		pos, box := oq.Get()
		if pos.X+box.Half.X < -halfW || pos.X-box.Half.X > halfW ||
			pos.Y+box.Half.Y < -halfH || pos.Y-box.Half.Y > halfH {
			s.sim.commands.Despawn(oq.Entity())
		}
	}
}

func (s *ArenaSystem) Finalize(w *ecs.World) {}

// LifetimeSystem counts down Lifetime and despawns expired entities.
type LifetimeSystem struct {
	sim    *Simulation
	filter *ecs.Filter1[component.Lifetime]
}

func (s *LifetimeSystem) Initialize(w *ecs.World) {
	s.filter = ecs.NewFilter1[component.Lifetime](w)
}

func (s *LifetimeSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		life := query.Get()
		life.Ticks--
		if life.Ticks <= 0 {
			s.sim.commands.Despawn(query.Entity())
		}
	}
}

func (s *LifetimeSystem) Finalize(w *ecs.World) {}

// CommandSystem applies the despawns collected during the tick. It runs after
// dispatch, so the resulting Remove events are delivered on the next tick.
type CommandSystem struct {
	sim *Simulation
}

func (s *CommandSystem) Initialize(w *ecs.World) {}

func (s *CommandSystem) Update(w *ecs.World) {
	s.sim.commands.Apply(s.sim.collidables)
}

func (s *CommandSystem) Finalize(w *ecs.World) {}
