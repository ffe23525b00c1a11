// File: game/prefabs.go
package game

import (
	"github.com/lguibr/crypt/component"
	"github.com/lguibr/crypt/physics"
	"github.com/lguibr/crypt/utils"
	"github.com/mlange-42/ark/ecs"
)

// Prefabs creates the playable entities and registers their contact receivers.
type Prefabs struct {
	cfg     utils.Config
	players *ecs.Map5[component.Position, component.Velocity, component.Box, component.Collider, component.Player]
	enemies *ecs.Map5[component.Position, component.Velocity, component.Box, component.Collider, component.Enemy]
	bullets *ecs.Map6[component.Position, component.Velocity, component.Box, component.Collider, component.Bullet, component.Lifetime]
	physics *physics.World
	rules   *Rules
}

// NewPrefabs binds the prefab mappers to w.
func NewPrefabs(w *ecs.World, cfg utils.Config, phys *physics.World, rules *Rules) *Prefabs {
	return &Prefabs{
		cfg:     cfg,
		players: ecs.NewMap5[component.Position, component.Velocity, component.Box, component.Collider, component.Player](w),
		enemies: ecs.NewMap5[component.Position, component.Velocity, component.Box, component.Collider, component.Enemy](w),
		bullets: ecs.NewMap6[component.Position, component.Velocity, component.Box, component.Collider, component.Bullet, component.Lifetime](w),
		physics: phys,
		rules:   rules,
	}
}

func square(half float64) *component.Box {
	return &component.Box{Half: utils.Vec2{X: half, Y: half}}
}

// SpawnPlayer creates a friendly ship for player index at pos.
func (p *Prefabs) SpawnPlayer(index int, pos utils.Vec2) ecs.Entity {
	e := p.players.NewEntity(
		&component.Position{Vec2: pos},
		&component.Velocity{},
		square(p.cfg.PlayerHalfSize),
		&component.Collider{Layer: utils.LayerFriendly},
		&component.Player{Index: index, Lives: p.cfg.PlayerLives},
	)
	p.physics.AddReceiver(e, physics.Receiver{
		OnStart: p.rules.PlayerHit,
		Filter:  self(e),
	})
	return e
}

// SpawnEnemy creates a hostile at pos.
func (p *Prefabs) SpawnEnemy(pos utils.Vec2) ecs.Entity {
	return p.enemies.NewEntity(
		&component.Position{Vec2: pos},
		&component.Velocity{},
		square(p.cfg.EnemyHalfSize),
		&component.Collider{Layer: utils.LayerHostile},
		&component.Enemy{HP: p.cfg.EnemyHP},
	)
}

// SpawnBullet fires a friendly bullet from pos along dir.
func (p *Prefabs) SpawnBullet(owner int, pos, dir utils.Vec2) ecs.Entity {
	e := p.bullets.NewEntity(
		&component.Position{Vec2: pos},
		&component.Velocity{Vec2: dir.Normalize().Scale(p.cfg.BulletSpeed)},
		square(p.cfg.BulletHalfSize),
		&component.Collider{Layer: utils.LayerFriendly},
		&component.Bullet{Damage: p.cfg.BulletDamage, Owner: owner},
		&component.Lifetime{Ticks: p.cfg.BulletLifetime},
	)
	p.physics.AddReceiver(e, physics.Receiver{
		OnStart: p.rules.BulletHit,
		Filter:  self(e),
	})
	return e
}

func self(e ecs.Entity) func(ecs.Entity) bool {
	return func(x ecs.Entity) bool { return x == e }
}
