// File: game/receivers.go
package game

import (
	"github.com/lguibr/crypt/component"
	"github.com/lguibr/crypt/physics"
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
)

// ContactCounters are debug totals of receiver callbacks seen by the rules.
type ContactCounters struct {
	Continues uint64 `json:"continues"`
	Stops     uint64 `json:"stops"`
	Kills     uint64 `json:"kills"`
	Hits      uint64 `json:"hits"`
}

// Rules holds the game's reactions to contacts. Every change that removes an
// entity goes through the command buffer, so callbacks never mutate the ECS
// world structurally while the dispatcher is running.
type Rules struct {
	world      *ecs.World
	commands   *CommandBuffer
	players    *ecs.Map[component.Player]
	enemies    *ecs.Map[component.Enemy]
	bullets    *ecs.Map[component.Bullet]
	enemyScore int
	scores     map[int]int
	counters   ContactCounters
	logger     *zap.Logger
}

func NewRules(w *ecs.World, commands *CommandBuffer, enemyScore int, logger *zap.Logger) *Rules {
	return &Rules{
		world:      w,
		commands:   commands,
		players:    ecs.NewMap[component.Player](w),
		enemies:    ecs.NewMap[component.Enemy](w),
		bullets:    ecs.NewMap[component.Bullet](w),
		enemyScore: enemyScore,
		scores:     make(map[int]int),
		logger:     logger,
	}
}

func (r *Rules) isLiveEnemy(e ecs.Entity) bool {
	return r.world.Alive(e) && r.enemies.Has(e) && !r.commands.Pending(e)
}

// BulletHit damages the enemy a bullet starts touching. A bullet is spent on its
// first hit.
func (r *Rules) BulletHit(bullet, other ecs.Entity) {
	if !r.world.Alive(bullet) || !r.isLiveEnemy(other) {
		return
	}
	b := r.bullets.Get(bullet)
	if b.Spent {
		return
	}
	b.Spent = true
	r.commands.Despawn(bullet)

	enemy := r.enemies.Get(other)
	enemy.HP -= b.Damage
	if enemy.HP > 0 {
		return
	}
	r.commands.Despawn(other)
	r.scores[b.Owner] += r.enemyScore
	r.counters.Kills++
	r.logger.Debug("Rules: enemy destroyed",
		zap.Uint32("enemy", other.ID()), zap.Int("player", b.Owner), zap.Int("score", r.scores[b.Owner]))
}

// PlayerHit costs the player a life when an enemy rams it. The enemy is destroyed.
func (r *Rules) PlayerHit(player, other ecs.Entity) {
	if !r.world.Alive(player) || !r.isLiveEnemy(other) {
		return
	}
	p := r.players.Get(player)
	if p.Lives <= 0 {
		return
	}
	p.Lives--
	p.Hits++
	r.counters.Hits++
	r.commands.Despawn(other)
	if p.Lives == 0 {
		r.commands.Despawn(player)
		r.logger.Info("Rules: player out of lives", zap.Int("player", p.Index))
	}
}

// Receiver returns the catch-all receiver feeding the debug counters.
func (r *Rules) Receiver() physics.Receiver {
	return physics.Receiver{
		OnContinue: func(self, other ecs.Entity) { r.counters.Continues++ },
		OnStop:     func(self, other ecs.Entity) { r.counters.Stops++ },
	}
}

// Score returns the score of player index.
func (r *Rules) Score(index int) int { return r.scores[index] }

// Counters returns the callback totals.
func (r *Rules) Counters() ContactCounters { return r.counters }
