// File: game/commands.go
package game

import (
	"github.com/lguibr/crypt/physics"
	"github.com/mlange-42/ark/ecs"
)

// CommandBuffer defers despawns requested while queries or dispatch are running.
type CommandBuffer struct {
	despawn []ecs.Entity
	queued  map[ecs.Entity]struct{}
}

func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{queued: make(map[ecs.Entity]struct{})}
}

// Despawn queues e for removal. Repeated requests are merged.
func (b *CommandBuffer) Despawn(e ecs.Entity) {
	if _, ok := b.queued[e]; ok {
		return
	}
	b.queued[e] = struct{}{}
	b.despawn = append(b.despawn, e)
}

// Pending reports whether e is queued for removal.
func (b *CommandBuffer) Pending(e ecs.Entity) bool {
	_, ok := b.queued[e]
	return ok
}

func (b *CommandBuffer) Len() int { return len(b.despawn) }

// Apply despawns every queued entity through c, in request order, and returns how
// many were still alive.
func (b *CommandBuffer) Apply(c *physics.Collidables) int {
	n := 0
	for _, e := range b.despawn {
		if c.Despawn(e) {
			n++
		}
		delete(b.queued, e)
	}
	b.despawn = b.despawn[:0]
	return n
}
