// File: physics/helpers_test.go
package physics

import (
	"testing"

	"github.com/lguibr/crypt/component"
	"github.com/mlange-42/ark/ecs"
)

// newEntities creates n live entities in a fresh ECS world.
func newEntities(t *testing.T, n int) (*ecs.World, []ecs.Entity) {
	t.Helper()
	world := ecs.NewWorld()
	return &world, spawnEntities(&world, n)
}

func spawnEntities(world *ecs.World, n int) []ecs.Entity {
	mapper := ecs.NewMap1[component.Collider](world)
	entities := make([]ecs.Entity, n)
	for i := range entities {
		entities[i] = mapper.NewEntity(&component.Collider{})
	}
	return entities
}

// rect builds a Rect from x and y intervals.
func rect(left, right, bottom, top float64) Rect {
	return Rect{Left: left, Right: right, Top: top, Bottom: bottom}
}

// tick gathers the given collidables and runs a scan, without dispatching.
func tick(w *World, bodies ...Collidable) {
	w.BeginTick()
	for _, b := range bodies {
		w.Gather(b)
	}
	w.Scan()
}

// recorded is one receiver callback invocation.
type recorded struct {
	Kind        string
	Self, Other ecs.Entity
}

// recordingReceiver returns a receiver that appends every callback to calls.
func recordingReceiver(calls *[]recorded, filter func(ecs.Entity) bool) Receiver {
	record := func(kind string) ContactFunc {
		return func(self, other ecs.Entity) {
			*calls = append(*calls, recorded{Kind: kind, Self: self, Other: other})
		}
	}
	return Receiver{
		OnStart:    record("start"),
		OnContinue: record("continue"),
		OnStop:     record("stop"),
		Filter:     filter,
	}
}

func only(e ecs.Entity) func(ecs.Entity) bool {
	return func(x ecs.Entity) bool { return x == e }
}

// assertSymmetric checks the symmetry of the whole graph.
func assertSymmetric(t *testing.T, g *ContactGraph) {
	t.Helper()
	for _, s := range g.slots {
		if s == nil {
			continue
		}
		for _, n := range s.neighbors {
			sn := g.lookup(n)
			if sn == nil || sn.indexOf(s.owner) < 0 {
				t.Fatalf("edge %d->%d has no reverse edge", s.owner.ID(), n.ID())
			}
		}
	}
}
