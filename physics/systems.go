// File: physics/systems.go
package physics

import (
	"github.com/lguibr/crypt/component"
	"github.com/mlange-42/ark/ecs"
)

// BoundsSystem keeps WorldBounds in sync with Position and Box for every collider.
// It attaches WorldBounds the first tick an entity qualifies.
type BoundsSystem struct {
	filter  *ecs.Filter3[component.Position, component.Box, component.Collider]
	bounds  *ecs.Map[component.WorldBounds]
	pending []pendingBounds
}

type pendingBounds struct {
	entity ecs.Entity
	bounds component.WorldBounds
}

func (s *BoundsSystem) Initialize(w *ecs.World) {
	s.filter = ecs.NewFilter3[component.Position, component.Box, component.Collider](w)
	s.bounds = ecs.NewMap[component.WorldBounds](w)
}

func (s *BoundsSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		pos, box, _ := query.Get()
		e := query.Entity()
		wb := component.WorldBounds(BoxToRect(pos.Vec2, box.Half))
		if s.bounds.Has(e) {
			*s.bounds.Get(e) = wb
			continue
		}
		s.pending = append(s.pending, pendingBounds{entity: e, bounds: wb})
	}

	// Structural changes are not allowed while the query is open.
	for i := range s.pending {
		s.bounds.Add(s.pending[i].entity, &s.pending[i].bounds)
	}
	s.pending = s.pending[:0]
}

func (s *BoundsSystem) Finalize(w *ecs.World) {}

// ContactSystem gathers every entity with a Collider and WorldBounds and scans them.
type ContactSystem struct {
	Physics *World
	filter  *ecs.Filter2[component.Collider, component.WorldBounds]
}

func (s *ContactSystem) Initialize(w *ecs.World) {
	s.filter = ecs.NewFilter2[component.Collider, component.WorldBounds](w)
}

func (s *ContactSystem) Update(w *ecs.World) {
	s.Physics.BeginTick()
	query := s.filter.Query()
	for query.Next() {
		collider, wb := query.Get()
		s.Physics.Gather(Collidable{
			Entity: query.Entity(),
			Rect:   Rect(*wb),
			Layer:  collider.Layer,
		})
	}
	s.Physics.Scan()
}

func (s *ContactSystem) Finalize(w *ecs.World) {}

// DispatchSystem delivers the queued events to receivers. Finalize tears the
// physics world down.
type DispatchSystem struct {
	Physics *World
}

func (s *DispatchSystem) Initialize(w *ecs.World) {}

func (s *DispatchSystem) Update(w *ecs.World) {
	s.Physics.Dispatch()
}

func (s *DispatchSystem) Finalize(w *ecs.World) {
	s.Physics.Teardown()
}

// Collidables removes entities from the ECS world while keeping the physics world
// informed. Every despawn or collider removal of a collidable must go through it.
type Collidables struct {
	world    *ecs.World
	physics  *World
	collider *ecs.Map[component.Collider]
	bounds   *ecs.Map[component.WorldBounds]
}

// NewCollidables binds an ECS world to a physics world.
func NewCollidables(w *ecs.World, physics *World) *Collidables {
	return &Collidables{
		world:    w,
		physics:  physics,
		collider: ecs.NewMap[component.Collider](w),
		bounds:   ecs.NewMap[component.WorldBounds](w),
	}
}

// Despawn notifies the physics world, drops e's receivers and destroys e. Dead
// entities are ignored.
func (c *Collidables) Despawn(e ecs.Entity) bool {
	if !c.world.Alive(e) {
		return false
	}
	c.physics.RemoveEntity(e)
	c.physics.RemoveReceiver(e)
	c.world.RemoveEntity(e)
	return true
}

// Detach takes e out of the collidable population but keeps the entity alive
// along with its receivers.
func (c *Collidables) Detach(e ecs.Entity) bool {
	if !c.world.Alive(e) || !c.collider.Has(e) {
		return false
	}
	c.physics.RemoveEntity(e)
	c.collider.Remove(e)
	if c.bounds.Has(e) {
		c.bounds.Remove(e)
	}
	return true
}

// Physics returns the bound physics world.
func (c *Collidables) Physics() *World { return c.physics }
