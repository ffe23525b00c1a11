// File: physics/systems_test.go
package physics

import (
	"testing"

	"github.com/lguibr/crypt/component"
	"github.com/lguibr/crypt/utils"
	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type systemsFixture struct {
	world    *ecs.World
	physics  *World
	bounds   *BoundsSystem
	contacts *ContactSystem
	dispatch *DispatchSystem
	spawner  *ecs.Map3[component.Position, component.Box, component.Collider]
	wb       *ecs.Map[component.WorldBounds]
	pos      *ecs.Map[component.Position]
}

func newSystemsFixture() *systemsFixture {
	world := ecs.NewWorld()
	phys := NewWorld(Config{})
	f := &systemsFixture{
		world:    &world,
		physics:  phys,
		bounds:   &BoundsSystem{},
		contacts: &ContactSystem{Physics: phys},
		dispatch: &DispatchSystem{Physics: phys},
		spawner:  ecs.NewMap3[component.Position, component.Box, component.Collider](&world),
		wb:       ecs.NewMap[component.WorldBounds](&world),
		pos:      ecs.NewMap[component.Position](&world),
	}
	f.bounds.Initialize(f.world)
	f.contacts.Initialize(f.world)
	f.dispatch.Initialize(f.world)
	return f
}

func (f *systemsFixture) spawn(x, y, half float64, layer uint8) ecs.Entity {
	return f.spawner.NewEntity(
		&component.Position{Vec2: utils.Vec2{X: x, Y: y}},
		&component.Box{Half: utils.Vec2{X: half, Y: half}},
		&component.Collider{Layer: layer},
	)
}

func (f *systemsFixture) update() {
	f.bounds.Update(f.world)
	f.contacts.Update(f.world)
	f.dispatch.Update(f.world)
}

func TestBoundsSystemAttachesAndRefreshes(t *testing.T) {
	f := newSystemsFixture()
	e := f.spawn(1, 1, 1, 0)
	assert.False(t, f.wb.Has(e))

	f.bounds.Update(f.world)
	require.True(t, f.wb.Has(e))
	assert.Equal(t, component.WorldBounds{Left: 0, Right: 2, Top: 2, Bottom: 0}, *f.wb.Get(e))

	f.pos.Get(e).X = 5
	f.bounds.Update(f.world)
	assert.Equal(t, component.WorldBounds{Left: 4, Right: 6, Top: 2, Bottom: 0}, *f.wb.Get(e))
}

func TestContactSystemPipeline(t *testing.T) {
	f := newSystemsFixture()
	a := f.spawn(0, 0, 1, 0)
	b := f.spawn(1, 1, 1, 1)
	f.spawn(50, 50, 1, 1)

	var calls []recorded
	f.physics.AddReceiver(a, recordingReceiver(&calls, only(a)))

	f.update()
	assert.Equal(t, []recorded{{Kind: "start", Self: a, Other: b}}, calls)
	assert.Len(t, f.physics.Bodies(), 3)

	f.update()
	assert.Equal(t, "continue", calls[len(calls)-1].Kind)

	f.pos.Get(b).X = 20
	f.update()
	assert.Equal(t, recorded{Kind: "stop", Self: a, Other: b}, calls[len(calls)-1])
	assert.False(t, f.physics.HasContact(a))
}

func TestCollidablesDespawn(t *testing.T) {
	f := newSystemsFixture()
	c := NewCollidables(f.world, f.physics)
	a := f.spawn(0, 0, 1, 0)
	b := f.spawn(0, 0, 1, 1)

	var calls []recorded
	f.physics.AddReceiver(a, recordingReceiver(&calls, only(a)))
	f.update()

	f.physics.AddReceiver(b, recordingReceiver(&calls, only(b)))
	require.Equal(t, 2, f.physics.Receivers())

	assert.True(t, c.Despawn(b))
	assert.False(t, c.Despawn(b), "dead entities are ignored")
	assert.False(t, f.world.Alive(b))
	assert.Equal(t, 1, f.physics.Receivers(), "a destroyed entity's receivers are dropped")

	f.update()
	assert.Equal(t, recorded{Kind: "stop", Self: a, Other: b}, calls[len(calls)-1])
	assert.False(t, f.physics.HasContact(a))
	assert.Len(t, f.physics.Bodies(), 1)
	assert.Same(t, f.physics, c.Physics())
}

func TestCollidablesDetach(t *testing.T) {
	f := newSystemsFixture()
	c := NewCollidables(f.world, f.physics)
	collider := ecs.NewMap[component.Collider](f.world)
	a := f.spawn(0, 0, 1, 0)
	b := f.spawn(0, 0, 1, 1)
	f.update()
	require.True(t, f.physics.InContact(a, b))

	assert.True(t, c.Detach(b))
	assert.False(t, c.Detach(b), "already detached")
	assert.True(t, f.world.Alive(b))
	assert.False(t, collider.Has(b))
	assert.False(t, f.wb.Has(b))
	assert.Len(t, f.physics.Pending(ContactRemove), 1)

	f.update()
	assert.False(t, f.physics.HasContact(a))
	assert.Len(t, f.physics.Bodies(), 1)
}

func TestCollidablesDetachKeepsReceivers(t *testing.T) {
	f := newSystemsFixture()
	c := NewCollidables(f.world, f.physics)
	collider := ecs.NewMap[component.Collider](f.world)
	a := f.spawn(0, 0, 1, 0)
	b := f.spawn(0, 0, 1, 1)

	var calls []recorded
	f.physics.AddReceiver(b, recordingReceiver(&calls, only(b)))
	f.update()
	require.Equal(t, []recorded{{Kind: "start", Self: b, Other: a}}, calls)

	require.True(t, c.Detach(b))
	f.pos.Get(b).X = 10
	f.update()
	assert.Equal(t, 1, f.physics.Receivers())

	collider.Add(b, &component.Collider{Layer: 1})
	f.update()
	assert.False(t, f.physics.HasContact(b), "out of reach after reattaching")

	calls = calls[:0]
	f.pos.Get(b).X = 0
	f.update()
	assert.Equal(t, []recorded{{Kind: "start", Self: b, Other: a}}, calls)
}

func TestDispatchSystemFinalizeTearsDown(t *testing.T) {
	f := newSystemsFixture()
	f.spawn(0, 0, 1, 0)
	f.update()

	f.dispatch.Finalize(f.world)
	f.bounds.Finalize(f.world)
	f.contacts.Finalize(f.world)
	assert.True(t, f.physics.Graph().Closed())
}
