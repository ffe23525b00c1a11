// File: physics/contact_graph_test.go
package physics

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactGraphAddDel(t *testing.T) {
	_, e := newEntities(t, 3)
	g := NewContactGraph(0)

	added, err := g.AddContact(e[0], e[1])
	require.NoError(t, err)
	assert.True(t, added)

	added, err = g.AddContact(e[1], e[0])
	require.NoError(t, err)
	assert.False(t, added, "reverse insertion of an existing edge is not new")

	assert.True(t, g.InContact(e[0], e[1]))
	assert.True(t, g.InContact(e[1], e[0]))
	assert.True(t, g.HasContact(e[0]))
	assert.False(t, g.HasContact(e[2]))
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 2, g.Len())
	assertSymmetric(t, g)

	assert.True(t, g.DelContact(e[1], e[0]))
	assert.False(t, g.DelContact(e[0], e[1]))
	assert.False(t, g.HasContact(e[0]))
	assert.Equal(t, 0, g.EdgeCount())
}

func TestContactGraphDelDoesNotCreate(t *testing.T) {
	_, e := newEntities(t, 2)
	g := NewContactGraph(0)

	assert.False(t, g.DelContact(e[0], e[1]))
	assert.False(t, g.InContact(e[0], e[1]))
	assert.Equal(t, 0, g.Len())
}

func TestContactGraphSelfContact(t *testing.T) {
	_, e := newEntities(t, 1)
	g := NewContactGraph(0)

	_, err := g.AddContact(e[0], e[0])
	assert.ErrorIs(t, err, ErrSelfContact)
	assert.False(t, g.HasContact(e[0]))
}

func TestContactGraphNeighborsOrder(t *testing.T) {
	_, e := newEntities(t, 4)
	g := NewContactGraph(0)

	for _, n := range []ecs.Entity{e[3], e[1], e[2]} {
		_, err := g.AddContact(e[0], n)
		require.NoError(t, err)
	}
	assert.Equal(t, []ecs.Entity{e[3], e[1], e[2]}, g.Neighbors(e[0]))

	g.DelContact(e[0], e[1])
	assert.Equal(t, []ecs.Entity{e[3], e[2]}, g.Neighbors(e[0]))
	assert.Nil(t, g.Neighbors(e[1]))
}

func TestContactGraphRemoveEntity(t *testing.T) {
	_, e := newEntities(t, 4)
	g := NewContactGraph(0)

	for _, n := range e[1:] {
		_, err := g.AddContact(e[0], n)
		require.NoError(t, err)
	}
	_, err := g.AddContact(e[1], e[2])
	require.NoError(t, err)

	former := g.RemoveEntity(e[0])
	assert.Equal(t, []ecs.Entity{e[1], e[2], e[3]}, former)
	assert.Nil(t, g.lookup(e[0]), "removed entity keeps no entry")
	assert.False(t, g.HasContact(e[3]))
	assert.True(t, g.InContact(e[1], e[2]), "unrelated edges survive")
	assert.Equal(t, 1, g.EdgeCount())
	assertSymmetric(t, g)

	assert.Nil(t, g.RemoveEntity(e[0]), "second removal is a no-op")
}

func TestContactGraphRemoveManyNeighbors(t *testing.T) {
	const neighbors = 100
	_, e := newEntities(t, neighbors+1)
	g := NewContactGraph(0)

	for _, n := range e[1:] {
		_, err := g.AddContact(e[0], n)
		require.NoError(t, err)
	}

	former := g.RemoveEntity(e[0])
	assert.Len(t, former, neighbors)
	for _, n := range e[1:] {
		assert.False(t, g.HasContact(n))
	}
	assert.Equal(t, 0, g.EdgeCount())
}

func TestContactGraphAsymmetryPanics(t *testing.T) {
	_, e := newEntities(t, 2)
	g := NewContactGraph(0)

	_, err := g.AddContact(e[0], e[1])
	require.NoError(t, err)

	// Corrupt one direction by hand.
	g.lookup(e[1]).remove(e[0])

	defer func() {
		r := recover()
		require.NotNil(t, r)
		v, ok := r.(*InvariantViolation)
		require.True(t, ok, "panic value should be *InvariantViolation, got %T", r)
		assert.Equal(t, "InContact", v.Op)
		assert.Contains(t, v.Error(), "asymmetric")
	}()
	g.InContact(e[0], e[1])
}

func TestContactGraphCapacity(t *testing.T) {
	_, e := newEntities(t, 4)
	g := NewContactGraph(3)

	_, err := g.AddContact(e[0], e[1])
	require.NoError(t, err)

	_, err = g.AddContact(e[2], e[3])
	assert.ErrorIs(t, err, ErrGraphCapacity)
	assert.False(t, g.HasContact(e[2]), "failed insertion must not mutate")
	assert.Equal(t, 2, g.Len())

	added, err := g.AddContact(e[0], e[2])
	require.NoError(t, err)
	assert.True(t, added)

	g.RemoveEntity(e[1])
	_, err = g.AddContact(e[2], e[3])
	assert.NoError(t, err, "removal frees a slot")
}

func TestContactGraphStaleGeneration(t *testing.T) {
	world, e := newEntities(t, 2)
	g := NewContactGraph(0)

	_, err := g.AddContact(e[0], e[1])
	require.NoError(t, err)

	// Recycle e[0]'s index without telling the graph.
	world.RemoveEntity(e[0])
	fresh := spawnEntities(world, 1)
	if fresh[0].ID() != e[0].ID() {
		t.Skip("entity index was not recycled")
	}

	assert.False(t, g.HasContact(fresh[0]), "recycled index must not alias the stale entry")

	var purged []ecs.Entity
	var dropped []ecs.Entity
	g.OnPurge(func(stale ecs.Entity, neighbors []ecs.Entity) {
		purged = append(purged, stale)
		dropped = append(dropped, neighbors...)
	})

	_, err = g.AddContact(fresh[0], e[1])
	require.NoError(t, err)
	assert.Equal(t, []ecs.Entity{e[0]}, purged)
	assert.Equal(t, []ecs.Entity{e[1]}, dropped)
	assert.Equal(t, []ecs.Entity{fresh[0]}, g.Neighbors(e[1]))
	assertSymmetric(t, g)
}

func TestContactGraphTeardown(t *testing.T) {
	_, e := newEntities(t, 2)
	g := NewContactGraph(0)
	_, err := g.AddContact(e[0], e[1])
	require.NoError(t, err)

	assert.True(t, g.Teardown())
	assert.False(t, g.Teardown())
	assert.True(t, g.Closed())
	assert.Equal(t, 0, g.Len())

	_, err = g.AddContact(e[0], e[1])
	assert.ErrorIs(t, err, ErrGraphClosed)
	assert.False(t, g.DelContact(e[0], e[1]))
	assert.False(t, g.HasContact(e[0]))
	assert.Nil(t, g.RemoveEntity(e[0]))
}
