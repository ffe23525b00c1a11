// File: physics/contact_graph.go
package physics

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

var (
	// ErrGraphCapacity is returned when tracking another entity would exceed the graph limit.
	ErrGraphCapacity = errors.New("physics: contact graph capacity exceeded")
	// ErrGraphClosed is returned for mutations after Teardown.
	ErrGraphClosed = errors.New("physics: contact graph torn down")
	// ErrSelfContact is returned when an entity is paired with itself.
	ErrSelfContact = errors.New("physics: entity cannot contact itself")
)

// InvariantViolation is the panic value raised when the graph stops being symmetric.
// It is never recovered inside this package.
type InvariantViolation struct {
	Op     string
	A, B   ecs.Entity
	Detail string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("physics: %s(%d, %d): %s", v.Op, v.A.ID(), v.B.ID(), v.Detail)
}

func violation(op string, a, b ecs.Entity, detail string) {
	panic(&InvariantViolation{Op: op, A: a, B: b, Detail: detail})
}

// edgeSet holds one entity's neighbors in the order their contacts started.
type edgeSet struct {
	owner     ecs.Entity
	neighbors []ecs.Entity
}

func (s *edgeSet) indexOf(e ecs.Entity) int {
	for i, n := range s.neighbors {
		if n == e {
			return i
		}
	}
	return -1
}

func (s *edgeSet) remove(e ecs.Entity) bool {
	i := s.indexOf(e)
	if i < 0 {
		return false
	}
	copy(s.neighbors[i:], s.neighbors[i+1:])
	s.neighbors = s.neighbors[:len(s.neighbors)-1]
	return true
}

// ContactGraph is the symmetric "currently touching" relation between entities.
// Sets are stored in slots indexed by the entity index. A slot whose owner has a
// different generation than the queried handle belongs to a dead entity and is
// treated as absent.
type ContactGraph struct {
	slots       []*edgeSet
	live        int
	edges       int
	maxEntities int
	closed      bool
	onPurge     func(stale ecs.Entity, neighbors []ecs.Entity)
}

// NewContactGraph creates an empty graph. maxEntities limits the number of tracked
// entities; 0 means unbounded.
func NewContactGraph(maxEntities int) *ContactGraph {
	return &ContactGraph{maxEntities: maxEntities}
}

// OnPurge sets fn to be called when a recycled index evicts a stale entity, with
// the neighbors that lost their edge to it.
func (g *ContactGraph) OnPurge(fn func(stale ecs.Entity, neighbors []ecs.Entity)) {
	g.onPurge = fn
}

func (g *ContactGraph) lookup(e ecs.Entity) *edgeSet {
	if g.closed || e.IsZero() {
		return nil
	}
	id := int(e.ID())
	if id >= len(g.slots) {
		return nil
	}
	s := g.slots[id]
	if s == nil || s.owner != e {
		return nil
	}
	return s
}

// edgesOf returns e's neighbor set, creating it when needed.
func (g *ContactGraph) edgesOf(e ecs.Entity) (*edgeSet, error) {
	if g.closed {
		return nil, ErrGraphClosed
	}
	if s := g.lookup(e); s != nil {
		return s, nil
	}
	if g.maxEntities > 0 && g.live >= g.maxEntities {
		return nil, ErrGraphCapacity
	}

	id := int(e.ID())
	if id >= len(g.slots) {
		grown := make([]*edgeSet, id+1, 2*(id+1))
		copy(grown, g.slots)
		g.slots = grown
	}
	if stale := g.slots[id]; stale != nil {
		// The previous owner of this index was destroyed without going through
		// RemoveEntity. Drop its edges so its neighbors stay consistent.
		dropped := g.RemoveEntity(stale.owner)
		if g.onPurge != nil {
			g.onPurge(stale.owner, dropped)
		}
	}

	s := &edgeSet{owner: e}
	g.slots[id] = s
	g.live++
	return s, nil
}

// contains checks b ∈ adj[a] and a ∈ adj[b], panicking when only one side holds.
func (g *ContactGraph) contains(op string, a, b ecs.Entity) (sa, sb *edgeSet, present bool) {
	sa, sb = g.lookup(a), g.lookup(b)
	inA := sa != nil && sa.indexOf(b) >= 0
	inB := sb != nil && sb.indexOf(a) >= 0
	if inA != inB {
		violation(op, a, b, fmt.Sprintf("asymmetric edge (a->b=%t, b->a=%t)", inA, inB))
	}
	return sa, sb, inA
}

// AddContact records that a and b touch. It reports true when the edge is new.
func (g *ContactGraph) AddContact(a, b ecs.Entity) (bool, error) {
	if g.closed {
		return false, ErrGraphClosed
	}
	if a == b {
		return false, ErrSelfContact
	}

	sa, sb, present := g.contains("AddContact", a, b)
	if present {
		return false, nil
	}

	needed := 0
	if sa == nil {
		needed++
	}
	if sb == nil {
		needed++
	}
	if g.maxEntities > 0 && g.live+needed > g.maxEntities {
		return false, ErrGraphCapacity
	}

	var err error
	if sa == nil {
		if sa, err = g.edgesOf(a); err != nil {
			return false, err
		}
	}
	if sb == nil {
		if sb, err = g.edgesOf(b); err != nil {
			return false, err
		}
	}

	sa.neighbors = append(sa.neighbors, b)
	sb.neighbors = append(sb.neighbors, a)
	g.edges++
	return true, nil
}

// DelContact removes the edge between a and b. It reports whether the edge existed.
// Unknown entities are not added to the graph.
func (g *ContactGraph) DelContact(a, b ecs.Entity) bool {
	if g.closed || a == b {
		return false
	}
	sa, sb, present := g.contains("DelContact", a, b)
	if !present {
		return false
	}
	sa.remove(b)
	sb.remove(a)
	g.edges--
	return true
}

// InContact reports whether a and b currently touch.
func (g *ContactGraph) InContact(a, b ecs.Entity) bool {
	if g.closed || a == b {
		return false
	}
	_, _, present := g.contains("InContact", a, b)
	return present
}

// HasContact reports whether e touches anything.
func (g *ContactGraph) HasContact(e ecs.Entity) bool {
	s := g.lookup(e)
	return s != nil && len(s.neighbors) > 0
}

// Neighbors returns a copy of e's neighbors in contact-start order.
func (g *ContactGraph) Neighbors(e ecs.Entity) []ecs.Entity {
	s := g.lookup(e)
	if s == nil || len(s.neighbors) == 0 {
		return nil
	}
	out := make([]ecs.Entity, len(s.neighbors))
	copy(out, s.neighbors)
	return out
}

// RemoveEntity purges e and every edge touching it. The former neighbors are
// returned in contact-start order.
func (g *ContactGraph) RemoveEntity(e ecs.Entity) []ecs.Entity {
	s := g.lookup(e)
	if s == nil {
		return nil
	}

	former := s.neighbors
	for _, n := range former {
		sn := g.lookup(n)
		if sn == nil || !sn.remove(e) {
			violation("RemoveEntity", e, n, "neighbor does not list the removed entity")
		}
	}

	g.edges -= len(former)
	g.slots[e.ID()] = nil
	g.live--
	s.neighbors = nil
	return former
}

// Teardown releases every set once. It reports false when the graph was already closed.
func (g *ContactGraph) Teardown() bool {
	if g.closed {
		return false
	}
	for i := range g.slots {
		g.slots[i] = nil
	}
	g.slots = nil
	g.live = 0
	g.edges = 0
	g.closed = true
	return true
}

// Len is the number of tracked entities, including those with no current contact.
func (g *ContactGraph) Len() int { return g.live }

// EdgeCount is the number of undirected edges.
func (g *ContactGraph) EdgeCount() int { return g.edges }

// Closed reports whether Teardown has run.
func (g *ContactGraph) Closed() bool { return g.closed }
