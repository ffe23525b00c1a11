// File: physics/world.go
package physics

import (
	"errors"

	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
)

// DefaultQueueCapacity is the initial capacity of each contact queue.
const DefaultQueueCapacity = 256

// Collidable is the per-tick record of one entity taking part in the scan.
type Collidable struct {
	Entity ecs.Entity
	Rect   Rect
	Layer  uint8
}

// Config configures a World.
type Config struct {
	QueueCapacity int // Initial capacity of each queue, DefaultQueueCapacity when 0
	MaxEntities   int // Contact graph limit, 0 = unbounded
	Logger        *zap.Logger
}

// World is the contact-tracking state of one simulation: the contact graph, the
// collidables gathered for the current tick, the event queues and the receivers.
// It is not safe for concurrent use.
type World struct {
	graph       *ContactGraph
	queues      eventQueues
	bodies      []Collidable
	receivers   []*receiverEntry
	dispatching bool
	scans       uint64
	logger      *zap.Logger
}

// NewWorld creates an empty World.
func NewWorld(cfg Config) *World {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &World{
		graph:  NewContactGraph(cfg.MaxEntities),
		queues: newEventQueues(capacity),
		bodies: make([]Collidable, 0, capacity),
		logger: logger,
	}
	w.graph.OnPurge(w.logPurge)
	return w
}

// logPurge reports an entity that was recycled by the ECS without RemoveEntity.
// Its neighbors got no Remove event.
func (w *World) logPurge(stale ecs.Entity, neighbors []ecs.Entity) {
	ids := make([]uint32, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.ID()
	}
	w.logger.Warn("Physics: stale entity purged without removal hook",
		zap.Uint32("entity", stale.ID()), zap.Uint32s("neighbors", ids))
}

// BeginTick clears the collidables gathered for the previous tick.
func (w *World) BeginTick() {
	w.bodies = w.bodies[:0]
}

// Gather adds one collidable to the current tick. Records with a zero entity or an
// unusable rectangle are skipped and Gather reports false.
func (w *World) Gather(c Collidable) bool {
	if c.Entity.IsZero() {
		w.logger.Debug("Physics: skipping collidable with zero entity")
		return false
	}
	if !c.Rect.Valid() {
		w.logger.Debug("Physics: skipping collidable with invalid bounds",
			zap.Uint32("entity", c.Entity.ID()), zap.Any("rect", c.Rect))
		return false
	}
	w.bodies = append(w.bodies, c)
	return true
}

// Scan tests every pair of gathered collidables on different layers and queues the
// resulting Start, Continue and Stop events in pair order.
func (w *World) Scan() {
	w.scans++
	bodies := w.bodies
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := &bodies[i], &bodies[j]
			if a.Layer == b.Layer {
				continue
			}

			if a.Rect.Overlaps(b.Rect) {
				added, err := w.graph.AddContact(a.Entity, b.Entity)
				if err != nil {
					w.logScanError(err, a.Entity, b.Entity)
					continue
				}
				kind := ContactContinue
				if added {
					kind = ContactStart
				}
				w.queues.push(ContactEvent{Entity0: a.Entity, Entity1: b.Entity, Kind: kind})
			} else if w.graph.DelContact(a.Entity, b.Entity) {
				w.queues.push(ContactEvent{Entity0: a.Entity, Entity1: b.Entity, Kind: ContactStop})
			}
		}
	}
}

func (w *World) logScanError(err error, a, b ecs.Entity) {
	fields := []zap.Field{zap.Uint32("a", a.ID()), zap.Uint32("b", b.ID()), zap.Error(err)}
	switch {
	case errors.Is(err, ErrGraphCapacity):
		w.logger.Warn("Physics: contact graph full, skipping pair", fields...)
	case errors.Is(err, ErrGraphClosed):
		w.logger.Warn("Physics: scan after teardown, skipping pair", fields...)
	default:
		w.logger.Warn("Physics: cannot record contact", fields...)
	}
}

// RemoveEntity takes e out of the collidable population. Every former neighbor is
// told through a Remove event and e's record for the current tick is discarded.
// Receivers owned by e are kept; callers destroying e drop them with RemoveReceiver.
// It must run before the ECS recycles e.
func (w *World) RemoveEntity(e ecs.Entity) {
	for _, n := range w.graph.RemoveEntity(e) {
		w.queues.push(ContactEvent{Entity0: e, Entity1: n, Kind: ContactRemove})
	}
	for i := range w.bodies {
		if w.bodies[i].Entity == e {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
}

// Step runs one scan and dispatch over the collidables gathered since BeginTick.
func (w *World) Step() {
	w.Scan()
	w.Dispatch()
}

// Teardown releases the contact graph. Later calls are logged no-ops.
func (w *World) Teardown() {
	if !w.graph.Teardown() {
		w.logger.Debug("Physics: teardown called twice")
		return
	}
	w.queues.clear()
	w.bodies = nil
	w.receivers = nil
	w.logger.Debug("Physics: world torn down", zap.Uint64("scans", w.scans), zap.Any("stats", w.queues.stats))
}

// HasContact reports whether e touches anything.
func (w *World) HasContact(e ecs.Entity) bool { return w.graph.HasContact(e) }

// InContact reports whether a and b touch.
func (w *World) InContact(a, b ecs.Entity) bool { return w.graph.InContact(a, b) }

// Neighbors returns e's neighbors in contact-start order.
func (w *World) Neighbors(e ecs.Entity) []ecs.Entity { return w.graph.Neighbors(e) }

// Graph exposes the contact graph for diagnostics.
func (w *World) Graph() *ContactGraph { return w.graph }

// Bodies returns a copy of the collidables gathered this tick.
func (w *World) Bodies() []Collidable {
	out := make([]Collidable, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// Pending returns a copy of the events of kind waiting for dispatch.
func (w *World) Pending(kind ContactKind) []ContactEvent { return w.queues.pending(kind) }

// PendingTotal is the number of events waiting for dispatch across all kinds.
func (w *World) PendingTotal() int { return w.queues.len() }

// Stats returns the per-kind event totals.
func (w *World) Stats() Stats { return w.queues.stats }

// Scans is the number of completed Scan calls.
func (w *World) Scans() uint64 { return w.scans }
