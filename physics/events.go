// File: physics/events.go
package physics

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

// ContactKind classifies a contact transition.
type ContactKind uint8

const (
	ContactStart ContactKind = iota
	ContactContinue
	ContactStop
	ContactRemove
	numContactKinds
)

// ContactKinds lists every kind in dispatch order.
var ContactKinds = [numContactKinds]ContactKind{ContactStart, ContactContinue, ContactStop, ContactRemove}

func (k ContactKind) String() string {
	switch k {
	case ContactStart:
		return "start"
	case ContactContinue:
		return "continue"
	case ContactStop:
		return "stop"
	case ContactRemove:
		return "remove"
	}
	return fmt.Sprintf("ContactKind(%d)", uint8(k))
}

// ContactEvent is one transition between two entities. For ContactRemove,
// Entity0 is the removed entity and Entity1 its former neighbor.
type ContactEvent struct {
	Entity0 ecs.Entity
	Entity1 ecs.Entity
	Kind    ContactKind
}

// Stats counts events emitted per kind over the life of a World.
type Stats struct {
	Start    uint64 `json:"start"`
	Continue uint64 `json:"continue"`
	Stop     uint64 `json:"stop"`
	Remove   uint64 `json:"remove"`
}

func (s *Stats) add(kind ContactKind) {
	switch kind {
	case ContactStart:
		s.Start++
	case ContactContinue:
		s.Continue++
	case ContactStop:
		s.Stop++
	case ContactRemove:
		s.Remove++
	}
}

// eventQueues holds one ordered buffer per kind.
type eventQueues struct {
	queues [numContactKinds][]ContactEvent
	stats  Stats
}

func newEventQueues(capacity int) eventQueues {
	var q eventQueues
	for i := range q.queues {
		q.queues[i] = make([]ContactEvent, 0, capacity)
	}
	return q
}

func (q *eventQueues) push(ev ContactEvent) {
	if ev.Kind >= numContactKinds {
		panic(fmt.Sprintf("physics: push of unknown contact kind %d", ev.Kind))
	}
	q.queues[ev.Kind] = append(q.queues[ev.Kind], ev)
	q.stats.add(ev.Kind)
}

func (q *eventQueues) pending(kind ContactKind) []ContactEvent {
	if kind >= numContactKinds || len(q.queues[kind]) == 0 {
		return nil
	}
	out := make([]ContactEvent, len(q.queues[kind]))
	copy(out, q.queues[kind])
	return out
}

// clear truncates every queue, keeping the allocated capacity.
func (q *eventQueues) clear() {
	for i := range q.queues {
		q.queues[i] = q.queues[i][:0]
	}
}

func (q *eventQueues) len() int {
	n := 0
	for i := range q.queues {
		n += len(q.queues[i])
	}
	return n
}
