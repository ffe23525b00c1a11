// File: physics/receiver.go
package physics

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

// ContactFunc is invoked with the entity the receiver matched as self.
type ContactFunc func(self, other ecs.Entity)

// Receiver subscribes to contact transitions for entities accepted by Filter.
// A nil Filter accepts every entity and nil callbacks are skipped.
type Receiver struct {
	OnStart    ContactFunc
	OnContinue ContactFunc
	OnStop     ContactFunc
	Filter     func(e ecs.Entity) bool
}

func (r *Receiver) accepts(e ecs.Entity) bool {
	return r.Filter == nil || r.Filter(e)
}

type receiverEntry struct {
	owner   ecs.Entity
	removed bool
	Receiver
}

// AddReceiver registers r against owner. Receivers are visited in registration order.
func (w *World) AddReceiver(owner ecs.Entity, r Receiver) {
	w.receivers = append(w.receivers, &receiverEntry{owner: owner, Receiver: r})
}

// RemoveReceiver drops every receiver registered against owner and reports how many.
// Receivers removed during a dispatch are not called again in that pass.
func (w *World) RemoveReceiver(owner ecs.Entity) int {
	n := 0
	for _, entry := range w.receivers {
		if entry.owner == owner && !entry.removed {
			entry.removed = true
			n++
		}
	}
	if n > 0 && !w.dispatching {
		w.compactReceivers()
	}
	return n
}

// Receivers is the number of registered receivers.
func (w *World) Receivers() int {
	n := 0
	for _, entry := range w.receivers {
		if !entry.removed {
			n++
		}
	}
	return n
}

func (w *World) compactReceivers() {
	kept := w.receivers[:0]
	for _, entry := range w.receivers {
		if !entry.removed {
			kept = append(kept, entry)
		}
	}
	for i := len(kept); i < len(w.receivers); i++ {
		w.receivers[i] = nil
	}
	w.receivers = kept
}

// Dispatch delivers every queued event to the matching receivers, kind by kind in
// the order Start, Continue, Stop, Remove, and then empties the queues. Removals
// requested from a callback are delivered in the same pass.
func (w *World) Dispatch() {
	if w.dispatching {
		panic("physics: nested Dispatch")
	}
	w.dispatching = true
	defer func() {
		w.dispatching = false
		w.compactReceivers()
	}()

	for _, kind := range ContactKinds {
		// Indexed so events appended by callbacks are picked up.
		for i := 0; i < len(w.queues.queues[kind]); i++ {
			w.deliver(w.queues.queues[kind][i])
		}
	}
	w.queues.clear()
}

func (w *World) deliver(ev ContactEvent) {
	// The receiver list may grow during delivery; only those present now are visited.
	receivers := w.receivers[:len(w.receivers):len(w.receivers)]
	for _, entry := range receivers {
		if entry.removed {
			continue
		}
		switch ev.Kind {
		case ContactStart:
			invokePair(entry, entry.OnStart, ev)
		case ContactContinue:
			invokePair(entry, entry.OnContinue, ev)
		case ContactStop:
			invokePair(entry, entry.OnStop, ev)
		case ContactRemove:
			if entry.OnStop != nil && entry.accepts(ev.Entity1) {
				entry.OnStop(ev.Entity1, ev.Entity0)
			}
		default:
			panic(fmt.Sprintf("physics: dispatch of unknown contact kind %d", ev.Kind))
		}
	}
}

func invokePair(entry *receiverEntry, fn ContactFunc, ev ContactEvent) {
	if fn == nil {
		return
	}
	if entry.accepts(ev.Entity0) {
		fn(ev.Entity0, ev.Entity1)
	}
	if entry.removed {
		return
	}
	if entry.accepts(ev.Entity1) {
		fn(ev.Entity1, ev.Entity0)
	}
}
