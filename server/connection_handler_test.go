package server

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/game"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	frames []interface{}
	gate   chan struct{}
	err    error
}

func (w *recordingWriter) write(frame interface{}) error {
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, frame)
	return nil
}

func (w *recordingWriter) Frames() []interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]interface{}(nil), w.frames...)
}

func newHandler(t *testing.T, w *recordingWriter, limit int) *ConnectionHandlerActor {
	t.Helper()
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return NewConnectionHandlerProducer(ConnectionHandlerArgs{
		ID:    "test",
		Pool:  pool,
		Write: w.write,
		Limit: limit,
	})().(*ConnectionHandlerActor)
}

func snapshotAt(tick uint64) game.SnapshotMessage {
	return game.SnapshotMessage{Snapshot: game.Snapshot{Tick: tick}}
}

func ticksOf(frames []interface{}) []uint64 {
	var ticks []uint64
	for _, f := range frames {
		if snap, ok := f.(game.Snapshot); ok {
			ticks = append(ticks, snap.Tick)
		}
	}
	return ticks
}

func TestConnectionHandler_WritesInOrder(t *testing.T) {
	w := &recordingWriter{}
	h := newHandler(t, w, 100)

	for tick := uint64(1); tick <= 50; tick++ {
		h.enqueue(snapshotAt(tick).Snapshot)
	}

	require.Eventually(t, func() bool { return len(w.Frames()) == 50 }, time.Second, 5*time.Millisecond)
	ticks := ticksOf(w.Frames())
	for i, tick := range ticks {
		assert.Equal(t, uint64(i+1), tick)
	}
}

func TestConnectionHandler_DropsOldestSnapshotWhenFull(t *testing.T) {
	w := &recordingWriter{gate: make(chan struct{})}
	h := newHandler(t, w, 3)

	// The first frame is taken by the drain and blocks on the gate.
	h.enqueue(game.Snapshot{Tick: 1})
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.outbox) == 0
	}, time.Second, 5*time.Millisecond)

	h.enqueue(game.GameOverMessage{Reason: "kept"})
	for tick := uint64(2); tick <= 5; tick++ {
		h.enqueue(game.Snapshot{Tick: tick})
	}
	assert.Equal(t, 2, h.Dropped())
	close(w.gate)

	require.Eventually(t, func() bool { return len(w.Frames()) == 4 }, time.Second, 5*time.Millisecond)
	frames := w.Frames()
	assert.Equal(t, []uint64{1, 4, 5}, ticksOf(frames))
	assert.IsType(t, game.GameOverMessage{}, frames[1])
}

func TestConnectionHandler_StopsWritingAfterFailure(t *testing.T) {
	w := &recordingWriter{err: errors.New("broken pipe")}
	h := newHandler(t, w, 10)

	h.enqueue(game.Snapshot{Tick: 1})
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.failed && !h.draining
	}, time.Second, 5*time.Millisecond)

	h.enqueue(game.Snapshot{Tick: 2})
	h.mu.Lock()
	assert.Empty(t, h.outbox)
	h.mu.Unlock()
}

func TestConnectionHandler_ActorLifecycle(t *testing.T) {
	engine := bollywood.NewEngine()
	defer engine.Shutdown(time.Second)
	pool, err := ants.NewPool(1)
	require.NoError(t, err)
	defer pool.Release()

	w := &recordingWriter{}
	done := make(chan struct{})
	pid := engine.Spawn(bollywood.NewProps(NewConnectionHandlerProducer(ConnectionHandlerArgs{
		ID: "actor", Pool: pool, Write: w.write, Done: done,
	})))

	engine.Send(pid, snapshotAt(7), nil)
	engine.Send(pid, game.PlayerInput{}, nil) // ignored
	require.Eventually(t, func() bool { return len(w.Frames()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{7}, ticksOf(w.Frames()))

	engine.Stop(pid)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("done channel was not closed after stop")
	}
}
