package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const defaultMailboxSize = 1024

// process represents the running instance of an actor, including its state and mailbox.
type process struct {
	engine   *Engine
	pid      *PID
	actor    Actor
	mailbox  chan *messageEnvelope
	props    *Props
	stopCh   chan struct{} // Signal to stop the run loop
	stopOnce sync.Once
	doneCh   chan struct{} // Closed once the goroutine has exited
	stopped  atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	size := props.mailboxSize
	if size <= 0 {
		size = defaultMailboxSize
	}
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, size),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (p *process) signalStop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// sendMessage queues an envelope without blocking. It reports false when the
// envelope was dropped.
func (p *process) sendMessage(envelope *messageEnvelope) bool {
	if p.stopped.Load() && !isSystemMessage(envelope.Message) {
		return false
	}

	select {
	case p.mailbox <- envelope:
		return true
	default:
		p.engine.logger.Warn("Actor mailbox full, dropping message",
			zap.String("actor", p.pid.ID), zap.String("type", fmt.Sprintf("%T", envelope.Message)))
		return false
	}
}

// run is the main loop for the actor process.
func (p *process) run() {
	defer func() {
		p.stopped.Store(true)
		if p.actor != nil {
			p.invokeReceive(&messageEnvelope{Message: Stopped{}})
		}
		p.engine.remove(p.pid)
		close(p.doneCh)
	}()

	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error("Actor producer panicked",
				zap.String("actor", p.pid.ID), zap.Any("reason", r))
			p.stopped.Store(true)
			p.signalStop()
		}
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		panic(fmt.Sprintf("Actor %s producer returned nil actor", p.pid.ID))
	}

	for {
		select {
		case <-p.stopCh:
			if p.stopped.CompareAndSwap(false, true) {
				// Stopped without a Stopping message in the mailbox, run cleanup now.
				p.invokeReceive(&messageEnvelope{Message: Stopping{}})
			}
			return

		case envelope := <-p.mailbox:
			switch envelope.Message.(type) {
			case Stopping:
				if p.stopped.CompareAndSwap(false, true) {
					p.invokeReceive(envelope)
				}
				p.signalStop()
				return
			case Stopped:
				p.engine.logger.Debug("Actor received unexpected Stopped message via mailbox", zap.String("actor", p.pid.ID))
				continue
			}

			if p.stopped.Load() {
				continue
			}

			if failure := p.invokeReceive(envelope); failure != nil {
				// A panicking actor gets no further messages, only its cleanup.
				if p.stopped.CompareAndSwap(false, true) {
					p.invokeReceive(&messageEnvelope{Message: Stopping{}})
				}
				p.signalStop()
				return
			}
		}
	}
}

// invokeReceive calls the actor's Receive method and recovers from panics in it.
func (p *process) invokeReceive(envelope *messageEnvelope) (failure *Failure) {
	ctx := &context{
		engine:  p.engine,
		self:    p.pid,
		sender:  envelope.Sender,
		message: envelope.Message,
		replyCh: envelope.replyCh,
	}

	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error("Actor panicked during Receive",
				zap.String("actor", p.pid.ID),
				zap.String("type", fmt.Sprintf("%T", envelope.Message)),
				zap.Any("reason", r),
				zap.ByteString("stack", debug.Stack()))
			failure = &Failure{Who: p.pid, Reason: r}
		}
	}()
	p.actor.Receive(ctx)
	return nil
}
