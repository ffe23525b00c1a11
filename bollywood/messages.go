package bollywood

import "errors"

// --- System Messages ---

// Started is sent to an actor after its goroutine has started.
type Started struct{}

// Stopping is sent to an actor to signal it should prepare to stop.
// No more user messages will be delivered after Stopping.
type Stopping struct{}

// Stopped is sent to an actor just before its goroutine exits.
// This is the final message an actor will receive.
type Stopped struct{}

// Failure describes an actor that panicked while processing a message.
type Failure struct {
	Who    *PID
	Reason interface{}
}

var (
	// ErrTimeout is returned by Ask when no reply arrives in time.
	ErrTimeout = errors.New("bollywood: ask timed out")
	// ErrActorNotFound is returned by Ask for unknown or stopped actors.
	ErrActorNotFound = errors.New("bollywood: actor not found")
	// ErrMailboxFull is returned by Ask when the target mailbox cannot take the request.
	ErrMailboxFull = errors.New("bollywood: mailbox full")
)

// messageEnvelope wraps a user message with sender information.
type messageEnvelope struct {
	Sender  *PID
	Message interface{}
	replyCh chan interface{}
}

func isSystemMessage(message interface{}) bool {
	switch message.(type) {
	case Started, Stopping, Stopped:
		return true
	}
	return false
}
