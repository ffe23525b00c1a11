// File: server/websocket.go
package server

import (
	"github.com/lguibr/crypt/game"
	"github.com/lguibr/crypt/render"
	"golang.org/x/net/websocket"
)

// Frame formats a subscriber can ask for with ?format=.
const (
	FormatJSON  = "json"
	FormatASCII = "ascii"
)

// frameWriter sends one outbound frame to a client.
type frameWriter func(frame interface{}) error

// newFrameWriter returns a writer for ws. In ASCII mode snapshots are rendered to
// text frames and everything else is still sent as JSON.
func newFrameWriter(ws *websocket.Conn, format string, opts render.Options) frameWriter {
	return func(frame interface{}) error {
		if snap, ok := frame.(game.Snapshot); ok && format == FormatASCII {
			return websocket.Message.Send(ws, render.Frame(snap, opts))
		}
		return websocket.JSON.Send(ws, frame)
	}
}

// wireFrame unwraps actor messages into what goes on the socket.
func wireFrame(msg interface{}) (interface{}, bool) {
	switch m := msg.(type) {
	case game.SnapshotMessage:
		return m.Snapshot, true
	case game.GameOverMessage:
		return m, true
	case game.PlayerJoined:
		return m, true
	}
	return nil, false
}
