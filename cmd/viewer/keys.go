package main

import (
	"encoding/json"
	"fmt"

	"github.com/lguibr/crypt/game"
)

// keyState turns single key presses into ClientInput. Space toggles firing so
// the ship keeps shooting while it steers.
type keyState struct {
	firing bool
}

// press returns the input to send for key, whether anything should be sent and
// whether the viewer should quit.
func (k *keyState) press(key byte) (in game.ClientInput, send bool, quit bool) {
	switch key {
	case 'w', 'W', 'a', 'A', 's', 'S', 'd', 'D':
		return game.ClientInput{Direction: string(key), Fire: k.firing}, true, false
	case ' ':
		k.firing = !k.firing
		return game.ClientInput{Fire: k.firing}, true, false
	case 'x', 'X':
		return game.ClientInput{Fire: k.firing}, true, false
	case 'q', 'Q', 3: // 3 is Ctrl-C in raw mode
		return game.ClientInput{}, false, true
	}
	return game.ClientInput{}, false, false
}

// envelope is enough of every server frame to route it.
type envelope struct {
	MessageType string `json:"messageType"`
}

// decodeFrame parses one JSON frame from the server into a game message.
func decodeFrame(data []byte) (interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	switch env.MessageType {
	case "snapshot":
		var snap game.Snapshot
		err := json.Unmarshal(data, &snap)
		return snap, err
	case "playerJoined":
		var joined game.PlayerJoined
		err := json.Unmarshal(data, &joined)
		return joined, err
	case "gameOver":
		var over game.GameOverMessage
		err := json.Unmarshal(data, &over)
		return over, err
	}
	return nil, fmt.Errorf("decode frame: unknown message type %q", env.MessageType)
}
