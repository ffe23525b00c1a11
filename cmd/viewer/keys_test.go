package main

import (
	"encoding/json"
	"testing"

	"github.com/lguibr/crypt/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStatePress(t *testing.T) {
	keys := &keyState{}

	in, send, quit := keys.press('d')
	assert.True(t, send)
	assert.False(t, quit)
	assert.Equal(t, game.ClientInput{Direction: "d"}, in)

	in, send, _ = keys.press(' ')
	assert.True(t, send)
	assert.Equal(t, game.ClientInput{Fire: true}, in)

	in, _, _ = keys.press('W')
	assert.Equal(t, game.ClientInput{Direction: "W", Fire: true}, in, "firing persists while steering")

	_, send, quit = keys.press('z')
	assert.False(t, send)
	assert.False(t, quit)

	_, _, quit = keys.press('q')
	assert.True(t, quit)
	_, _, quit = keys.press(3)
	assert.True(t, quit)
}

func TestDecodeFrame(t *testing.T) {
	data, err := json.Marshal(game.Snapshot{MessageType: "snapshot", Tick: 12})
	require.NoError(t, err)
	msg, err := decodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), msg.(game.Snapshot).Tick)

	msg, err = decodeFrame([]byte(`{"messageType":"gameOver","reason":"stopped","finalScores":[3]}`))
	require.NoError(t, err)
	assert.Equal(t, []int{3}, msg.(game.GameOverMessage).FinalScores)

	msg, err = decodeFrame([]byte(`{"messageType":"playerJoined","index":2}`))
	require.NoError(t, err)
	assert.Equal(t, 2, msg.(game.PlayerJoined).Index)

	_, err = decodeFrame([]byte(`{"messageType":"bogus"}`))
	assert.Error(t, err)
	_, err = decodeFrame([]byte(`not json`))
	assert.Error(t, err)
}

func TestToRaw(t *testing.T) {
	assert.Equal(t, "a\r\nb\r\n", toRaw("a\nb\n"))
}
