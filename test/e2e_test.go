// File: test/e2e_test.go
package test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lguibr/crypt/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestE2E_BulletKillsEnemy(t *testing.T) {
	setup := SetupE2ETest(t, e2eConfig())
	defer TeardownE2ETest(t, setup, 2*time.Second)

	ws, err := websocket.Dial(setup.WsURL, "", setup.Origin)
	require.NoError(t, err)
	defer ws.Close()

	var joined game.PlayerJoined
	require.NoError(t, ReadWsJSONMessage(t, ws, time.Second, &joined))
	require.Equal(t, 0, joined.Index)
	require.NotEmpty(t, joined.SessionID)

	// Player 0 starts at x = -W/2 + W/5. Put an enemy straight above it.
	x := -setup.Cfg.ArenaWidth/2 + setup.Cfg.ArenaWidth/5
	require.NoError(t, PostSpawn(t, setup.Server.URL, joined.SessionID, x, 0))
	require.NoError(t, websocket.JSON.Send(ws, game.ClientInput{Fire: true}))

	_, raw, err := ReadUntil(t, ws, 3*time.Second, func(kind string, raw json.RawMessage) bool {
		if kind != "snapshot" {
			return false
		}
		var snap game.Snapshot
		return json.Unmarshal(raw, &snap) == nil && snap.Counters.Kills > 0
	})
	require.NoError(t, err, "a bullet should kill the enemy")

	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, joined.SessionID, snap.SessionID)
	assert.GreaterOrEqual(t, snap.Events.Start, uint64(1))
	p, ok := snap.Player(0)
	require.True(t, ok)
	assert.Equal(t, setup.Cfg.EnemyScore, p.Score)

	state, err := GetState(t, setup.Server.URL, joined.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Count(game.KindEnemy))
	assert.GreaterOrEqual(t, state.Tick, snap.Tick)
}

func TestE2E_RammedUntilGameOver(t *testing.T) {
	setup := SetupE2ETest(t, e2eConfig())
	defer TeardownE2ETest(t, setup, 2*time.Second)

	ws, err := websocket.Dial(setup.WsURL, "", setup.Origin)
	require.NoError(t, err)
	defer ws.Close()

	var joined game.PlayerJoined
	require.NoError(t, ReadWsJSONMessage(t, ws, time.Second, &joined))
	require.Equal(t, 0, joined.Index)

	x := -setup.Cfg.ArenaWidth/2 + setup.Cfg.ArenaWidth/5
	y := -setup.Cfg.ArenaHeight/2 + 2*setup.Cfg.PlayerHalfSize
	for i := 0; i < setup.Cfg.PlayerLives; i++ {
		require.NoError(t, PostSpawn(t, setup.Server.URL, joined.SessionID, x, y))
		time.Sleep(4 * setup.Cfg.TickPeriod)
	}

	_, raw, err := ReadUntil(t, ws, 3*time.Second, func(kind string, _ json.RawMessage) bool {
		return kind == "gameOver"
	})
	require.NoError(t, err, "game should end once the only player is out of lives")

	var over game.GameOverMessage
	require.NoError(t, json.Unmarshal(raw, &over))
	assert.Equal(t, joined.SessionID, over.SessionID)
	assert.Equal(t, []int{0}, over.FinalScores)

	state, err := GetState(t, setup.Server.URL, joined.SessionID)
	require.NoError(t, err, "finished rooms stay queryable while they linger")
	assert.True(t, state.GameOver)
	p, ok := state.Player(0)
	require.True(t, ok)
	assert.False(t, p.Alive)
	assert.GreaterOrEqual(t, state.Counters.Hits, uint64(setup.Cfg.PlayerLives))

	// The next player gets a fresh room.
	ws2, err := websocket.Dial(setup.WsURL, "", setup.Origin)
	require.NoError(t, err)
	defer ws2.Close()
	var next game.PlayerJoined
	require.NoError(t, ReadWsJSONMessage(t, ws2, time.Second, &next))
	assert.Equal(t, 0, next.Index)
	assert.NotEqual(t, joined.SessionID, next.SessionID)

	rooms, err := GetRooms(t, setup.Server.URL)
	require.NoError(t, err)
	require.Len(t, rooms.Rooms, 2)
	assert.True(t, rooms.Rooms[0].Ended)
	assert.False(t, rooms.Rooms[1].Ended)
}

func TestE2E_SpectatorStreamsWithoutJoining(t *testing.T) {
	setup := SetupE2ETest(t, e2eConfig())
	defer TeardownE2ETest(t, setup, 2*time.Second)

	ws, err := websocket.Dial(setup.WsURL+"?spectate=1", "", setup.Origin)
	require.NoError(t, err)
	defer ws.Close()

	var joined game.PlayerJoined
	require.NoError(t, ReadWsJSONMessage(t, ws, time.Second, &joined))
	assert.Equal(t, -1, joined.Index, "spectators take no slot")
	require.NotEmpty(t, joined.SessionID)

	_, _, err = ReadUntil(t, ws, 2*time.Second, func(kind string, _ json.RawMessage) bool {
		return kind == "snapshot"
	})
	require.NoError(t, err)

	state, err := GetState(t, setup.Server.URL, joined.SessionID)
	require.NoError(t, err)
	assert.Empty(t, state.Players)
}

func TestE2E_EngineShutdownEndsStream(t *testing.T) {
	setup := SetupE2ETest(t, e2eConfig())
	defer TeardownE2ETest(t, setup, 2*time.Second)

	ws, err := websocket.Dial(setup.WsURL+"?spectate=1", "", setup.Origin)
	require.NoError(t, err)
	defer ws.Close()
	_, _, err = ReadUntil(t, ws, 2*time.Second, func(kind string, _ json.RawMessage) bool { return kind == "snapshot" })
	require.NoError(t, err)

	setup.Engine.Stop(setup.RoomManagerPID)

	_, raw, err := ReadUntil(t, ws, 2*time.Second, func(kind string, _ json.RawMessage) bool { return kind == "gameOver" })
	require.NoError(t, err)
	var over game.GameOverMessage
	require.NoError(t, json.Unmarshal(raw, &over))
	assert.Equal(t, "stopped", over.Reason)
}
