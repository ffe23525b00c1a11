// File: game/messages.go
package game

import (
	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/utils"
)

// --- Internal Actor Messages ---

// GameTick advances the simulation by one step.
type GameTick struct{}

// PlayerJoinRequest asks for a new ship. Replied to with PlayerJoined.
type PlayerJoinRequest struct{}

// PlayerJoined answers PlayerJoinRequest. Index is -1 when Err is set.
type PlayerJoined struct {
	MessageType string `json:"messageType"` // "playerJoined"
	Index       int    `json:"index"`
	SessionID   string `json:"sessionId"`
	Err         error  `json:"-"`
}

// PlayerInput carries the latest controls of one player.
type PlayerInput struct {
	Index     int
	Direction utils.Vec2
	Fire      bool
}

// SpawnEnemyCommand places an enemy at a given point.
type SpawnEnemyCommand struct {
	Position utils.Vec2
}

// Subscribe registers an actor to receive SnapshotMessage broadcasts.
type Subscribe struct {
	PID *bollywood.PID
}

// Unsubscribe removes a subscriber.
type Unsubscribe struct {
	PID *bollywood.PID
}

// WatchGameOver registers an actor that only wants the GameOverMessage.
type WatchGameOver struct {
	PID *bollywood.PID
}

// GetSnapshotRequest asks for the current Snapshot. Use with Engine.Ask.
type GetSnapshotRequest struct{}

// SnapshotMessage is broadcast to subscribers every BroadcastEvery ticks.
type SnapshotMessage struct {
	Snapshot Snapshot
}

// GameOverMessage is sent to subscribers once every player is out of lives, and
// when the game actor stops.
type GameOverMessage struct {
	MessageType string `json:"messageType"` // "gameOver"
	SessionID   string `json:"sessionId"`
	Reason      string `json:"reason"`
	FinalScores []int  `json:"finalScores"`
	Tick        uint64 `json:"tick"`
}

// --- RoomManagerActor Messages ---

// FindRoomRequest asks the RoomManager for a room to join, creating one if every
// room is full. Spectators are sent to the busiest running room. Use with Engine.Ask.
type FindRoomRequest struct {
	Spectate bool
}

// GetRoomRequest looks up a room by ID. An empty RoomID selects the busiest running room.
type GetRoomRequest struct {
	RoomID string
}

// AssignRoomResponse answers FindRoomRequest and GetRoomRequest. RoomPID is nil
// when Err is set.
type AssignRoomResponse struct {
	RoomID  string
	RoomPID *bollywood.PID
	Err     error
}

// GetRoomListRequest asks the RoomManager for every room it hosts.
type GetRoomListRequest struct{}

// RoomInfo describes one hosted room.
type RoomInfo struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Ended   bool   `json:"ended"`
}

// RoomListResponse answers GetRoomListRequest, ordered by creation.
type RoomListResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// reapRoom is sent by the RoomManager to itself once a finished room has lingered.
type reapRoom struct {
	RoomID string
}

// --- WebSocket Messages (Client -> Server) ---

// ClientInput is the JSON a viewer sends over the subscribe socket.
type ClientInput struct {
	Direction string `json:"direction"` // ArrowLeft, ArrowRight, ArrowUp, ArrowDown or WASD
	Fire      bool   `json:"fire"`
}
