package utils

// Collision layers. Contacts are only evaluated between different layers.
const (
	LayerFriendly uint8 = 0
	LayerHostile  uint8 = 1
)

// LayerNames is used by debug output.
var LayerNames = map[uint8]string{
	LayerFriendly: "friendly",
	LayerHostile:  "hostile",
}

// MaxPlayers is the number of player slots in one game.
const MaxPlayers = 4
