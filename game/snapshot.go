// File: game/snapshot.go
package game

import (
	"github.com/lguibr/crypt/physics"
	"github.com/lguibr/crypt/utils"
)

// Body kinds reported in snapshots.
const (
	KindPlayer = "player"
	KindEnemy  = "enemy"
	KindBullet = "bullet"
	KindOther  = "other"
)

// BodySnapshot is one collidable as seen by the last scan.
type BodySnapshot struct {
	ID      uint32       `json:"id"`
	Kind    string       `json:"kind"`
	Layer   uint8        `json:"layer"`
	Rect    physics.Rect `json:"rect"`
	Contact bool         `json:"contact"`
}

// PlayerSnapshot is the public state of one player slot.
type PlayerSnapshot struct {
	Index int  `json:"index"`
	Lives int  `json:"lives"`
	Score int  `json:"score"`
	Hits  int  `json:"hits"`
	Alive bool `json:"alive"`
}

// Snapshot is the debug view of a game, broadcast to subscribers and served over HTTP.
type Snapshot struct {
	MessageType string           `json:"messageType"` // "snapshot"
	SessionID   string           `json:"sessionId"`
	Tick        uint64           `json:"tick"`
	ArenaWidth  float64          `json:"arenaWidth"`
	ArenaHeight float64          `json:"arenaHeight"`
	Players     []PlayerSnapshot `json:"players"`
	Bodies      []BodySnapshot   `json:"bodies"`
	Contacts    int              `json:"contacts"` // Undirected edges in the contact graph
	Events      physics.Stats    `json:"events"`
	Counters    ContactCounters  `json:"counters"`
	GameOver    bool             `json:"gameOver"`
}

// Snapshot captures the current state. Bodies are listed in gather order.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		MessageType: "snapshot",
		Tick:        s.tick,
		ArenaWidth:  s.cfg.ArenaWidth,
		ArenaHeight: s.cfg.ArenaHeight,
		Players:     make([]PlayerSnapshot, 0, s.joined),
		Events:      s.physics.Stats(),
		Counters:    s.rules.Counters(),
		GameOver:    s.GameOver(),
	}
	if s.closed {
		return snap
	}
	snap.Contacts = s.physics.Graph().EdgeCount()

	for index := 0; index < s.joined; index++ {
		ps := PlayerSnapshot{Index: index, Score: s.rules.Score(index)}
		if e, ok := s.players[index]; ok && s.world.Alive(e) {
			p := s.playerMap.Get(e)
			ps.Lives, ps.Hits, ps.Alive = p.Lives, p.Hits, true
		}
		snap.Players = append(snap.Players, ps)
	}

	bodies := s.physics.Bodies()
	snap.Bodies = make([]BodySnapshot, 0, len(bodies))
	for _, b := range bodies {
		if !s.world.Alive(b.Entity) {
			continue
		}
		snap.Bodies = append(snap.Bodies, BodySnapshot{
			ID:      b.Entity.ID(),
			Kind:    s.kindOf(b),
			Layer:   b.Layer,
			Rect:    b.Rect,
			Contact: s.physics.HasContact(b.Entity),
		})
	}
	return snap
}

func (s *Simulation) kindOf(b physics.Collidable) string {
	switch {
	case s.playerMap.Has(b.Entity):
		return KindPlayer
	case s.rules.enemies.Has(b.Entity):
		return KindEnemy
	case s.rules.bullets.Has(b.Entity):
		return KindBullet
	}
	return KindOther
}

// Player returns the snapshot of player index, if it joined.
func (snap Snapshot) Player(index int) (PlayerSnapshot, bool) {
	for _, p := range snap.Players {
		if p.Index == index {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// Count returns how many bodies of kind the snapshot holds.
func (snap Snapshot) Count(kind string) int {
	n := 0
	for _, b := range snap.Bodies {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// LayerName is a display helper for renderers.
func LayerName(layer uint8) string {
	if name, ok := utils.LayerNames[layer]; ok {
		return name
	}
	return "unknown"
}
