// File: component/component.go
package component

import "github.com/lguibr/crypt/utils"

// Position is the world-space center of an entity.
type Position struct {
	utils.Vec2
}

// Velocity is applied to Position once per tick.
type Velocity struct {
	utils.Vec2
}

// Box is an axis-aligned shape given by its half extents.
type Box struct {
	Half utils.Vec2
}

// Collider marks an entity as part of the collidable population.
type Collider struct {
	Layer uint8
}

// WorldBounds caches the world rectangle derived from Position and Box.
type WorldBounds struct {
	Left, Right, Top, Bottom float64
}

// Player is a controllable ship.
type Player struct {
	Index    int
	Lives    int
	Input    utils.Vec2 // Latest requested direction
	Firing   bool
	Cooldown int // Ticks until the next shot is allowed
	Hits     int // Times this ship has been struck
}

// Enemy is a hostile that drifts toward the nearest player.
type Enemy struct {
	HP int
}

// Bullet damages the first enemy it starts touching.
type Bullet struct {
	Damage int
	Owner  int // Player index
	Spent  bool
}

// Lifetime despawns the entity when Ticks reaches zero.
type Lifetime struct {
	Ticks int
}
