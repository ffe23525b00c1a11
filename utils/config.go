// File: utils/config.go
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configurable simulation parameters.
type Config struct {
	// Timing
	TickPeriod     time.Duration `json:"tickPeriod" yaml:"tickPeriod"`         // Time between simulation ticks
	BroadcastEvery int           `json:"broadcastEvery" yaml:"broadcastEvery"` // Ticks between debug snapshot broadcasts

	// Arena
	ArenaWidth  float64 `json:"arenaWidth" yaml:"arenaWidth"`   // World units, centered on the origin
	ArenaHeight float64 `json:"arenaHeight" yaml:"arenaHeight"` // World units, centered on the origin

	// Physics
	QueueCapacity int `json:"queueCapacity" yaml:"queueCapacity"` // Initial capacity of each contact queue
	MaxEntities   int `json:"maxEntities" yaml:"maxEntities"`     // Contact graph slot limit, 0 = unbounded

	// Player
	PlayerHalfSize     float64 `json:"playerHalfSize" yaml:"playerHalfSize"`
	PlayerSpeed        float64 `json:"playerSpeed" yaml:"playerSpeed"` // Units per tick
	PlayerLives        int     `json:"playerLives" yaml:"playerLives"`
	PlayerFireCooldown int     `json:"playerFireCooldown" yaml:"playerFireCooldown"` // Ticks between shots

	// Enemies
	EnemyHalfSize   float64 `json:"enemyHalfSize" yaml:"enemyHalfSize"`
	EnemySpeed      float64 `json:"enemySpeed" yaml:"enemySpeed"` // Units per tick
	EnemyHP         int     `json:"enemyHP" yaml:"enemyHP"`
	EnemyScore      int     `json:"enemyScore" yaml:"enemyScore"`           // Score awarded per destroyed enemy
	EnemySpawnEvery int     `json:"enemySpawnEvery" yaml:"enemySpawnEvery"` // Ticks between spawns, 0 disables spawning
	MaxEnemies      int     `json:"maxEnemies" yaml:"maxEnemies"`

	// Bullets
	BulletHalfSize float64 `json:"bulletHalfSize" yaml:"bulletHalfSize"`
	BulletSpeed    float64 `json:"bulletSpeed" yaml:"bulletSpeed"` // Units per tick
	BulletDamage   int     `json:"bulletDamage" yaml:"bulletDamage"`
	BulletLifetime int     `json:"bulletLifetime" yaml:"bulletLifetime"` // Ticks before a bullet expires

	// Randomness
	Seed uint64 `json:"seed" yaml:"seed"`

	// Rooms
	MaxRooms   int           `json:"maxRooms" yaml:"maxRooms"`     // Concurrent games the room manager will host
	RoomLinger time.Duration `json:"roomLinger" yaml:"roomLinger"` // How long a finished room stays queryable

	// Server
	ListenAddr       string `json:"listenAddr" yaml:"listenAddr"`
	BroadcastWorkers int    `json:"broadcastWorkers" yaml:"broadcastWorkers"` // Goroutines writing snapshots to subscribers

	Log LogConfig `json:"log" yaml:"log"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	arena := 200.0

	return Config{
		// Timing
		TickPeriod:     16 * time.Millisecond,
		BroadcastEvery: 3,

		// Arena
		ArenaWidth:  arena,
		ArenaHeight: arena,

		// Physics
		QueueCapacity: 256,
		MaxEntities:   0,

		// Player
		PlayerHalfSize:     arena / 50, // 4
		PlayerSpeed:        arena / 100,
		PlayerLives:        3,
		PlayerFireCooldown: 8,

		// Enemies
		EnemyHalfSize:   arena / 40, // 5
		EnemySpeed:      arena / 400,
		EnemyHP:         2,
		EnemyScore:      10,
		EnemySpawnEvery: 60,
		MaxEnemies:      24,

		// Bullets
		BulletHalfSize: arena / 200, // 1
		BulletSpeed:    arena / 50,
		BulletDamage:   1,
		BulletLifetime: 90,

		Seed: 42,

		// Rooms
		MaxRooms:   16,
		RoomLinger: 30 * time.Second,

		// Server
		ListenAddr:       ":3001",
		BroadcastWorkers: 4,

		Log: DefaultLogConfig(),
	}
}

// LoadConfig reads a YAML or JSON config file. Fields missing from the file keep
// their DefaultConfig values. The result is validated before it is returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// jsonDuration accepts "16ms" style strings as well as integer nanoseconds.
type jsonDuration time.Duration

func (d *jsonDuration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(text)
		if err != nil {
			return err
		}
		*d = jsonDuration(parsed)
		return nil
	}
	var nanos int64
	if err := json.Unmarshal(data, &nanos); err != nil {
		return err
	}
	*d = jsonDuration(nanos)
	return nil
}

// UnmarshalJSON decodes a JSON config so that durations read the same as in YAML.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		TickPeriod jsonDuration `json:"tickPeriod"`
		RoomLinger jsonDuration `json:"roomLinger"`
	}{
		plain:      (*plain)(c),
		TickPeriod: jsonDuration(c.TickPeriod),
		RoomLinger: jsonDuration(c.RoomLinger),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.TickPeriod = time.Duration(aux.TickPeriod)
	c.RoomLinger = time.Duration(aux.RoomLinger)
	return nil
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	switch {
	case c.TickPeriod <= 0:
		return fmt.Errorf("%w: tickPeriod must be positive, got %v", ErrInvalidConfig, c.TickPeriod)
	case c.BroadcastEvery < 1:
		return fmt.Errorf("%w: broadcastEvery must be at least 1, got %d", ErrInvalidConfig, c.BroadcastEvery)
	case c.ArenaWidth <= 0 || c.ArenaHeight <= 0:
		return fmt.Errorf("%w: arena must have a positive size, got %gx%g", ErrInvalidConfig, c.ArenaWidth, c.ArenaHeight)
	case c.QueueCapacity < 0:
		return fmt.Errorf("%w: queueCapacity must not be negative, got %d", ErrInvalidConfig, c.QueueCapacity)
	case c.MaxEntities < 0:
		return fmt.Errorf("%w: maxEntities must not be negative, got %d", ErrInvalidConfig, c.MaxEntities)
	case c.PlayerHalfSize <= 0 || c.EnemyHalfSize <= 0 || c.BulletHalfSize <= 0:
		return fmt.Errorf("%w: prefab sizes must be positive", ErrInvalidConfig)
	case c.PlayerLives < 1:
		return fmt.Errorf("%w: playerLives must be at least 1, got %d", ErrInvalidConfig, c.PlayerLives)
	case c.EnemyHP < 1:
		return fmt.Errorf("%w: enemyHP must be at least 1, got %d", ErrInvalidConfig, c.EnemyHP)
	case c.BulletLifetime < 1:
		return fmt.Errorf("%w: bulletLifetime must be at least 1, got %d", ErrInvalidConfig, c.BulletLifetime)
	case c.EnemySpawnEvery < 0 || c.MaxEnemies < 0:
		return fmt.Errorf("%w: enemy spawning parameters must not be negative", ErrInvalidConfig)
	case c.MaxRooms < 1:
		return fmt.Errorf("%w: maxRooms must be at least 1, got %d", ErrInvalidConfig, c.MaxRooms)
	case c.RoomLinger < 0:
		return fmt.Errorf("%w: roomLinger must not be negative, got %v", ErrInvalidConfig, c.RoomLinger)
	case c.BroadcastWorkers < 1:
		return fmt.Errorf("%w: broadcastWorkers must be at least 1, got %d", ErrInvalidConfig, c.BroadcastWorkers)
	}
	return nil
}
