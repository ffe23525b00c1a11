// File: test/e2e_setup_test.go
package test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/game"
	"github.com/lguibr/crypt/server"
	"github.com/lguibr/crypt/utils"
	"github.com/stretchr/testify/require"
)

// E2ESetupResult holds the results of the setup function.
type E2ESetupResult struct {
	Engine         *bollywood.Engine
	RoomManagerPID *bollywood.PID
	App            *server.Server
	Server         *httptest.Server
	WsURL          string
	Origin         string
	Cfg            utils.Config
}

// e2eConfig is a fast, deterministic game: no automatic spawns and static enemies.
func e2eConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.TickPeriod = 5 * time.Millisecond
	cfg.BroadcastEvery = 2
	cfg.EnemySpawnEvery = 0
	cfg.EnemySpeed = 0
	cfg.EnemyHP = 1
	return cfg
}

// SetupE2ETest starts an engine, the RoomManager and the HTTP server in front of it.
func SetupE2ETest(t *testing.T, cfg utils.Config) E2ESetupResult {
	t.Helper()

	engine := bollywood.NewEngine()
	managerPID := engine.Spawn(bollywood.NewProps(game.NewRoomManagerProducer(engine, cfg, nil)))
	require.NotNil(t, managerPID, "RoomManager PID should not be nil")

	app, err := server.New(engine, managerPID, server.WithWorkers(cfg.BroadcastWorkers))
	require.NoError(t, err)
	s := httptest.NewServer(app.Routes())

	return E2ESetupResult{
		Engine:         engine,
		RoomManagerPID: managerPID,
		App:            app,
		Server:         s,
		WsURL:          "ws" + strings.TrimPrefix(s.URL, "http") + "/subscribe",
		Origin:         "http://localhost/",
		Cfg:            cfg,
	}
}

// TeardownE2ETest shuts down the engine and closes the server.
func TeardownE2ETest(t *testing.T, setupResult E2ESetupResult, shutdownTimeout time.Duration) {
	t.Helper()
	if setupResult.Server != nil {
		setupResult.Server.Close()
	}
	if setupResult.Engine != nil {
		setupResult.Engine.Shutdown(shutdownTimeout)
	}
	if setupResult.App != nil {
		setupResult.App.Close()
	}
}
