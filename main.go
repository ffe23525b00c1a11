// File: main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/game"
	"github.com/lguibr/crypt/server"
	"github.com/lguibr/crypt/utils"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	profileMode := flag.String("profile", "", "write a profile to the working directory: cpu or mem")
	flag.Parse()

	if err := run(*configPath, *profileMode); err != nil {
		fmt.Fprintln(os.Stderr, "crypt:", err)
		os.Exit(1)
	}
}

func run(configPath, profileMode string) error {
	cfg := utils.DefaultConfig()
	if configPath != "" {
		loaded, err := utils.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, err := utils.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	switch profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", profileMode)
	}

	engine := bollywood.NewEngine(bollywood.WithLogger(logger.Named("engine")))
	managerPID := engine.Spawn(bollywood.NewProps(game.NewRoomManagerProducer(engine, cfg, logger.Named("rooms"))))

	app, err := server.New(engine, managerPID,
		server.WithLogger(logger.Named("server")),
		server.WithWorkers(cfg.BroadcastWorkers),
	)
	if err != nil {
		engine.Shutdown(shutdownTimeout)
		return err
	}
	defer app.Close()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", cfg.ListenAddr))
		serveErr <- httpServer.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			engine.Shutdown(shutdownTimeout)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	engine.Shutdown(shutdownTimeout)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	return nil
}
