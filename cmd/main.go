package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/maltier/internal/challenge"
	"github.com/desertthunder/maltier/internal/services"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/desertthunder/maltier/internal/store"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var mal *services.MALClient
	if svc, err := services.NewMALClient(config.Credentials.MAL, config.Fetch, nil); err == nil {
		mal = svc
	} else {
		logger.Debug("MAL client unavailable", "error", err)
	}

	var sessionStore *store.Store
	if st, err := store.Open(config.Store.Path); err == nil {
		sessionStore = st
	} else {
		logger.Warn("session store unavailable", "path", config.Store.Path, "error", err)
	}

	challenges := challenge.NewStore(time.Duration(config.Challenge.TTLSeconds) * time.Second)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Challenges: challenges,
		Store:      sessionStore,
		MAL:        mal,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "maltier",
		Usage:    "Broker MyAnimeList sessions and browse tiered lists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
