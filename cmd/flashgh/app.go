package main

import (
	"fmt"

	"flashgh/internal/config"
	"flashgh/internal/credentials"
	"flashgh/internal/logging"
	"flashgh/internal/remote"
	"flashgh/internal/syncer"
)

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	token  credentials.Token
	client *remote.Client
	engine *syncer.Engine
	logger *logging.AppLogger
}

func newApp() (*app, error) {
	logger := logging.GetDefault()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	token := credentials.NewManager().Resolve(cfg)
	if token.Anonymous() {
		logger.Info("No GitHub token found; using anonymous access (read-only, low rate limit)")
	} else {
		logger.Debug("Resolved GitHub token", "source", token.Source, "detail", token.Detail)
	}

	client, err := remote.NewClient(remote.OptionsFromConfig(cfg, token.Value))
	if err != nil {
		return nil, fmt.Errorf("create GitHub client: %w", err)
	}

	return &app{
		cfg:    cfg,
		token:  token,
		client: client,
		engine: syncer.NewEngine(client, syncer.OptionsFromConfig(cfg)),
		logger: logger,
	}, nil
}
