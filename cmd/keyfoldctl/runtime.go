package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/keyfoldhq/keyfold/pkg/config"
	"github.com/keyfoldhq/keyfold/pkg/db"
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
)

// loadConfig reads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}

// openServer wires a server against the configured database. Commands that
// only need the stores and engines use this without calling Start.
func openServer() (*server.Server, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel})
	if err != nil {
		return nil, err
	}

	return server.NewServer(cfg, database, newLogger(cfg)), nil
}

// resolveConfig finds a project and config by slug in the default workspace.
func resolveConfig(s *server.Server, projectSlug, configSlug string) (*model.Project, *model.Config, error) {
	workspace, err := s.Workspaces.EnsureDefault()
	if err != nil {
		return nil, nil, err
	}
	project, err := s.Projects.GetBySlug(workspace.ID, projectSlug)
	if err != nil {
		return nil, nil, fmt.Errorf("project %q: %w", projectSlug, err)
	}
	config, err := s.Configs.GetBySlug(project.ID, configSlug)
	if err != nil {
		return nil, nil, fmt.Errorf("config %q: %w", configSlug, err)
	}
	return project, config, nil
}
