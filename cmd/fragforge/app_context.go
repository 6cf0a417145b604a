package main

import (
	"github.com/fragworks/fragforge/internal/config"
	"github.com/fragworks/fragforge/internal/logger"
	"github.com/fragworks/fragforge/internal/plugin"
)

// appContext is the shared state a command needs: parsed configuration, the
// process logger, and the plugin registry with every configured library
// loaded.
type appContext struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *plugin.Registry
}

func loadApp(flags *rootFlags) (*appContext, error) {
	cfg, err := config.ParseConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: cfg.Log.HumanReadable})
	if err != nil {
		return nil, err
	}

	registry := plugin.NewRegistry(&plugin.RegistryConfig{
		ExpectedABIVersion: cfg.Plugins.ABIVersion,
	}, log)

	for _, lib := range cfg.Plugins.Libraries {
		if err := registry.Load(lib.Path, lib.Alias); err != nil {
			registry.UnloadAll()
			return nil, err
		}
	}

	return &appContext{cfg: cfg, log: log, registry: registry}, nil
}

func (a *appContext) close() {
	a.registry.UnloadAll()
}
