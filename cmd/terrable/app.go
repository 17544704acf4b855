// File: cmd/terrable/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"terrable/internal/catalog"
	"terrable/internal/config"
	"terrable/internal/logger"
	"terrable/internal/provider/factory"
	"terrable/pkg/formatter"
	"terrable/pkg/storage"

	// Registers the storage backends
	_ "terrable/internal/provider"

	"github.com/spf13/cobra"
)

type appContextKey struct{}

// appContainer holds the dependencies shared by every command.
// The object store is opened on first use so config commands work without a bucket
type appContainer struct {
	Config          *config.Config
	ConfigManager   *config.ConfigManager
	ProviderFactory *factory.Factory
	Formatter       *formatter.ModuleFormatter
	Output          formatter.OutputFormat
	Logger          *slog.Logger

	store   storage.Storage
	catalog *catalog.Catalog
}

func newApp(cmd *cobra.Command, f *rootFlags) (*appContainer, error) {
	log := logger.NewLogger(f.debug)

	output, err := formatter.ParseOutputFormat(f.output)
	if err != nil {
		return nil, err
	}

	cfgManager, err := config.NewConfigManager()
	if err != nil {
		return nil, err
	}
	if err := cfgManager.BindFlags(cmd.Flags(), flagBindings); err != nil {
		return nil, err
	}

	cfg, err := cfgManager.LoadConfig()
	if err != nil {
		return nil, err
	}
	log.Debug("Configuration loaded", "path", cfgManager.ConfigPath(), "provider", cfg.Provider, "bucket", cfg.Bucket, "prefix", cfg.Prefix)

	return &appContainer{
		Config:          cfg,
		ConfigManager:   cfgManager,
		ProviderFactory: factory.NewFactory(cfg, log),
		Formatter:       formatter.NewModuleFormatter(),
		Output:          output,
		Logger:          log,
	}, nil
}

// Catalog validates the configuration and opens the configured backend once
func (a *appContainer) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	if a.catalog != nil {
		return a.catalog, nil
	}

	if err := a.Config.Validate(); err != nil {
		return nil, err
	}

	store, err := a.ProviderFactory.Open(ctx)
	if err != nil {
		return nil, err
	}

	a.store = store
	a.catalog = catalog.New(store, a.Config.Bucket, a.Config.Prefix, a.Logger)
	return a.catalog, nil
}

func (a *appContainer) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.catalog = nil, nil
	return err
}

func withApp(ctx context.Context, app *appContainer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, appContextKey{}, app)
}

func appFromContext(ctx context.Context) (*appContainer, error) {
	if ctx == nil {
		return nil, errors.New("application context is not initialized")
	}
	app, ok := ctx.Value(appContextKey{}).(*appContainer)
	if !ok || app == nil {
		return nil, fmt.Errorf("application context is not initialized")
	}
	return app, nil
}
