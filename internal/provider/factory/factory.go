// File: internal/provider/factory/factory.go
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"terrable/internal/config"
	"terrable/internal/provider/registry"
	"terrable/pkg/storage"
)

type Factory struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Opens the backend selected by the configuration's provider setting
func (f *Factory) Open(ctx context.Context) (storage.Storage, error) {
	return f.GetStorageProvider(ctx, f.cfg.Provider)
}

// Initializes and returns the storage client for the named backend
func (f *Factory) GetStorageProvider(ctx context.Context, providerName string) (storage.Storage, error) {
	normalizedName := strings.ToLower(providerName)
	providerLogger := f.logger.With("provider", normalizedName)

	registration, exists := registry.GetRegistration(normalizedName)
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s. Supported providers are: %v", providerName, registry.GetSupportedProviders())
	}

	if !registration.ConfigCheck(f.cfg) {
		return nil, fmt.Errorf("provider '%s' is not configured. Use 'terrable config set <key> <value>' for: %s",
			normalizedName, strings.Join(registration.RequiredKeys, ", "))
	}

	client, err := registration.Initializer(ctx, f.cfg, providerLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", normalizedName, err)
	}

	providerLogger.Debug("Storage backend ready", "bucket", f.cfg.Bucket)
	return client, nil
}
