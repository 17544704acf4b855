// File: pkg/storage/gcp/client.go
package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"terrable/internal/config"
	"terrable/internal/provider/registry"
	"terrable/pkg/common"
	"terrable/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const sourceURLBase = "https://www.googleapis.com/storage/v1"

func init() {
	registry.RegisterProvider("gcp", registry.Registration{
		ConfigCheck:  isConfigured,
		Initializer:  initialize,
		RequiredKeys: []string{"gcp.project"},
	})
}

// Object access only needs application default credentials; the project is used for usage metrics
func isConfigured(cfg *config.Config) bool {
	return cfg != nil
}

func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	return NewGCPStorage(ctx, cfg.GCP.Project, logger)
}

type GCPStorage struct {
	client    *gcpstorage.Client
	projectID string
	logger    *slog.Logger
}

var (
	_ storage.Storage       = (*GCPStorage)(nil)
	_ storage.UsageReporter = (*GCPStorage)(nil)
)

func NewGCPStorage(ctx context.Context, projectID string, logger *slog.Logger, opts ...option.ClientOption) (*GCPStorage, error) {
	client, err := gcpstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}

	return &GCPStorage{
		client:    client,
		projectID: projectID,
		logger:    logger,
	}, nil
}

func (g *GCPStorage) ProviderName() common.Provider {
	return common.GCP
}

// SourceURL returns the "gcs::" locator Terraform uses to fetch a module from Cloud Storage
func (g *GCPStorage) SourceURL(bucketName, objectKey string) string {
	return fmt.Sprintf("gcs::%s/%s/%s", sourceURLBase, bucketName, objectKey)
}

func (g *GCPStorage) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
