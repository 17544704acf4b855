// File: internal/service/list_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"terrable/internal/catalog"
	"terrable/pkg/storage"
)

type ListOptions struct {
	// Restricts the listing to one module; empty lists every module under the prefix
	Module  string
	Verbose bool
	Latest  bool
}

type ListService struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewListService(cat *catalog.Catalog, logger *slog.Logger) *ListService {
	return &ListService{
		catalog: cat,
		logger:  logger.With("service", "ListService"),
	}
}

// List reads the catalog and shapes it for presentation:
//   - no module, no flags: module names only
//   - no module, Verbose or Latest: every module's versions, or only each latest version
//   - a module with Latest: that module's latest version, failing with catalog.ErrNotFound if none exists
//   - a module otherwise: all of that module's versions, oldest first
func (s *ListService) List(ctx context.Context, opts ListOptions) (CommandResult, error) {
	s.logger.Debug("Starting List operation", "module", opts.Module, "verbose", opts.Verbose, "latest", opts.Latest)

	if opts.Module != "" {
		return s.listModule(ctx, opts)
	}

	modules, err := s.catalog.ListModules(ctx)
	if err != nil {
		return CommandResult{}, err
	}

	if !opts.Verbose && !opts.Latest {
		return CommandResult{
			Code:    CodeListedModules,
			Message: "Modules have been listed.",
			Data:    map[string]any{"modules": modules},
		}, nil
	}

	data := map[string]any{"modules": modules}
	if opts.Verbose {
		s.addBucketUsage(ctx, data)
	}

	if opts.Latest {
		latest := make(map[string]catalog.ModuleVersion, len(modules))
		for _, m := range modules {
			v, ok, err := s.catalog.Latest(ctx, m)
			if err != nil {
				return CommandResult{}, err
			}
			if ok {
				latest[m] = v
			}
		}
		data["latest"] = latest
		return CommandResult{
			Code:    CodeListedLatestVersion,
			Message: "Latest module versions have been listed.",
			Data:    data,
		}, nil
	}

	versions := make(map[string][]catalog.ModuleVersion, len(modules))
	for _, m := range modules {
		vs, err := s.catalog.ListVersions(ctx, m)
		if err != nil {
			return CommandResult{}, err
		}
		versions[m] = vs
	}
	data["versions"] = versions
	return CommandResult{
		Code:    CodeListedVersions,
		Message: "Module versions have been listed.",
		Data:    data,
	}, nil
}

func (s *ListService) listModule(ctx context.Context, opts ListOptions) (CommandResult, error) {
	if opts.Latest {
		latest, ok, err := s.catalog.Latest(ctx, opts.Module)
		if err != nil {
			return CommandResult{}, err
		}
		if !ok {
			return CommandResult{}, fmt.Errorf("module %s has no published versions: %w", opts.Module, catalog.ErrNotFound)
		}
		return CommandResult{
			Code:    CodeListedLatestVersion,
			Message: fmt.Sprintf("Latest version of %s has been listed.", opts.Module),
			Data:    map[string]any{"module": opts.Module, "latest": latest},
		}, nil
	}

	versions, err := s.catalog.ListVersions(ctx, opts.Module)
	if err != nil {
		return CommandResult{}, err
	}
	return CommandResult{
		Code:    CodeListedVersions,
		Message: fmt.Sprintf("Versions of %s have been listed.", opts.Module),
		Data:    map[string]any{"module": opts.Module, "versions": versions},
	}, nil
}

// Usage is informational; a backend that cannot report it never fails the listing
func (s *ListService) addBucketUsage(ctx context.Context, data map[string]any) {
	reporter, ok := s.catalog.Store().(storage.UsageReporter)
	if !ok {
		return
	}

	usage, err := reporter.BucketUsage(ctx, s.catalog.Bucket())
	if err != nil {
		s.logger.Warn("Failed to fetch bucket usage", "bucket", s.catalog.Bucket(), "error", err)
		return
	}
	data["bucketUsage"] = usage
}
