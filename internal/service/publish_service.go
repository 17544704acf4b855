// File: internal/service/publish_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"terrable/internal/archive"
	"terrable/internal/catalog"
	"terrable/internal/config"
	"terrable/internal/progress"
	"terrable/pkg/storage"
)

const (
	archiveContentType = "application/zip"
	metadataModule     = "module"
	metadataVersion    = "version"
)

// ConfirmFunc is asked before a module version is written. Returning false skips the module
type ConfirmFunc func(module string, version int) (bool, error)

type PublishOptions struct {
	// Directory whose immediate subdirectories are the candidate modules
	Directory string
	// Module names to restrict publishing to; empty means every subdirectory
	Targets []string
	Force   bool
	DryRun  bool
	Confirm ConfirmFunc
}

type PublishService struct {
	catalog  *catalog.Catalog
	progress *progress.Stream
	logger   *slog.Logger
}

// NewPublishService wires the orchestrator to a catalog. The progress stream may be nil
func NewPublishService(cat *catalog.Catalog, stream *progress.Stream, logger *slog.Logger) *PublishService {
	return &PublishService{
		catalog:  cat,
		progress: stream,
		logger:   logger.With("service", "PublishService"),
	}
}

// Publish bundles every candidate module under opts.Directory and writes a new version for each one
// whose bundle differs from its latest published version.
//
// Modules are processed one after the other. A module that cannot be bundled or compared locally is recorded as failed
// and the run continues; an object store failure aborts the run and the returned result holds the
// outcomes recorded up to that point. All scratch files are removed before Publish returns.
func (s *PublishService) Publish(ctx context.Context, opts PublishOptions) (CommandResult, error) {
	outcomes := []ModuleOutcome{}
	published := map[string]bool{}
	result := func() CommandResult {
		return CommandResult{
			Code:    CodePublished,
			Message: "Modified module targets have been published.",
			Data: map[string]any{
				"published": published,
				"modules":   outcomes,
				"dryRun":    opts.DryRun,
			},
		}
	}

	expanded, err := config.ExpandPath(opts.Directory)
	if err != nil {
		return result(), err
	}
	root, err := filepath.Abs(expanded)
	if err != nil {
		return result(), fmt.Errorf("failed to resolve directory %s: %w", opts.Directory, err)
	}

	candidates, err := s.findModules(root, opts.Targets)
	if err != nil {
		return result(), err
	}
	s.logger.Debug("Starting Publish operation", "directory", root, "modules", len(candidates), "dryRun", opts.DryRun, "force", opts.Force)

	scratch, err := os.MkdirTemp("", "terrable-")
	if err != nil {
		return result(), fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			s.logger.Warn("Failed to remove scratch directory", "path", scratch, "error", err)
		}
	}()

	for _, dir := range candidates {
		outcome, err := s.publishModule(ctx, dir, scratch, opts)
		if err != nil && outcome.Status == "" {
			outcome.Status = StatusFailed
			outcome.Error = err.Error()
		}
		if outcome.Module != "" {
			outcomes = append(outcomes, outcome)
			published[outcome.Module] = outcome.Status == StatusPublished
		}
		if err != nil {
			s.logger.Error("Publish aborted", "module", filepath.Base(dir), "error", err)
			return result(), fmt.Errorf("publishing module %s: %w", filepath.Base(dir), err)
		}
	}

	return result(), nil
}

// Returns the module directories directly under root in name order, filtered by targets
func (s *PublishService) findModules(root string, targets []string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read module directory %s: %w", root, err)
	}

	var dirs []string
	matched := make(map[string]bool, len(targets))
	for _, entry := range entries {
		name := entry.Name()
		if !isDir(filepath.Join(root, name), entry) {
			continue
		}
		if len(targets) > 0 && !slices.Contains(targets, name) {
			continue
		}
		matched[name] = true
		dirs = append(dirs, filepath.Join(root, name))
	}

	for _, t := range targets {
		if !matched[t] {
			s.logger.Warn("Target module directory not found", "target", t, "directory", root)
		}
	}
	return dirs, nil
}

// isDir follows symlinks, so a linked module directory counts as a module
func isDir(path string, entry os.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (s *PublishService) publishModule(ctx context.Context, dir, scratch string, opts PublishOptions) (ModuleOutcome, error) {
	name := filepath.Base(dir)
	outcome := ModuleOutcome{Module: name}
	logger := s.logger.With("module", name)

	if err := ctx.Err(); err != nil {
		return ModuleOutcome{}, err
	}

	bundle, err := archive.Build(dir, filepath.Join(scratch, name+".zip"))
	if err != nil {
		logger.Error("Failed to bundle module", "error", err)
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		return outcome, nil
	}
	logger.Debug("Bundled module", "path", bundle.Path, "entries", bundle.Entries, "size", bundle.Size)
	for _, entry := range bundle.Skipped {
		logger.Warn("Left out of bundle: dangling symlink or not a regular file", "entry", entry)
	}

	versions, err := s.catalog.ListVersions(ctx, name)
	if err != nil {
		return outcome, err
	}

	nextVersion := 1
	if len(versions) > 0 {
		latest := versions[len(versions)-1]
		nextVersion = latest.Version + 1

		if !opts.Force {
			downloadPath, err := s.downloadLatest(ctx, bundle.Path, latest)
			if err != nil {
				return outcome, err
			}

			cmp, err := s.compareWithLatest(bundle.Path, downloadPath, latest)
			if err != nil {
				logger.Error("Failed to compare module with its latest version", "error", err)
				outcome.Status = StatusFailed
				outcome.Error = err.Error()
				return outcome, nil
			}
			outcome.Comparison = &cmp

			if cmp.Identical {
				logger.Info("No changes found, skipping", "version", latest.Version)
				outcome.Status = StatusUnchanged
				outcome.Version = latest.Version
				outcome.Key = latest.Key
				outcome.SourceURL = latest.SourceURL
				return outcome, nil
			}
			logger.Debug("Module changed", "reason", cmp.Reason, "entry", cmp.MismatchedEntry)
		}
	}

	outcome.Version = nextVersion
	outcome.Key = s.catalog.VersionKey(name, nextVersion)

	if opts.Confirm != nil {
		ok, err := opts.Confirm(name, nextVersion)
		if err != nil {
			return outcome, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			logger.Info("Publishing declined", "version", nextVersion)
			outcome.Status = StatusDeclined
			return outcome, nil
		}
	}

	if opts.DryRun {
		logger.Info("Dry run, skipped publishing bundle", "key", outcome.Key)
		outcome.Status = StatusDryRun
		return outcome, nil
	}

	logger.Info("Publishing version", "version", nextVersion, "key", outcome.Key)
	if err := s.upload(ctx, bundle.Path, name, nextVersion, outcome.Key); err != nil {
		return outcome, err
	}

	written, err := s.catalog.GetVersion(ctx, name, nextVersion)
	if err != nil {
		return outcome, fmt.Errorf("failed to read back published version: %w", err)
	}
	outcome.Status = StatusPublished
	outcome.SourceURL = written.SourceURL
	logger.Info("Module published", "key", written.Key, "source", written.SourceURL)

	return outcome, nil
}

// Downloads the latest version next to the new bundle and returns the local path
func (s *PublishService) downloadLatest(ctx context.Context, bundlePath string, latest catalog.ModuleVersion) (string, error) {
	downloadPath := bundlePath + ".compare"
	template := progress.Event{Operation: progress.Download, Module: latest.Name, Key: latest.Key, Total: latest.Size}

	_, err := storage.DownloadToPath(ctx, s.catalog.Store(), s.catalog.Bucket(), latest.Key, downloadPath, func(r io.Reader) io.Reader {
		return progress.NewReader(r, s.progress, template)
	})
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", latest.Key, err)
	}
	return downloadPath, nil
}

// Compares the new bundle against the downloaded latest version. Only an unreadable stored
// archive counts as changed; a fault reading the new bundle is returned
func (s *PublishService) compareWithLatest(bundlePath, downloadPath string, latest catalog.ModuleVersion) (archive.Comparison, error) {
	cmp, err := archive.Compare(bundlePath, downloadPath)
	if errors.Is(err, archive.ErrUnreadableTarget) {
		s.logger.Warn("Stored version could not be compared, treating it as changed", "key", latest.Key, "error", err)
		return archive.Comparison{Reason: archive.ReasonFileDiff}, nil
	}
	return cmp, err
}

func (s *PublishService) upload(ctx context.Context, bundlePath, module string, version int, key string) error {
	file, err := os.Open(bundlePath)
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat bundle: %w", err)
	}

	body := progress.NewReader(file, s.progress, progress.Event{
		Operation: progress.Upload,
		Module:    module,
		Key:       key,
		Total:     stat.Size(),
	})

	err = s.catalog.Store().PutObject(ctx, s.catalog.Bucket(), key, body, stat.Size(), storage.PutOptions{
		ContentType: archiveContentType,
		Metadata: map[string]string{
			metadataModule:  module,
			metadataVersion: strconv.Itoa(version),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
