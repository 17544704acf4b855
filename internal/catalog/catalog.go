// File: internal/catalog/catalog.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"terrable/pkg/storage"
)

const (
	delimiter     = "/"
	archiveSuffix = ".zip"
)

// ErrNotFound is returned when a module or version has no matching objects in the bucket
var ErrNotFound = errors.New("not found")

// Catalog derives module and version information from object listings under a key prefix.
// It holds no state of its own; every call reflects the bucket at call time.
type Catalog struct {
	store  storage.Storage
	bucket string
	prefix string
	logger *slog.Logger
}

func New(store storage.Storage, bucketName, prefix string, logger *slog.Logger) *Catalog {
	return &Catalog{
		store:  store,
		bucket: bucketName,
		prefix: strings.Trim(prefix, delimiter),
		logger: logger.With("component", "Catalog"),
	}
}

func (c *Catalog) Bucket() string { return c.bucket }
func (c *Catalog) Prefix() string { return c.prefix }
func (c *Catalog) Store() storage.Storage { return c.store }

// ModulePrefix returns the key prefix holding every version of the module, with a trailing "/"
func (c *Catalog) ModulePrefix(module string) string {
	return c.join(module) + delimiter
}

// VersionKey returns the canonical key of a module version, "<prefix>/<module>/<version>.zip"
func (c *Catalog) VersionKey(module string, version int) string {
	return c.join(module, strconv.Itoa(version)+archiveSuffix)
}

func (c *Catalog) join(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, delimiter)
	}
	return c.prefix + delimiter + strings.Join(parts, delimiter)
}

// ListModules returns the sorted, de-duplicated module names found one level below the prefix
func (c *Catalog) ListModules(ctx context.Context) ([]string, error) {
	root := ""
	if c.prefix != "" {
		root = c.prefix + delimiter
	}
	c.logger.Debug("Listing modules", "bucket", c.bucket, "prefix", root)

	prefixes, err := c.store.ListCommonPrefixes(ctx, c.bucket, root, delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules in bucket %s: %w", c.bucket, err)
	}

	seen := make(map[string]struct{}, len(prefixes))
	modules := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		trimmed := strings.Trim(p, delimiter)
		if trimmed == "" {
			continue
		}
		name := trimmed[strings.LastIndex(trimmed, delimiter)+1:]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		modules = append(modules, name)
	}
	sort.Strings(modules)

	c.logger.Debug("Listed modules", "count", len(modules))
	return modules, nil
}

// ListVersions returns every stored version of the module ordered by version number, oldest first.
// A module that was never published yields an empty slice and no error.
func (c *Catalog) ListVersions(ctx context.Context, module string) ([]ModuleVersion, error) {
	prefix := c.ModulePrefix(module)
	c.logger.Debug("Listing versions", "module", module, "prefix", prefix)

	objects, err := c.store.ListObjects(ctx, c.bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of module %s: %w", module, err)
	}

	versions := make([]ModuleVersion, 0, len(objects))
	for _, obj := range objects {
		mv := newModuleVersion(module, obj, c.store, c.bucket)
		if mv.Version == 0 {
			c.logger.Debug("Key has no parsable version, treating it as version 0", "key", mv.Key)
		}
		versions = append(versions, mv)
	}

	// Numeric ordering, so 10 sorts after 9
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})
	return versions, nil
}

// Latest returns the newest version of the module; ok is false when the module has no versions
func (c *Catalog) Latest(ctx context.Context, module string) (ModuleVersion, bool, error) {
	versions, err := c.ListVersions(ctx, module)
	if err != nil {
		return ModuleVersion{}, false, err
	}
	if len(versions) == 0 {
		return ModuleVersion{}, false, nil
	}
	return versions[len(versions)-1], true, nil
}

// GetVersion looks up the exact key of a module version
func (c *Catalog) GetVersion(ctx context.Context, module string, version int) (ModuleVersion, error) {
	key := c.VersionKey(module, version)

	objects, err := c.store.ListObjects(ctx, c.bucket, key)
	if err != nil {
		return ModuleVersion{}, fmt.Errorf("failed to look up %s: %w", key, err)
	}

	for _, obj := range objects {
		if strings.TrimLeft(obj.Key, delimiter) == key {
			return newModuleVersion(module, obj, c.store, c.bucket), nil
		}
	}
	return ModuleVersion{}, fmt.Errorf("version %d of module %s: %w", version, module, ErrNotFound)
}
