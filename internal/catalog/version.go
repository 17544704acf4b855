// File: internal/catalog/version.go
package catalog

import (
	"path"
	"strconv"
	"strings"
	"time"

	"terrable/pkg/storage"
)

// ModuleVersion is one published archive of one module. Every field is derived once
// from the listing entry it was built from.
type ModuleVersion struct {
	Name         string    `json:"name" yaml:"name"`
	Key          string    `json:"key" yaml:"key"`
	Version      int       `json:"version" yaml:"version"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
	Size         int64     `json:"size" yaml:"size"`
	SourceURL    string    `json:"sourceUrl" yaml:"sourceUrl"`
}

func newModuleVersion(name string, obj storage.Object, store storage.Storage, bucketName string) ModuleVersion {
	key := strings.TrimLeft(obj.Key, "/")

	modified := obj.LastModified
	if modified.IsZero() {
		modified = time.Now().UTC()
	}

	size := obj.Size
	if size < 0 {
		size = 0
	}

	return ModuleVersion{
		Name:         name,
		Key:          key,
		Version:      ParseVersion(key),
		LastModified: modified,
		Size:         size,
		SourceURL:    store.SourceURL(bucketName, key),
	}
}

// ParseVersion extracts the version number from the filename of a key, e.g. "mods/vpc/12.zip" is 12.
// Anything before the first "." of the last path segment is parsed; missing, malformed or negative values yield 0.
func ParseVersion(key string) int {
	base := path.Base(key)
	if key == "" || strings.HasSuffix(key, "/") {
		return 0
	}
	if idx := strings.Index(base, "."); idx >= 0 {
		base = base[:idx]
	}

	v, err := strconv.Atoi(base)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
