// File: internal/testutil/memstore.go
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"terrable/pkg/common"
	"terrable/pkg/storage"
)

// MemStore is an in-memory storage.Storage for service and catalog tests.
// Listings are returned in lexical key order, like S3.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	now     func() time.Time

	// Puts counts successful PutObject calls
	Puts int
	// When set, every call returns this error
	Err error
	// When set, only PutObject returns this error
	PutErr error
}

type memObject struct {
	data     []byte
	modified time.Time
	opts     storage.PutOptions
}

var _ storage.Storage = (*MemStore)(nil)

func NewMemStore() *MemStore {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	return &MemStore{
		objects: make(map[string]memObject),
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		},
	}
}

// Seed stores an object without counting it as a put
func (m *MemStore) Seed(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, modified: m.now()}
}

// Data returns the stored bytes of key, or nil
func (m *MemStore) Data(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key].data
}

// Options returns the put options that key was stored with
func (m *MemStore) Options(key string) storage.PutOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key].opts
}

func (m *MemStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedKeys()
}

func (m *MemStore) sortedKeys() []string {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemStore) ProviderName() common.Provider {
	return common.Provider("MEMORY")
}

func (m *MemStore) ListCommonPrefixes(ctx context.Context, bucketName, prefix, delimiter string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	seen := make(map[string]bool)
	var prefixes []string
	for _, k := range m.sortedKeys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		idx := strings.Index(rest, delimiter)
		if idx < 0 {
			continue
		}
		p := prefix + rest[:idx+len(delimiter)]
		if !seen[p] {
			seen[p] = true
			prefixes = append(prefixes, p)
		}
	}
	return prefixes, nil
}

func (m *MemStore) ListObjects(ctx context.Context, bucketName, prefix string) ([]storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var objects []storage.Object
	for _, k := range m.sortedKeys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		obj := m.objects[k]
		objects = append(objects, storage.Object{
			Key:          k,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
			ContentType:  obj.opts.ContentType,
			Metadata:     maps.Clone(obj.opts.Metadata),
		})
	}
	return objects, nil
}

func (m *MemStore) GetObject(ctx context.Context, bucketName, objectKey string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	obj, ok := m.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", objectKey, storage.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemStore) PutObject(ctx context.Context, bucketName, objectKey string, body io.Reader, size int64, opts storage.PutOptions) error {
	m.mu.Lock()
	failure := m.Err
	if failure == nil {
		failure = m.PutErr
	}
	m.mu.Unlock()
	if failure != nil {
		return failure
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = memObject{
		data:     data,
		modified: m.now(),
		opts:     storage.PutOptions{ContentType: opts.ContentType, Metadata: maps.Clone(opts.Metadata)},
	}
	m.Puts++
	return nil
}

func (m *MemStore) SourceURL(bucketName, objectKey string) string {
	return fmt.Sprintf("mem://%s/%s", bucketName, objectKey)
}

func (m *MemStore) Close() error {
	return nil
}
