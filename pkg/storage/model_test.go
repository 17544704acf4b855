package storage_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"terrable/internal/testutil"
	"terrable/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadToPath(t *testing.T) {
	store := testutil.NewMemStore()
	store.Seed("terrable/vpc/1.zip", []byte("archive bytes"))
	dest := filepath.Join(t.TempDir(), "latest.zip")

	var wrapped bool
	n, err := storage.DownloadToPath(context.Background(), store, "b", "terrable/vpc/1.zip", dest, func(r io.Reader) io.Reader {
		wrapped = true
		return r
	})
	require.NoError(t, err)
	assert.True(t, wrapped)
	assert.Equal(t, int64(len("archive bytes")), n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive bytes", string(data))
}

func TestDownloadToPathMissingObject(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "latest.zip")

	_, err := storage.DownloadToPath(context.Background(), testutil.NewMemStore(), "b", "nope.zip", dest, nil)
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))
	assert.NoFileExists(t, dest)
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		-1:          "N/A",
		0:           "0 B",
		512:         "512 B",
		2048:        "2.0 KB",
		5 * 1 << 20: "5.0 MB",
	}
	for in, want := range tests {
		assert.Equal(t, want, storage.FormatBytes(in), "FormatBytes(%d)", in)
	}
	assert.True(t, strings.HasSuffix(storage.FormatBytes(3<<30), "GB"))
}
