// File: pkg/storage/model.go
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

type Object struct {
	Key  string
	Size int64
	// Zero when the backend did not report a modification time
	LastModified time.Time
	ContentType  string
	Metadata     map[string]string
}

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Streams the object at objectKey into a local file at destPath, creating or truncating it.
// The body reader may be wrapped (e.g. for progress reporting) through the wrap function, which can be nil
func DownloadToPath(ctx context.Context, store Storage, bucketName, objectKey, destPath string, wrap func(io.Reader) io.Reader) (int64, error) {
	body, err := store.GetObject(ctx, bucketName, objectKey)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create destination file: %w", err)
	}
	defer file.Close()

	var src io.Reader = body
	if wrap != nil {
		src = wrap(body)
	}

	written, err := io.Copy(file, src)
	if err != nil {
		return written, fmt.Errorf("download object %s: %w", objectKey, err)
	}

	return written, file.Sync()
}

func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "N/A"
	}
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	sizes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	if exp >= len(sizes) {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), sizes[exp])
}
