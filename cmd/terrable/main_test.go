package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"terrable/internal/progress"
	"terrable/internal/testutil"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "modules"

// run executes the CLI with args and returns what it wrote to stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(bytes.NewReader(nil))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func isolateConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("TERRABLE_CONFIG", path)
	return path
}

func TestConfigCommands(t *testing.T) {
	path := isolateConfig(t)

	out, err := run(t, "config", "set", "Bucket", "my-modules")
	require.NoError(t, err)
	assert.Contains(t, out, "bucket = my-modules")
	assert.FileExists(t, path)

	out, err = run(t, "config", "get", "bucket")
	require.NoError(t, err)
	assert.Equal(t, "bucket = my-modules\n", out)

	out, err = run(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  bucket = my-modules")
	assert.Contains(t, out, "  prefix = terrable")

	_, err = run(t, "config", "set", "nope", "x")
	assert.Error(t, err)

	_, err = run(t, "config", "delete", "bucket")
	require.NoError(t, err)
	_, err = run(t, "config", "get", "bucket")
	assert.ErrorContains(t, err, "not set")
}

func TestListRequiresBucket(t *testing.T) {
	isolateConfig(t)
	t.Setenv("TERRABLE_BUCKET", "")

	_, err := run(t, "list")
	assert.ErrorContains(t, err, "Bucket is required")
}

func TestRejectsUnknownOutputFormat(t *testing.T) {
	isolateConfig(t)

	_, err := run(t, "list", "-b", testBucket, "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestPublishAndListAgainstFakeS3(t *testing.T) {
	isolateConfig(t)
	mock, err := testutil.StartMockS3(context.Background(), testBucket)
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("TERRABLE_AWS_ENDPOINT", mock.URL())
	t.Setenv("TERRABLE_AWS_REGION", "us-east-1")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vpc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vpc", "main.tf"), []byte(`resource "null_resource" "x" {}`), 0o644))

	common := []string{"-b", testBucket, "--aws-directory", t.TempDir(), "-o", "json"}

	out, err := run(t, append([]string{"publish", dir}, common...)...)
	require.NoError(t, err)
	var published struct {
		Code string
		Data struct {
			Published map[string]bool
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &published))
	assert.Equal(t, "PUBLISHED", published.Code)
	assert.True(t, published.Data.Published["vpc"])

	out, err = run(t, append([]string{"publish", dir}, common...)...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &published))
	assert.False(t, published.Data.Published["vpc"])

	out, err = run(t, append([]string{"list", "vpc", "--latest"}, common...)...)
	require.NoError(t, err)
	var latest struct {
		Code string
		Data struct {
			Latest struct {
				Version   int
				Key       string
				SourceURL string `json:"sourceUrl"`
			}
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &latest))
	assert.Equal(t, "LISTED_LATEST_VERSION", latest.Code)
	assert.Equal(t, 1, latest.Data.Latest.Version)
	assert.Equal(t, "terrable/vpc/1.zip", latest.Data.Latest.Key)
	assert.Equal(t, "s3::"+mock.URL()+"/modules/terrable/vpc/1.zip", latest.Data.Latest.SourceURL)

	table, err := run(t, "list", "-b", testBucket, "--aws-directory", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, table, "vpc")
	assert.Contains(t, table, "Modules have been listed.")
}

func TestRunWithProgressClosesStream(t *testing.T) {
	stream := progress.NewStream()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := errors.New("boom")

	err := runWithProgress(context.Background(), stream, logger, io.Discard, false, func(ctx context.Context) error {
		stream.Emit(progress.Event{Operation: progress.Upload, Module: "vpc", Bytes: 3, Total: 3, Done: true})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, open := <-stream.Subscribe(1)
	assert.False(t, open)
}

func TestProgressModel(t *testing.T) {
	var m tea.Model = newProgressModel()

	m, _ = m.Update(eventMsg(progress.Event{Operation: progress.Upload, Module: "vpc", Key: "terrable/vpc/2.zip", Bytes: 512, Total: 1024}))
	view := m.View()
	assert.Contains(t, view, "Uploading vpc")
	assert.Contains(t, view, "512 B / 1.0 KB")

	m, _ = m.Update(eventMsg(progress.Event{Operation: progress.Download, Module: "dns", Key: "terrable/dns/1.zip", Bytes: 2048, Done: true}))
	view = m.View()
	assert.Contains(t, view, "Downloaded dns terrable/dns/1.zip (2.0 KB)")
	assert.NotContains(t, view, "Uploading vpc")

	_, cmd := m.Update(finishedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestPrintSettings(t *testing.T) {
	settings := flattenConfigMap(map[string]interface{}{
		"bucket": "b",
		"prefix": "",
		"minio":  map[string]interface{}{"secret_key": "s3cr3t", "secure": true},
	})

	var out bytes.Buffer
	printSettings(&out, settings)
	assert.Equal(t, "Current configuration:\n  bucket = b\n  minio.secret_key = ********\n  minio.secure = true\n", out.String())

	out.Reset()
	printSettings(&out, map[string]interface{}{"prefix": ""})
	assert.Contains(t, out.String(), "No configuration values set.")
}
