package gcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"terrable/pkg/common"
	"terrable/pkg/storage"

	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOfflineStorage(t *testing.T, project string) *GCPStorage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := NewGCPStorage(context.Background(), project, logger, option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestSourceURL(t *testing.T) {
	g := newOfflineStorage(t, "")
	assert.Equal(t,
		"gcs::https://www.googleapis.com/storage/v1/modules/terrable/vpc/3.zip",
		g.SourceURL("modules", "terrable/vpc/3.zip"))
	assert.Equal(t, common.GCP, g.ProviderName())
}

func TestMapObjectAttributes(t *testing.T) {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	obj := mapObjectAttributes(&gcpstorage.ObjectAttrs{
		Name:        "terrable/vpc/1.zip",
		Size:        42,
		Updated:     updated,
		ContentType: "application/zip",
		Metadata:    map[string]string{"version": "1"},
	})

	assert.Equal(t, "terrable/vpc/1.zip", obj.Key)
	assert.Equal(t, int64(42), obj.Size)
	assert.True(t, obj.LastModified.Equal(updated))
	assert.Equal(t, time.UTC, obj.LastModified.Location())
	assert.Equal(t, "application/zip", obj.ContentType)
	assert.Equal(t, "1", obj.Metadata["version"])

	assert.Equal(t, storage.Object{}, mapObjectAttributes(nil))
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(gcpstorage.ErrObjectNotExist, "b", "k"), storage.ErrObjectNotFound)
	assert.ErrorIs(t, mapError(&googleapi.Error{Code: http.StatusNotFound}, "b", "k"), storage.ErrObjectNotFound)
	assert.ErrorIs(t, mapError(&googleapi.Error{Code: http.StatusForbidden}, "b", "k"), storage.ErrAccessDenied)

	other := errors.New("connection reset")
	err := mapError(other, "b", "k")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, storage.ErrObjectNotFound)
	assert.NotErrorIs(t, err, storage.ErrAccessDenied)
}

func TestBucketUsageRequiresProject(t *testing.T) {
	g := newOfflineStorage(t, "")
	usage, err := g.BucketUsage(context.Background(), "modules")
	require.Error(t, err)
	assert.Equal(t, int64(-1), usage)
}

func TestUsageRequest(t *testing.T) {
	end := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
	req := usageRequest("my-project", "modules", end)

	assert.Equal(t, "projects/my-project", req.GetName())
	assert.Contains(t, req.GetFilter(), `resource.labels.bucket_name="modules"`)
	assert.Equal(t, end.Add(-metricTimeWindow), req.GetInterval().GetStartTime().AsTime())
	assert.Equal(t, monitoringpb.Aggregation_REDUCE_SUM, req.GetAggregation().GetCrossSeriesReducer())
}

func TestExtractUsageValue(t *testing.T) {
	assert.Equal(t, int64(0), extractUsageValue(nil))
	assert.Equal(t, int64(3), extractUsageValue(&monitoringpb.TypedValue{
		Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: 2.6},
	}))
	assert.Equal(t, int64(7), extractUsageValue(&monitoringpb.TypedValue{
		Value: &monitoringpb.TypedValue_Int64Value{Int64Value: 7},
	}))
}
