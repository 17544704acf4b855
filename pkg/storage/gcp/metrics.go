// File: pkg/storage/gcp/metrics.go
package gcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Storage metrics are sampled daily, so a shorter window often comes back empty
const metricTimeWindow = 72 * time.Hour

var errMetricsNotFound = errors.New("usage metrics not found in the monitoring window")

// BucketUsage reports the bytes stored in the bucket as seen by Cloud Monitoring.
// New buckets that have not reported yet return -1 and no error.
func (g *GCPStorage) BucketUsage(ctx context.Context, bucketName string) (int64, error) {
	if g.projectID == "" {
		return -1, fmt.Errorf("gcp.project must be set to read bucket usage")
	}

	usage, err := g.fetchBucketUsage(ctx, bucketName)
	if errors.Is(err, errMetricsNotFound) {
		g.logger.Debug("No usage metrics reported yet", "bucket", bucketName)
		return -1, nil
	}
	return usage, err
}

func (g *GCPStorage) fetchBucketUsage(ctx context.Context, bucketName string) (int64, error) {
	g.logger.Debug("Fetching GCP bucket usage metric via Monitoring API", "bucket", bucketName)
	client, err := monitoring.NewMetricClient(ctx)
	if err != nil {
		return -1, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	defer client.Close()

	it := client.ListTimeSeries(ctx, usageRequest(g.projectID, bucketName, time.Now()))

	// Everything is summed into one series holding one aligned point
	resp, err := it.Next()
	if err == iterator.Done {
		return -1, errMetricsNotFound
	}
	if err != nil {
		return -1, fmt.Errorf("error getting metric data for bucket %s: %w", bucketName, err)
	}

	if len(resp.GetPoints()) > 0 {
		return extractUsageValue(resp.GetPoints()[0].GetValue()), nil
	}
	return -1, errMetricsNotFound
}

func usageRequest(projectID, bucketName string, endTime time.Time) *monitoringpb.ListTimeSeriesRequest {
	return &monitoringpb.ListTimeSeriesRequest{
		Name:   fmt.Sprintf("projects/%s", projectID),
		Filter: fmt.Sprintf(`metric.type="storage.googleapis.com/storage/v2/total_bytes" AND resource.labels.bucket_name="%s"`, bucketName),
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(endTime.Add(-metricTimeWindow)),
			EndTime:   timestamppb.New(endTime),
		},
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:    durationpb.New(metricTimeWindow),
			PerSeriesAligner:   monitoringpb.Aggregation_ALIGN_MEAN,
			CrossSeriesReducer: monitoringpb.Aggregation_REDUCE_SUM,
			GroupByFields:      []string{"resource.labels.bucket_name"},
		},
	}
}

func extractUsageValue(pointValue *monitoringpb.TypedValue) int64 {
	if pointValue == nil {
		return 0
	}

	switch v := pointValue.Value.(type) {
	case *monitoringpb.TypedValue_DoubleValue:
		return int64(math.Round(v.DoubleValue))
	case *monitoringpb.TypedValue_Int64Value:
		return v.Int64Value
	default:
		return 0
	}
}
