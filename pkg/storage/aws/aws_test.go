package aws

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"terrable/internal/config"
	"terrable/internal/testutil"
	"terrable/pkg/common"
	"terrable/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "modules"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startStore(t *testing.T) (*AWSStorage, *testutil.MockS3) {
	t.Helper()
	mock, err := testutil.StartMockS3(context.Background(), testBucket)
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewAWSStorage(mock.Client, "", mock.URL(), discardLogger()), mock
}

func put(t *testing.T, s *AWSStorage, key, content string) {
	t.Helper()
	err := s.PutObject(context.Background(), testBucket, key, strings.NewReader(content), int64(len(content)), storage.PutOptions{
		ContentType: "application/zip",
		Metadata:    map[string]string{"module": "vpc"},
	})
	require.NoError(t, err)
}

func TestSourceURL(t *testing.T) {
	public := NewAWSStorage(nil, "eu-west-1", "", discardLogger())
	assert.Equal(t, "s3::https://s3-eu-west-1.amazonaws.com/b/terrable/vpc/1.zip", public.SourceURL("b", "terrable/vpc/1.zip"))

	defaulted := NewAWSStorage(nil, "", "", discardLogger())
	assert.Equal(t, "s3::https://s3-us-east-1.amazonaws.com/b/k.zip", defaulted.SourceURL("b", "k.zip"))

	custom := NewAWSStorage(nil, "", "http://localhost:9000/", discardLogger())
	assert.Equal(t, "s3::http://localhost:9000/b/k.zip", custom.SourceURL("b", "k.zip"))

	assert.Equal(t, common.AWS, public.ProviderName())
}

func TestPutListGet(t *testing.T) {
	s, _ := startStore(t)
	ctx := context.Background()

	put(t, s, "terrable/vpc/1.zip", "one")
	put(t, s, "terrable/vpc/2.zip", "two!")
	put(t, s, "terrable/dns/1.zip", "dns")

	objects, err := s.ListObjects(ctx, testBucket, "terrable/vpc/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "terrable/vpc/1.zip", objects[0].Key)
	assert.Equal(t, int64(3), objects[0].Size)
	assert.False(t, objects[0].LastModified.IsZero())
	assert.Equal(t, "terrable/vpc/2.zip", objects[1].Key)
	assert.Equal(t, int64(4), objects[1].Size)

	prefixes, err := s.ListCommonPrefixes(ctx, testBucket, "terrable/", "/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"terrable/dns/", "terrable/vpc/"}, prefixes)

	body, err := s.GetObject(ctx, testBucket, "terrable/vpc/2.zip")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "two!", string(data))
}

func TestListObjectsEmptyPrefix(t *testing.T) {
	s, _ := startStore(t)

	objects, err := s.ListObjects(context.Background(), testBucket, "terrable/ghost/")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestGetObjectMissing(t *testing.T) {
	s, _ := startStore(t)

	_, err := s.GetObject(context.Background(), testBucket, "terrable/vpc/404.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestPutObjectBuffersUnseekableBody(t *testing.T) {
	s, _ := startStore(t)
	ctx := context.Background()

	body := io.MultiReader(bytes.NewReader([]byte("abc")), bytes.NewReader([]byte("def")))
	err := s.PutObject(ctx, testBucket, "terrable/x/1.zip", body, -1, storage.PutOptions{})
	require.NoError(t, err)

	rc, err := s.GetObject(ctx, testBucket, "terrable/x/1.zip")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data))
}

func TestInitializeFromConfig(t *testing.T) {
	_, mock := startStore(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_PROFILE", "")

	cfg := &config.Config{
		Provider: "aws",
		Bucket:   testBucket,
		AWS: config.AWSConfig{
			Region:    "eu-central-1",
			Directory: t.TempDir(),
			Endpoint:  mock.URL(),
		},
	}

	client, err := initialize(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "s3::"+mock.URL()+"/modules/k.zip", client.SourceURL(testBucket, "k.zip"))

	err = client.PutObject(context.Background(), testBucket, "terrable/vpc/1.zip", strings.NewReader("zip"), 3, storage.PutOptions{})
	require.NoError(t, err)

	objects, err := client.ListObjects(context.Background(), testBucket, "terrable/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
}
