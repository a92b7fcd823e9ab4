//go:build e2e

package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/engine"
	"github.com/DrSkyle/netmapper/pkg/storage"
)

const (
	localstackImage = "localstack/localstack:3.0.2"
	bucket          = "netmaps"
)

func discoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"ip":"10.1.0.1","mac":"02:00:00:00:00:01","type":"router"}]`))
	})
	mux.HandleFunc("/api/graph", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n'})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestS3Export(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ls, err := localstack.Run(ctx, localstackImage, testcontainers.WithEnv(map[string]string{"SERVICES": "s3"}))
	testcontainers.CleanupContainer(t, ls)
	require.NoError(t, err)

	endpoint, err := ls.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	opts := storage.Options{Region: "us-east-1", Endpoint: endpoint}
	store, err := storage.Open(ctx, "s3://"+bucket+"/office", opts)
	require.NoError(t, err)

	s3Store, ok := store.(*storage.S3Store)
	require.True(t, ok, "s3:// targets open an S3Store")
	_, err = s3Store.Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.BaseURL = discoveryServer(t).URL
	cfg.Output = "s3://" + bucket + "/office"
	cfg.Region = opts.Region
	cfg.S3Endpoint = endpoint

	eng, err := engine.New(ctx, engine.WithConfig(cfg), engine.WithoutTelemetry())
	require.NoError(t, err)
	defer eng.Close(context.Background())

	eng.View.Scan(ctx)
	where, err := eng.View.Download(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(where, "s3://netmaps/office/network-map-"), where)

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, keys, 1)

	assert.True(t, strings.HasPrefix(keys[0], "network-map-"), keys[0])
	data, err := store.Get(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n'}, data)
}
