// Package storage holds the destinations a downloaded network map can be
// saved to.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
)

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	// Location describes where key lives, for display.
	Location(key string) string
}

// Options tune Open for S3 targets.
type Options struct {
	Region   string
	Endpoint string // custom S3 endpoint, e.g. LocalStack
}

// Open resolves an output target: "s3://bucket/prefix" selects S3, anything
// else is a local directory ("" means the working directory).
func Open(ctx context.Context, target string, opts Options) (BlobStore, error) {
	if !strings.HasPrefix(target, "s3://") {
		if target == "" {
			target = "."
		}
		return NewLocalStore(target), nil
	}

	bucket, prefix, err := ParseS3URL(target)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3Store(cfg, bucket, prefix, opts.Endpoint), nil
}

// ParseS3URL splits s3://bucket/prefix.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(raw, "s3://")
	if rest == raw {
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", raw)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
