package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Backend kinds.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Backend locates a dataset's store. Reads and writes open the same
// backend with the same layout and codec.
type Backend struct {
	// Kind is BackendFS or BackendS3.
	Kind string
	// Path is the root directory for fs and bucket[/prefix] for s3.
	Path string

	// S3 only. Credentials come from the AWS default chain.
	Region string
	// Endpoint overrides the S3 endpoint for MinIO, R2 and similar.
	Endpoint     string
	UsePathStyle bool
}

// Validate checks that the backend can be opened.
func (b Backend) Validate() error {
	switch b.Kind {
	case BackendFS, BackendS3:
	default:
		return fmt.Errorf("unknown storage backend %q (must be fs or s3)", b.Kind)
	}
	if b.Path == "" {
		return fmt.Errorf("%s backend requires a path", b.Kind)
	}
	if bucket, _ := b.bucketPrefix(); b.Kind == BackendS3 && bucket == "" {
		return errors.New("s3 backend requires a bucket")
	}
	return nil
}

// bucketPrefix splits an s3 Path into bucket and key prefix.
func (b Backend) bucketPrefix() (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(strings.TrimPrefix(b.Path, "s3://"), "/")
	return bucket, strings.Trim(prefix, "/")
}

// Factory returns the store factory for b. For s3 it loads the AWS config.
func (b Backend) Factory(ctx context.Context) (lode.StoreFactory, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Kind == BackendFS {
		return lode.NewFSFactory(b.Path), nil
	}

	var opts []func(*config.LoadOptions) error
	if b.Region != "" {
		opts = append(opts, config.WithRegion(b.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapInitError(fmt.Errorf("load AWS config: %w", err), b.Path)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if b.Endpoint != "" {
			o.BaseEndpoint = &b.Endpoint
		}
		o.UsePathStyle = b.UsePathStyle
	})
	bucket, prefix := b.bucketPrefix()
	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{Bucket: bucket, Prefix: prefix})
	}, nil
}

// Open creates a write client on b.
func Open(ctx context.Context, cfg Config, b Backend) (*LodeClient, error) {
	factory, err := b.Factory(ctx)
	if err != nil {
		return nil, err
	}
	return NewLodeClientWithFactory(cfg, factory)
}

// OpenRead opens dataset on b for queries.
func OpenRead(ctx context.Context, dataset string, b Backend) (lode.Dataset, error) {
	factory, err := b.Factory(ctx)
	if err != nil {
		return nil, err
	}
	return NewReadDataset(dataset, factory)
}

// NewReadDataset opens dataset over factory for queries.
func NewReadDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	ds, err := newDataset(dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return ds, nil
}
