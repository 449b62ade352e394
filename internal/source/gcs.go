package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/option"
)

var (
	errInvalidBucket = errors.New("source: bucket name is required")
	errInvalidObject = errors.New("source: object name is required")
)

// ObjectReader opens a Cloud Storage object for reading.
type ObjectReader interface {
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

type storageReader struct {
	client *storage.Client
}

func (r storageReader) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return r.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// GCS reads the export from a Cloud Storage object.
type GCS struct {
	bucket string
	object string
	reader ObjectReader
	limit  int64
}

// ParseGSURL splits gs://bucket/path/to/object.
func ParseGSURL(raw string) (bucket, object string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("source: parse %q: %w", raw, err)
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("source: %q is not a gs:// url", raw)
	}
	bucket = u.Host
	object = strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return "", "", errInvalidBucket
	}
	if object == "" {
		return "", "", errInvalidObject
	}
	return bucket, object, nil
}

// NewGCS builds a Cloud Storage source around reader.
func NewGCS(reader ObjectReader, rawURL string) (*GCS, error) {
	bucket, object, err := ParseGSURL(rawURL)
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, errors.New("source: object reader is required")
	}
	return &GCS{bucket: bucket, object: object, reader: reader, limit: maxBody}, nil
}

// NewStorageReader wraps a Cloud Storage client. Public buckets can be read
// with anonymous set.
func NewStorageReader(ctx context.Context, anonymous bool) (ObjectReader, func() error, error) {
	var opts []option.ClientOption
	if anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("source: storage client: %w", err)
	}
	return storageReader{client: client}, client.Close, nil
}

// Fetch reads the whole object.
func (s *GCS) Fetch(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "source.gcs.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("gcs.bucket", s.bucket),
		attribute.String("gcs.object", s.object),
	)

	rc, err := s.reader.NewReader(ctx, s.bucket, s.object)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open object")
		return nil, fmt.Errorf("source: open gs://%s/%s: %w", s.bucket, s.object, err)
	}
	defer rc.Close()

	body, err := readLimited(rc, s.limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read object")
		return nil, fmt.Errorf("source: read gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return body, nil
}
