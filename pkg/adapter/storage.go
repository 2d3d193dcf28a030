package adapter

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Storage archives fetched page snapshots so an extraction run can be
// replayed against the page as it was seen.
type Storage interface {
	// Put returns a writer for a new snapshot under the given key
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get opens a previously archived snapshot
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

type gcsStorage struct {
	bucket string
	client *storage.Client
}

// NewStorage opens a Cloud Storage backed snapshot archive on the
// given bucket.
func NewStorage(ctx context.Context, bucket string) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &gcsStorage{bucket: bucket, client: client}, nil
}

func (s *gcsStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"
	return w, nil
}

func (s *gcsStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read snapshot",
			goerr.V("bucket", s.bucket), goerr.V("key", key))
	}

	return r, nil
}
