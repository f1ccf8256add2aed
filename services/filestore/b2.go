package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
)

type b2Store struct {
	bucket  *b2.Bucket
	maxSize int64
}

var _ core.FileStore = (*b2Store)(nil)

// NewB2Store saves files as <category>/<name> objects of the conf.B2Bucket bucket.
func NewB2Store(ctx context.Context, conf core.StorageConfig) (core.FileStore, error) {
	client, err := b2.NewClient(ctx, conf.B2AccountID, conf.B2AppKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, conf.B2Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &b2Store{bucket: bucket, maxSize: conf.MaxUploadSize}, nil
}

func (s *b2Store) Save(ctx context.Context, category string, upload core.Upload) (string, error) {
	if err := checkCategory(category); err != nil {
		return "", err
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return "", core.ErrFileTooLarge
	}

	key := category + "/" + storedName(upload.Filename, time.Now())
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, limit(upload.Content, s.maxSize)); err != nil {
		_ = w.Close()
		if errors.Cause(err) == core.ErrFileTooLarge {
			return "", core.ErrFileTooLarge
		}
		return "", errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "closing object writer")
	}
	return objectURL(s.bucket.BaseURL(), s.bucket.Name(), key), nil
}

// objectURL is the friendly download URL of a B2 object.
func objectURL(baseURL, bucket, key string) string {
	return fmt.Sprintf("%s/file/%s/%s", strings.TrimSuffix(baseURL, "/"), bucket, key)
}
