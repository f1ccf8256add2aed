package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
)

type localStore struct {
	dir     string
	baseURL string
	maxSize int64
}

var _ core.FileStore = (*localStore)(nil)

// NewLocalStore saves files under conf.UploadsDir/<category>, served from conf.UploadsURL.
func NewLocalStore(conf core.StorageConfig) (core.FileStore, error) {
	for _, category := range []string{core.FileCategoryTasks, core.FileCategorySubmissions} {
		if err := os.MkdirAll(filepath.Join(conf.UploadsDir, category), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating uploads directory")
		}
	}
	return &localStore{dir: conf.UploadsDir, baseURL: conf.UploadsURL, maxSize: conf.MaxUploadSize}, nil
}

func (s *localStore) Save(_ context.Context, category string, upload core.Upload) (string, error) {
	if err := checkCategory(category); err != nil {
		return "", err
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return "", core.ErrFileTooLarge
	}

	name := storedName(upload.Filename, time.Now())
	fpath := filepath.Join(s.dir, category, name)
	f, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, limit(upload.Content, s.maxSize)); err != nil {
		_ = f.Close()
		_ = os.Remove(fpath)
		if errors.Cause(err) == core.ErrFileTooLarge {
			return "", core.ErrFileTooLarge
		}
		return "", errors.Wrap(err, "writing file")
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(fpath)
		return "", errors.Wrap(err, "closing file")
	}
	return s.baseURL + "/" + category + "/" + name, nil
}
