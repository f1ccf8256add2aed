// Package filestore saves uploaded task & submission files, on the local disk or in a Backblaze B2 bucket.
package filestore

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
)

// New returns the file store selected by conf.Storage.Backend.
func New(ctx context.Context, conf *core.Config) (core.FileStore, error) {
	switch conf.Storage.Backend {
	case "", "local":
		return NewLocalStore(conf.Storage)
	case "b2":
		return NewB2Store(ctx, conf.Storage)
	}
	return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
}

// storedName returns a collision-free name keeping the (sanitized) extension of filename.
func storedName(filename string, now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.New().String() + extension(filename)
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(path.Base(filepath.ToSlash(filename))))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return ""
		}
	}
	return ext
}

func checkCategory(category string) error {
	switch category {
	case core.FileCategoryTasks, core.FileCategorySubmissions:
		return nil
	}
	return errors.Errorf("unknown file category %q", category)
}

// limitedReader fails once more than max bytes were read.
type limitedReader struct {
	r   io.Reader
	n   int64
	max int64
}

func limit(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &limitedReader{r: r, max: max}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		return n, core.ErrFileTooLarge
	}
	return n, err
}
