package core

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

var ErrFileTooLarge = errors.New("file is too large")

// File categories, used as the storage sub-directory.
const (
	FileCategoryTasks       = "tasks"
	FileCategorySubmissions = "submissions"
)

type (
	// Upload is a file received from a client.
	Upload struct {
		Filename string // original client-side name, only its extension is kept
		Size     int64
		Content  io.Reader
	}

	// FileStore persists uploaded files and returns the URL they can be fetched from.
	FileStore interface {
		Save(ctx context.Context, category string, upload Upload) (string, error)
	}
)
