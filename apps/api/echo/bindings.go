package echoapi

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the comma-separated "ordering" query param ("-" prefix for descending),
// keeping only the allowed fields.
func (ord *Ordering) Bind(ctx echo.Context, allowed []string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if core.ContainsString(allowed, field) {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// formFile returns the multipart file field as an Upload; ok is false when the field is missing.
// The returned closer must be called once the upload is consumed.
func formFile(ctx echo.Context, field string) (upload core.Upload, closer func(), ok bool, err error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || errors.Cause(err) == http.ErrNotMultipart {
			return core.Upload{}, nil, false, nil
		}
		return core.Upload{}, nil, false, errors.Wrap(err, "reading multipart form")
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (core.Upload, func(), bool, error) {
	f, err := fh.Open()
	if err != nil {
		return core.Upload{}, nil, false, errors.Wrap(err, "opening uploaded file")
	}
	return core.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}, func() { _ = f.Close() }, true, nil
}

// bodyLimit formats n bytes for middleware.BodyLimit.
func bodyLimit(n int64) string {
	return strconv.FormatInt(n/1024+1, 10) + "K"
}

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)
