package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ryabkov82/xlsx-splitter/internal/merger"
)

// multipart parts beyond this are spooled to temporary files
const formMemory = 8 << 20

// inputError is a problem with the request itself rather than its workbooks.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func badInput(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

// parseUpload bounds the body at limit and parses the multipart form.
func parseUpload(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("upload exceeds %d MiB: %w", limit>>20, err)
		}
		return badInput("invalid upload: %v", err)
	}
	return nil
}

// uploadedFiles reads every .xlsx part of field.
func uploadedFiles(r *http.Request, field string) ([]merger.Source, error) {
	if r.MultipartForm == nil {
		return nil, badInput("no file uploaded")
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, badInput("no file uploaded")
	}

	sources := make([]merger.Source, 0, len(headers))
	for _, fh := range headers {
		src, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func readPart(fh *multipart.FileHeader) (merger.Source, error) {
	name := filepath.Base(strings.ReplaceAll(fh.Filename, `\`, "/"))
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return merger.Source{}, badInput("%q is not an .xlsx workbook", name)
	}

	f, err := fh.Open()
	if err != nil {
		return merger.Source{}, fmt.Errorf("open upload %q: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return merger.Source{}, fmt.Errorf("read upload %q: %w", name, err)
	}
	return merger.Source{Name: name, Data: data}, nil
}
