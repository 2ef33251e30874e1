package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coursexport/internal/logger"
)

const maxDownloadSuffix = 1000

// ErrNoFreeName is returned when every numbered variant of a name is taken.
var ErrNoFreeName = errors.New("no free file name")

// DownloadWriter hands files to the user the way a browser download does: into
// one directory, never replacing an existing file.
type DownloadWriter struct {
	dir string
	log *logger.Logger
}

// NewDownloadWriter creates a writer saving into dir.
func NewDownloadWriter(dir string, log *logger.Logger) *DownloadWriter {
	return &DownloadWriter{dir: dir, log: logger.OrDiscard(log)}
}

// WriteJSON implements Writer. A taken name becomes "name (1).json", "name (2).json", ...
func (w *DownloadWriter) WriteJSON(_ context.Context, filename string, v any) error {
	path, err := w.write(filename, v)
	if err != nil {
		return &PersistenceError{Filename: filename, Err: err}
	}

	w.log.Info("artifact downloaded", "path", path)

	return nil
}

func (w *DownloadWriter) write(filename string, v any) (string, error) {
	if err := checkFilename(filename); err != nil {
		return "", err
	}

	data, err := MarshalJSON(v)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create downloads folder: %w", err)
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for n := 0; n < maxDownloadSuffix; n++ {
		name := filename
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}

		path := filepath.Join(w.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}

		if err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()

			return "", fmt.Errorf("failed to write file: %w", err)
		}

		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close file: %w", err)
		}

		return path, nil
	}

	return "", fmt.Errorf("%w for %s", ErrNoFreeName, filename)
}
