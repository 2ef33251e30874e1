// Package storage persists export artifacts as indented JSON.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"coursexport/internal/config"
	"coursexport/internal/logger"
)

// Storage errors.
var (
	// ErrUserCancelled means the user abandoned choosing where to save. It is a
	// cancellation, not a failure.
	ErrUserCancelled   = errors.New("save location selection cancelled")
	ErrNotPrepared     = errors.New("writer has no target; call Prepare first")
	ErrInvalidFilename = errors.New("filename must be a plain file name")
	ErrUnknownMode     = errors.New("unknown output mode")
)

// Writer stores a JSON-serializable value under a file name.
type Writer interface {
	WriteJSON(ctx context.Context, filename string, v any) error
}

// Preparer is implemented by writers that must choose a target before writing.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// PersistenceError reports a failed write of one artifact.
type PersistenceError struct {
	Filename string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Filename, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders v as UTF-8 JSON with a 2-space indent.
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return data, nil
}

func checkFilename(filename string) error {
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	return nil
}

// NewFromConfig returns the writer for the configured output mode. picker is used
// in folder mode; when nil the root comes from output.base_path, or from a prompt
// on the terminal if that is empty.
func NewFromConfig(cfg *config.Config, picker RootPicker, log *logger.Logger) (Writer, error) {
	out := cfg.Exporter.Output

	switch out.Mode {
	case config.ModeFolder:
		if picker == nil {
			picker = DefaultPicker(out.BasePath)
		}

		return NewFolderWriter(picker, out.CreateBackup, log), nil
	case config.ModeDownload:
		return NewDownloadWriter(out.DownloadsDir, log), nil
	case config.ModeSFTP:
		return NewSFTPWriter(cfg.Exporter.SFTP, log), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, out.Mode)
	}
}
