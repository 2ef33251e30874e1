package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/term"

	"coursexport/internal/logger"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a terminal.
var ErrNotInteractive = errors.New("no terminal to ask for a save folder; set output.base_path")

// RootPicker chooses the folder artifacts are written under.
type RootPicker interface {
	PickRoot(ctx context.Context) (string, error)
}

// StaticRoot always picks the same folder.
type StaticRoot string

// PickRoot implements RootPicker.
func (r StaticRoot) PickRoot(_ context.Context) (string, error) {
	if r == "" {
		return "", ErrUserCancelled
	}

	return string(r), nil
}

// PromptPicker asks for a folder on a terminal. An empty answer or end of input
// cancels.
type PromptPicker struct {
	In  io.Reader
	Out io.Writer
}

// DefaultPicker returns StaticRoot(basePath), or a prompt on stdin when basePath
// is empty.
func DefaultPicker(basePath string) RootPicker {
	if basePath != "" {
		return StaticRoot(basePath)
	}

	return &PromptPicker{In: os.Stdin, Out: os.Stderr}
}

// PickRoot implements RootPicker.
func (p *PromptPicker) PickRoot(ctx context.Context) (string, error) {
	if f, ok := p.In.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return "", ErrNotInteractive
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(p.Out, "📁 Save exports under folder (empty to cancel): ")

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read folder: %w", err)
	}

	root := strings.TrimSpace(line)
	if root == "" {
		return "", ErrUserCancelled
	}

	return root, nil
}

// FolderWriter writes artifacts directly under a picked root folder.
type FolderWriter struct {
	picker RootPicker
	backup bool
	log    *logger.Logger

	mu   sync.Mutex
	root string
}

// NewFolderWriter creates a folder writer. With backup set, an existing file is
// kept as <name>.bak before being replaced.
func NewFolderWriter(picker RootPicker, backup bool, log *logger.Logger) *FolderWriter {
	return &FolderWriter{
		picker: picker,
		backup: backup,
		log:    logger.OrDiscard(log),
	}
}

// Prepare picks the root folder and makes sure it exists.
func (w *FolderWriter) Prepare(ctx context.Context) error {
	root, err := w.picker.PickRoot(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", root, err)
	}

	w.mu.Lock()
	w.root = root
	w.mu.Unlock()

	w.log.Debug("save folder selected", "root", root)

	return nil
}

// Root returns the picked folder, or "" before Prepare.
func (w *FolderWriter) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.root
}

// WriteJSON implements Writer.
func (w *FolderWriter) WriteJSON(_ context.Context, filename string, v any) error {
	if err := w.write(filename, v); err != nil {
		return &PersistenceError{Filename: filename, Err: err}
	}

	return nil
}

func (w *FolderWriter) write(filename string, v any) error {
	root := w.Root()
	if root == "" {
		return ErrNotPrepared
	}

	if err := checkFilename(filename); err != nil {
		return err
	}

	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}

	path := filepath.Join(root, filename)

	if w.backup {
		if err := backupExisting(path); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	w.log.Info("artifact saved", "path", path, "bytes", len(data))

	return nil
}

func backupExisting(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := os.Rename(path, path+".bak"); err != nil {
		return fmt.Errorf("failed to back up %s: %w", path, err)
	}

	return nil
}
