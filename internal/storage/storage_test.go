package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursexport/internal/config"
	"coursexport/internal/models"
)

var sample = models.TaskListPayload{Tasks: []models.Task{{Content: "1. Intro []", Description: "- Duration: 3 min\n- Url: "}}}

const sampleJSON = `{
  "tasks": [
    {
      "content": "1. Intro []",
      "description": "- Duration: 3 min\n- Url: "
    }
  ]
}`

func TestMarshalJSON_TwoSpaceIndent(t *testing.T) {
	data, err := MarshalJSON(sample)
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, string(data))
}

func TestFolderWriter(t *testing.T) {
	root := filepath.Join(t.TempDir(), "exports")
	w := NewFolderWriter(StaticRoot(root), false, nil)

	err := w.WriteJSON(context.Background(), "a.json", sample)
	assert.ErrorIs(t, err, ErrNotPrepared)

	require.NoError(t, w.Prepare(context.Background()))
	assert.Equal(t, root, w.Root())

	require.NoError(t, w.WriteJSON(context.Background(), "a.json", sample))

	data, err := os.ReadFile(filepath.Join(root, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, string(data))
}

func TestFolderWriter_Backup(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.json"), []byte("old"), 0644))

	w := NewFolderWriter(StaticRoot(root), true, nil)
	require.NoError(t, w.Prepare(context.Background()))
	require.NoError(t, w.WriteJSON(context.Background(), "a.json", sample))

	old, err := os.ReadFile(filepath.Join(root, "a.json.bak"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestFolderWriter_RejectsPaths(t *testing.T) {
	w := NewFolderWriter(StaticRoot(t.TempDir()), false, nil)
	require.NoError(t, w.Prepare(context.Background()))

	for _, name := range []string{"", "../escape.json", "sub/a.json"} {
		err := w.WriteJSON(context.Background(), name, sample)

		var perr *PersistenceError
		require.ErrorAs(t, err, &perr, name)
		assert.Equal(t, name, perr.Filename)
		assert.ErrorIs(t, err, ErrInvalidFilename)
	}
}

func TestFolderWriter_WriteFailureNamesFile(t *testing.T) {
	root := t.TempDir()
	w := NewFolderWriter(StaticRoot(root), false, nil)
	require.NoError(t, w.Prepare(context.Background()))

	// A directory in the way makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(root, "x-v2.json"), 0755))

	err := w.WriteJSON(context.Background(), "x-v2.json", sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save x-v2.json")
}

func TestPromptPicker(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"answer", "  /tmp/out  \n", "/tmp/out", nil},
		{"answer without newline", "/tmp/out", "/tmp/out", nil},
		{"empty answer", "\n", "", ErrUserCancelled},
		{"end of input", "", "", ErrUserCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder

			p := &PromptPicker{In: strings.NewReader(tt.input), Out: &out}

			got, err := p.PickRoot(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Save exports under folder")
		})
	}
}

func TestPromptPicker_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	_, err = (&PromptPicker{In: f, Out: io.Discard}).PickRoot(context.Background())
	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestFolderWriter_CancelledPick(t *testing.T) {
	w := NewFolderWriter(StaticRoot(""), false, nil)
	assert.ErrorIs(t, w.Prepare(context.Background()), ErrUserCancelled)
}

func TestDownloadWriter_NeverOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	w := NewDownloadWriter(dir, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, w.WriteJSON(context.Background(), "course.json", sample))
	}

	for _, name := range []string{"course.json", "course (1).json", "course (2).json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, sampleJSON, string(data))
	}
}

func TestDownloadWriter_UnmarshalableValue(t *testing.T) {
	w := NewDownloadWriter(t.TempDir(), nil)

	err := w.WriteJSON(context.Background(), "bad.json", map[string]any{"ch": make(chan int)})

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad.json", perr.Filename)
}

// inMemorySFTP connects the writer to an in-memory sftp server over pipes.
func inMemorySFTP(t *testing.T, w *SFTPWriter) *sftp.Client {
	t.Helper()

	clientRead, serverWrite := io.Pipe()
	serverRead, clientWrite := io.Pipe()

	server := sftp.NewRequestServer(struct {
		io.Reader
		io.WriteCloser
	}{serverRead, serverWrite}, sftp.InMemHandler())

	go func() { _ = server.Serve() }()

	client, err := sftp.NewClientPipe(clientRead, clientWrite)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	w.connect = func(_ context.Context) (*sftp.Client, func(), error) {
		return client, func() {}, nil
	}

	return client
}

func TestSFTPWriter_Upload(t *testing.T) {
	w := NewSFTPWriter(config.SFTPConfig{Host: "h", User: "u", Pass: "p", RemoteDir: "/exports/courses"}, nil)
	client := inMemorySFTP(t, w)

	require.NoError(t, w.WriteJSON(context.Background(), "course.json", sample))

	f, err := client.Open("/exports/courses/course.json")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, string(data))
}

func TestSFTPWriter_ConnectFailure(t *testing.T) {
	w := NewSFTPWriter(config.SFTPConfig{}, nil)

	err := w.WriteJSON(context.Background(), "course.json", sample)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "course.json", perr.Filename)
}

type lateConn struct {
	closed chan struct{}
}

func (c *lateConn) Close() error {
	close(c.closed)

	return nil
}

func TestDialContext_ClosesConnectionAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	conn := &lateConn{closed: make(chan struct{})}

	done := make(chan error, 1)

	go func() {
		_, err := dialContext(ctx, func() (*lateConn, error) {
			<-release

			return conn, nil
		})
		done <- err
	}()

	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)

	close(release)

	select {
	case <-conn.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("connection completed after cancel was not closed")
	}
}

func TestDialContext(t *testing.T) {
	conn := &lateConn{closed: make(chan struct{})}

	got, err := dialContext(context.Background(), func() (*lateConn, error) { return conn, nil })
	require.NoError(t, err)
	assert.Same(t, conn, got)

	_, err = dialContext(context.Background(), func() (*lateConn, error) { return nil, errors.New("refused") })
	assert.ErrorContains(t, err, "sftp: dial error: refused")
}

func TestSFTPWriter_Defaults(t *testing.T) {
	w := NewSFTPWriter(config.SFTPConfig{Host: "h"}, nil)
	assert.Equal(t, 22, w.cfg.Port)
	assert.Equal(t, "/", w.cfg.RemoteDir)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()

	cfg.Exporter.Output.BasePath = t.TempDir()
	w, err := NewFromConfig(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &FolderWriter{}, w)

	cfg.Exporter.Output.Mode = config.ModeDownload
	w, err = NewFromConfig(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &DownloadWriter{}, w)

	cfg.Exporter.Output.Mode = config.ModeSFTP
	w, err = NewFromConfig(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &SFTPWriter{}, w)

	cfg.Exporter.Output.Mode = "carrier-pigeon"
	_, err = NewFromConfig(cfg, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownMode))
}
