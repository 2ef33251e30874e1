package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"coursexport/internal/config"
	"coursexport/internal/logger"
)

// ErrMissingCredentials is returned when the sftp section lacks host, user or password.
var ErrMissingCredentials = errors.New("sftp: missing host / user / pass")

const sshDialTimeout = 20 * time.Second

// SFTPWriter uploads artifacts to a remote directory. Each write opens its own
// connection.
type SFTPWriter struct {
	cfg config.SFTPConfig
	log *logger.Logger

	connect func(ctx context.Context) (*sftp.Client, func(), error)
}

// NewSFTPWriter creates a writer for the configured server.
func NewSFTPWriter(cfg config.SFTPConfig, log *logger.Logger) *SFTPWriter {
	if cfg.Port <= 0 {
		cfg.Port = 22
	}

	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}

	w := &SFTPWriter{cfg: cfg, log: logger.OrDiscard(log)}
	w.connect = w.dial

	return w
}

// WriteJSON implements Writer.
func (w *SFTPWriter) WriteJSON(ctx context.Context, filename string, v any) error {
	if err := w.upload(ctx, filename, v); err != nil {
		return &PersistenceError{Filename: filename, Err: err}
	}

	return nil
}

func (w *SFTPWriter) upload(ctx context.Context, filename string, v any) error {
	if err := checkFilename(filename); err != nil {
		return err
	}

	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}

	client, closeFn, err := w.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := client.MkdirAll(w.cfg.RemoteDir); err != nil {
		return fmt.Errorf("sftp: mkdir %s: %w", w.cfg.RemoteDir, err)
	}

	remotePath := path.Join(w.cfg.RemoteDir, filename)

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftp: create remote file: %w", err)
	}

	if _, err := dst.Write(data); err != nil {
		dst.Close()

		return fmt.Errorf("sftp: upload: %w", err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("sftp: close remote file: %w", err)
	}

	w.log.Info("artifact uploaded", "host", w.cfg.Host, "path", remotePath, "bytes", len(data))

	return nil
}

func (w *SFTPWriter) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if w.cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	file := w.cfg.KnownHosts
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sftp: locate known_hosts: %w", err)
		}

		file = filepath.Join(home, ".ssh", "known_hosts")
	}

	cb, err := knownhosts.New(file)
	if err != nil {
		return nil, fmt.Errorf("sftp: load known_hosts: %w", err)
	}

	return cb, nil
}

func (w *SFTPWriter) dial(ctx context.Context) (*sftp.Client, func(), error) {
	if w.cfg.Host == "" || w.cfg.User == "" || w.cfg.Pass == "" {
		return nil, nil, ErrMissingCredentials
	}

	cb, err := w.hostKeyCallback()
	if err != nil {
		return nil, nil, err
	}

	sshCfg := &ssh.ClientConfig{
		User:            w.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(w.cfg.Pass)},
		HostKeyCallback: cb,
		Timeout:         sshDialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", w.cfg.Host, w.cfg.Port)

	sshClient, err := dialContext(ctx, func() (*ssh.Client, error) {
		return ssh.Dial("tcp", addr, sshCfg)
	})
	if err != nil {
		return nil, nil, err
	}

	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()

		return nil, nil, fmt.Errorf("sftp: new client: %w", err)
	}

	return sftpCli, func() {
		sftpCli.Close()
		sshClient.Close()
	}, nil
}

// dialContext runs dial on its own goroutine and gives up when ctx is done. A
// connection that completes after the caller gave up is closed.
func dialContext[C io.Closer](ctx context.Context, dial func() (C, error)) (C, error) {
	type dialRes struct {
		conn C
		err  error
	}

	ch := make(chan dialRes, 1)

	go func() {
		c, err := dial()
		ch <- dialRes{conn: c, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.conn.Close()
			}
		}()

		var zero C

		return zero, fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return r.conn, fmt.Errorf("sftp: dial error: %w", r.err)
		}

		return r.conn, nil
	}
}
