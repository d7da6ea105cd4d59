// Package secrets supplies the upstream bot credential to the relay.
//
// The credential can come from the configuration file, an environment
// variable, or a mounted secret file that is watched for changes. A missing
// credential is not an error at this layer; credentialed routes answer
// "server misconfigured" until one appears.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"relaywire/courier/pkg/config"
)

// TokenSource supplies the upstream bot token.
type TokenSource interface {
	// Token returns the current token, or "" when unconfigured.
	Token() string

	// Close releases any resources held by the source.
	Close() error
}

// StaticToken is a fixed token value (from config or environment).
type StaticToken string

// Token returns the fixed value.
func (t StaticToken) Token() string { return string(t) }

// Close is a no-op for static tokens.
func (t StaticToken) Close() error { return nil }

// NewFromConfig builds a TokenSource from the upstream configuration.
// A token file takes precedence over an inline token.
func NewFromConfig(cfg config.UpstreamConfig) (TokenSource, error) {
	if cfg.TokenFile != "" {
		return NewFileToken(cfg.TokenFile, true)
	}
	return StaticToken(cfg.Token), nil
}

// FileToken reads the token from a single file and optionally watches it for
// changes, supporting Kubernetes-style secret mounts where the file is
// replaced on rotation.
type FileToken struct {
	path string

	mu      sync.RWMutex
	token   string
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewFileToken creates a file-backed token source.
//
// The file is read immediately; a missing or unreadable file yields an empty
// token (logged, not fatal). When watch is enabled, the file's directory is
// watched so that atomic replace-on-rotate is observed.
func NewFileToken(path string, watch bool) (*FileToken, error) {
	t := &FileToken{
		path:   path,
		stopCh: make(chan struct{}),
	}
	t.reload()

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create token file watcher: %w", err)
		}

		// Watch the directory: editors and secret mounts replace the file
		// rather than writing it in place.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch token directory: %w", err)
		}

		t.watcher = watcher
		go t.watchLoop()

		slog.Info("token file source started with watching", "path", path)
	}

	return t, nil
}

// Token returns the most recently loaded token.
func (t *FileToken) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// Close stops the watcher.
func (t *FileToken) Close() error {
	if t.watcher != nil {
		close(t.stopCh)
		return t.watcher.Close()
	}
	return nil
}

// reload re-reads the token file. Surrounding whitespace is trimmed, which is
// common for file-based secrets.
func (t *FileToken) reload() {
	data, err := os.ReadFile(t.path)
	if err != nil {
		slog.Warn("failed to read token file", "path", t.path, "error", err)
		t.mu.Lock()
		t.token = ""
		t.mu.Unlock()
		return
	}

	t.mu.Lock()
	t.token = strings.TrimSpace(string(data))
	t.mu.Unlock()
}

// watchLoop reloads the token when the watched file changes.
func (t *FileToken) watchLoop() {
	for {
		select {
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				slog.Debug("token file changed, reloading", "op", event.Op.String())
				t.reload()
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("token file watcher error", "error", err)

		case <-t.stopCh:
			return
		}
	}
}
