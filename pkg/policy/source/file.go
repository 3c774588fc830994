package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"tessera-hq/warden/pkg/policy"
)

// Event signals that a source's policy set changed.
type Event struct {
	// Path is the file that changed, when known.
	Path string

	// Err carries a watch failure; the policy set may be stale.
	Err error
}

// Source loads policy bundles and optionally reports changes.
type Source interface {
	// LoadPolicies loads all policies from the source.
	LoadPolicies(ctx context.Context) ([]*policy.Policy, error)

	// Watch reports changes until the context is cancelled. The returned
	// channel is closed on cancellation.
	Watch(ctx context.Context) (<-chan Event, error)
}

// FileSource loads policies from YAML or JSON files in a directory, or from
// a single file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based policy source. The path may be a single
// bundle file or a directory; directories are scanned for .yaml, .yml, and
// .json files.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger.With("component", "policy.source.file"),
	}
}

// LoadPolicies loads all policy bundles under the configured path.
func (s *FileSource) LoadPolicies(ctx context.Context) ([]*policy.Policy, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	if !info.IsDir() {
		pol, err := loadBundle(s.path)
		if err != nil {
			return nil, err
		}
		return []*policy.Policy{pol}, nil
	}

	var policies []*policy.Policy
	err = filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}

		pol, err := loadBundle(path)
		if err != nil {
			return err
		}
		policies = append(policies, pol)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loaded policy bundles", "path", s.path, "policy_count", len(policies))
	return policies, nil
}

// Watch reports file-system changes under the source path.
func (s *FileSource) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", s.path, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Editors write via rename/create; reload on any
				// mutation of a bundle file.
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				s.logger.Debug("policy file changed", "path", ev.Name, "op", ev.Op.String())
				select {
				case events <- Event{Path: ev.Name}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case events <- Event{Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// loadBundle parses one policy document. JSON bundles are parsed as JSON;
// everything else goes through the YAML parser, which accepts JSON as well.
func loadBundle(path string) (*policy.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy bundle %q: %w", path, err)
	}

	var pol policy.Policy
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &pol)
	} else {
		err = yaml.Unmarshal(data, &pol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy bundle %q: %w", path, err)
	}
	return &pol, nil
}
