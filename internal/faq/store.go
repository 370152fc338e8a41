package faq

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store keeps the current FAQ snapshot for a resource path. Sessions take
// the snapshot once, so a reload only affects sessions created afterwards.
type Store struct {
	path    string
	log     *zap.Logger
	current atomic.Pointer[Matcher]
}

// NewStore loads the resource at path, falling back to an empty FAQ.
func NewStore(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{path: path, log: log.Named("faq")}
	s.current.Store(NewMatcher(LoadOrEmpty(path, s.log)))
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() *Matcher {
	return s.current.Load()
}

// Reload re-reads the resource. On failure the previous snapshot stays active.
func (s *Store) Reload() error {
	entries, err := Load(s.path)
	if err != nil {
		s.log.Warn("faq reload failed, keeping previous entries", zap.String("path", s.path), zap.Error(err))
		return err
	}
	s.current.Store(NewMatcher(entries))
	s.log.Info("faq reloaded", zap.String("path", s.path), zap.Int("entries", len(entries)))
	return nil
}

// Watch reloads the FAQ whenever the resource is written or replaced, until
// ctx is cancelled. The parent directory is watched so editors that swap the
// file through a rename are noticed.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create faq watcher: %w", err)
	}
	absPath, err := filepath.Abs(s.path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("resolve faq path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch faq dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				_ = s.Reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("faq watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
