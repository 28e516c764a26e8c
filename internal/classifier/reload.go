package classifier

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/wellness-risk/internal/features"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

// #region reloader
// Reloader serves the active classifier and swaps it when its config file
// changes. Readers never block on a reload.
type Reloader struct {
	path    string
	logger  *zap.Logger
	current atomic.Pointer[Classifier]
	reloads atomic.Int64
}

// NewReloader loads path (defaults when empty) and returns a reloader.
func NewReloader(path string, logger *zap.Logger) (*Reloader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	r := &Reloader{path: path, logger: logger}
	r.current.Store(c)
	return r, nil
}

// Current returns the active classifier.
func (r *Reloader) Current() *Classifier { return r.current.Load() }

// Classify delegates to the active classifier.
func (r *Reloader) Classify(v features.Vector) risk.Assessment {
	return r.Current().Classify(v)
}

// Reloads counts successful swaps.
func (r *Reloader) Reloads() int64 { return r.reloads.Load() }

// Reload re-reads the config file. On error the active classifier is kept.
func (r *Reloader) Reload() error {
	cfg, err := LoadConfig(r.path)
	if err != nil {
		return err
	}
	next, err := New(cfg)
	if err != nil {
		return err
	}
	if prev := r.current.Load(); prev != nil {
		next.now = prev.now
	}
	r.current.Store(next)
	r.reloads.Add(1)
	return nil
}

// #endregion reloader

// #region watch
// Watch reloads on writes to the config file until ctx is done. The parent
// directory is watched so editors that replace the file are picked up.
func (r *Reloader) Watch(ctx context.Context) error {
	if r.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch classifier config: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(r.path)
	if err != nil {
		return fmt.Errorf("watch classifier config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch classifier config: %w", err)
	}
	r.logger.Info("watching classifier config", zap.String("path", abs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if err := r.Reload(); err != nil {
				r.logger.Warn("classifier config rejected, keeping previous", zap.Error(err))
				continue
			}
			r.logger.Info("classifier config reloaded", zap.Int64("reloads", r.reloads.Load()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("classifier config watcher", zap.Error(err))
		}
	}
}

// #endregion watch
