package catalog

import (
	"context"
	"sync/atomic"

	apperrors "tas-agent/errors"

	"go.uber.org/zap"
)

// Source yields the catalog snapshot a resolver call should use.
type Source interface {
	Snapshot(ctx context.Context) (*Index, error)
}

// Holder publishes the process-wide catalog snapshot. Readers never lock;
// Reload builds a complete Index before swapping it in.
type Holder struct {
	path    string
	current atomic.Pointer[Index]
	logger  *zap.Logger
}

// NewHolder loads path once. A failure here is fatal to startup.
func NewHolder(path string, logger *zap.Logger) (*Holder, error) {
	idx, err := Load(path)
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	h := &Holder{path: path, logger: logger}
	h.Swap(idx)
	reloadsTotal.WithLabelValues("ok").Inc()
	logger.Info("Catalog loaded", zap.String("path", path), zap.Int("entries", idx.Len()))
	return h, nil
}

// NewStaticHolder wraps an already built index. Reload is a no-op without a path.
func NewStaticHolder(idx *Index, logger *zap.Logger) *Holder {
	h := &Holder{logger: logger}
	h.Swap(idx)
	return h
}

// Current returns the published snapshot.
func (h *Holder) Current() *Index {
	return h.current.Load()
}

// Snapshot implements Source. A published snapshot never fails.
func (h *Holder) Snapshot(context.Context) (*Index, error) {
	return h.Current(), nil
}

// Swap publishes idx and returns the previous snapshot.
func (h *Holder) Swap(idx *Index) *Index {
	entriesGauge.Set(float64(idx.Len()))
	return h.current.Swap(idx)
}

// Reload re-reads the holder's path and swaps the result in. On failure the
// published snapshot is left untouched.
func (h *Holder) Reload() error {
	if h.path == "" {
		return nil
	}
	idx, err := Load(h.path)
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		h.logger.Warn("Catalog reload failed, keeping previous snapshot",
			zap.String("path", h.path),
			zap.Error(err))
		return err
	}
	prev := h.Swap(idx)
	reloadsTotal.WithLabelValues("ok").Inc()
	h.logger.Info("Catalog reloaded",
		zap.String("path", h.path),
		zap.Int("entries", idx.Len()),
		zap.Int("previous_entries", prev.Len()))
	return nil
}

// FileSource reads the catalog file fresh on every call.
type FileSource struct {
	Path string
}

// Snapshot implements Source. Read failures wrap ErrCatalogRead.
func (s FileSource) Snapshot(ctx context.Context) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Join(apperrors.ErrCatalogRead, err, "read catalog %s", s.Path)
	}
	idx, err := Load(s.Path)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrCatalogRead, err, "read catalog %s", s.Path)
	}
	return idx, nil
}
