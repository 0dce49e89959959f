package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	applog "spendlog/internal/log"
)

// Fallback keeps every write in a secondary (in-memory) store as well as the
// primary. When the primary fails, the value survives in the secondary for the
// rest of the process and Set reports ErrDegraded.
type Fallback struct {
	primary   KV
	secondary KV
	logger    *slog.Logger

	mu       sync.Mutex
	degraded map[string]error
}

var _ KV = (*Fallback)(nil)

func NewFallback(primary, secondary KV, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		degraded:  make(map[string]error),
	}
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	if f.isDegraded(key) {
		return f.secondary.Get(ctx, key)
	}
	v, err := f.primary.Get(ctx, key)
	if err == nil || errors.Is(err, ErrNotFound) {
		return v, err
	}
	if mv, merr := f.secondary.Get(ctx, key); merr == nil {
		f.logger.WarnContext(ctx, "Primary store read failed, serving in-memory copy", applog.FieldKey, key, applog.FieldError, err)
		return mv, nil
	}
	return nil, err
}

func (f *Fallback) Set(ctx context.Context, key string, value []byte) error {
	if err := f.secondary.Set(ctx, key, value); err != nil {
		return fmt.Errorf("secondary set %s: %w", key, err)
	}

	err := f.primary.Set(ctx, key, value)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.degraded[key] = err
		f.logger.WarnContext(ctx, "Primary store write failed, change kept in memory only", applog.FieldKey, key, applog.FieldError, err)
		return fmt.Errorf("%w: %v", ErrDegraded, err)
	}
	delete(f.degraded, key)
	return nil
}

// Degraded reports the keys whose latest write did not reach the primary.
func (f *Fallback) Degraded() map[string]error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]error, len(f.degraded))
	for k, v := range f.degraded {
		out[k] = v
	}
	return out
}

// Ping delegates to the primary when it supports health checks.
func (f *Fallback) Ping(ctx context.Context) error {
	if p, ok := f.primary.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (f *Fallback) isDegraded(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.degraded[key]
	return ok
}
