package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/cache"
	applog "spendlog/internal/log"
	"spendlog/internal/store"
)

// MirrorWorker copies ledger keys from the primary store to a backup store.
// It reacts to ledger.saved messages and also sweeps every key periodically
// in case messages were lost.
type MirrorWorker struct {
	source store.KV
	mirror store.KV
	keys   []string
	logger *slog.Logger

	// last mirrored digest per key, so unchanged values are not rewritten
	seen cache.Cache[string]
}

func NewMirrorWorker(source, mirror store.KV, keys []string, seen cache.Cache[string], logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if len(keys) == 0 {
		keys = store.LedgerKeys
	}
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		keys:   keys,
		seen:   seen,
		logger: logger,
	}
}

// HandleSavedMessage mirrors the key named by msg.
func (w *MirrorWorker) HandleSavedMessage(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger saved message", "id", msg.ID, applog.FieldKey, msg.Key)

	mirrored, err := w.MirrorKey(ctx, msg.Key)
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Ledger key mirrored",
		applog.FieldOperation, applog.OpMirror,
		"id", msg.ID,
		applog.FieldKey, msg.Key,
		"written", mirrored,
		"lag", time.Since(msg.Timestamp).Round(time.Millisecond))
	return nil
}

// MirrorKey copies one key and reports whether the mirror was written.
// A key absent from the source is skipped.
func (w *MirrorWorker) MirrorKey(ctx context.Context, key string) (bool, error) {
	value, err := w.source.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s from source: %w", key, err)
	}

	sum := sha256.Sum256(value)
	digest := hex.EncodeToString(sum[:])
	if w.seen != nil {
		if prev, ok := w.seen.Get(key); ok && prev == digest {
			return false, nil
		}
	}

	if err := w.mirror.Set(ctx, key, value); err != nil {
		if w.seen != nil {
			w.seen.Delete(key)
		}
		return false, fmt.Errorf("write %s to mirror: %w", key, err)
	}
	if w.seen != nil {
		w.seen.Set(key, digest)
	}
	return true, nil
}

// SyncAll mirrors every configured key and returns how many were written.
// It keeps going after a failing key and returns the joined errors.
func (w *MirrorWorker) SyncAll(ctx context.Context) (int, error) {
	written := 0
	var errs []error
	for _, key := range w.keys {
		ok, err := w.MirrorKey(ctx, key)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror key",
				applog.FieldOperation, applog.OpMirror,
				applog.FieldKey, key,
				applog.FieldError, err)
			errs = append(errs, err)
			continue
		}
		if ok {
			written++
		}
	}
	if written > 0 {
		w.logger.InfoContext(ctx, "Mirror sweep completed", applog.FieldOperation, applog.OpMirror, "written", written)
	}
	return written, errors.Join(errs...)
}

// RunPeriodic calls SyncAll every interval until ctx is done.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = w.SyncAll(ctx)
		}
	}
}
