package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/amqp"
	"spendlog/internal/backend"
	"spendlog/internal/cache"
	applog "spendlog/internal/log"
	"spendlog/internal/store"
	"spendlog/internal/worker"
)

const (
	// digestCacheSize covers every ledger key with room to spare.
	digestCacheSize = 64
	digestCacheTTL  = time.Hour
	cacheSweepTick  = 10 * time.Minute
)

// RunWorker mirrors ledger keys from the configured backend to Google
// Sheets until ctx is cancelled. It reacts to ledger.saved messages and
// re-syncs every MIRROR_INTERVAL.
func RunWorker(ctx context.Context, envFile string) error {
	if err := LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateMirror(); err != nil {
		return err
	}
	logger, err := SetupLogger(cfg, applog.ComponentWorker)
	if err != nil {
		return err
	}
	logger.Info("Starting spendlog-worker", applog.FieldBackend, cfg.DataBackend)

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())

	// The source is read without the in-memory fallback: a failed read must
	// not be mirrored as "not found".
	srcCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	source, closeSource, err := factory.CreateStore(ctx, srcCfg)
	if err != nil {
		return fmt.Errorf("open source %s: %w", srcCfg.Type, err)
	}
	defer closeQuietly(logger, closeSource)

	mirror, closeMirror, err := factory.CreateStore(ctx, backend.MirrorConfig(cfg))
	if err != nil {
		return fmt.Errorf("open sheets mirror: %w", err)
	}
	defer closeQuietly(logger, closeMirror)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		logger.WithComponent(applog.ComponentAMQP).Slog())
	if err != nil {
		return fmt.Errorf("connect AMQP: %w", err)
	}
	defer func() { _ = client.Close() }()

	digests := cache.NewLRU[string](digestCacheSize, digestCacheTTL)
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	caches.Register(digests)

	w := worker.NewMirrorWorker(source, mirror, store.LedgerKeys, digests, logger.Slog())

	if n, err := w.SyncAll(ctx); err != nil {
		logger.Error("Startup mirror sync failed", applog.FieldOperation, applog.OpStartup, applog.FieldError, err)
	} else {
		logger.Info("Startup mirror sync complete", applog.FieldOperation, applog.OpStartup, "written", n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeLedgerSaved(gctx, w.HandleSavedMessage)
	})
	g.Go(func() error {
		return w.RunPeriodic(gctx, cfg.MirrorInterval)
	})
	g.Go(func() error {
		return caches.Run(gctx, cacheSweepTick)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
	return nil
}

func closeQuietly(logger *applog.Logger, fn backend.CleanupFunc) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warn("Failed to release backend", applog.FieldError, err)
	}
}
