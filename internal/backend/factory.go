package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendlog/internal/storage"
	"spendlog/internal/store"
	gstore "spendlog/internal/store/google"
	"spendlog/internal/store/memory"
	rstore "spendlog/internal/store/redis"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend builds the configured store and, for anything but memory,
// wraps it in an in-memory fallback. Only an invalid config is an error: a
// backend that cannot be reached becomes a store.Unavailable primary, so the
// ledger starts empty and every write stays in memory.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	primary, cleanup, err := f.CreateStore(ctx, config)
	if err != nil {
		f.logger.WarnContext(ctx, "Backend unavailable, running on in-memory store",
			"backend", config.Type.String(), "error", err)
		primary = store.Unavailable{Err: err}
		cleanup = nil
	}

	res := &Result{Type: config.Type, Store: primary, Primary: primary, Cleanup: cleanup, Unavailable: err}
	if config.Type != MemoryBackend {
		res.Fallback = store.NewFallback(primary, memory.New(), f.logger)
		res.Store = res.Fallback
	}
	return res, nil
}

func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (store.KV, CleanupFunc, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case PostgresBackend:
		return f.createPostgresStore(ctx, config)
	case RedisBackend:
		return f.createRedisStore(config)
	case SheetsBackend:
		return f.createSheetsStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore(config)
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(config Config) (store.KV, CleanupFunc, error) {
	s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return s, s.Close, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (store.KV, CleanupFunc, error) {
	s, err := storage.NewPostgresStore(ctx, config.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}
	f.logger.Info("Initialized Postgres backend")
	return s, s.Close, nil
}

func (f *DefaultFactory) createRedisStore(config Config) (store.KV, CleanupFunc, error) {
	s, err := rstore.New(rstore.Options{
		Addrs:     config.RedisAddrs,
		Password:  config.RedisPassword,
		Cluster:   config.RedisCluster,
		Namespace: config.RedisNamespace,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Redis store: %w", err)
	}
	f.logger.Info("Initialized Redis backend",
		"addrs", config.RedisAddrs,
		"cluster", config.RedisCluster,
		"namespace", config.RedisNamespace)
	return s, s.Close, nil
}

func (f *DefaultFactory) createSheetsStore(ctx context.Context, config Config) (store.KV, CleanupFunc, error) {
	s, err := gstore.New(ctx, gstore.Options{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return s, nil, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (store.KV, CleanupFunc, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	s := memory.NewFromFiles(dataDir)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir, "seeded_keys", len(s.Keys()))
	return s, nil, nil
}
