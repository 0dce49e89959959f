package backend

import (
	"context"
	"slices"

	"spendlog/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready-to-use ledger store. Store wraps Primary in an in-memory
// fallback unless the backend is already in memory; Fallback is nil then.
// Unavailable holds the error that kept the primary from opening.
type Result struct {
	Type        BackendType
	Store       store.KV
	Primary     store.KV
	Fallback    *store.Fallback
	Cleanup     CleanupFunc
	Unavailable error
}

// Close runs Cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates ledger stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
	// CreateStore builds the bare backend store without the fallback.
	CreateStore(ctx context.Context, config Config) (store.KV, CleanupFunc, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN string

	// Redis specific
	RedisAddrs     []string
	RedisPassword  string
	RedisCluster   bool
	RedisNamespace string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend seeds itself from <DataDirectory>/<key>.json
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	RedisBackend    BackendType = "redis"
	SheetsBackend   BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
