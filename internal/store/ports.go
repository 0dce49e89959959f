package store

import (
	"context"
	"errors"
)

// Keys under which the ledger is persisted.
const (
	KeyExpenses = "expenses"
	KeyBudget   = "budget"
)

// LedgerKeys lists every key the ledger writes, in load order.
var LedgerKeys = []string{KeyExpenses, KeyBudget}

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("key not found")
	// ErrDegraded is returned by Set when the value was kept in memory only.
	ErrDegraded = errors.New("store degraded to in-memory fallback")
)

// Ports for outbound adapters.
type (
	// KV is a string-keyed store of opaque serialized values. A Set fully
	// overwrites the previous value.
	KV interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
	}

	// Pinger is implemented by stores that can report backend health.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
