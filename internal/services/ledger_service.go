package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/store"
)

const (
	keyExpenses = store.KeyExpenses
	keyBudget   = store.KeyBudget

	defaultStoreTimeout = 5 * time.Second
)

// ChangePublisher announces that a ledger key was durably written.
type ChangePublisher interface {
	PublishLedgerSaved(ctx context.Context, key string) error
}

// LoadIssue describes persisted data that was ignored during Load.
// Index is -1 when the whole key was discarded.
type LoadIssue struct {
	Key   string
	Index int
	Err   error
}

func (i LoadIssue) String() string {
	if i.Index < 0 {
		return fmt.Sprintf("%s: %v", i.Key, i.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", i.Key, i.Index, i.Err)
}

// LoadReport summarizes what Load recovered from the store.
type LoadReport struct {
	Records int
	Budget  core.Money
	Issues  []LoadIssue
}

func (r LoadReport) Clean() bool { return len(r.Issues) == 0 }

// SaveReport is the outcome of a mutation. Err is non-nil when the store
// write failed; the in-memory ledger has been updated regardless.
type SaveReport struct {
	Key      string
	Replaced bool
	Removed  core.Expense
	Err      error
}

func (r SaveReport) Durable() bool { return r.Err == nil }

// LedgerOptions configures optional collaborators of a LedgerService.
type LedgerOptions struct {
	Publisher ChangePublisher
	Logger    *slog.Logger
	// Timeout bounds each store call. Zero means five seconds.
	Timeout time.Duration
}

// LedgerService owns the ledger for the process and is its only writer.
// Every operation runs under one mutex and store writes happen inside it,
// so saves reach the store in mutation order. Change announcements are sent
// after the mutex is released.
type LedgerService struct {
	mu        sync.Mutex
	ledger    *core.Ledger
	kv        store.KV
	publisher ChangePublisher
	logger    *slog.Logger
	timeout   time.Duration
}

func NewLedgerService(kv store.KV, opts LedgerOptions) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &LedgerService{
		ledger:    core.NewLedger(nil, core.Money{}),
		kv:        kv,
		publisher: opts.Publisher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Load replaces the in-memory ledger with the persisted one. It never fails:
// missing keys give an empty ledger, unreadable data is reported as issues.
func (s *LedgerService) Load(ctx context.Context) LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report LoadReport

	records, issues := s.loadRecords(ctx)
	report.Issues = append(report.Issues, issues...)

	budget, issue := s.loadBudget(ctx)
	if issue != nil {
		report.Issues = append(report.Issues, *issue)
	}

	s.ledger = core.NewLedger(records, budget)
	report.Records = s.ledger.Len()
	report.Budget = s.ledger.Budget()

	for _, is := range report.Issues {
		s.logger.WarnContext(ctx, "Ignored persisted ledger data",
			applog.FieldOperation, applog.OpLoad,
			applog.FieldKey, is.Key,
			applog.FieldIndex, is.Index,
			applog.FieldError, is.Err)
	}
	s.logger.InfoContext(ctx, "Ledger loaded",
		applog.FieldOperation, applog.OpLoad,
		"records", report.Records,
		"budget_cents", report.Budget.Cents,
		"issues", len(report.Issues))
	return report
}

func (s *LedgerService) loadRecords(ctx context.Context) ([]core.Expense, []LoadIssue) {
	raw, err := s.get(ctx, keyExpenses)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, []LoadIssue{{Key: keyExpenses, Index: -1, Err: err}}
	}
	records, issues, err := decodeRecords(raw)
	if err != nil {
		return nil, []LoadIssue{{Key: keyExpenses, Index: -1, Err: err}}
	}
	return records, issues
}

func (s *LedgerService) loadBudget(ctx context.Context) (core.Money, *LoadIssue) {
	raw, err := s.get(ctx, keyBudget)
	if errors.Is(err, store.ErrNotFound) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, &LoadIssue{Key: keyBudget, Index: -1, Err: err}
	}
	budget, err := decodeBudget(raw)
	if err != nil {
		return core.Money{}, &LoadIssue{Key: keyBudget, Index: -1, Err: err}
	}
	return budget, nil
}

// AddOrUpdate validates e and either replaces the record at editIndex or
// appends it. Validation errors leave the ledger and the store untouched.
func (s *LedgerService) AddOrUpdate(ctx context.Context, e core.Expense, editIndex int) (SaveReport, error) {
	return s.mutate(ctx, func() (SaveReport, error) {
		replaced, err := s.ledger.AddOrUpdate(e, editIndex)
		if err != nil {
			return SaveReport{}, fmt.Errorf("add expense: %w", err)
		}
		op := applog.OpAdd
		if replaced {
			op = applog.OpUpdate
		}
		s.logger.InfoContext(ctx, "Expense recorded",
			applog.FieldOperation, op,
			applog.FieldCategory, e.Category,
			applog.FieldAmountCents, e.Amount.Cents,
			applog.FieldIndex, editIndex)

		report := s.saveRecords(ctx)
		report.Replaced = replaced
		return report, nil
	})
}

func (s *LedgerService) Remove(ctx context.Context, index int) (SaveReport, error) {
	return s.mutate(ctx, func() (SaveReport, error) {
		removed, err := s.ledger.Remove(index)
		if err != nil {
			return SaveReport{}, fmt.Errorf("remove expense %d: %w", index, err)
		}
		s.logger.InfoContext(ctx, "Expense removed",
			applog.FieldOperation, applog.OpRemove,
			applog.FieldIndex, index,
			applog.FieldCategory, removed.Category)

		report := s.saveRecords(ctx)
		report.Removed = removed
		return report, nil
	})
}

func (s *LedgerService) SetBudget(ctx context.Context, m core.Money) (SaveReport, error) {
	return s.mutate(ctx, func() (SaveReport, error) {
		if err := s.ledger.SetBudget(m); err != nil {
			return SaveReport{}, fmt.Errorf("set budget: %w", err)
		}
		s.logger.InfoContext(ctx, "Budget set",
			applog.FieldOperation, applog.OpBudget,
			applog.FieldAmountCents, m.Cents)

		raw, err := encodeBudget(s.ledger.Budget())
		if err != nil {
			return SaveReport{Key: keyBudget, Err: err}, nil
		}
		return s.save(ctx, keyBudget, raw), nil
	})
}

// mutate runs fn under the mutex and announces a durable save once the
// mutex is released, so a slow broker never blocks readers.
func (s *LedgerService) mutate(ctx context.Context, fn func() (SaveReport, error)) (SaveReport, error) {
	report, err := func() (SaveReport, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn()
	}()
	if err == nil {
		s.announce(ctx, report)
	}
	return report, err
}

func (s *LedgerService) saveRecords(ctx context.Context) SaveReport {
	raw, err := encodeRecords(s.ledger.Records())
	if err != nil {
		return SaveReport{Key: keyExpenses, Err: err}
	}
	return s.save(ctx, keyExpenses, raw)
}

// save writes one key. Failures are logged and reported, never returned as
// errors.
func (s *LedgerService) save(ctx context.Context, key string, raw []byte) SaveReport {
	report := SaveReport{Key: key}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.kv.Set(sctx, key, raw); err != nil {
		report.Err = err
		s.logger.WarnContext(ctx, "Ledger save not durable",
			applog.FieldKey, key,
			"bytes", len(raw),
			applog.FieldSuccess, false,
			applog.FieldError, err)
	}
	return report
}

// announce publishes a ledger.saved message for durable saves only.
func (s *LedgerService) announce(ctx context.Context, report SaveReport) {
	if s.publisher == nil || report.Key == "" || !report.Durable() {
		return
	}
	if err := s.publisher.PublishLedgerSaved(ctx, report.Key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger saved message",
			applog.FieldKey, report.Key,
			applog.FieldError, err)
	}
}

func (s *LedgerService) get(ctx context.Context, key string) ([]byte, error) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.kv.Get(gctx, key)
}

func (s *LedgerService) Summary() core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Summary()
}

func (s *LedgerService) Records() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Records()
}

func (s *LedgerService) Record(index int) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Record(index)
}

func (s *LedgerService) Budget() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Budget()
}

// DegradedKeys lists ledger keys whose latest write is held in memory only.
// It is empty when the store has no in-memory fallback.
func (s *LedgerService) DegradedKeys() map[string]error {
	d, ok := s.kv.(interface{ Degraded() map[string]error })
	if !ok {
		return nil
	}
	return d.Degraded()
}

// Ping reports the health of the underlying store when it supports it.
func (s *LedgerService) Ping(ctx context.Context) error {
	p, ok := s.kv.(store.Pinger)
	if !ok {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return p.Ping(pctx)
}
