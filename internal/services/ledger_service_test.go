package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
	"spendlog/internal/store"
	"spendlog/internal/store/memory"
)

var errStoreDown = errors.New("store down")

type failingKV struct {
	*memory.Store
	failGet, failSet bool
	sets             int
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errStoreDown
	}
	return f.Store.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.failSet {
		return errStoreDown
	}
	return f.Store.Set(ctx, key, value)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) PublishLedgerSaved(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(kv store.KV, pub ChangePublisher) *LedgerService {
	opts := LedgerOptions{Logger: quietLogger()}
	if pub != nil {
		opts.Publisher = pub
	}
	return NewLedgerService(kv, opts)
}

func expense(cents int64, category string) core.Expense {
	return core.Expense{
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     core.NewDate(2024, 3, 14),
	}
}

func TestLoadEmptyStore(t *testing.T) {
	svc := newService(memory.New(), nil)

	report := svc.Load(context.Background())

	assert.True(t, report.Clean())
	assert.Equal(t, 0, report.Records)
	assert.Empty(t, svc.Records())
	assert.Equal(t, core.StatusUnset, svc.Summary().Status)
}

func TestLoadValidData(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, store.KeyExpenses, []byte(
		`[{"amount":12.5,"category":"Food","note":"lunch","date":"2024-03-01"},
		  {"amount":40,"category":"Travel","date":"2024-03-02"}]`)))
	require.NoError(t, kv.Set(ctx, store.KeyBudget, []byte(`100`)))

	svc := newService(kv, nil)
	report := svc.Load(ctx)

	require.True(t, report.Clean(), "issues: %v", report.Issues)
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, int64(10000), report.Budget.Cents)

	recs := svc.Records()
	assert.Equal(t, int64(1250), recs[0].Amount.Cents)
	assert.Equal(t, "lunch", recs[0].Note)
	assert.Equal(t, "", recs[1].Note)
	assert.Equal(t, int64(5250), svc.Summary().Total.Cents)
}

func TestLoadMalformedData(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, store.KeyExpenses, []byte(`{not json`)))
	require.NoError(t, kv.Set(ctx, store.KeyBudget, []byte(`"lots"`)))

	svc := newService(kv, nil)
	report := svc.Load(ctx)

	require.Len(t, report.Issues, 2)
	assert.Equal(t, store.KeyExpenses, report.Issues[0].Key)
	assert.Equal(t, -1, report.Issues[0].Index)
	assert.Equal(t, store.KeyBudget, report.Issues[1].Key)
	assert.Empty(t, svc.Records())
	assert.True(t, svc.Budget().IsZero())
}

func TestLoadSkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, store.KeyExpenses, []byte(`[
		{"amount":5,"category":"Food","date":"2024-01-01"},
		{"amount":0,"category":"Food","date":"2024-01-01"},
		{"amount":3,"category":"","date":"2024-01-01"},
		{"amount":"abc","category":"Food","date":"2024-01-01"},
		7,
		{"amount":2,"category":"Bills","date":"2024-01-02"}
	]`)))

	svc := newService(kv, nil)
	report := svc.Load(ctx)

	assert.Equal(t, 2, report.Records)
	require.Len(t, report.Issues, 4)
	for i, want := range []int{1, 2, 3, 4} {
		assert.Equal(t, want, report.Issues[i].Index)
	}
	assert.ErrorIs(t, report.Issues[0].Err, core.ErrInvalidAmount)
	assert.ErrorIs(t, report.Issues[1].Err, core.ErrEmptyCategory)
	assert.Contains(t, report.Issues[1].String(), "expenses[2]")
}

func TestLoadNegativeBudgetResets(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, store.KeyBudget, []byte(`-20`)))

	svc := newService(kv, nil)
	report := svc.Load(ctx)

	require.Len(t, report.Issues, 1)
	assert.True(t, svc.Budget().IsZero())
}

func TestLoadStoreFailure(t *testing.T) {
	kv := &failingKV{Store: memory.New(), failGet: true}
	svc := newService(kv, nil)

	report := svc.Load(context.Background())

	require.Len(t, report.Issues, 2)
	assert.ErrorIs(t, report.Issues[0].Err, errStoreDown)
	assert.Empty(t, svc.Records())
}

func TestAddPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	pub := &recordingPublisher{}
	svc := newService(kv, pub)
	svc.Load(ctx)

	report, err := svc.AddOrUpdate(ctx, expense(999, "Food"), core.NoEdit)
	require.NoError(t, err)
	assert.True(t, report.Durable())
	assert.False(t, report.Replaced)
	assert.Equal(t, store.KeyExpenses, report.Key)

	raw, err := kv.Get(ctx, store.KeyExpenses)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"amount":9.99,"category":"Food","note":"","date":"2024-03-14"}]`, string(raw))
	assert.Equal(t, []string{store.KeyExpenses}, pub.keys)
}

func TestUpdateReplacesAtIndex(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New(), nil)
	_, _ = svc.AddOrUpdate(ctx, expense(100, "Food"), core.NoEdit)
	_, _ = svc.AddOrUpdate(ctx, expense(200, "Bills"), core.NoEdit)

	report, err := svc.AddOrUpdate(ctx, expense(300, "Travel"), 0)
	require.NoError(t, err)
	assert.True(t, report.Replaced)

	recs := svc.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "Travel", recs[0].Category)
	rec, ok := svc.Record(1)
	require.True(t, ok)
	assert.Equal(t, "Bills", rec.Category)
}

func TestValidationErrorDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New()}
	pub := &recordingPublisher{}
	svc := newService(kv, pub)

	_, err := svc.AddOrUpdate(ctx, expense(0, "Food"), core.NoEdit)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.SetBudget(ctx, core.Money{Cents: -500})
	assert.ErrorIs(t, err, core.ErrInvalidBudget)

	_, err = svc.Remove(ctx, 3)
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)

	assert.Zero(t, kv.sets)
	assert.Empty(t, pub.keys)
	assert.Empty(t, svc.Records())
}

func TestStoreFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New(), failSet: true}
	pub := &recordingPublisher{}
	svc := newService(kv, pub)

	report, err := svc.AddOrUpdate(ctx, expense(500, "Health"), core.NoEdit)
	require.NoError(t, err)
	assert.False(t, report.Durable())
	assert.ErrorIs(t, report.Err, errStoreDown)
	assert.Len(t, svc.Records(), 1)
	assert.Empty(t, pub.keys, "non-durable saves are not announced")
}

func TestPublishErrorIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker gone")}
	svc := newService(memory.New(), pub)

	report, err := svc.SetBudget(ctx, core.Money{Cents: 10000})
	require.NoError(t, err)
	assert.True(t, report.Durable())
	assert.Equal(t, store.KeyBudget, report.Key)
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	entered chan string
	release chan struct{}
}

func (p *blockingPublisher) PublishLedgerSaved(ctx context.Context, key string) error {
	p.entered <- key
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSlowPublisherDoesNotBlockReaders(t *testing.T) {
	ctx := context.Background()
	pub := &blockingPublisher{entered: make(chan string, 1), release: make(chan struct{})}
	svc := newService(memory.New(), pub)

	done := make(chan SaveReport, 1)
	go func() {
		report, _ := svc.AddOrUpdate(ctx, expense(700, "Food"), core.NoEdit)
		done <- report
	}()

	select {
	case key := <-pub.entered:
		assert.Equal(t, store.KeyExpenses, key)
	case <-time.After(5 * time.Second):
		t.Fatal("publish was never attempted")
	}

	read := make(chan core.Summary, 1)
	go func() { read <- svc.Summary() }()
	select {
	case sum := <-read:
		assert.Equal(t, int64(700), sum.Total.Cents)
	case <-time.After(5 * time.Second):
		t.Fatal("Summary blocked behind a pending publish")
	}

	close(pub.release)
	report := <-done
	assert.True(t, report.Durable())
}

func TestLoadFromUnavailableBackendStartsEmpty(t *testing.T) {
	ctx := context.Background()
	fb := store.NewFallback(store.Unavailable{Err: errStoreDown}, memory.New(), quietLogger())
	svc := newService(fb, nil)

	report := svc.Load(ctx)
	assert.False(t, report.Clean())
	assert.Len(t, report.Issues, 2)
	assert.Empty(t, svc.Records())
	assert.True(t, svc.Budget().IsZero())
	assert.Error(t, svc.Ping(ctx))

	saved, err := svc.AddOrUpdate(ctx, expense(300, "Food"), core.NoEdit)
	require.NoError(t, err)
	assert.False(t, saved.Durable())
	assert.ErrorIs(t, saved.Err, store.ErrDegraded)
	assert.Contains(t, svc.DegradedKeys(), store.KeyExpenses)

	svc.Load(ctx)
	assert.Len(t, svc.Records(), 1, "degraded writes stay readable for the process lifetime")
}

func TestDegradedKeysWithoutFallback(t *testing.T) {
	assert.Nil(t, newService(memory.New(), nil).DegradedKeys())
}

func TestRemovePersists(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	svc := newService(kv, nil)
	_, _ = svc.AddOrUpdate(ctx, expense(100, "Food"), core.NoEdit)
	_, _ = svc.AddOrUpdate(ctx, expense(200, "Bills"), core.NoEdit)

	report, err := svc.Remove(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Food", report.Removed.Category)

	raw, err := kv.Get(ctx, store.KeyExpenses)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Food")
	assert.True(t, strings.Contains(string(raw), "Bills"))
}

func TestRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	svc := newService(kv, nil)
	e := expense(1234, "Shopping")
	e.Note = "shoes"
	_, _ = svc.AddOrUpdate(ctx, e, core.NoEdit)
	_, _ = svc.SetBudget(ctx, core.Money{Cents: 5000})

	reloaded := newService(kv, nil)
	report := reloaded.Load(ctx)

	require.True(t, report.Clean())
	assert.Equal(t, svc.Records(), reloaded.Records())
	assert.Equal(t, svc.Summary(), reloaded.Summary())
}

func TestScenarioExceeded(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New(), nil)
	_, _ = svc.SetBudget(ctx, core.Money{Cents: 10000})
	_, _ = svc.AddOrUpdate(ctx, expense(6000, "Food"), core.NoEdit)
	_, _ = svc.AddOrUpdate(ctx, expense(5000, "Travel"), core.NoEdit)

	sum := svc.Summary()
	assert.Equal(t, core.StatusExceeded, sum.Status)
	assert.Equal(t, int64(1000), sum.Overage.Cents)
	assert.Equal(t, "Budget exceeded by $10.00", sum.Message("$"))
}

func TestPingWithoutPinger(t *testing.T) {
	svc := newService(memory.New(), nil)
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddOrUpdate(ctx, expense(100, "Food"), core.NoEdit)
		}()
	}
	wg.Wait()

	assert.Len(t, svc.Records(), 20)
	assert.Equal(t, int64(2000), svc.Summary().Total.Cents)
}
