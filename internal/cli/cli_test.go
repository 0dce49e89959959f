package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"spendlog/internal/backend"
	"spendlog/internal/config"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/store"
	"spendlog/internal/store/memory"
)

// memoryOpener shares one in-memory store across command invocations.
func memoryOpener(kv store.KV) func(context.Context, *rootOptions, string) (*runtime, error) {
	return func(context.Context, *rootOptions, string) (*runtime, error) {
		logger := applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
		return &runtime{
			cfg:     &config.Config{CurrencySymbol: "$"},
			logger:  logger,
			backend: &backend.Result{Type: backend.MemoryBackend, Store: kv, Primary: kv},
			svc:     services.NewLedgerService(kv, services.LedgerOptions{Logger: logger.Slog()}),
		}, nil
	}
}

func run(t *testing.T, kv store.KV, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(&rootOptions{open: memoryOpener(kv)})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLedgerCommands(t *testing.T) {
	kv := memory.New()

	out, _, err := run(t, kv, "add", "--amount", "60", "--category", "Food", "--date", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "Added $60.00 Food on 2024-03-01\n", out)

	_, _, err = run(t, kv, "add", "--amount", "50", "--category", "Travel", "--note", "train", "--date", "2024-03-02")
	require.NoError(t, err)

	out, _, err = run(t, kv, "budget", "100")
	require.NoError(t, err)
	assert.Equal(t, "Budget set to $100.00\n", out)

	out, _, err = run(t, kv, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "No note")
	assert.Contains(t, out, "train")

	out, _, err = run(t, kv, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:  $110.00")
	assert.Contains(t, out, "Budget exceeded by $10.00")

	out, _, err = run(t, kv, "add", "--amount", "20", "--category", "Bills", "--date", "2024-03-03", "--edit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated")

	out, _, err = run(t, kv, "rm", "0")
	require.NoError(t, err)
	assert.Equal(t, "Removed $60.00 Food on 2024-03-01\n", out)

	out, _, err = run(t, kv, "budget")
	require.NoError(t, err)
	assert.Equal(t, "$100.00\n", out)
}

func TestAddValidation(t *testing.T) {
	kv := memory.New()

	_, _, err := run(t, kv, "add", "--amount", "0", "--category", "Food")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, _, err = run(t, kv, "add", "--amount", "5", "--category", "Food", "--date", "yesterday")
	assert.Error(t, err)

	_, _, err = run(t, kv, "rm", "4")
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)

	_, _, err = run(t, kv, "budget", "0")
	assert.ErrorIs(t, err, core.ErrInvalidBudget)

	out, _, err := run(t, kv, "list")
	require.NoError(t, err)
	assert.Equal(t, "No data yet\n", out)
}

func TestAddSuggestsCategory(t *testing.T) {
	_, errOut, err := run(t, memory.New(), "add", "--amount", "5", "--category", "Fodo", "--date", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, errOut, `did you mean "Food"?`)
}

func TestSummaryFormats(t *testing.T) {
	kv := memory.New()
	_, _, err := run(t, kv, "add", "--amount", "30", "--category", "Food", "--date", "2024-03-01")
	require.NoError(t, err)
	_, _, err = run(t, kv, "add", "--amount", "10", "--category", "Bills", "--date", "2024-03-01")
	require.NoError(t, err)

	out, _, err := run(t, kv, "summary", "-o", "json")
	require.NoError(t, err)
	var js summaryOutput
	require.NoError(t, json.Unmarshal([]byte(out), &js))
	assert.Equal(t, "40.00", js.Total)
	assert.Equal(t, "unset", js.Status)
	require.Len(t, js.Categories, 2)
	assert.Equal(t, "Food", js.Categories[0].Name)
	assert.Equal(t, 270.0, js.Categories[0].AngleDegrees)
	assert.InDelta(t, 33.33, js.Categories[1].SharePercent, 0.001)

	out, _, err = run(t, kv, "summary", "-o", "yaml")
	require.NoError(t, err)
	var ys summaryOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &ys))
	assert.Equal(t, js, ys)

	_, _, err = run(t, kv, "summary", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestWriteSummaryTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummaryText(&buf, core.Summarize(nil, core.Money{}), "$"))
	assert.Equal(t, "Total:  $0.00\nNo data yet\n", buf.String())
}

func TestUnreachableBackendDoesNotAbortCommands(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(blocker, "ledger.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "No data yet")
	assert.Contains(t, errOut.String(), "warning: ignored expenses")

	out.Reset()
	errOut.Reset()
	cmd = NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"budget", "100"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, errOut.String(), "was not saved to storage")
}
