package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	l.Info("Expense recorded", FieldAmountCents, 1250)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentLedger)
	}
	if entry[FieldAmountCents] != float64(1250) {
		t.Errorf("amount_cents = %v", entry[FieldAmountCents])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentApp, Output: &buf}).WithComponent(ComponentHTTP)

	if l.Component() != ComponentHTTP {
		t.Fatalf("Component() = %s", l.Component())
	}
	l.Info("x")
	if !strings.Contains(buf.String(), `"parent":"app"`) {
		t.Errorf("expected parent attribute in %q", buf.String())
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithExpense("Food", 500, 2).
		WithOperation(OpAdd).
		WithError(nil)

	if _, ok := f[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
	f.WithError(errors.New("boom"))
	if f[FieldError] != "boom" || f[FieldCategory] != "Food" || f[FieldIndex] != 2 {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Error("ToSlice should emit key/value pairs")
	}
}

func TestMiddlewareAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	var seen *Logger
	h := Middleware(base, func(*http.Request) string { return "req-1" })(
		AccessLog(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?y=1", nil))

	if seen == nil || seen.Component() != ComponentApp {
		t.Fatal("expected logger in request context")
	}
	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"status_code":418`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %q", want, out)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("Component() = %s", l.Component())
	}
}
