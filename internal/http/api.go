package http

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

type apiRecord struct {
	Index    int        `json:"index"`
	Amount   core.Money `json:"amount"`
	Category string     `json:"category"`
	Note     string     `json:"note"`
	Date     core.Date  `json:"date"`
}

type apiLedger struct {
	Records []apiRecord `json:"records"`
	Budget  core.Money  `json:"budget"`
}

type apiSummary struct {
	core.Summary
	Message string `json:"message"`
}

func (s *Server) handleAPILedger(w http.ResponseWriter, r *http.Request) {
	records := s.svc.Records()
	out := apiLedger{Records: make([]apiRecord, 0, len(records)), Budget: s.svc.Budget()}
	for i, e := range records {
		out.Records = append(out.Records, apiRecord{
			Index:    i,
			Amount:   e.Amount,
			Category: e.Category,
			Note:     e.Note,
			Date:     e.Date,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum := s.svc.Summary()
	writeJSON(w, r, http.StatusOK, apiSummary{Summary: sum, Message: sum.Message(s.currency)})
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":          "ok",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"uptime":          time.Since(s.started).Round(time.Second).String(),
		"requests":        m.TotalRequests,
		"avg_response_ms": m.AverageResponseTime.Milliseconds(),
	})
}

// handleReady reports whether the ledger store answers, and which keys are
// currently held in memory only.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"templates": "ok", "store": "ok"}
	status, code := "ready", http.StatusOK
	if err := s.svc.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	degraded := []string{}
	if keys := s.svc.DegradedKeys(); len(keys) > 0 {
		degraded = slices.Sorted(maps.Keys(keys))
		checks["persistence"] = "degraded"
	}
	writeJSON(w, r, code, map[string]any{
		"status":        status,
		"checks":        checks,
		"degraded_keys": degraded,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Encode JSON response", applog.FieldError, err)
	}
}
