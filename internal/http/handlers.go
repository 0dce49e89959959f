package http

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/middleware/security"
	"spendlog/internal/services"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := expenseForm{Date: s.now().Format(core.DateLayout), EditIndex: core.NoEdit}

	if i := parseIndex(q.Get("edit")); i != core.NoEdit {
		if e, ok := s.svc.Record(i); ok {
			form = expenseForm{
				Amount:    e.Amount.String(),
				Category:  e.Category,
				Note:      e.Note,
				Date:      e.Date.String(),
				EditIndex: i,
			}
		}
	}

	data := s.page(form)
	data.Notice = buildNotice(q.Get("notice"), q.Get("degraded") == "1")
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		logger.WarnContext(r.Context(), "Parse form error", applog.FieldError, err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := readExpenseForm(r.PostForm)
	e, err := form.Expense()
	if err != nil {
		s.renderInvalid(w, r, form, err)
		return
	}

	report, err := s.svc.AddOrUpdate(r.Context(), e, form.EditIndex)
	if err != nil {
		s.renderInvalid(w, r, form, err)
		return
	}

	code := noticeAdded
	if report.Replaced {
		code = noticeUpdated
	}
	logger.InfoContext(r.Context(), "Expense saved",
		applog.NewFields().
			WithExpense(e.Category, e.Amount.Cents, form.EditIndex).
			WithOperation(code).
			WithSuccess(report.Durable()).ToSlice()...)
	s.redirect(w, r, code, report)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid expense index", http.StatusBadRequest)
		return
	}

	report, err := s.svc.Remove(r.Context(), index)
	if err != nil {
		form := expenseForm{Date: s.now().Format(core.DateLayout), EditIndex: core.NoEdit}
		s.renderInvalid(w, r, form, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense removed",
		applog.NewFields().
			WithExpense(report.Removed.Category, report.Removed.Amount.Cents, index).
			WithSuccess(report.Durable()).ToSlice()...)
	s.redirect(w, r, noticeRemoved, report)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	raw := sanitizeInput(r.PostForm.Get("budget"))
	form := expenseForm{Date: s.now().Format(core.DateLayout), EditIndex: core.NoEdit}

	m, err := core.ParseMoney(raw)
	if err != nil {
		s.renderInvalidBudget(w, r, form, raw)
		return
	}
	report, err := s.svc.SetBudget(r.Context(), m)
	if err != nil {
		s.renderInvalidBudget(w, r, form, raw)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Budget saved",
		applog.FieldAmountCents, m.Cents,
		applog.FieldSuccess, report.Durable())
	s.redirect(w, r, noticeBudget, report)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, security.ClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

func (s *Server) page(form expenseForm) pageData {
	return pageData{
		Currency:   s.currency,
		Categories: core.MergeCategories(s.categories, []string{form.Category}),
		Form:       form,
		Records:    buildRecords(s.svc.Records(), s.currency),
		Summary:    buildSummary(s.svc.Summary(), s.currency),
		Quote:      s.quote(),
		Budget:     budgetInput(s.svc.Budget()),
	}
}

func budgetInput(m core.Money) string {
	if m.IsZero() {
		return ""
	}
	return m.String()
}

func (s *Server) renderInvalid(w http.ResponseWriter, r *http.Request, form expenseForm, err error) {
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Rejected input",
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err)
	data := s.page(form)
	data.Errors = userMessages(err)
	s.render(w, r, http.StatusUnprocessableEntity, data)
}

func (s *Server) renderInvalidBudget(w http.ResponseWriter, r *http.Request, form expenseForm, raw string) {
	data := s.page(form)
	data.Budget = raw
	data.Errors = userMessages(core.ErrInvalidBudget)
	s.render(w, r, http.StatusUnprocessableEntity, data)
}

// render executes the page into a buffer so a template failure still yields
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, code string, report services.SaveReport) {
	q := url.Values{}
	q.Set("notice", code)
	if !report.Durable() {
		q.Set("degraded", "1")
	}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}
