package http

import (
	"fmt"
	"html/template"

	"github.com/gosimple/slug"

	"spendlog/internal/core"
)

type pageData struct {
	Currency   string
	Categories []string
	Form       expenseForm
	Errors     []string
	Notice     *notice
	Records    []recordView
	Summary    summaryView
	Quote      string
	Budget     string
}

type recordView struct {
	Index         int
	Amount        string
	Category      string
	CategoryClass string
	Note          string
	Date          string
}

type categoryView struct {
	Name     string
	Class    string
	Amount   string
	Share    string
	BarStyle template.CSS
	PieStyle template.CSS
}

type summaryView struct {
	Empty       bool
	Total       string
	Budget      string
	HasBudget   bool
	Status      string
	Message     string
	Exceeded    bool
	HasProgress bool
	Progress    string
	// ProgressStyle sizes the budget progress bar.
	ProgressStyle template.CSS
	Categories    []categoryView
}

type notice struct {
	Level string
	Text  string
}

// Notice codes carried in the redirect after a mutation.
const (
	noticeAdded   = "added"
	noticeUpdated = "updated"
	noticeRemoved = "removed"
	noticeBudget  = "budget"
)

var noticeText = map[string]string{
	noticeAdded:   "Expense added.",
	noticeUpdated: "Expense updated.",
	noticeRemoved: "Expense removed.",
	noticeBudget:  "Budget saved.",
}

const notDurableText = "Saved for this session only: storage is unavailable."

func buildNotice(code string, degraded bool) *notice {
	if degraded {
		return &notice{Level: "warning", Text: notDurableText}
	}
	if text, ok := noticeText[code]; ok {
		return &notice{Level: "success", Text: text}
	}
	return nil
}

func categoryClass(name string) string {
	if s := slug.Make(name); s != "" {
		return "cat-" + s
	}
	return "cat-other"
}

func buildRecords(records []core.Expense, currency string) []recordView {
	out := make([]recordView, 0, len(records))
	for i, e := range records {
		out = append(out, recordView{
			Index:         i,
			Amount:        e.Amount.Format(currency),
			Category:      e.Category,
			CategoryClass: categoryClass(e.Category),
			Note:          e.NoteOr("No note"),
			Date:          e.Date.Display(),
		})
	}
	return out
}

func buildSummary(sum core.Summary, currency string) summaryView {
	v := summaryView{
		Empty:       sum.IsEmpty(),
		Total:       sum.Total.Format(currency),
		HasBudget:   !sum.Budget.IsZero(),
		Budget:      sum.Budget.Format(currency),
		Status:      sum.Status.String(),
		Message:     sum.Message(currency),
		Exceeded:    sum.Status == core.StatusExceeded,
		HasProgress: sum.HasProgress,
		Progress:    fmt.Sprintf("%.0f%%", sum.ProgressPercent),
		// Values are formatted numbers, never user input.
		ProgressStyle: template.CSS(fmt.Sprintf("width: %.2f%%", sum.ProgressPercent)),
	}
	for _, c := range sum.Categories {
		v.Categories = append(v.Categories, categoryView{
			Name:     c.Name,
			Class:    categoryClass(c.Name),
			Amount:   c.Amount.Format(currency),
			Share:    fmt.Sprintf("%.0f%%", c.AngleDegrees/3.6),
			BarStyle: template.CSS(fmt.Sprintf("width: %.2f%%", c.SharePercent)),
			PieStyle: template.CSS(fmt.Sprintf("--deg: %.2fdeg", c.AngleDegrees)),
		})
	}
	return v
}
