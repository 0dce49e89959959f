package core

import "math"

// BudgetStatus classifies total spend against the budget.
type BudgetStatus int

const (
	StatusUnset BudgetStatus = iota
	StatusOnTrack
	StatusNear
	StatusExceeded
)

// String implements fmt.Stringer
func (s BudgetStatus) String() string {
	switch s {
	case StatusOnTrack:
		return "on_track"
	case StatusNear:
		return "near"
	case StatusExceeded:
		return "exceeded"
	default:
		return "unset"
	}
}

// MarshalText lets the status appear by name in JSON and YAML output.
func (s BudgetStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CategoryTotal is the aggregated spend for one category.
type CategoryTotal struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
	// SharePercent scales the category against the largest one (100%).
	SharePercent float64 `json:"share_percent"`
	// AngleDegrees is the category's slice of a 360° pie.
	AngleDegrees float64 `json:"angle_degrees"`
}

// Summary is the read-only view derived from a ledger.
type Summary struct {
	Total           Money           `json:"total"`
	Budget          Money           `json:"budget"`
	Categories      []CategoryTotal `json:"categories"`
	Status          BudgetStatus    `json:"status"`
	Overage         Money           `json:"overage"`
	ProgressPercent float64         `json:"progress_percent"`
	HasProgress     bool            `json:"has_progress"`
	Count           int             `json:"count"`
}

// Summarize aggregates records against budget. Categories keep first-seen order.
func Summarize(records []Expense, budget Money) Summary {
	s := Summary{
		Budget:     budget,
		Categories: []CategoryTotal{},
		Count:      len(records),
	}

	index := make(map[string]int)
	for _, r := range records {
		s.Total = s.Total.Add(r.Amount)
		i, ok := index[r.Category]
		if !ok {
			i = len(s.Categories)
			index[r.Category] = i
			s.Categories = append(s.Categories, CategoryTotal{Name: r.Category})
		}
		s.Categories[i].Amount = s.Categories[i].Amount.Add(r.Amount)
	}

	var maxCents int64
	for _, c := range s.Categories {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}
	for i := range s.Categories {
		c := &s.Categories[i]
		if maxCents > 0 {
			c.SharePercent = float64(c.Amount.Cents) / float64(maxCents) * 100
		}
		if s.Total.Cents > 0 {
			c.AngleDegrees = float64(c.Amount.Cents) / float64(s.Total.Cents) * 360
		}
	}

	s.Status = Classify(s.Total, budget)
	if s.Status == StatusExceeded {
		s.Overage = s.Total.Sub(budget)
	}
	if budget.Cents > 0 {
		s.HasProgress = true
		s.ProgressPercent = math.Min(float64(s.Total.Cents)/float64(budget.Cents)*100, 100)
	}
	return s
}

// Classify derives the budget status. The near threshold is 80% of the
// budget: 5·total > 4·budget, evaluated as total > floor(4·budget/5) so no
// product can overflow.
func Classify(total, budget Money) BudgetStatus {
	switch {
	case budget.Cents <= 0:
		return StatusUnset
	case total.Cents > budget.Cents:
		return StatusExceeded
	case total.Cents > nearThreshold(budget.Cents):
		return StatusNear
	default:
		return StatusOnTrack
	}
}

// nearThreshold is floor(4b/5) for b > 0.
func nearThreshold(b int64) int64 {
	t := b - b/5
	if b%5 != 0 {
		t--
	}
	return t
}

// CategoryTotals returns the per-category sums keyed by category name.
func (s Summary) CategoryTotals() map[string]Money {
	out := make(map[string]Money, len(s.Categories))
	for _, c := range s.Categories {
		out[c.Name] = c.Amount
	}
	return out
}

// Message is the human-readable status line.
func (s Summary) Message(symbol string) string {
	switch s.Status {
	case StatusExceeded:
		return "Budget exceeded by " + s.Overage.Format(symbol)
	case StatusNear:
		return "Near budget limit"
	case StatusOnTrack:
		return "Budget under control"
	default:
		return ""
	}
}

// IsEmpty reports whether no records were aggregated.
func (s Summary) IsEmpty() bool {
	return s.Count == 0
}
