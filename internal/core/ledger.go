package core

// NoEdit is the edit index meaning "append a new record".
const NoEdit = -1

// Ledger holds the expense records and the budget. It is not safe for
// concurrent use; callers serialize access.
type Ledger struct {
	records []Expense
	budget  Money
}

// NewLedger builds a ledger from already-validated state. A negative budget
// is treated as unset.
func NewLedger(records []Expense, budget Money) *Ledger {
	if budget.Cents < 0 {
		budget = Money{}
	}
	return &Ledger{
		records: append([]Expense(nil), records...),
		budget:  budget,
	}
}

// AddOrUpdate replaces the record at editIndex when it is a valid position,
// otherwise appends. It reports whether a record was replaced.
func (l *Ledger) AddOrUpdate(e Expense, editIndex int) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}
	if l.valid(editIndex) {
		l.records[editIndex] = e
		return true, nil
	}
	l.records = append(l.records, e)
	return false, nil
}

// Remove deletes the record at index and returns it.
func (l *Ledger) Remove(index int) (Expense, error) {
	if !l.valid(index) {
		return Expense{}, ErrIndexOutOfRange
	}
	removed := l.records[index]
	l.records = append(l.records[:index:index], l.records[index+1:]...)
	return removed, nil
}

// SetBudget replaces the budget. Values <= 0 are rejected.
func (l *Ledger) SetBudget(m Money) error {
	if m.Cents <= 0 {
		return ErrInvalidBudget
	}
	l.budget = m
	return nil
}

// Records returns a copy of the records in display order.
func (l *Ledger) Records() []Expense {
	return append([]Expense(nil), l.records...)
}

// Record returns the record at index.
func (l *Ledger) Record(index int) (Expense, bool) {
	if !l.valid(index) {
		return Expense{}, false
	}
	return l.records[index], true
}

func (l *Ledger) Budget() Money {
	return l.budget
}

func (l *Ledger) Len() int {
	return len(l.records)
}

// Summary computes the aggregate view of the current state.
func (l *Ledger) Summary() Summary {
	return Summarize(l.records, l.budget)
}

func (l *Ledger) valid(index int) bool {
	return index >= 0 && index < len(l.records)
}
