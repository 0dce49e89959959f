package http

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"spendlog/internal/core"
)

// expenseForm holds the raw values of the expense form so a rejected
// submission can be re-rendered as typed.
type expenseForm struct {
	Amount    string
	Category  string
	Note      string
	Date      string
	EditIndex int
}

func (f expenseForm) Editing() bool { return f.EditIndex != core.NoEdit }

func readExpenseForm(form url.Values) expenseForm {
	return expenseForm{
		Amount:    strings.TrimSpace(form.Get("amount")),
		Category:  sanitizeInput(form.Get("category")),
		Note:      sanitizeInput(form.Get("note")),
		Date:      strings.TrimSpace(form.Get("date")),
		EditIndex: parseIndex(form.Get("edit_index")),
	}
}

// Expense converts the form into a record. All field errors are returned
// together.
func (f expenseForm) Expense() (core.Expense, error) {
	var errs []error

	amount, err := core.ParseMoney(f.Amount)
	if err != nil {
		errs = append(errs, err)
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		if !errors.Is(err, core.ErrMissingDate) {
			err = errInvalidDate
		}
		errs = append(errs, err)
	}
	e := core.Expense{Amount: amount, Category: f.Category, Note: f.Note, Date: date}
	if e.Category == "" {
		errs = append(errs, core.ErrEmptyCategory)
	}
	if utf8.RuneCountInString(e.Note) > core.MaxNoteLength {
		errs = append(errs, core.ErrNoteTooLong)
	}
	if len(errs) > 0 {
		return core.Expense{}, errors.Join(errs...)
	}
	return e, nil
}

var errInvalidDate = errors.New("invalid date")

// parseIndex reads a record index; anything unparsable means "no edit".
func parseIndex(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.NoEdit
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return core.NoEdit
	}
	return i
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// userMessages renders validation errors for the page, one line each.
func userMessages(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	add := func(target error, msg string) {
		if errors.Is(err, target) {
			out = append(out, msg)
		}
	}
	add(core.ErrInvalidAmount, "Enter an amount greater than zero.")
	add(core.ErrMissingDate, "Pick a date.")
	add(errInvalidDate, "Enter the date as YYYY-MM-DD.")
	add(core.ErrEmptyCategory, "Choose a category.")
	add(core.ErrNoteTooLong, "Keep the note to 200 characters or fewer.")
	add(core.ErrInvalidBudget, "Budget must be greater than zero.")
	add(core.ErrIndexOutOfRange, "That expense no longer exists.")
	if len(out) == 0 {
		out = append(out, "Invalid input.")
	}
	return out
}
