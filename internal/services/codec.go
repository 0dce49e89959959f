package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"spendlog/internal/core"
)

// wireExpense is the persisted shape of one record under the "expenses" key.
type wireExpense struct {
	Amount   core.Money `json:"amount"`
	Category string     `json:"category"`
	Note     string     `json:"note"`
	Date     core.Date  `json:"date"`
}

func encodeRecords(records []core.Expense) ([]byte, error) {
	out := make([]wireExpense, len(records))
	for i, e := range records {
		out[i] = wireExpense{Amount: e.Amount, Category: e.Category, Note: e.Note, Date: e.Date}
	}
	return json.Marshal(out)
}

func encodeBudget(m core.Money) ([]byte, error) {
	return json.Marshal(m)
}

// decodeRecords parses the "expenses" value. A value that is not a JSON array
// is an error; individual elements that fail to parse or validate are skipped
// and reported as issues.
func decodeRecords(raw []byte) ([]core.Expense, []LoadIssue, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, nil, fmt.Errorf("decode expenses: %w", err)
	}

	records := make([]core.Expense, 0, len(elems))
	var issues []LoadIssue
	for i, el := range elems {
		var w wireExpense
		if err := json.Unmarshal(el, &w); err != nil {
			issues = append(issues, LoadIssue{Key: keyExpenses, Index: i, Err: err})
			continue
		}
		e := core.Expense{Amount: w.Amount, Category: w.Category, Note: w.Note, Date: w.Date}
		if err := e.Validate(); err != nil {
			issues = append(issues, LoadIssue{Key: keyExpenses, Index: i, Err: err})
			continue
		}
		records = append(records, e)
	}
	return records, issues, nil
}

var errNegativeBudget = errors.New("negative budget reset to zero")

// decodeBudget parses the "budget" value. A negative number decodes to zero
// together with errNegativeBudget.
func decodeBudget(raw []byte) (core.Money, error) {
	var m core.Money
	if err := json.Unmarshal(raw, &m); err != nil {
		return core.Money{}, fmt.Errorf("decode budget: %w", err)
	}
	if m.Cents < 0 {
		return core.Money{}, errNegativeBudget
	}
	return m, nil
}
