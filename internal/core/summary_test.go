package core

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryEmptyLedger(t *testing.T) {
	s := NewLedger(nil, Money{}).Summary()

	assert.Equal(t, int64(0), s.Total.Cents)
	assert.Empty(t, s.Categories)
	assert.Empty(t, s.CategoryTotals())
	assert.Equal(t, StatusUnset, s.Status)
	assert.False(t, s.HasProgress)
	assert.Equal(t, "", s.Message("₹"))
	assert.True(t, s.IsEmpty())
}

func TestSummaryEmptyLedgerWithBudget(t *testing.T) {
	s := NewLedger(nil, Money{Cents: 10000}).Summary()

	assert.Equal(t, StatusOnTrack, s.Status)
	assert.Equal(t, "Budget under control", s.Message("₹"))
	assert.True(t, s.HasProgress)
	assert.Equal(t, 0.0, s.ProgressPercent)
}

func TestSummaryExceeded(t *testing.T) {
	l := NewLedger(nil, Money{})
	_, err := l.AddOrUpdate(expense(10000, "Food"), NoEdit)
	require.NoError(t, err)
	require.NoError(t, l.SetBudget(Money{Cents: 8000}))

	s := l.Summary()
	assert.Equal(t, StatusExceeded, s.Status)
	assert.Equal(t, int64(2000), s.Overage.Cents)
	assert.Equal(t, 100.0, s.ProgressPercent)
	assert.Equal(t, "Budget exceeded by ₹20.00", s.Message("₹"))
}

func TestSummaryBoundaryTotalEqualsBudget(t *testing.T) {
	l := NewLedger([]Expense{expense(5000, "Food"), expense(5000, "Travel")}, Money{Cents: 10000})

	s := l.Summary()
	assert.Equal(t, int64(10000), s.Total.Cents)
	assert.Equal(t, StatusNear, s.Status)
	assert.True(t, s.Overage.IsZero())
	assert.Equal(t, map[string]Money{"Food": {Cents: 5000}, "Travel": {Cents: 5000}}, s.CategoryTotals())

	require.Len(t, s.Categories, 2)
	assert.Equal(t, 180.0, s.Categories[0].AngleDegrees)
	assert.Equal(t, 180.0, s.Categories[1].AngleDegrees)
	assert.Equal(t, 100.0, s.Categories[0].SharePercent)
	assert.Equal(t, 100.0, s.Categories[1].SharePercent)
}

func TestClassifyThresholds(t *testing.T) {
	budget := Money{Cents: 10000}
	cases := []struct {
		total int64
		want  BudgetStatus
	}{
		{0, StatusOnTrack},
		{8000, StatusOnTrack}, // exactly 80% is still on track
		{8001, StatusNear},
		{10000, StatusNear},
		{10001, StatusExceeded},
		{1_000_000, StatusExceeded},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(Money{Cents: tc.total}, budget), "total=%d", tc.total)
	}
	assert.Equal(t, StatusUnset, Classify(Money{Cents: 999}, Money{}))
}

func TestClassifyNearLimitBudgets(t *testing.T) {
	// 5*total would overflow int64 here.
	budget := Money{Cents: 2e16}
	assert.Equal(t, StatusNear, Classify(Money{Cents: 1.9e16}, budget))
	assert.Equal(t, StatusOnTrack, Classify(Money{Cents: 1.6e16}, budget))
	assert.Equal(t, StatusNear, Classify(Money{Cents: 1.6e16 + 1}, budget))
	assert.Equal(t, StatusExceeded, Classify(Money{Cents: math.MaxInt64}, Money{Cents: math.MaxInt64 - 1}))
	assert.Equal(t, StatusNear, Classify(Money{Cents: math.MaxInt64}, Money{Cents: math.MaxInt64}))

	// floor(4*7/5) = 5
	assert.Equal(t, StatusOnTrack, Classify(Money{Cents: 5}, Money{Cents: 7}))
	assert.Equal(t, StatusNear, Classify(Money{Cents: 6}, Money{Cents: 7}))
}

func TestSummaryManyMaximalAmountsStaysExceeded(t *testing.T) {
	records := make([]Expense, 200_000)
	for i := range records {
		records[i] = expense(MaxAmountCents, "Food")
	}
	s := Summarize(records, Money{Cents: MaxAmountCents})

	assert.Positive(t, s.Total.Cents)
	assert.Equal(t, StatusExceeded, s.Status)
	assert.GreaterOrEqual(t, s.ProgressPercent, 0.0)
	assert.LessOrEqual(t, s.ProgressPercent, 100.0)
	require.Len(t, s.Categories, 1)
	assert.Positive(t, s.Categories[0].Amount.Cents)
}

func TestSummaryCategoryOrderIsFirstSeen(t *testing.T) {
	l := NewLedger([]Expense{
		expense(100, "Travel"),
		expense(400, "Food"),
		expense(100, "Travel"),
		expense(50, "Bills"),
	}, Money{})

	s := l.Summary()
	require.Len(t, s.Categories, 3)
	assert.Equal(t, []string{"Travel", "Food", "Bills"}, []string{s.Categories[0].Name, s.Categories[1].Name, s.Categories[2].Name})
	assert.Equal(t, 100.0, s.Categories[1].SharePercent)
	assert.Equal(t, 50.0, s.Categories[0].SharePercent)
	assert.Equal(t, 12.5, s.Categories[2].SharePercent)
}

func TestSummaryProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	cats := []string{"Food", "Travel", "Bills", "Shopping", "Health"}

	for round := 0; round < 200; round++ {
		n := r.Intn(12)
		records := make([]Expense, 0, n)
		var want int64
		for i := 0; i < n; i++ {
			c := int64(r.Intn(50000) + 1)
			want += c
			records = append(records, expense(c, cats[r.Intn(len(cats))]))
		}
		budget := Money{Cents: int64(r.Intn(100000))}
		s := Summarize(records, budget)

		assert.Equal(t, want, s.Total.Cents)

		var catSum int64
		var angles float64
		for _, c := range s.Categories {
			catSum += c.Amount.Cents
			angles += c.AngleDegrees
			assert.GreaterOrEqual(t, c.SharePercent, 0.0)
			assert.LessOrEqual(t, c.SharePercent, 100.0)
		}
		assert.Equal(t, s.Total.Cents, catSum)

		if s.Total.Cents > 0 {
			assert.InDelta(t, 360.0, angles, 1e-9)
		} else {
			assert.Equal(t, 0.0, angles)
		}

		if budget.Cents > 0 {
			assert.True(t, s.HasProgress)
			assert.GreaterOrEqual(t, s.ProgressPercent, 0.0)
			assert.LessOrEqual(t, s.ProgressPercent, 100.0)
			switch {
			case s.Total.Cents > budget.Cents:
				assert.Equal(t, StatusExceeded, s.Status)
				assert.Equal(t, s.Total.Cents-budget.Cents, s.Overage.Cents)
			case float64(s.Total.Cents) > 0.8*float64(budget.Cents):
				assert.Equal(t, StatusNear, s.Status)
			default:
				assert.Equal(t, StatusOnTrack, s.Status)
			}
		} else {
			assert.Equal(t, StatusUnset, s.Status)
		}
	}
}

func TestBudgetStatusText(t *testing.T) {
	b, err := StatusNear.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "near", string(b))
	assert.Equal(t, "unset", BudgetStatus(99).String())
}
