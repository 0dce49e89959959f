package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1000000000000", MaxAmountCents, true},
		{"1000000000000.01", 0, false},
		{"1e17", 0, false},
		{"92233720368547758.07", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	big := Money{Cents: math.MaxInt64 - 10}
	assert.Equal(t, int64(math.MaxInt64), big.Add(Money{Cents: 100}).Cents)
	assert.Equal(t, int64(math.MinInt64), Money{Cents: math.MinInt64 + 1}.Add(Money{Cents: -2}).Cents)
	assert.Equal(t, int64(150), Money{Cents: 100}.Add(Money{Cents: 50}).Cents)
}

func TestMoneyJSONRejectsAmountAboveCeiling(t *testing.T) {
	var m Money
	assert.Error(t, json.Unmarshal([]byte(`"1000000000000.01"`), &m))
	require.NoError(t, json.Unmarshal([]byte(`"1000000000000"`), &m))
	assert.Equal(t, MaxAmountCents, m.Cents)
}

func TestMoneyFormat(t *testing.T) {
	assert.Equal(t, "12.50", Money{Cents: 1250}.String())
	assert.Equal(t, "₹0.05", Money{Cents: 5}.Format("₹"))
	assert.Equal(t, "-€3.00", Money{Cents: -300}.Format("€"))
	assert.InDelta(t, 12.5, Money{Cents: 1250}.Float64(), 1e-9)
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1250})
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(b))

	b, err = json.Marshal(Money{Cents: 10000})
	require.NoError(t, err)
	assert.Equal(t, "100", string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte("99.999"), &m))
	assert.Equal(t, int64(10000), m.Cents)

	require.NoError(t, json.Unmarshal([]byte(`"7.25"`), &m))
	assert.Equal(t, int64(725), m.Cents)

	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.Equal(t, int64(0), m.Cents)

	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &m))
}

func TestExpenseJSONLayout(t *testing.T) {
	type wire struct {
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Note     string `json:"note"`
		Date     Date   `json:"date"`
	}
	in := wire{Amount: Money{Cents: 4200}, Category: "Food", Date: NewDate(2024, 1, 1)}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":42,"category":"Food","note":"","date":"2024-01-01"}`, string(b))

	var out wire
	require.NoError(t, json.Unmarshal([]byte(`{"amount":42,"category":"Food","note":"","date":"2024-01-01T10:00:00.000Z"}`), &out))
	assert.Equal(t, "2024-01-01", out.Date.String())
}
