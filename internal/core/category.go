package core

import (
	"math/rand"
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultCategories is the set offered by the expense form.
var DefaultCategories = []string{"Food", "Travel", "Bills", "Shopping", "Entertainment", "Health", "Other"}

// maxSuggestDistance is the largest edit distance still considered a typo.
const maxSuggestDistance = 2

// SuggestCategory returns the known category closest to input when input is
// not itself known but is within a small edit distance of one. Matching
// ignores case.
func SuggestCategory(input string, known []string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range known {
		kl := strings.ToLower(k)
		if kl == in {
			return "", false
		}
		if d := levenshtein.ComputeDistance(in, kl); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// MergeCategories returns base followed by any extra categories not already
// present, preserving order and dropping blanks.
func MergeCategories(base []string, extra ...[]string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(base))
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range base {
		add(v)
	}
	for _, list := range extra {
		for _, v := range list {
			add(v)
		}
	}
	return out
}

var quotes = []string{
	"A budget is telling your money where to go.",
	"Small savings today create big security tomorrow.",
	"Beware of little expenses; they sink ships.",
	"Spend less than you earn, always.",
	"Financial discipline is freedom.",
}

// RandomQuote picks a motivational quote. A nil r uses the global source.
func RandomQuote(r *rand.Rand) string {
	if r == nil {
		return quotes[rand.Intn(len(quotes))]
	}
	return quotes[r.Intn(len(quotes))]
}
