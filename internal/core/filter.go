package core

import (
	"fmt"
	"strings"
	"time"
)

// AllMonths is the month selector value that disables month filtering.
const AllMonths = "All Months"

// Filter holds the three list selectors. Zero values for Category and Kind and
// AllMonths for Month mean "no filter".
type Filter struct {
	Category Category
	Month    string
	Kind     Kind
}

// NoFilter returns the default selection.
func NoFilter() Filter {
	return Filter{Month: AllMonths}
}

// Months returns the month selector options in display order.
func Months() []string {
	out := make([]string, 0, 13)
	out = append(out, AllMonths)
	for m := time.January; m <= time.December; m++ {
		out = append(out, m.String())
	}
	return out
}

// ParseFilter validates raw selector values. Empty strings select the defaults.
func ParseFilter(category, month, kind string) (Filter, error) {
	f := NoFilter()
	if category = strings.TrimSpace(category); category != "" {
		c, err := ParseCategory(category)
		if err != nil {
			return Filter{}, fmt.Errorf("category filter %q: %w", category, err)
		}
		f.Category = c
	}
	if month = strings.TrimSpace(month); month != "" && month != AllMonths {
		m, ok := parseMonthName(month)
		if !ok {
			return Filter{}, fmt.Errorf("invalid month filter %q", month)
		}
		f.Month = m
	}
	if kind = strings.TrimSpace(kind); kind != "" {
		k, err := ParseKind(kind)
		if err != nil {
			return Filter{}, err
		}
		f.Kind = k
	}
	return f, nil
}

func parseMonthName(s string) (string, bool) {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), s) {
			return m.String(), true
		}
	}
	return "", false
}

// IsDefault reports whether no selector is active.
func (f Filter) IsDefault() bool {
	return f.Category == "" && f.Kind == "" && (f.Month == "" || f.Month == AllMonths)
}

// Matches reports whether e passes every active selector.
func (f Filter) Matches(e Entry) bool {
	categoryMatch := f.Category == "" || e.Category == f.Category
	monthMatch := f.Month == "" || f.Month == AllMonths || e.Date.MonthName() == f.Month
	kindMatch := f.Kind == "" || e.Kind == f.Kind
	return categoryMatch && monthMatch && kindMatch
}

// Apply returns the matching entries in their original order.
func (f Filter) Apply(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
