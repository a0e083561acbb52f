package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category is one label of the fixed category table.
type Category string

const (
	FoodAndDining     Category = "Food & Dining"
	Transportation    Category = "Transportation"
	Shopping          Category = "Shopping"
	Entertainment     Category = "Entertainment"
	BillsAndUtilities Category = "Bills & Utilities"
	Healthcare        Category = "Healthcare"
	Travel            Category = "Travel"
	Education         Category = "Education"
	Groceries         Category = "Groceries"
	Other             Category = "Other"
)

// DefaultCategory is preselected in new drafts and is the normalisation fallback.
const DefaultCategory = FoodAndDining

// categoryTable is the display and matching order. It must not be mutated.
var categoryTable = [...]Category{
	FoodAndDining,
	Transportation,
	Shopping,
	Entertainment,
	BillsAndUtilities,
	Healthcare,
	Travel,
	Education,
	Groceries,
	Other,
}

// Categories returns a copy of the category table in display order.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	copy(out, categoryTable[:])
	return out
}

// IsKnown reports whether c is one of the table labels.
func (c Category) IsKnown() bool {
	for _, known := range categoryTable {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory looks up an exact table label.
func ParseCategory(label string) (Category, error) {
	c := Category(strings.TrimSpace(label))
	if !c.IsKnown() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// NormalizeCategory maps a spoken, possibly misheard phrase onto the table. It tries a
// case-insensitive exact match, then containment in either direction, and falls back
// to DefaultCategory. The result is always a table label.
func NormalizeCategory(spoken string) Category {
	// Caser is stateful, so each call gets its own.
	fold := cases.Fold()
	phrase := fold.String(strings.TrimSpace(spoken))
	if phrase == "" {
		return DefaultCategory
	}

	for _, c := range categoryTable {
		if fold.String(string(c)) == phrase {
			return c
		}
	}
	for _, c := range categoryTable {
		label := fold.String(string(c))
		if strings.Contains(phrase, label) || strings.Contains(label, phrase) {
			return c
		}
	}
	return DefaultCategory
}
