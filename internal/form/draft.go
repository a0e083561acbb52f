// Package form holds the entry form state between keystrokes, voice captures and submits.
package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/voice"
)

// ErrIncomplete means the amount or description is still empty. Submitting an
// incomplete draft does nothing.
var ErrIncomplete = errors.New("draft is incomplete")

// Draft is the editable, not yet validated form content.
type Draft struct {
	Kind        core.Kind     `json:"type"`
	Amount      string        `json:"amount"`
	Description string        `json:"description"`
	Category    core.Category `json:"category"`
}

// NewDraft returns an empty expense draft with the default category preselected.
func NewDraft() Draft {
	return Draft{
		Kind:     core.Expense,
		Category: core.DefaultCategory,
	}
}

// ApplyVoice overwrites kind, amount, description and category with a voice candidate.
// The category is normalised onto the table.
func (d *Draft) ApplyVoice(c voice.Candidate) {
	d.Kind = c.Kind
	d.Amount = c.Amount
	d.Description = c.Description
	d.Category = core.NormalizeCategory(c.Category)
}

// Reset restores the defaults.
func (d *Draft) Reset() {
	*d = NewDraft()
}

// Submit builds an entry dated on now's UTC calendar day with the id from newID.
func (d Draft) Submit(now time.Time, newID func() string) (core.Entry, error) {
	if strings.TrimSpace(d.Amount) == "" || strings.TrimSpace(d.Description) == "" {
		return core.Entry{}, ErrIncomplete
	}
	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("amount %q: %w", d.Amount, err)
	}
	kind := d.Kind
	if kind == "" {
		kind = core.Expense
	}
	category := d.Category
	if category == "" {
		category = core.DefaultCategory
	}

	e := core.Entry{
		ID:          newID(),
		Amount:      amount,
		Description: strings.TrimSpace(d.Description),
		Category:    category,
		Date:        core.DateOf(now.UTC()),
		Kind:        kind,
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}
