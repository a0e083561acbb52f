package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// record is the persisted shape of an entry. It matches what the browser version of
// the app kept in local storage, so data exported from it loads unchanged.
type record struct {
	ID          recordID      `json:"id"`
	Amount      json.Number   `json:"amount"`
	Description string        `json:"description"`
	Category    core.Category `json:"category"`
	Date        string        `json:"date"`
	Kind        core.Kind     `json:"type"`
}

// recordID accepts both string ids and the millisecond timestamps older data used.
type recordID string

func (id *recordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("entry id %s: %w", n, err)
	}
	*id = recordID(n.String())
	return nil
}

func toRecord(e core.Entry) record {
	return record{
		ID:          recordID(e.ID),
		Amount:      json.Number(e.Amount.Decimal().String()),
		Description: e.Description,
		Category:    e.Category,
		Date:        e.Date.String(),
		Kind:        e.Kind,
	}
}

func (r record) toEntry() (core.Entry, error) {
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Entry{}, fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{
		ID:          string(r.ID),
		Amount:      core.MoneyFromDecimal(amount),
		Description: r.Description,
		Category:    r.Category,
		Date:        date,
		Kind:        r.Kind,
	}
	if err := e.ValidateStored(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

func encode(entries []core.Entry) ([]byte, error) {
	out := make([]record, len(entries))
	for i, e := range entries {
		out[i] = toRecord(e)
	}
	return json.Marshal(out)
}

// decode returns the valid entries and the number of records it had to drop.
func decode(data []byte) ([]core.Entry, int, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, 0, err
	}
	entries := make([]core.Entry, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	dropped := 0
	for _, r := range recs {
		e, err := r.toEntry()
		if err != nil {
			dropped++
			continue
		}
		if _, dup := seen[e.ID]; dup {
			dropped++
			continue
		}
		seen[e.ID] = struct{}{}
		entries = append(entries, e)
	}
	return entries, dropped, nil
}
