package http

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type moneyView struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

func newMoneyView(m core.Money) moneyView {
	return moneyView{Value: m.String(), Display: m.Format()}
}

type entryView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      moneyView `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	Month       string    `json:"month"`
}

func newEntryView(e core.Entry) entryView {
	return entryView{
		ID:          e.ID,
		Type:        string(e.Kind),
		Amount:      newMoneyView(e.Amount),
		Description: e.Description,
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Month:       e.Date.MonthName(),
	}
}

func newEntryViews(entries []core.Entry) []entryView {
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryView(e))
	}
	return out
}

type totalsView struct {
	Income  moneyView `json:"income"`
	Expense moneyView `json:"expense"`
	Balance moneyView `json:"balance"`
}

func newTotalsView(t core.Totals) totalsView {
	return totalsView{
		Income:  newMoneyView(t.Income),
		Expense: newMoneyView(t.Expense),
		Balance: newMoneyView(t.Balance),
	}
}

// sliceView is one chart segment. Offset and Class are only used by the page's SVG bar.
type sliceView struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Value      moneyView `json:"value"`
	Percentage string    `json:"percentage"`
	Offset     string    `json:"-"`
	Class      string    `json:"-"`
}

type chartView struct {
	TotalIncome moneyView   `json:"totalIncome"`
	Empty       bool        `json:"empty"`
	Slices      []sliceView `json:"slices"`
}

func newChartView(c core.Chart) chartView {
	v := chartView{
		TotalIncome: newMoneyView(c.TotalIncome),
		Empty:       c.Empty(),
		Slices:      make([]sliceView, 0, len(c.Slices)),
	}
	if v.Empty {
		return v
	}

	offset := decimal.Zero
	expenseIdx := 0
	for _, s := range c.Slices {
		class := "slice-balance"
		if s.Kind == core.SliceExpense {
			class = fmt.Sprintf("slice-%d", expenseIdx%10)
			expenseIdx++
		}
		v.Slices = append(v.Slices, sliceView{
			Name:       s.Name,
			Kind:       string(s.Kind),
			Value:      newMoneyView(s.Value),
			Percentage: s.Percentage,
			Offset:     offset.StringFixed(1),
			Class:      class,
		})
		if pct, err := decimal.NewFromString(s.Percentage); err == nil {
			offset = offset.Add(pct)
		}
	}
	return v
}

type filterView struct {
	Category string `json:"category"`
	Month    string `json:"month"`
	Type     string `json:"type"`
}

func newFilterView(f core.Filter) filterView {
	month := f.Month
	if month == "" {
		month = core.AllMonths
	}
	return filterView{Category: string(f.Category), Month: month, Type: string(f.Kind)}
}
