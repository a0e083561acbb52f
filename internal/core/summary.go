package core

import (
	"github.com/shopspring/decimal"
)

// AvailableBalanceLabel names the chart slice holding unspent income.
const AvailableBalanceLabel = "Available Balance"

// Totals is the summary card data.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// SliceKind distinguishes the balance slice from expense slices.
type SliceKind string

const (
	SliceBalance SliceKind = "balance"
	SliceExpense SliceKind = "expense"
)

// ChartSlice is one segment of the breakdown chart. Percentage is relative to total
// income and formatted with one decimal place.
type ChartSlice struct {
	Name       string
	Value      Money
	Kind       SliceKind
	Percentage string
}

// Chart is the breakdown of income into available balance and expense categories.
type Chart struct {
	TotalIncome Money
	Slices      []ChartSlice
}

// Empty reports whether the chart should render its empty state.
func (c Chart) Empty() bool {
	return len(c.Slices) == 0 || c.TotalIncome.Cents == 0
}

// Summarize totals income and expenses. Balance is income minus expenses.
func Summarize(entries []Entry) Totals {
	var t Totals
	for _, e := range entries {
		switch e.Kind {
		case Income:
			t.Income = t.Income.Add(e.Amount)
		case Expense:
			t.Expense = t.Expense.Add(e.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// ExpenseByCategory sums expenses per category, ordered by first appearance.
func ExpenseByCategory(entries []Entry) []CategoryAmount {
	index := make(map[Category]int)
	var out []CategoryAmount
	for _, e := range entries {
		if e.Kind != Expense {
			continue
		}
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryAmount{Category: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// BuildChart computes the breakdown chart: the available balance first, when positive,
// then one slice per expense category.
func BuildChart(entries []Entry) Chart {
	totals := Summarize(entries)
	chart := Chart{TotalIncome: totals.Income}
	if totals.Income.Cents == 0 {
		return chart
	}

	if totals.Balance.Cents > 0 {
		chart.Slices = append(chart.Slices, ChartSlice{
			Name:       AvailableBalanceLabel,
			Value:      totals.Balance,
			Kind:       SliceBalance,
			Percentage: percentOf(totals.Balance, totals.Income),
		})
	}
	for _, ca := range ExpenseByCategory(entries) {
		chart.Slices = append(chart.Slices, ChartSlice{
			Name:       string(ca.Category),
			Value:      ca.Amount,
			Kind:       SliceExpense,
			Percentage: percentOf(ca.Amount, totals.Income),
		})
	}
	return chart
}

var hundred = decimal.NewFromInt(100)

func percentOf(part, whole Money) string {
	return decimal.NewFromInt(part.Cents).
		Mul(hundred).
		DivRound(decimal.NewFromInt(whole.Cents), 4).
		StringFixed(1)
}
