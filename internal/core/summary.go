package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the derived money summary of a quote.
type Totals struct {
	Items     float64 `json:"itens"`
	TravelFee float64 `json:"deslocamento"`
	Surcharge float64 `json:"taxas"`
	Discount  float64 `json:"desconto"`
	Final     float64 `json:"final"`
}

// ComputeTotals sums the items and applies the general fees and discount.
// The final amount never goes below zero, even when the discount exceeds
// everything else.
func ComputeTotals(items []BudgetItem, g GeneralInfo) Totals {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(lineTotal(it.Price, it.Qty))
	}

	travel := decimal.NewFromFloat(Finite(g.TravelFee))
	surcharge := decimal.NewFromFloat(Finite(g.Surcharge))
	discount := decimal.NewFromFloat(Finite(g.Discount))

	final := sum.Add(travel).Add(surcharge).Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return Totals{
		Items:     sum.InexactFloat64(),
		TravelFee: travel.InexactFloat64(),
		Surcharge: surcharge.InexactFloat64(),
		Discount:  discount.InexactFloat64(),
		Final:     final.InexactFloat64(),
	}
}

func lineTotal(price float64, qty int) decimal.Decimal {
	if qty == 0 {
		qty = 1
	}
	return decimal.NewFromFloat(Finite(price)).Mul(decimal.NewFromInt(int64(qty)))
}

// Quote is a point-in-time view of everything needed to render or export
// a quote.
type Quote struct {
	General    GeneralInfo
	Items      []BudgetItem
	Totals     Totals
	ValidUntil time.Time
}

// NewQuote bundles items and g with their derived totals.
func NewQuote(items []BudgetItem, g GeneralInfo) Quote {
	return Quote{
		General:    g,
		Items:      items,
		Totals:     ComputeTotals(items, g),
		ValidUntil: g.ValidUntil(),
	}
}
