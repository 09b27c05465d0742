package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// LineDiscountMinQty is the quantity at which a single line earns the
	// product's own discount rate.
	LineDiscountMinQty = 10
	// BulkDiscountMinItems is the cart-wide item count that unlocks the flat
	// bulk discount.
	BulkDiscountMinItems = 30
)

var (
	one = decimal.NewFromInt(1)

	bulkDiscountRate    = decimal.RequireFromString("0.25")
	tuesdayDiscountRate = decimal.RequireFromString("0.1")
	pointRate           = decimal.NewFromInt(1000)
)

// Line is one cart entry fed into the engine.
type Line struct {
	ProductID string
	Quantity  int
}

// Product is the catalog view the engine prices against.
type Product struct {
	ID               string
	Price            int64
	BulkDiscountRate decimal.Decimal
}

// Result is the derived price of a cart. It is recomputed on every cart or
// catalog change and never stored as independent mutable state.
type Result struct {
	Subtotal      decimal.Decimal
	Total         decimal.Decimal
	DiscountRate  decimal.Decimal
	ItemCount     int
	LoyaltyPoints int64
}

// Zero returns the result of pricing an empty cart.
func Zero() Result {
	return Result{
		Subtotal:     decimal.Zero,
		Total:        decimal.Zero,
		DiscountRate: decimal.Zero,
	}
}

// Quote prices a cart against the catalog at the given date. It is pure and
// total: lines referencing unknown products are skipped, never errors.
//
// Discount stages apply in order, later stages overriding earlier ones:
// per-line rates at quantity >= 10, a flat 25% when the cart holds >= 30
// items and that beats the summed line discounts (strict comparison; ties
// keep the line discounts), then a 10% Tuesday markdown. The Tuesday stage
// only raises the displayed rate to 10% instead of recomputing it from the
// final total, so the displayed rate can understate the true discount when
// stacked on the earlier stages. That mirrors the reference behavior and is
// kept for compatibility.
func Quote(lines []Line, catalog []Product, date time.Time) Result {
	subtotal := decimal.Zero
	total := decimal.Zero
	itemCount := 0

	for _, line := range lines {
		product, ok := lookup(catalog, line.ProductID)
		if !ok {
			continue
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		lineTotal := decimal.NewFromInt(product.Price).Mul(qty)
		subtotal = subtotal.Add(lineTotal)
		itemCount += line.Quantity

		lineRate := decimal.Zero
		if line.Quantity >= LineDiscountMinQty {
			lineRate = product.BulkDiscountRate
		}
		total = total.Add(lineTotal.Mul(one.Sub(lineRate)))
	}

	if subtotal.IsZero() {
		return Zero()
	}

	rate := subtotal.Sub(total).Div(subtotal)

	if itemCount >= BulkDiscountMinItems {
		bulkSavings := total.Mul(bulkDiscountRate)
		lineSavings := subtotal.Sub(total)
		if bulkSavings.GreaterThan(lineSavings) {
			total = subtotal.Mul(one.Sub(bulkDiscountRate))
			rate = bulkDiscountRate
		} else {
			rate = subtotal.Sub(total).Div(subtotal)
		}
	}

	if date.Weekday() == time.Tuesday {
		total = total.Mul(one.Sub(tuesdayDiscountRate))
		if rate.LessThan(tuesdayDiscountRate) {
			rate = tuesdayDiscountRate
		}
	}

	return Result{
		Subtotal:      subtotal,
		Total:         total,
		DiscountRate:  rate,
		ItemCount:     itemCount,
		LoyaltyPoints: total.Div(pointRate).Floor().IntPart(),
	}
}

func lookup(catalog []Product, id string) (Product, bool) {
	for _, product := range catalog {
		if product.ID == id {
			return product, true
		}
	}
	return Product{}, false
}
