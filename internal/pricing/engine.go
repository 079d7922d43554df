package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTaxRate is the single fixed rate applied to every invoice.
const DefaultTaxRate = 0.22

// Item describes a line item used for totals calculation.
type Item struct {
	Qty       int
	UnitPrice float64
}

// Totals aggregates computed pricing components. Totals are derived, never
// stored: every surface that shows them recomputes from the same cart.
type Totals struct {
	Subtotal   float64
	Tax        float64
	GrandTotal float64
}

// Compute calculates cart totals. Amounts accumulate at full precision;
// rounding happens only when a value is formatted for display.
func Compute(items []Item, taxRate float64) Totals {
	var subtotal float64
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += float64(it.Qty) * it.UnitPrice
	}
	if subtotal < 0 {
		subtotal = 0
	}
	tax := subtotal * taxRate
	return Totals{
		Subtotal:   subtotal,
		Tax:        tax,
		GrandTotal: subtotal + tax,
	}
}

// FormatAmount renders a monetary value with exactly two decimal places.
// Formatting an already-two-decimal value yields the same string.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ParseAmount reads a two-decimal display string back into a float64.
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("pricing: parse amount %q: %w", s, err)
	}
	return v, nil
}
