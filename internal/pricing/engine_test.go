package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/revo-studio/storefront/internal/pricing"
)

func TestComputeEmptyCart(t *testing.T) {
	totals := pricing.Compute(nil, pricing.DefaultTaxRate)
	require.Zero(t, totals.Subtotal)
	require.Zero(t, totals.Tax)
	require.Zero(t, totals.GrandTotal)
}

func TestComputeAccumulatesBeforeRounding(t *testing.T) {
	items := []pricing.Item{
		{Qty: 2, UnitPrice: 10.00},
		{Qty: 1, UnitPrice: 5.005},
	}
	totals := pricing.Compute(items, 0.22)

	require.InDelta(t, 25.005, totals.Subtotal, 1e-9)
	require.InDelta(t, 5.5011, totals.Tax, 1e-9)
	require.Equal(t, totals.Subtotal+totals.Tax, totals.GrandTotal)

	// Rounding happens at formatting time only.
	require.Equal(t, "25.00", pricing.FormatAmount(totals.Subtotal))
	require.Equal(t, "5.50", pricing.FormatAmount(totals.Tax))
}

func TestComputeSkipsNonPositiveQuantities(t *testing.T) {
	items := []pricing.Item{
		{Qty: 0, UnitPrice: 100},
		{Qty: -3, UnitPrice: 100},
		{Qty: 1, UnitPrice: 10},
	}
	totals := pricing.Compute(items, 0.22)
	require.InDelta(t, 10, totals.Subtotal, 1e-9)
}

func TestFormatAmountIdempotent(t *testing.T) {
	formatted := pricing.FormatAmount(12.34)
	require.Equal(t, "12.34", formatted)

	parsed, err := pricing.ParseAmount(formatted)
	require.NoError(t, err)
	require.Equal(t, formatted, pricing.FormatAmount(parsed))
}

func TestFormatAmountTwoDecimals(t *testing.T) {
	require.Equal(t, "0.00", pricing.FormatAmount(0))
	require.Equal(t, "120.00", pricing.FormatAmount(120))
	require.Equal(t, "3.10", pricing.FormatAmount(3.1))
}
