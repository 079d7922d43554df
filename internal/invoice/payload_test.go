package invoice

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/config"
	"github.com/revo-studio/storefront/internal/pricing"
)

func TestSnapshotDataURL(t *testing.T) {
	meta := Metadata{ID: "INV-20260901-1234", IssuedAt: time.Now()}
	company := config.CompanyProfile{Name: "Muebles <Premium>", TaxID: "214296019001"}
	items := []cart.Item{{ID: "sofa", Name: "Sofá & Co", Price: 120, Qty: 2}}
	totals := pricing.Compute([]pricing.Item{{Qty: 2, UnitPrice: 120}}, 0.22)

	url := SnapshotDataURL(meta, company, items, totals)
	require.True(t, strings.HasPrefix(url, "data:text/html;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:text/html;base64,"))
	require.NoError(t, err)
	html := string(raw)
	require.Contains(t, html, "Factura INV-20260901-1234")
	require.Contains(t, html, "Muebles &lt;Premium&gt;")
	require.Contains(t, html, "Sofá &amp; Co")
	require.Contains(t, html, "$240.00")
	require.Contains(t, html, "$292.80")
	require.NotContains(t, html, "<Premium>")
}
