package invoice

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/config"
	"github.com/revo-studio/storefront/internal/pricing"
)

// SnapshotDataURL renders a self-contained HTML copy of the invoice and
// wraps it in a base64 data URL. The QR code on the printed document encodes
// this URL so the digital version travels with the paper one.
func SnapshotDataURL(meta Metadata, company config.CompanyProfile, items []cart.Item, totals pricing.Totals) string {
	var rows strings.Builder
	for _, it := range items {
		fmt.Fprintf(&rows,
			"<tr><td>%s</td><td>$%s</td><td>%d</td><td>$%s</td></tr>",
			htmlEscape(it.Name),
			pricing.FormatAmount(it.Price),
			it.Qty,
			pricing.FormatAmount(it.Price*float64(it.Qty)),
		)
	}
	html := fmt.Sprintf(
		`<!doctype html><html><head><meta charset="utf-8"><title>Factura %[1]s</title></head><body>`+
			`<h1>Factura %[1]s</h1>`+
			`<p><strong>Empresa:</strong> %[2]s<br><strong>RUT:</strong> %[3]s<br><strong>Dirección:</strong> %[4]s<br><strong>Tel:</strong> %[5]s<br><strong>Email:</strong> %[6]s</p>`+
			`<hr><h2>Detalles</h2>`+
			`<table border="1" cellpadding="6" cellspacing="0"><thead><tr><th>Descripción</th><th>Precio</th><th>Cantidad</th><th>Subtotal</th></tr></thead><tbody>%[7]s</tbody></table>`+
			`<p><strong>Subtotal:</strong> $%[8]s<br><strong>IVA (22%%):</strong> $%[9]s<br><strong>Total:</strong> $%[10]s</p>`+
			`</body></html>`,
		meta.ID,
		htmlEscape(company.Name), htmlEscape(company.TaxID), htmlEscape(company.Address),
		htmlEscape(company.Phone), htmlEscape(company.Email),
		rows.String(),
		pricing.FormatAmount(totals.Subtotal),
		pricing.FormatAmount(totals.Tax),
		pricing.FormatAmount(totals.GrandTotal),
	)
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))
}

func htmlEscape(s string) string { return html.EscapeString(s) }
