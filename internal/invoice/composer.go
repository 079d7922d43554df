package invoice

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/revo-studio/storefront/internal/assets"
	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/config"
	"github.com/revo-studio/storefront/internal/graphics"
	"github.com/revo-studio/storefront/internal/pricing"
)

// Page geometry in points, A4 portrait. The cursor walks top to bottom; rows
// never split across pages.
const (
	pageMargin     = 40.0
	companyWrapW   = 260.0
	nameLineH      = 14.0
	infoLineH      = 12.0
	maxLogoWidth   = 160.0
	rightColumnX   = 420.0
	tableRuleRight = 560.0
	rowBreakY      = 720.0
	totalsBreakY   = 780.0
)

// Document is a finished invoice rendering.
type Document struct {
	PDF      []byte
	Pages    int
	Graphics map[string]bool
}

// Composer lays out invoice PDFs. The logo and remote QR are fetched through
// the resource loader; every graphic is best effort and an unavailable one is
// simply left off the page.
type Composer struct {
	Company    config.CompanyProfile
	LogoURL    string
	QRChartURL string
	Loader     *assets.Loader
	Logger     zerolog.Logger
}

// Compose renders the invoice for the given cart snapshot and totals.
func (c *Composer) Compose(ctx context.Context, meta Metadata, items []cart.Item, totals pricing.Totals) (Document, error) {
	if c == nil {
		return Document{}, fmt.Errorf("invoice composer not configured")
	}
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	printableW := pageW - 2*pageMargin
	included := map[string]bool{}

	y := pageMargin

	// Title.
	pdf.SetFont("Helvetica", "", 26)
	pdf.Text(pageMargin, y, tr("Factura"))
	y += 30

	// Measure the company block before drawing so the logo can be scaled to
	// its height.
	pdf.SetFont("Helvetica", "", 11)
	nameLines := pdf.SplitText(tr(c.Company.Name), companyWrapW)
	nameHeight := float64(len(nameLines)) * nameLineH
	infoLines := []string{
		"R.U.T.: " + c.Company.TaxID,
		"Dirección: " + c.Company.Address,
		"Tel: " + c.Company.Phone,
		"Email: " + c.Company.Email,
	}
	companyHeight := nameHeight + float64(len(infoLines))*infoLineH

	logo := c.loadLogo(ctx)
	var logoW, logoH float64
	if logo != nil {
		logoH = companyHeight
		aspect := float64(logo.Width) / float64(max(logo.Height, 1))
		logoW = logoH * aspect
		if logoW > maxLogoWidth {
			logoW = maxLogoWidth
			logoH = logoW / aspect
		}
	}
	companyX := pageMargin
	if logoW > 0 {
		companyX = pageMargin + logoW + 12
	}
	if logo != nil {
		c.drawPNG(pdf, meta.ID+"-logo", logo.Data, pageMargin, y, logoW, logoH)
		included["logo"] = true
	}

	pdf.SetFont("Helvetica", "", 11)
	for i, line := range nameLines {
		pdf.Text(companyX, y+float64(i)*nameLineH, line)
	}
	y += nameHeight
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range infoLines {
		pdf.Text(companyX, y, tr(line))
		y += infoLineH
	}

	// Number and date sit in a fixed right column regardless of header
	// height, so an unusually tall header overlaps them. Kept as-is: the
	// fixed offset is part of the document's look.
	rightY := pageMargin + 60
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(rightColumnX, rightY, tr("Factura Nº: "+meta.ID))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(rightColumnX, rightY+18, tr("Fecha: "+meta.IssuedAt.Format("02/01/2006 15:04:05")))

	y = max(y, pageMargin+120)
	y += 20

	// Item table: description, unit price, quantity. No per-row subtotal.
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(pageMargin, y, tr("Descripción"))
	pdf.Text(pageMargin+300, y, tr("Precio unitario"))
	pdf.Text(pageMargin+415, y, tr("Cantidad"))
	y += 8
	pdf.SetLineWidth(0.5)
	pdf.Line(pageMargin, y, tableRuleRight, y)
	y += 12

	for _, it := range items {
		lines := pdf.SplitText(tr(it.Name), companyWrapW)
		for i, line := range lines {
			pdf.Text(pageMargin, y+float64(i)*nameLineH, line)
		}
		pdf.Text(pageMargin+300, y, "$"+pricing.FormatAmount(it.Price))
		pdf.Text(pageMargin+420, y, strconv.Itoa(it.Qty))
		y += float64(len(lines))*nameLineH + 8
		if y > rowBreakY {
			pdf.AddPage()
			y = pageMargin
		}
	}

	// Totals, right-aligned to the page margin.
	pdf.SetLineWidth(0.5)
	if y+60 > totalsBreakY {
		pdf.AddPage()
		y = pageMargin
	}
	pdf.Line(pageMargin, y, tableRuleRight, y)
	y += 14
	amountRightX := pageW - pageMargin
	labelRightX := amountRightX - 140
	pdf.SetFont("Helvetica", "", 12)
	c.textRight(pdf, labelRightX, y, "Subtotal:")
	c.textRight(pdf, amountRightX, y, "$"+pricing.FormatAmount(totals.Subtotal))
	y += 16
	c.textRight(pdf, labelRightX, y, "IVA:")
	c.textRight(pdf, amountRightX, y, "$"+pricing.FormatAmount(totals.Tax))
	y += 16
	pdf.SetFont("Helvetica", "", 13)
	c.textRight(pdf, labelRightX, y, "Total:")
	c.textRight(pdf, amountRightX, y, "$"+pricing.FormatAmount(totals.GrandTotal))
	y += 28

	// QR, bottom-left. Encodes a data URL carrying the digital invoice.
	payload := SnapshotDataURL(meta, c.Company, items, totals)
	qrChain := graphics.Chain{
		Graphic: "qr",
		Strategies: []graphics.Strategy{
			graphics.RemoteQR{Loader: c.Loader, Endpoint: c.QRChartURL, Payload: payload},
			graphics.LocalQR{Payload: payload, Size: 200},
		},
		Logger: c.Logger,
	}
	if asset, ok := qrChain.Generate(ctx); ok {
		qrSize := printableW * 0.40
		c.drawPNG(pdf, meta.ID+"-qr", asset.PNG, pageMargin, pageH-pageMargin-qrSize, qrSize, qrSize)
		included["qr"] = true
	}

	// Watermark: the logo again, centered below the totals at low opacity.
	if logo != nil {
		wmW := printableW * 0.5
		aspect := float64(logo.Width) / float64(max(logo.Height, 1))
		wmH := wmW / aspect
		if y+wmH > totalsBreakY {
			pdf.AddPage()
			y = pageMargin
		}
		pdf.SetAlpha(0.12, "Normal")
		c.drawPNG(pdf, meta.ID+"-watermark", logo.Data, (pageW-wmW)/2, y, wmW, wmH)
		pdf.SetAlpha(1, "Normal")
		y += wmH + 10
		included["watermark"] = true
	}

	// Barcode of the invoice id, bottom-right.
	barW := printableW * 0.3
	barChain := graphics.Chain{
		Graphic:    "barcode",
		Strategies: []graphics.Strategy{graphics.Code128{Text: meta.ID, Width: int(barW), Height: 60}},
		Logger:     c.Logger,
	}
	if asset, ok := barChain.Generate(ctx); ok {
		c.drawPNG(pdf, meta.ID+"-barcode", asset.PNG, pageW-pageMargin-barW, pageH-pageMargin-60, barW, 60)
		included["barcode"] = true
	}

	pages := pdf.PageCount()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("render pdf: %w", err)
	}
	return Document{PDF: buf.Bytes(), Pages: pages, Graphics: included}, nil
}

func (c *Composer) loadLogo(ctx context.Context) *assets.Resource {
	if c.Loader == nil || c.LogoURL == "" {
		return nil
	}
	res, err := c.Loader.Load(ctx, c.LogoURL, assets.KindImage)
	if err != nil {
		c.Logger.Warn().Err(err).Str("url", c.LogoURL).Msg("logo unavailable")
		return nil
	}
	data, err := graphics.NormalizePNG(res.Data)
	if err != nil {
		c.Logger.Warn().Err(err).Str("url", c.LogoURL).Msg("logo not renderable")
		return nil
	}
	normalized := *res
	normalized.Data = data
	return &normalized
}

func (c *Composer) drawPNG(pdf *gofpdf.Fpdf, name string, data []byte, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func (c *Composer) textRight(pdf *gofpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x-pdf.GetStringWidth(s), y, s)
}
