// invoicegen renders an invoice PDF from a cart snapshot file, without the
// HTTP server. Useful for checking layout changes against a known cart.
//
//	go run ./cmd/tools/invoicegen -cart cart.json -out ./out
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/revo-studio/storefront/internal/assets"
	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/config"
	"github.com/revo-studio/storefront/internal/invoice"
	"github.com/revo-studio/storefront/internal/obs"
	"github.com/revo-studio/storefront/internal/pricing"
)

func main() {
	cartPath := flag.String("cart", "", "path to a cart snapshot JSON file (array of items)")
	outDir := flag.String("out", "", "output directory (defaults to INVOICE_OUTPUT_DIR)")
	flag.Parse()

	if *cartPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *outDir == "" {
		*outDir = cfg.InvoiceOutputDir
	}

	raw, err := os.ReadFile(*cartPath)
	if err != nil {
		log.Fatalf("read cart snapshot: %v", err)
	}
	var items []cart.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Fatalf("decode cart snapshot: %v", err)
	}
	if len(items) == 0 {
		log.Fatal("cart snapshot is empty")
	}

	logger := obs.NewLogger("console", "info")
	composer := &invoice.Composer{
		Company:    cfg.Company,
		LogoURL:    cfg.LogoURL,
		QRChartURL: cfg.QRChartURL,
		Loader:     assets.NewLoader(&http.Client{Timeout: cfg.AssetTimeout}),
		Logger:     logger,
	}

	pitems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		pitems = append(pitems, pricing.Item{Qty: it.Qty, UnitPrice: it.Price})
	}
	totals := pricing.Compute(pitems, cfg.TaxRate)
	meta := invoice.NewMetadata(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc, err := composer.Compose(ctx, meta, items, totals)
	if err != nil {
		log.Fatalf("compose invoice: %v", err)
	}
	store := &invoice.FSStore{Dir: *outDir}
	location, err := store.Put(ctx, meta.ID, doc.PDF)
	if err != nil {
		log.Fatalf("write invoice: %v", err)
	}

	fmt.Printf("invoice %s: %d page(s), subtotal $%s, tax $%s, total $%s\n",
		meta.ID, doc.Pages,
		pricing.FormatAmount(totals.Subtotal),
		pricing.FormatAmount(totals.Tax),
		pricing.FormatAmount(totals.GrandTotal),
	)
	fmt.Println(location)
}
