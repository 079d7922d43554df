package invoice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/common"
	"github.com/revo-studio/storefront/internal/events"
	"github.com/revo-studio/storefront/internal/obs"
	"github.com/revo-studio/storefront/internal/pricing"
)

// ErrEmptyCart indicates checkout was attempted on a slot with no items.
var ErrEmptyCart = errors.New("cart is empty")

// Receipt summarizes a successful checkout.
type Receipt struct {
	Invoice  Metadata
	Totals   pricing.Totals
	Pages    int
	Location string
	Graphics map[string]bool
	Items    []cart.Item
}

// Service runs checkout: snapshot the cart, price it, compose the invoice,
// persist the artifact, then clear the cart. The cart is only cleared after
// the artifact is safely stored, so a failed composition leaves the order
// intact for retry.
type Service struct {
	Cart      *cart.Store
	Composer  *Composer
	Artifacts ArtifactStore
	TaxRate   float64
	Events    *events.Bus
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Checkout generates an invoice for the slot's cart.
func (s *Service) Checkout(ctx context.Context, slot string) (Receipt, error) {
	if s == nil || s.Cart == nil || s.Composer == nil || s.Artifacts == nil {
		return Receipt{}, errors.New("invoice service not configured")
	}
	items := s.Cart.Get(ctx, slot)
	if len(items) == 0 {
		return Receipt{}, common.NewAppError("EMPTY_CART", "cart is empty", http.StatusConflict, ErrEmptyCart)
	}
	totals := pricing.Compute(pricingItems(items), s.TaxRate)
	meta := NewMetadata(s.now())

	doc, err := s.Composer.Compose(ctx, meta, items, totals)
	if err != nil {
		return Receipt{}, s.fail(ctx, slot, meta, items, totals, fmt.Errorf("compose invoice: %w", err))
	}
	location, err := s.Artifacts.Put(ctx, meta.ID, doc.PDF)
	if err != nil {
		return Receipt{}, s.fail(ctx, slot, meta, items, totals, fmt.Errorf("store invoice: %w", err))
	}

	s.Cart.Clear(ctx, slot)
	s.count("success")
	s.Logger.Info().
		Str("invoice_id", meta.ID).
		Int("pages", doc.Pages).
		Int("items", len(items)).
		Msg("invoice generated")
	if _, emitErr := s.Events.Emit(ctx, events.TopicInvoiceGenerated, map[string]any{
		"slot":       slot,
		"invoice_id": meta.ID,
		"issued_at":  meta.IssuedAt,
		"location":   location,
		"pages":      doc.Pages,
		"total":      pricing.FormatAmount(totals.GrandTotal),
	}); emitErr != nil {
		s.Logger.Warn().Err(emitErr).Str("invoice_id", meta.ID).Msg("notifier delivery failed")
	}
	return Receipt{
		Invoice:  meta,
		Totals:   totals,
		Pages:    doc.Pages,
		Location: location,
		Graphics: doc.Graphics,
		Items:    items,
	}, nil
}

// Download returns a stored invoice PDF.
func (s *Service) Download(ctx context.Context, id string) ([]byte, error) {
	if s == nil || s.Artifacts == nil {
		return nil, errors.New("invoice service not configured")
	}
	if !ValidID(id) {
		return nil, common.NewAppError("NOT_FOUND", "unknown invoice", http.StatusNotFound, ErrArtifactNotFound)
	}
	pdf, err := s.Artifacts.Get(ctx, id)
	if errors.Is(err, ErrArtifactNotFound) {
		return nil, common.NewAppError("NOT_FOUND", "unknown invoice", http.StatusNotFound, err)
	}
	return pdf, err
}

func (s *Service) fail(ctx context.Context, slot string, meta Metadata, items []cart.Item, totals pricing.Totals, err error) error {
	s.count("failure")
	s.Logger.Error().Err(err).Str("invoice_id", meta.ID).Msg("invoice generation failed")
	if _, emitErr := s.Events.Emit(ctx, events.TopicInvoiceFailed, map[string]any{
		"slot":       slot,
		"invoice_id": meta.ID,
		"error":      err.Error(),
		"items":      itemLines(items),
		"subtotal":   pricing.FormatAmount(totals.Subtotal),
		"tax":        pricing.FormatAmount(totals.Tax),
		"total":      pricing.FormatAmount(totals.GrandTotal),
	}); emitErr != nil {
		s.Logger.Warn().Err(emitErr).Str("invoice_id", meta.ID).Msg("fallback notification failed")
	}
	return err
}

func (s *Service) count(result string) {
	if obs.InvoiceCompositionsTotal != nil {
		obs.InvoiceCompositionsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func pricingItems(items []cart.Item) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Item{Qty: it.Qty, UnitPrice: it.Price})
	}
	return out
}

func itemLines(items []cart.Item) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"name":  it.Name,
			"qty":   it.Qty,
			"price": pricing.FormatAmount(it.Price),
		})
	}
	return out
}
