package cart

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/revo-studio/storefront/internal/catalog"
	"github.com/revo-studio/storefront/internal/common"
	"github.com/revo-studio/storefront/internal/pricing"
)

// Handler exposes the cart over HTTP. The client's slot is identified by a
// UUID cookie: one named slot per browser, mirroring the storage model.
type Handler struct {
	Store    *Store
	Catalog  *catalog.Service
	Validate *validator.Validate
	TaxRate  float64
	Cookie   SlotCookie
}

type addItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty"`
}

type setQtyInput struct {
	Qty int `json:"qty"`
}

// Get returns the cart with its recomputed summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	key := h.Cookie.Resolve(w, r)
	items := h.Store.Get(r.Context(), key)
	h.render(w, items)
}

// AddItem merges a catalog product into the cart, locking its current price.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload addItemInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
			return
		}
	}
	product, err := h.Catalog.Get(payload.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown product", nil)
		return
	}
	key := h.Cookie.Resolve(w, r)
	items := h.Store.Add(r.Context(), key, Item{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		ImageURL: product.ImageURL,
	}, payload.Qty)
	h.render(w, items)
}

// UpdateItem sets an entry's quantity, clamped to a minimum of 1.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "id")
	var payload setQtyInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	key := h.Cookie.Resolve(w, r)
	items := h.Store.SetQuantity(r.Context(), key, id, payload.Qty)
	h.render(w, items)
}

// RemoveItem drops an entry; removing an absent id leaves the cart unchanged.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	key := h.Cookie.Resolve(w, r)
	items := h.Store.Remove(r.Context(), key, chi.URLParam(r, "id"))
	h.render(w, items)
}

// BadgeCount returns the exact item count plus its capped display form.
func (h *Handler) BadgeCount(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	count := h.Store.Count(r.Context(), h.Cookie.Resolve(w, r))
	common.JSONData(w, http.StatusOK, map[string]any{"count": count, "badge": Badge(count)})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Store == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return false
	}
	return true
}

// render writes the cart alongside a freshly recomputed summary: the totals
// on screen and on the invoice must come from the same computation.
func (h *Handler) render(w http.ResponseWriter, items []Item) {
	if items == nil {
		items = []Item{}
	}
	totals := pricing.Compute(PricingItems(items), h.TaxRate)
	count := CountItems(items)
	common.JSONData(w, http.StatusOK, map[string]any{
		"items": items,
		"count": count,
		"badge": Badge(count),
		"summary": map[string]string{
			"subtotal": pricing.FormatAmount(totals.Subtotal),
			"tax":      pricing.FormatAmount(totals.Tax),
			"total":    pricing.FormatAmount(totals.GrandTotal),
		},
	})
}

// PricingItems projects cart entries into pricing line items.
func PricingItems(items []Item) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Item{Qty: it.Qty, UnitPrice: it.Price})
	}
	return out
}

// SlotCookie identifies the client's cart slot, minting a UUID cookie when
// the client does not have one yet.
type SlotCookie struct {
	Name string
	TTL  time.Duration
}

// Resolve returns the slot key for the request, setting the cookie if needed.
func (c SlotCookie) Resolve(w http.ResponseWriter, r *http.Request) string {
	name := c.Name
	if name == "" {
		name = "cart_id"
	}
	if existing, err := r.Cookie(name); err == nil && existing.Value != "" {
		if _, err := uuid.Parse(existing.Value); err == nil {
			return existing.Value
		}
	}
	key := uuid.NewString()
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    key,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}
