package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/revo-studio/storefront/internal/events"
	"github.com/revo-studio/storefront/internal/obs"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Item is one cart line: a catalog reference plus quantity and the price
// locked in when the item was first added. JSON field names match the
// persisted blob format.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Qty      int     `json:"qty"`
	ImageURL string  `json:"img,omitempty"`
}

// Store owns the durable cart state. Each slot key maps to one serialized
// blob in the injected Storage; every mutation rewrites the blob in full and
// emits a cart.updated event so views can re-render.
//
// Unreadable state is never fatal: a missing or corrupt blob means an empty
// cart, and a failed persistence write is logged and otherwise absorbed.
type Store struct {
	Storage Storage
	Events  *events.Bus
	Logger  zerolog.Logger
}

// Get returns the cart for the slot. Insertion order is preserved.
func (s *Store) Get(ctx context.Context, key string) []Item {
	if s == nil || s.Storage == nil {
		return nil
	}
	blob, ok, err := s.Storage.Get(ctx, key)
	if err != nil {
		s.Logger.Warn().Err(err).Str("slot", key).Msg("cart read failed, starting empty")
		return nil
	}
	if !ok || len(blob) == 0 {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(blob, &items); err != nil {
		s.Logger.Warn().Err(err).Str("slot", key).Msg("cart state corrupt, starting empty")
		return nil
	}
	return sanitize(items)
}

// Add merges the item into the cart: an existing id has its quantity
// incremented by qty, a new id is appended. qty values below 1 count as 1.
func (s *Store) Add(ctx context.Context, key string, item Item, qty int) []Item {
	if qty < 1 {
		qty = 1
	}
	items := s.Get(ctx, key)
	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Qty += qty
			merged = true
			break
		}
	}
	if !merged {
		item.Qty = qty
		items = append(items, item)
	}
	s.persist(ctx, key, items, "add")
	return items
}

// Remove drops the entry with the given id. Absent ids are a no-op.
func (s *Store) Remove(ctx context.Context, key, id string) []Item {
	items := s.Get(ctx, key)
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	s.persist(ctx, key, kept, "remove")
	return kept
}

// SetQuantity updates an entry's quantity, clamped to a minimum of 1.
// Absent ids are a no-op.
func (s *Store) SetQuantity(ctx context.Context, key, id string, qty int) []Item {
	if qty < 1 {
		qty = 1
	}
	items := s.Get(ctx, key)
	found := false
	for i := range items {
		if items[i].ID == id {
			items[i].Qty = qty
			found = true
			break
		}
	}
	if !found {
		return items
	}
	s.persist(ctx, key, items, "set_quantity")
	return items
}

// Clear empties the slot, as after a successful checkout.
func (s *Store) Clear(ctx context.Context, key string) {
	s.persist(ctx, key, []Item{}, "clear")
}

// Count sums quantities across all entries. The value is exact; Badge caps
// the displayed representation.
func (s *Store) Count(ctx context.Context, key string) int {
	return CountItems(s.Get(ctx, key))
}

// CountItems sums quantities for an already-loaded cart.
func CountItems(items []Item) int {
	total := 0
	for _, it := range items {
		if it.Qty > 0 {
			total += it.Qty
		}
	}
	return total
}

// Badge renders a count for the UI badge, capping at "99+" while the
// underlying count stays exact.
func Badge(count int) string {
	if count > 99 {
		return "99+"
	}
	if count < 0 {
		count = 0
	}
	return strconv.Itoa(count)
}

func (s *Store) persist(ctx context.Context, key string, items []Item, op string) {
	if s == nil || s.Storage == nil {
		return
	}
	if items == nil {
		items = []Item{}
	}
	blob, err := json.Marshal(items)
	if err != nil {
		s.Logger.Error().Err(err).Str("slot", key).Msg("cart encode failed")
		return
	}
	if err := s.Storage.Set(ctx, key, blob); err != nil {
		s.Logger.Warn().Err(err).Str("slot", key).Msg("cart persist failed")
	}
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op).Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicCartUpdated, map[string]any{
			"slot":  key,
			"op":    op,
			"count": CountItems(items),
		})
	}
}

// sanitize enforces the store invariants on whatever was read back: unique
// ids (first occurrence wins, quantities merge) and quantities >= 1.
func sanitize(items []Item) []Item {
	seen := make(map[string]int, len(items))
	out := items[:0]
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if it.Qty < 1 {
			it.Qty = 1
		}
		if it.Price < 0 {
			it.Price = 0
		}
		if idx, dup := seen[it.ID]; dup {
			out[idx].Qty += it.Qty
			continue
		}
		seen[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}

