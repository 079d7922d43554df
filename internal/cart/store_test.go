package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/events"
)

func newStore() (*cart.Store, *cart.MemoryStorage) {
	storage := cart.NewMemoryStorage()
	return &cart.Store{Storage: storage}, storage
}

func TestAddMergesByID(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()

	store.Add(ctx, "slot", cart.Item{ID: "mesa-ratona", Name: "Mesa Ratona", Price: 120}, 1)
	items := store.Add(ctx, "slot", cart.Item{ID: "mesa-ratona", Name: "Mesa Ratona", Price: 120}, 2)

	require.Len(t, items, 1, "no duplicate entry for an existing id")
	require.Equal(t, 3, items[0].Qty)
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	store, _ := newStore()
	items := store.Add(context.Background(), "slot", cart.Item{ID: "a", Price: 10}, 0)
	require.Equal(t, 1, items[0].Qty)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	store.Add(ctx, "slot", cart.Item{ID: "b", Price: 1}, 1)
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 1}, 1)
	store.Add(ctx, "slot", cart.Item{ID: "c", Price: 1}, 1)
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 1}, 1)

	items := store.Get(ctx, "slot")
	require.Equal(t, []string{"b", "a", "c"}, ids(items))
}

func TestSetQuantityClampsToOne(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 2)

	items := store.SetQuantity(ctx, "slot", "a", -3)
	require.Equal(t, 1, items[0].Qty)

	items = store.SetQuantity(ctx, "slot", "a", 0)
	require.Equal(t, 1, items[0].Qty)

	items = store.SetQuantity(ctx, "slot", "a", 7)
	require.Equal(t, 7, items[0].Qty)
}

func TestSetQuantityAbsentIDIsNoop(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 2)

	items := store.SetQuantity(ctx, "slot", "ghost", 5)
	require.Equal(t, []string{"a"}, ids(items))
	require.Equal(t, 2, items[0].Qty)
}

func TestRemoveAbsentIDIsNoop(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 1)

	items := store.Remove(ctx, "slot", "ghost")
	require.Equal(t, []string{"a"}, ids(items))
}

func TestRemoveDropsEntry(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 1)
	store.Add(ctx, "slot", cart.Item{ID: "b", Price: 20}, 1)

	items := store.Remove(ctx, "slot", "a")
	require.Equal(t, []string{"b"}, ids(items))
}

func TestMutationSequenceKeepsInvariants(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()

	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 2)
	store.Add(ctx, "slot", cart.Item{ID: "b", Price: 5}, 1)
	store.SetQuantity(ctx, "slot", "a", -9)
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 3)
	store.Remove(ctx, "slot", "b")
	store.Add(ctx, "slot", cart.Item{ID: "c", Price: 2}, 0)

	items := store.Get(ctx, "slot")
	seen := map[string]bool{}
	for _, it := range items {
		require.False(t, seen[it.ID], "duplicate id %q", it.ID)
		seen[it.ID] = true
		require.GreaterOrEqual(t, it.Qty, 1)
	}
}

func TestCorruptBlobStartsEmpty(t *testing.T) {
	store, storage := newStore()
	storage.Seed("slot", []byte("{not json"))

	require.Empty(t, store.Get(context.Background(), "slot"))
}

func TestCorruptBlobRecoversOnNextMutation(t *testing.T) {
	store, storage := newStore()
	storage.Seed("slot", []byte("<<garbage>>"))
	ctx := context.Background()

	items := store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 1)
	require.Equal(t, []string{"a"}, ids(items))
	require.Equal(t, []string{"a"}, ids(store.Get(ctx, "slot")))
}

func TestPersistFailureIsAbsorbed(t *testing.T) {
	storage := cart.NewMemoryStorage()
	storage.FailWrites = true
	store := &cart.Store{Storage: storage}

	items := store.Add(context.Background(), "slot", cart.Item{ID: "a", Price: 10}, 1)
	require.Equal(t, []string{"a"}, ids(items), "mutation result still returned")
}

func TestClearEmptiesSlot(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 5)
	store.Clear(ctx, "slot")

	require.Empty(t, store.Get(ctx, "slot"))
	require.Zero(t, store.Count(ctx, "slot"))
}

func TestCountAndBadge(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 1}, 60)
	store.Add(ctx, "slot", cart.Item{ID: "b", Price: 1}, 45)

	count := store.Count(ctx, "slot")
	require.Equal(t, 105, count, "underlying count stays exact")
	require.Equal(t, "99+", cart.Badge(count))
	require.Equal(t, "99", cart.Badge(99))
	require.Equal(t, "0", cart.Badge(0))
}

func TestMutationsEmitCartUpdated(t *testing.T) {
	captured := &captureNotifier{}
	storage := cart.NewMemoryStorage()
	store := &cart.Store{
		Storage: storage,
		Events:  &events.Bus{Notifiers: []events.Notifier{captured}},
	}
	ctx := context.Background()

	store.Add(ctx, "slot", cart.Item{ID: "a", Price: 10}, 2)
	store.Remove(ctx, "slot", "a")

	require.Len(t, captured.events, 2)
	require.Equal(t, events.TopicCartUpdated, captured.events[0].Topic)
	require.Equal(t, 2, captured.events[0].Payload["count"])
	require.Equal(t, 0, captured.events[1].Payload["count"])
}

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func ids(items []cart.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
