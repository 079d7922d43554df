package invoice

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/events"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev events.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Topic)
	}
	return out
}

func newCheckoutFixture(t *testing.T) (*Service, *cart.Store, *MemoryStore, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	bus := &events.Bus{Notifiers: []events.Notifier{notifier}}
	store := &cart.Store{Storage: cart.NewMemoryStorage(), Events: bus, Logger: zerolog.Nop()}
	artifacts := &MemoryStore{}
	svc := &Service{
		Cart:      store,
		Composer:  &Composer{Company: testCompany(), Logger: zerolog.Nop()},
		Artifacts: artifacts,
		TaxRate:   0.22,
		Events:    bus,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) },
	}
	return svc, store, artifacts, notifier
}

func TestCheckoutGeneratesInvoiceAndClearsCart(t *testing.T) {
	svc, store, artifacts, notifier := newCheckoutFixture(t)
	ctx := context.Background()
	store.Add(ctx, "slot-1", cart.Item{ID: "sofa", Name: "Sofá 3 Cuerpos", Price: 100}, 2)
	store.Add(ctx, "slot-1", cart.Item{ID: "mesa", Name: "Mesa Ratona", Price: 45.5}, 1)

	receipt, err := svc.Checkout(ctx, "slot-1")
	require.NoError(t, err)
	require.True(t, ValidID(receipt.Invoice.ID))
	require.InDelta(t, 245.5, receipt.Totals.Subtotal, 1e-9)
	require.Equal(t, receipt.Totals.Subtotal+receipt.Totals.Tax, receipt.Totals.GrandTotal)
	require.GreaterOrEqual(t, receipt.Pages, 1)
	require.Len(t, receipt.Items, 2)

	pdf, err := artifacts.Get(ctx, receipt.Invoice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)

	require.Empty(t, store.Get(ctx, "slot-1"), "cart should be cleared after checkout")
	require.Contains(t, notifier.topics(), events.TopicInvoiceGenerated)
	require.NotContains(t, notifier.topics(), events.TopicInvoiceFailed)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, events.Event) error {
	return errors.New("smtp unreachable")
}

func TestCheckoutSurvivesNotifierFailure(t *testing.T) {
	var logs bytes.Buffer
	svc, store, artifacts, _ := newCheckoutFixture(t)
	svc.Events = &events.Bus{Notifiers: []events.Notifier{failingNotifier{}}}
	svc.Logger = zerolog.New(&logs)
	ctx := context.Background()
	store.Add(ctx, "slot-1", cart.Item{ID: "sofa", Name: "Sofá", Price: 100}, 1)

	receipt, err := svc.Checkout(ctx, "slot-1")
	require.NoError(t, err, "a broken notification channel must not fail the checkout")

	_, err = artifacts.Get(ctx, receipt.Invoice.ID)
	require.NoError(t, err)
	require.Contains(t, logs.String(), "notifier delivery failed")
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _, _, notifier := newCheckoutFixture(t)

	_, err := svc.Checkout(context.Background(), "slot-1")
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Empty(t, notifier.topics())
}

func TestCheckoutKeepsCartWhenArtifactWriteFails(t *testing.T) {
	svc, store, artifacts, notifier := newCheckoutFixture(t)
	artifacts.FailWrites = true
	ctx := context.Background()
	store.Add(ctx, "slot-1", cart.Item{ID: "sofa", Name: "Sofá", Price: 100}, 1)

	_, err := svc.Checkout(ctx, "slot-1")
	require.Error(t, err)

	require.Len(t, store.Get(ctx, "slot-1"), 1, "a failed checkout must not lose the order")
	require.Contains(t, notifier.topics(), events.TopicInvoiceFailed)
	require.NotContains(t, notifier.topics(), events.TopicInvoiceGenerated)
}

func TestDownloadValidatesID(t *testing.T) {
	svc, _, artifacts, _ := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := artifacts.Put(ctx, "INV-20260901-1234", []byte("%PDF-1.4"))
	require.NoError(t, err)

	data, err := svc.Download(ctx, "INV-20260901-1234")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	_, err = svc.Download(ctx, "../../etc/passwd")
	require.ErrorIs(t, err, ErrArtifactNotFound)

	_, err = svc.Download(ctx, "INV-20260901-9999")
	require.ErrorIs(t, err, ErrArtifactNotFound)
}
