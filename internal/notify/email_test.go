package notify

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/revo-studio/storefront/internal/common"
	"github.com/revo-studio/storefront/internal/events"
)

func failedEvent() events.Event {
	return events.Event{
		ID:         "evt-1",
		Topic:      events.TopicInvoiceFailed,
		OccurredAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		Payload: map[string]any{
			"invoice_id": "INV-20260901-1234",
			"error":      "compose invoice: render pdf: boom",
			"items": []map[string]any{
				{"name": "Sofá <Premium>", "qty": 2, "price": "120.00"},
			},
			"subtotal": "240.00",
			"tax":      "52.80",
			"total":    "292.80",
		},
	}
}

func TestFallbackNotifierSendsOrderEmail(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := FallbackNotifier{Mail: mail, From: "noreply@example.com", To: "ventas@example.com", Logger: zerolog.Nop()}

	require.NoError(t, n.Notify(context.Background(), failedEvent()))
	require.Len(t, mail.Outbox, 1)

	msg := mail.Outbox[0]
	require.Equal(t, "ventas@example.com", msg.To)
	require.Equal(t, "Pedido sin factura INV-20260901-1234", msg.Subject)
	require.Contains(t, msg.HTML, "Sofá &lt;Premium&gt; x 2 - $120.00")
	require.Contains(t, msg.HTML, "<strong>Total:</strong> $292.80")
	require.Contains(t, msg.HTML, "compose invoice")
}

func TestFallbackNotifierIgnoresOtherTopics(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := FallbackNotifier{Mail: mail, To: "ventas@example.com", Logger: zerolog.Nop()}

	ev := failedEvent()
	ev.Topic = events.TopicInvoiceGenerated
	require.NoError(t, n.Notify(context.Background(), ev))
	require.Empty(t, mail.Outbox)
}

func TestFallbackNotifierWithoutSender(t *testing.T) {
	n := FallbackNotifier{Logger: zerolog.Nop()}
	require.NoError(t, n.Notify(context.Background(), failedEvent()))
}
