// Package notify delivers invoice events to humans. The only channel is the
// fallback email: when an invoice cannot be generated, the order contents
// are mailed so the sale is not lost.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/revo-studio/storefront/internal/common"
	"github.com/revo-studio/storefront/internal/events"
)

// FallbackNotifier emails the order contents when invoice generation fails.
type FallbackNotifier struct {
	Mail   common.EmailSender
	From   string
	To     string
	Logger zerolog.Logger
}

// Notify implements events.Notifier. Topics other than the invoice failure
// are ignored.
func (n FallbackNotifier) Notify(_ context.Context, event events.Event) error {
	if event.Topic != events.TopicInvoiceFailed {
		return nil
	}
	if n.Mail == nil || n.To == "" {
		return nil
	}
	subject := "Pedido sin factura"
	if id, ok := event.Payload["invoice_id"].(string); ok && id != "" {
		subject = "Pedido sin factura " + id
	}
	if err := n.Mail.Send(n.To, subject, n.body(event)); err != nil {
		return fmt.Errorf("fallback email: %w", err)
	}
	n.Logger.Info().Str("to", n.To).Str("event_id", event.ID).Msg("fallback order email sent")
	return nil
}

func (n FallbackNotifier) body(event events.Event) string {
	var b strings.Builder
	b.WriteString("<h1>No se pudo generar la factura</h1>")
	if reason, ok := event.Payload["error"].(string); ok && reason != "" {
		b.WriteString("<p><strong>Motivo:</strong> " + htmlEscape(reason) + "</p>")
	}
	b.WriteString("<h2>Pedido</h2><ul>")
	if items, ok := event.Payload["items"].([]map[string]any); ok {
		for _, it := range items {
			name, _ := it["name"].(string)
			qty, _ := it["qty"].(int)
			price, _ := it["price"].(string)
			fmt.Fprintf(&b, "<li>%s x %d - $%s</li>", htmlEscape(name), qty, price)
		}
	}
	b.WriteString("</ul>")
	for _, line := range []struct{ label, key string }{
		{"Subtotal", "subtotal"},
		{"IVA", "tax"},
		{"Total", "total"},
	} {
		if v, ok := event.Payload[line.key].(string); ok && v != "" {
			fmt.Fprintf(&b, "<p><strong>%s:</strong> $%s</p>", line.label, v)
		}
	}
	b.WriteString(fmt.Sprintf("<p>Evento %s, %s</p>", event.ID, event.OccurredAt.Format("02/01/2006 15:04:05")))
	return b.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func htmlEscape(s string) string { return htmlEscaper.Replace(s) }
