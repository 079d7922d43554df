package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicCartUpdated      = "cart.updated"
	TopicInvoiceGenerated = "invoice.generated"
	TopicInvoiceFailed    = "invoice.failed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicCartUpdated,
		TopicInvoiceGenerated,
		TopicInvoiceFailed,
	}
}
