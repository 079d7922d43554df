package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart store mutations by operation.
	CartMutationsTotal *prometheus.CounterVec
	// InvoiceCompositionsTotal counts invoice composition outcomes.
	InvoiceCompositionsTotal *prometheus.CounterVec
	// InvoiceGraphicsTotal counts auxiliary graphic outcomes (included, fallback, omitted).
	InvoiceGraphicsTotal *prometheus.CounterVec
	// AssetLoadsTotal counts external resource load outcomes by kind.
	AssetLoadsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart store mutations by operation.",
		}, []string{"op"})
		InvoiceCompositionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_compositions_total",
			Help:      "Count of invoice composition outcomes.",
		}, []string{"result"})
		InvoiceGraphicsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_graphics_total",
			Help:      "Count of auxiliary invoice graphic outcomes.",
		}, []string{"graphic", "result"})
		AssetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_loads_total",
			Help:      "Count of external resource load outcomes by kind.",
		}, []string{"kind", "result"})

		mustRegisterCollector(reg, CartMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceCompositionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceCompositionsTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceGraphicsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceGraphicsTotal = v
			}
		})
		mustRegisterCollector(reg, AssetLoadsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				AssetLoadsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
