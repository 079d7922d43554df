// Package graphics produces the auxiliary invoice graphics. Each graphic is
// acquired through an ordered chain of strategies tried until one succeeds;
// a chain where every tier fails means the graphic is omitted, never that
// the composition aborts.
package graphics

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/revo-studio/storefront/internal/obs"
)

// Asset is a rendered graphic ready to embed in a document.
type Asset struct {
	PNG    []byte
	Width  int
	Height int
}

// Strategy is one fallback tier in a resource-acquisition chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context) (Asset, error)
}

// Chain tries strategies in order until one succeeds.
type Chain struct {
	Graphic    string
	Strategies []Strategy
	Logger     zerolog.Logger
}

// Generate returns the first successful asset and whether any tier produced
// one. Failures are logged and counted, never propagated.
func (c Chain) Generate(ctx context.Context) (Asset, bool) {
	for i, strategy := range c.Strategies {
		if strategy == nil {
			continue
		}
		asset, err := strategy.Attempt(ctx)
		if err == nil && len(asset.PNG) > 0 {
			result := "included"
			if i > 0 {
				result = "fallback"
			}
			c.count(result)
			return asset, true
		}
		if err == nil {
			err = errors.New("empty asset")
		}
		c.Logger.Warn().Err(err).Str("graphic", c.Graphic).Str("tier", strategy.Name()).Msg("graphic tier failed")
	}
	c.count("omitted")
	return Asset{}, false
}

func (c Chain) count(result string) {
	if obs.InvoiceGraphicsTotal != nil {
		obs.InvoiceGraphicsTotal.WithLabelValues(c.Graphic, result).Inc()
	}
}
