package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

// Product is a single catalog entry. ID is the stable slug derived from the
// display name; prices are locked into the cart at add time, so a later seed
// change never retroactively reprices existing carts.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Category string  `json:"category,omitempty"`
}

// Service serves the static product catalog loaded from a seed file.
type Service struct {
	products []Product
	byID     map[string]Product
}

// ServiceConfig bundles dependencies for NewService.
type ServiceConfig struct {
	SeedPath string
}

// NewService loads and validates the catalog seed.
func NewService(cfg ServiceConfig) (*Service, error) {
	if strings.TrimSpace(cfg.SeedPath) == "" {
		return nil, errors.New("catalog: seed path is required")
	}
	raw, err := os.ReadFile(cfg.SeedPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: read seed: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("catalog: parse seed: %w", err)
	}
	return newService(products)
}

// NewServiceFromProducts builds a catalog from an in-memory product list.
func NewServiceFromProducts(products []Product) (*Service, error) {
	return newService(products)
}

func newService(products []Product) (*Service, error) {
	byID := make(map[string]Product, len(products))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			p.ID = Slugify(p.Name)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: product %q has no usable id", p.Name)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog: product %q has negative price", p.Name)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		byID[p.ID] = p
		out = append(out, p)
	}
	return &Service{products: out, byID: byID}, nil
}

// List returns catalog products, optionally filtered by category.
func (s *Service) List(category string) []Product {
	if s == nil {
		return nil
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return append([]Product(nil), s.products...)
	}
	var out []Product
	for _, p := range s.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Get looks a product up by its slug id.
func (s *Service) Get(id string) (Product, error) {
	if s == nil {
		return Product{}, ErrNotFound
	}
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Slugify derives the stable product id from a display name: lowercase,
// runs of non-alphanumerics collapsed to a single dash, edges trimmed.
func Slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
