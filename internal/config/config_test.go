package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CART_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "memory", cfg.CartBackend)
	require.Equal(t, 0.22, cfg.TaxRate)
	require.Equal(t, "REVO Studio SAS BIC", cfg.Company.Name)
	require.Equal(t, "214296019001", cfg.Company.TaxID)
	require.Equal(t, cfg.Company.Email, cfg.FallbackTo)
	require.Equal(t, 30*24*time.Hour, cfg.CartCookieTTL)
	require.NotEmpty(t, cfg.QRChartURL)
}

func TestLoadRequiresRedisURLForRedisBackend(t *testing.T) {
	t.Setenv("CART_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CART_BACKEND", "localstorage")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsOutOfRangeTaxRate(t *testing.T) {
	t.Setenv("CART_BACKEND", "memory")
	t.Setenv("PRICING_TAX_RATE", "1.5")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CART_BACKEND", "file")
	t.Setenv("CART_STATE_DIR", "/tmp/carts")
	t.Setenv("PORT", "9090")
	t.Setenv("COMPANY_NAME", "Otra Empresa SA")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "/tmp/carts", cfg.CartStateDir)
	require.Equal(t, "Otra Empresa SA", cfg.Company.Name)
}
