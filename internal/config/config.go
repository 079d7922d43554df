package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// CompanyProfile holds the fixed seller identity printed on every invoice.
// It is configuration, not user data.
type CompanyProfile struct {
	Name    string
	TaxID   string
	Address string
	Phone   string
	Email   string
}

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	CartBackend    string // redis | file | memory
	CartStateDir   string
	CartKeyPrefix  string
	CartCookieName string
	CartCookieTTL  time.Duration

	CatalogSeedPath string

	TaxRate          float64
	Company          CompanyProfile
	InvoiceOutputDir string
	LogoURL          string
	QRChartURL       string

	AssetTimeout time.Duration

	CheckoutRateMax    int
	CheckoutRateWindow time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FallbackFrom string
	FallbackTo   string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CartBackend:    strings.ToLower(valueOrDefault(k.String("CART_BACKEND"), "redis")),
		CartStateDir:   valueOrDefault(k.String("CART_STATE_DIR"), "./data/carts"),
		CartKeyPrefix:  valueOrDefault(k.String("CART_KEY_PREFIX"), "cart:"),
		CartCookieName: valueOrDefault(k.String("CART_COOKIE_NAME"), "cart_id"),
		CartCookieTTL:  parseDuration(k.String("CART_COOKIE_TTL"), "720h"),

		CatalogSeedPath: valueOrDefault(k.String("CATALOG_SEED_PATH"), "./data/catalog.json"),

		TaxRate:          parseFloat(k.String("PRICING_TAX_RATE"), 0.22),
		InvoiceOutputDir: valueOrDefault(k.String("INVOICE_OUTPUT_DIR"), "./data/invoices"),
		LogoURL:          k.String("INVOICE_LOGO_URL"),
		QRChartURL:       valueOrDefault(k.String("QR_CHART_URL"), "https://chart.googleapis.com/chart?cht=qr&chs=200x200&chld=L|1&chl="),

		AssetTimeout: parseDuration(k.String("ASSET_TIMEOUT"), "10s"),

		CheckoutRateMax:    atoiDefault(k.String("CHECKOUT_RATE_MAX"), 10),
		CheckoutRateWindow: parseDuration(k.String("CHECKOUT_RATE_WINDOW"), "1m"),

		SMTPHost:     k.String("SMTP_HOST"),
		SMTPPort:     atoiDefault(k.String("SMTP_PORT"), 587),
		SMTPUser:     k.String("SMTP_USER"),
		SMTPPassword: k.String("SMTP_PASSWORD"),
		FallbackFrom: k.String("FALLBACK_EMAIL_FROM"),
		FallbackTo:   k.String("FALLBACK_EMAIL_TO"),
	}

	cfg.Company = CompanyProfile{
		Name:    valueOrDefault(k.String("COMPANY_NAME"), "REVO Studio SAS BIC"),
		TaxID:   valueOrDefault(k.String("COMPANY_TAX_ID"), "214296019001"),
		Address: valueOrDefault(k.String("COMPANY_ADDRESS"), "Pedro Margat 1606"),
		Phone:   valueOrDefault(k.String("COMPANY_PHONE"), "099309557"),
		Email:   valueOrDefault(k.String("COMPANY_EMAIL"), "revostudio@gmail.com"),
	}
	if cfg.FallbackTo == "" {
		cfg.FallbackTo = cfg.Company.Email
	}
	if cfg.FallbackFrom == "" {
		cfg.FallbackFrom = cfg.Company.Email
	}

	switch cfg.CartBackend {
	case "redis", "file", "memory":
	default:
		return nil, fmt.Errorf("unsupported CART_BACKEND %q", cfg.CartBackend)
	}
	if cfg.CartBackend == "redis" && cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required when CART_BACKEND=redis")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return nil, fmt.Errorf("PRICING_TAX_RATE out of range: %v", cfg.TaxRate)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func atoiDefault(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}
