package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/go-playground/validator/v10"

	"github.com/revo-studio/storefront/internal/assets"
	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/catalog"
	"github.com/revo-studio/storefront/internal/common"
	"github.com/revo-studio/storefront/internal/config"
	"github.com/revo-studio/storefront/internal/events"
	"github.com/revo-studio/storefront/internal/health"
	"github.com/revo-studio/storefront/internal/invoice"
	"github.com/revo-studio/storefront/internal/notify"
	"github.com/revo-studio/storefront/internal/obs"
	"github.com/revo-studio/storefront/internal/ratelimit"
	"github.com/revo-studio/storefront/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var redisClient *redis.Client
	if cfg.CartBackend == "redis" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	}

	var storage cart.Storage
	switch cfg.CartBackend {
	case "redis":
		storage = cart.RedisStorage{Client: redisClient, Prefix: cfg.CartKeyPrefix, TTL: cfg.CartCookieTTL}
	case "file":
		storage = cart.FileStorage{Dir: cfg.CartStateDir}
	case "memory":
		storage = cart.NewMemoryStorage()
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{SeedPath: cfg.CatalogSeedPath})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := &catalog.Handler{Svc: catalogService}

	validate := validator.New()
	slotCookie := cart.SlotCookie{Name: cfg.CartCookieName, TTL: cfg.CartCookieTTL}

	var mailer common.EmailSender = common.NopEmailSender{}
	if cfg.SMTPHost != "" {
		mailer = notify.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.FallbackFrom,
		}
	}
	bus := &events.Bus{
		Notifiers: []events.Notifier{
			notify.FallbackNotifier{
				Mail:   mailer,
				From:   cfg.FallbackFrom,
				To:     cfg.FallbackTo,
				Logger: logger,
			},
		},
	}

	cartStore := &cart.Store{Storage: storage, Events: bus, Logger: logger}
	cartHandler := &cart.Handler{
		Store:    cartStore,
		Catalog:  catalogService,
		Validate: validate,
		TaxRate:  cfg.TaxRate,
		Cookie:   slotCookie,
	}

	loader := assets.NewLoader(&http.Client{Timeout: cfg.AssetTimeout})
	loader.Logger = logger

	checkoutSvc := &invoice.Service{
		Cart: cartStore,
		Composer: &invoice.Composer{
			Company:    cfg.Company,
			LogoURL:    cfg.LogoURL,
			QRChartURL: cfg.QRChartURL,
			Loader:     loader,
			Logger:     logger,
		},
		Artifacts: &invoice.FSStore{Dir: cfg.InvoiceOutputDir},
		TaxRate:   cfg.TaxRate,
		Events:    bus,
		Logger:    logger,
	}
	checkoutHandler := &invoice.Handler{Service: checkoutSvc, Validate: validate, Cookie: slotCookie}

	checkoutLimit := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{
			Client: redisClient,
			Prefix: "ratelimit:checkout:",
			Window: cfg.CheckoutRateWindow,
			Max:    cfg.CheckoutRateMax,
		},
		Key: ratelimit.ByClientIP,
		Max: cfg.CheckoutRateMax,
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter degraded")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit(1 << 20))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:        readinessChecker{storage: storage, redis: redisClient},
		StorageTimeout: envDurationMillis("HEALTH_READY_STORAGE_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.Products)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Get("/badge", cartHandler.BadgeCount)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{id}", cartHandler.UpdateItem)
			c.Delete("/items/{id}", cartHandler.RemoveItem)
		})

		v.With(checkoutLimit.Middleware).Post("/checkout", checkoutHandler.Checkout)
		v.Get("/invoices/{invoiceID}", checkoutHandler.Download)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Str("cart_backend", cfg.CartBackend).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	storage cart.Storage
	redis   *redis.Client
}

func (c readinessChecker) PingStorage(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if c.redis != nil {
		return c.redis.Ping(ctx).Err()
	}
	if c.storage == nil {
		return errors.New("cart storage not configured")
	}
	_, _, err := c.storage.Get(ctx, "health-probe")
	return err
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
