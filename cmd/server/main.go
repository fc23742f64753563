package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Simplici0/teekiosk/internal/cart"
	"github.com/Simplici0/teekiosk/internal/config"
	"github.com/Simplici0/teekiosk/internal/db"
	"github.com/Simplici0/teekiosk/internal/migrations"
	"github.com/Simplici0/teekiosk/internal/obs"
	"github.com/Simplici0/teekiosk/internal/pricing"
	"github.com/Simplici0/teekiosk/internal/seed"
)

type server struct {
	db      *sql.DB
	cart    *cart.Service
	calc    *pricing.Calculator
	metrics *obs.PricingMetrics
	logger  zerolog.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	for _, warning := range cfg.Warnings() {
		logger.Warn().Msg(warning)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	table := pricing.DefaultTable()
	if cfg.PricingTablePath != "" {
		loaded, err := pricing.LoadTable(cfg.PricingTablePath)
		if err != nil {
			return err
		}
		table = loaded
	}
	calc, err := pricing.NewCalculator(table)
	if err != nil {
		return err
	}
	logger.Info().Str("version", table.Version).Str("currency", table.Currency).Msg("pricing table loaded")

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
		stats, err := seed.Run(database, seed.Config{Table: table})
		if err != nil {
			return fmt.Errorf("seed product variants: %w", err)
		}
		logger.Info().Int("inserts", stats.Inserts).Int("updates", stats.Updates).Msg("seed complete")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pricingMetrics := obs.NewPricingMetrics(cfg.MetricsNamespace, registry)

	srv := &server{
		db:      database,
		cart:    cart.NewService(cart.NewStore(database), calc, logger, pricingMetrics),
		calc:    calc,
		metrics: pricingMetrics,
		logger:  logger,
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.routes(cfg, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *server) routes(cfg config.Config, registry *prometheus.Registry) http.Handler {
	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMS), registry)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: s.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/pricing/table", s.handlePricingTable)
		r.Post("/price/preview", s.handlePricePreview)

		r.Get("/product-variants", s.handleVariantsList)
		r.Get("/product-variants/{id}", s.handleVariantGet)

		r.Post("/cart", s.handleCartCreate)
		r.Get("/cart/{sessionID}", s.handleCartGet)
		r.Post("/cart/{sessionID}", s.handleCartAdd)
		r.Delete("/cart/{sessionID}", s.handleCartClear)
		r.Put("/cart/{sessionID}/items/{id}", s.handleCartItemUpdate)
		r.Delete("/cart/{sessionID}/items/{id}", s.handleCartItemDelete)
	})

	return r
}
