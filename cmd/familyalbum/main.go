package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/api"
	"github.com/Kerhoff/familyalbum/internal/auth"
	"github.com/Kerhoff/familyalbum/internal/config"
	"github.com/Kerhoff/familyalbum/internal/imagehost"
	"github.com/Kerhoff/familyalbum/internal/middleware"
	"github.com/Kerhoff/familyalbum/internal/payment"
	"github.com/Kerhoff/familyalbum/internal/repository/postgres"
	"github.com/Kerhoff/familyalbum/internal/service"
	"github.com/Kerhoff/familyalbum/internal/telegram"
	"github.com/Kerhoff/familyalbum/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting family album API...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	repos := service.Repositories{
		Users:    postgres.NewUserRepository(db.DB),
		Members:  postgres.NewMemberRepository(db.DB),
		Graph:    postgres.NewGraphRepository(db.DB),
		Photos:   postgres.NewPhotoRepository(db.DB),
		Payments: postgres.NewPaymentRepository(db.DB),
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	if err != nil {
		l.Fatalf("Failed to set up token issuer: %v", err)
	}

	deps := service.Dependencies{
		Tokens: issuer,
		Billing: service.BillingConfig{
			Amount:         cfg.PriceAmount,
			Currency:       cfg.PriceCurrency,
			FrontendURL:    cfg.FrontendURL,
			PublishableKey: cfg.StripePublishableKey,
		},
	}
	wireAdapters(cfg, &deps, l)

	// Service layer
	svc := service.New(l, repos, deps)

	authn, err := middleware.NewAuthenticator(middleware.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	}, l)
	if err != nil {
		l.Fatalf("Failed to set up authentication: %v", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	// Start payment sweeper
	go svc.StartPaymentSweeper(ctx, cfg.PaymentSweepInterval)

	apiServer := api.NewServer(svc, authn, l)
	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(metrics.Wrap(apiServer.Handler()))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go serve(httpServer, "HTTP", l, stop)
	go serve(metricsServer, "metrics", l, stop)

	l.Info("Family album API started successfully")

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	l.Info("Shutting down HTTP servers...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("metrics server shutdown failed")
	}

	l.Info("Family album API stopped")
}

// wireAdapters connects the optional external services. Each one stays
// disabled when its configuration is missing or broken.
func wireAdapters(cfg *config.Config, deps *service.Dependencies, l *logrus.Logger) {
	if cfg.PaymentsEnabled() {
		deps.Gateway = payment.NewStripeGateway(cfg.StripeSecretKey, nil)
	} else {
		l.Warn("STRIPE_SECRET_KEY not set, payments disabled")
	}

	if cfg.UploadsEnabled() {
		host, err := imagehost.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			l.WithError(err).Error("Failed to configure image host, uploads disabled")
		} else {
			deps.Images = host
		}
	} else {
		l.Warn("CLOUDINARY_URL not set, uploads disabled")
	}

	if cfg.NotificationsEnabled() {
		notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, l)
		if err != nil {
			l.WithError(err).Error("Failed to create Telegram notifier, upgrade notifications disabled")
		} else {
			deps.Notifier = notifier
		}
	}
}

func serve(srv *http.Server, name string, l *logrus.Logger, stop context.CancelFunc) {
	l.Infof("%s server listening on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Errorf("%s server error: %v", name, err)
		stop()
	}
}
