package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"invoiceflow/docs"
	"invoiceflow/internal/config"
	"invoiceflow/internal/database"
	"invoiceflow/internal/database/migration"
	handlers "invoiceflow/internal/http/handler"
	"invoiceflow/internal/http/middleware"
	"invoiceflow/internal/logger"
	"invoiceflow/internal/otel"
	"invoiceflow/internal/repository/postgres"
	"invoiceflow/internal/service"
	"invoiceflow/internal/stamp"
	"invoiceflow/internal/storage"
)

const (
	bodyLimit       = 20 << 20
	shutdownTimeout = 10 * time.Second
)

// @title Invoice Approval API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(cfg.Log, cfg.Location())
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server_exit", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	if cfg.Auth.Secret == "" {
		return errors.New("SECRET_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	// PostgreSQL connection (pooled via database/sql, traced via otelsql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	store := storage.NewDocumentStore(backend, cfg.PublicBaseURL)

	engine := stamp.NewEngine(cfg.Stamp.MarkPath)
	if err := engine.CheckMark(); err != nil {
		// Approvals fail with MARK_ASSET_MISSING until the asset appears; submissions still work
		log.Warn("approval_mark_unavailable", zap.String("path", cfg.Stamp.MarkPath), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	invoiceSvc := service.NewInvoiceService(store, postgres.NewInvoiceRequestPostgres(db), engine,
		service.WithMetrics(metrics),
		service.WithLogger(log.Named("service")),
	)
	authSvc := service.NewAuthService(postgres.NewUserPostgres(db), cfg.Auth.Secret, cfg.Auth.TokenTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit,
	})

	// RequestID first so every later middleware and the error envelope can see it
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, db, invoiceSvc, authSvc)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", zap.String("addr", ":"+cfg.Port), zap.String("public_base_url", cfg.PublicBaseURL))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutdown")
	return app.ShutdownWithTimeout(shutdownTimeout)
}

func newBackend(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "local", "":
		return storage.NewLocal(cfg.Storage.Dir)
	case "minio":
		return storage.NewMinIO(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
