package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	reconapp "github.com/retailrecon/backend/internal/application/reconciliation"
	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/infrastructure/config"
	"github.com/retailrecon/backend/internal/infrastructure/logger"
	"github.com/retailrecon/backend/internal/infrastructure/persistence"
	"github.com/retailrecon/backend/internal/interfaces/http/handler"
	"github.com/retailrecon/backend/internal/interfaces/http/middleware"
	"github.com/retailrecon/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting retail reconciliation backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := persistence.Close(db); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	lineItemRepo := persistence.NewLineItemRepository(db)
	discountRepo := persistence.NewDiscountRuleRepository(db)
	taxRepo := persistence.NewTaxRateRepository(db)
	invoiceRepo := persistence.NewInvoiceRepository(db)

	// Application services
	reconService := reconapp.NewService(
		lineItemRepo, discountRepo, taxRepo, invoiceRepo, log,
		reconapp.WithPrecision(int32(cfg.Reconcile.CurrencyPrecision)),
		reconapp.WithTieBreak(pricing.TieBreak(cfg.Reconcile.DiscountTieBreak)),
		reconapp.WithRatioThresholdPct(decimal.NewFromFloat(cfg.Reconcile.RatioThresholdPct)),
		reconapp.WithWorkers(cfg.Reconcile.Workers),
	)
	importService := reconapp.NewImportService(lineItemRepo, discountRepo, taxRepo, log)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinLogger(log))
	engine.Use(logger.GinRecovery(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(db, cfg.App.Name))
	r.Register(handler.NewReconciliationHandler(reconService, log))
	r.Register(handler.NewImportHandler(importService, log))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
