package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bengkel-erp/bengkel-erp/internal/app"
	"github.com/bengkel-erp/bengkel-erp/internal/audit"
	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	"github.com/bengkel-erp/bengkel-erp/internal/billing"
	"github.com/bengkel-erp/bengkel-erp/internal/clients"
	"github.com/bengkel-erp/bengkel-erp/internal/dashboard"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/services"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/suppliers"
	"github.com/bengkel-erp/bengkel-erp/internal/observability"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/cache"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/users"
	"github.com/bengkel-erp/bengkel-erp/internal/vehicles"
	"github.com/bengkel-erp/bengkel-erp/internal/workorders"
	"github.com/bengkel-erp/bengkel-erp/jobs"
	"github.com/bengkel-erp/bengkel-erp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	refreshStore := auth.NewRefreshStore(redisClient, cfg.JWTRefreshTTL)
	authMW := auth.Middleware{Tokens: tokens, Logger: logger}

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens, refreshStore)
	authHandler := auth.NewHandler(logger, authService, authMW)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, authMW)

	clientsRepo := clients.NewRepository(dbpool)
	clientsService := clients.NewService(clientsRepo, auditLogger)
	clientsHandler := clients.NewHandler(logger, clientsService, authMW)

	vehiclesRepo := vehicles.NewRepository(dbpool)
	vehiclesService := vehicles.NewService(vehiclesRepo, clientsRepo, auditLogger)
	vehiclesHandler := vehicles.NewHandler(logger, vehiclesService, authMW)

	servicesRepo := services.NewRepository(dbpool)
	servicesService := services.NewService(servicesRepo)
	servicesHandler := services.NewHandler(logger, servicesService, authMW)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(suppliersRepo)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService, authMW)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, authMW)

	workOrderRepo := workorders.NewRepository(dbpool)
	workOrderService := workorders.NewService(workOrderRepo, vehiclesService, auditLogger)
	workOrderHandler := workorders.NewHandler(logger, workOrderService, authMW)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, clientsRepo, idempotencyStore, auditLogger)

	pdfClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	invoiceRenderer := report.NewInvoiceRenderer(billingService, clientsService, pdfClient)
	billingHandler := billing.NewHandler(logger, billingService, invoiceRenderer, authMW)

	dashboardService := dashboard.NewService(logger, dbpool, redisClient, cfg.DashboardCacheTTL)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, authMW)

	auditHandler := audit.NewHandler(logger, dbpool, authMW)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		ClientsHandler:   clientsHandler,
		VehiclesHandler:  vehiclesHandler,
		ServicesHandler:  servicesHandler,
		SuppliersHandler: suppliersHandler,
		InventoryHandler: inventoryHandler,
		WorkOrderHandler: workOrderHandler,
		BillingHandler:   billingHandler,
		DashboardHandler: dashboardHandler,
		AuditHandler:     auditHandler,
		JobHandler:       jobHandler,
		AuthMiddleware:   authMW,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
