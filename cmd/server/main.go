package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mintflow/internal/api"
	"mintflow/internal/chain"
	"mintflow/internal/config"
	"mintflow/internal/contentapi"
	"mintflow/internal/database"
	"mintflow/internal/purchase"
	"mintflow/internal/store"
	"mintflow/internal/wallet"
)

func main() {
	// Initialize logger
	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Mintflow Purchase Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("wallet_mode", cfg.Wallet.Mode),
		zap.String("content_api", cfg.Content.BaseURL))

	// Connect to the operation journal database
	db, err := database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Run migrations
	migrationPath := "internal/database/migrations/001_schema.sql"
	if err := database.RunMigrations(db, migrationPath); err != nil {
		logger.Warn("Failed to run migrations (may already be applied)", zap.Error(err))
	} else {
		logger.Info("Database migrations applied successfully")
	}

	// Content platform API client
	contentClient := contentapi.NewClient(cfg.Content.BaseURL, cfg.Content.AuthToken, logger)

	// Chain RPC client (embedded signer broadcast path)
	rpcClient := chain.NewClient(cfg.Chain.RPCEndpoint, logger)

	// Wallet router
	walletRouter, err := wallet.NewRouter(cfg.Wallet, rpcClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize wallet router", zap.Error(err))
	}

	logger.Info("Wallet initialized",
		zap.String("kind", string(walletRouter.Kind())),
		zap.Bool("available", walletRouter.Available()),
		zap.Bool("needs_selection", walletRouter.NeedsSelection()))

	// State stores and cross-screen event hub
	states := store.NewStateStore()
	items := store.NewItemStore()
	events := store.NewHub(logger)

	// Purchase coordinator
	coordinator := purchase.New(purchase.Deps{
		API:      contentClient,
		Wallet:   walletRouter,
		States:   states,
		Items:    items,
		Events:   events,
		Journal:  db,
		Notifier: purchase.NewLogNotifier(logger),
		Config: purchase.Config{
			CollectInterval:  cfg.Polling.CollectInterval,
			CollectMax:       cfg.Polling.CollectMax,
			PurchaseInterval: cfg.Polling.PurchaseInterval,
			PurchaseMax:      cfg.Polling.PurchaseMax,
		},
		Logger: logger,
	})

	// Background item refresher reconciles server counts with local state
	refreshCtx, refreshCancel := context.WithCancel(context.Background())
	defer refreshCancel()

	refresher := purchase.NewRefresher(contentClient, items, states, cfg.Polling.RefreshInterval, logger)
	go refresher.Run(refreshCtx)

	// Initialize API handlers
	apiHandler := api.NewHandler(coordinator, states, items, walletRouter, db, logger)
	router := api.SetupRouter(apiHandler, logger)

	// Create HTTP server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", serverAddr))
		serverErrors <- httpServer.ListenAndServe()
	}()

	logger.Info("Service initialized successfully",
		zap.String("status", "ready"),
		zap.Int("port", cfg.Server.Port))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("HTTP server error", zap.Error(err))
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	logger.Info("Shutting down service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop background work first: refresher, then in-flight pollers
	refreshCancel()
	coordinator.Shutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
		httpServer.Close()
	} else {
		logger.Info("HTTP server stopped gracefully")
	}

	logger.Info("Service stopped successfully")
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENV")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
