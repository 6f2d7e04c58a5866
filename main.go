package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tas-agent/agent"
	"tas-agent/catalog"
	"tas-agent/config"
	"tas-agent/database"
	"tas-agent/links"
	"tas-agent/llmclient"
	"tas-agent/metadata"
	"tas-agent/resolver"
	"tas-agent/web"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	store, err := database.NewPostgresStore(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	// --- Ensure Schema Exists ---
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	holder, err := catalog.NewHolder(cfg.CatalogPath, logger)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err), zap.String("path", cfg.CatalogPath))
	}

	metadataStore, err := metadata.NewStore(cfg.MetadataDir, cfg.MetadataCacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to initialize metadata store", zap.Error(err))
	}

	entityResolver := resolver.New(holder, logger)
	formatter := links.NewFormatter(entityResolver, cfg.SiteBaseURL)

	llm := llmclient.New(cfg, logger)
	documents := database.NewDocumentStore(store.DB, logger)
	tasAgent := agent.NewAgent(cfg, llm, documents, logger)

	webServer := web.NewServer(web.Deps{
		Agent:     tasAgent,
		Store:     store,
		Links:     formatter,
		Metadata:  metadataStore,
		Tokenizer: llm,
	}, logger, cfg)

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go holder.StartRefresh(ctx, cfg.CatalogReloadInterval)

	// Start web server
	port := ":" + cfg.WebPort
	logger.Info("Starting art story assistant web server", zap.String("port", port))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
