package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradedocs/tradedocs/internal/batch"
	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/convert"
	"github.com/tradedocs/tradedocs/internal/extract"
	"github.com/tradedocs/tradedocs/internal/provider/router"
	"github.com/tradedocs/tradedocs/internal/repository"
	"github.com/tradedocs/tradedocs/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.AutoMigrate(db); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	documentsRepo := repository.NewDocumentRepository(db, logger)
	tendersRepo := repository.NewTenderRepository(db, logger)
	deliveriesRepo := repository.NewDeliveryRepository(db, logger)
	invoicesRepo := repository.NewInvoiceRepository(db, logger)
	draftsRepo := repository.NewDraftRepository(db, logger)

	registry := router.NewRegistry(cfg.Provider, logger)
	rt := router.NewRouter(registry, logger)
	extractor := extract.NewExtractor(rt, logger)

	orchestrator := batch.NewOrchestrator(extractor, documentsRepo, tendersRepo, draftsRepo, logger)
	converter := convert.NewService(tendersRepo, deliveriesRepo, invoicesRepo, logger)

	srv := server.New(cfg.Server, orchestrator, converter,
		documentsRepo, tendersRepo, deliveriesRepo, invoicesRepo, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server.shutdown.done")
}
