package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/batch"
	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
	"github.com/tradedocs/tradedocs/internal/extract"
	"github.com/tradedocs/tradedocs/internal/provider"
	"github.com/tradedocs/tradedocs/internal/provider/router"
	"github.com/tradedocs/tradedocs/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir     = flag.String("dir", "", "directory to process documents from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		cat     = flag.String("category", "", "force a document category for every file (optional)")
		submit  = flag.Bool("submit", false, "commit successfully extracted tenders to the database")
		provStr = flag.String("provider", "", "force a provider: gemini or openai (optional)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "tenders.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	ctx := context.Background()
	cfg := common.LoadConfig()

	category := constants.Other
	if *cat != "" {
		parsed, ok := constants.Canonicalize(*cat)
		if !ok {
			printError("Error: unknown category %q\n", *cat)
			os.Exit(1)
		}
		category = parsed
	}
	override, err := parseProvider(*provStr)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	db, cleanup, err := openDatabase(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	documentsRepo := repository.NewDocumentRepository(db, logger)
	tendersRepo := repository.NewTenderRepository(db, logger)
	draftsRepo := repository.NewDraftRepository(db, logger)

	registry := router.NewRegistry(cfg.Provider, logger)
	rt := router.NewRouter(registry, logger)
	extractor := extract.NewExtractor(rt, logger)
	orchestrator := batch.NewOrchestrator(extractor, documentsRepo, tendersRepo, draftsRepo, logger)

	inputs, err := ingestDirectory(ctx, documentsRepo, *dir, category, override, logger)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		logger.Warn("no processable files found", "dir", *dir)
		os.Exit(0)
	}

	session := orchestrator.RunBatch(ctx, inputs)

	if *submit {
		outcome := orchestrator.Submit(ctx, session)
		logger.Info("batch.committed",
			"total", outcome.TotalFiles, "successful", outcome.Successful)
	}

	data, err := batch.ExportXLSX(session, logger)
	if err != nil {
		logger.Error("failed to export workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write workbook", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("batch.export.written", "path", *out, "entries", len(session.Entries))
}

func parseProvider(raw string) (provider.Name, error) {
	if raw == "" {
		return "", nil
	}
	name, ok := provider.ParseName(raw)
	if !ok {
		return "", fmt.Errorf("unknown provider %q", raw)
	}
	return name, nil
}

// openDatabase picks the real pool or an in-memory store, mirroring the
// server's migration step either way.
func openDatabase(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*gorm.DB, func(), error) {
	if inmem {
		db, err := repository.OpenInMemory(logger)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {}, nil
	}
	db, pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.AutoMigrate(db); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return db, pool.Close, nil
}

// ingestDirectory records every accepted file in the given directory as a
// document row and returns the extraction inputs, sorted by file name for a
// stable batch order.
func ingestDirectory(
	ctx context.Context,
	documents repository.DocumentRepository,
	dir string,
	category constants.Category,
	override provider.Name,
	logger *slog.Logger,
) ([]extract.Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var inputs []extract.Input
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ext := filepath.Ext(de.Name())
		if constants.MapExtToFormat(ext) == "" {
			logger.Warn("ingest.skipped", "file", de.Name(), "reason", "unsupported extension")
			continue
		}
		path := filepath.Join(dir, de.Name())
		info, err := de.Info()
		if err != nil {
			return nil, err
		}
		if info.Size() > constants.MaxUploadBytes {
			logger.Warn("ingest.skipped", "file", de.Name(), "reason", "exceeds size limit")
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		doc := &entity.Document{
			FileName:  de.Name(),
			FilePath:  path,
			MediaType: constants.MediaTypeForExt(ext),
			Category:  category,
			SizeBytes: info.Size(),
		}
		if err := documents.Create(ctx, doc); err != nil {
			return nil, err
		}

		in := batch.InputFromDocument(doc, content)
		in.Provider = override
		inputs = append(inputs, in)
	}
	return inputs, nil
}
