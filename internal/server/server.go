package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradedocs/tradedocs/internal/batch"
	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/convert"
	"github.com/tradedocs/tradedocs/internal/repository"
)

// Server is the HTTP surface over the extraction and conversion services.
type Server struct {
	cfg          common.ServerConfig
	orchestrator *batch.Orchestrator
	converter    *convert.Service
	documents    repository.DocumentRepository
	tenders      repository.TenderRepository
	deliveries   repository.DeliveryRepository
	invoices     repository.InvoiceRepository
	sessions     *sessionStore
	logger       *slog.Logger
}

func New(
	cfg common.ServerConfig,
	orchestrator *batch.Orchestrator,
	converter *convert.Service,
	documents repository.DocumentRepository,
	tenders repository.TenderRepository,
	deliveries repository.DeliveryRepository,
	invoices repository.InvoiceRepository,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		converter:    converter,
		documents:    documents,
		tenders:      tenders,
		deliveries:   deliveries,
		invoices:     invoices,
		sessions:     newSessionStore(),
		logger:       logger,
	}
}

// Engine builds the gin engine with the full route table.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	r.Use(RequestID())
	r.Use(RequestLogger(s.logger))
	r.Use(Recovery(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		b := v1.Group("/batch")
		b.POST("/extract", s.handleBatchExtract)
		b.GET("/session", s.handleGetSession)
		b.POST("/entries/:index/reextract", s.handleReExtract)
		b.PATCH("/entries/:index", s.handleEditEntry)
		b.DELETE("/entries/:index", s.handleRemoveEntry)
		b.POST("/entries/:index/items", s.handleAddItem)
		b.PUT("/entries/:index/items/:item", s.handleUpdateItem)
		b.DELETE("/entries/:index/items/:item", s.handleRemoveItem)
		b.POST("/apply-to-all", s.handleApplyToAll)
		b.POST("/draft", s.handleSaveDraft)
		b.GET("/draft", s.handleRestoreDraft)
		b.DELETE("/draft", s.handleDeleteDraft)
		b.POST("/submit", s.handleSubmit)
		b.GET("/export", s.handleExport)

		t := v1.Group("/tenders")
		t.GET("", s.handleListTenders)
		t.GET("/:id", s.handleGetTender)
		t.DELETE("/:id", s.handleArchiveTender)
		t.POST("/:id/delivery", s.handleConvertToDelivery)
		t.POST("/:id/invoice", s.handleConvertChain)

		d := v1.Group("/deliveries")
		d.GET("", s.handleListDeliveries)
		d.GET("/:id", s.handleGetDelivery)
		d.PATCH("/:id/items/:item", s.handlePriceDeliveryItem)
		d.POST("/:id/invoice", s.handleConvertToInvoice)

		i := v1.Group("/invoices")
		i.GET("", s.handleListInvoices)
		i.GET("/:id", s.handleGetInvoice)
	}

	return r
}
