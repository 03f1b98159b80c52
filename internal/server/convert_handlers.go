package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradedocs/tradedocs/internal/convert"
)

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleListTenders(c *gin.Context) {
	includeArchived := c.Query("includeArchived") == "true"
	tenders, err := s.tenders.List(c.Request.Context(), includeArchived, 100, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenders)
}

func (s *Server) handleGetTender(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tender, err := s.tenders.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tender)
}

// handleArchiveTender soft-archives a tender; nothing is deleted.
func (s *Server) handleArchiveTender(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.tenders.Archive(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListDeliveries(c *gin.Context) {
	deliveries, err := s.deliveries.List(c.Request.Context(), 100, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

func (s *Server) handleListInvoices(c *gin.Context) {
	invoices, err := s.invoices.List(c.Request.Context(), 100, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

type priceItemRequest struct {
	UnitPrice int64 `json:"unitPrice" binding:"min=0"` // minor units
}

// handlePriceDeliveryItem sets the unit price of one delivery item, the
// manual correction step between conversion and invoicing.
func (s *Server) handlePriceDeliveryItem(c *gin.Context) {
	if _, ok := pathID(c); !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("item"))
	if err != nil {
		badRequest(c, "invalid item id")
		return
	}
	var req priceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deliveries.UpdateItemPrice(c.Request.Context(), itemID, req.UnitPrice); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetDelivery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	delivery, err := s.deliveries.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	invoice, err := s.invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

type toDeliveryRequest struct {
	CustomerID   string `json:"customerId" binding:"required"`
	DeliveryDate string `json:"deliveryDate" binding:"required"` // YYYY-MM-DD
	Notes        string `json:"notes"`
}

func (s *Server) handleConvertToDelivery(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}
	var req toDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		badRequest(c, "invalid customerId")
		return
	}
	date, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		badRequest(c, "invalid deliveryDate, expected YYYY-MM-DD")
		return
	}

	delivery, err := s.converter.ConvertToDelivery(c.Request.Context(), convert.ToDeliveryParams{
		TenderID:     tenderID,
		CustomerID:   customerID,
		DeliveryDate: date,
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

type toInvoiceRequest struct {
	InvoiceNumber string `json:"invoiceNumber" binding:"required"`
	InvoiceDate   string `json:"invoiceDate" binding:"required"` // YYYY-MM-DD
	TaxRate       string `json:"taxRate" binding:"required"`     // percentage, may be fractional
}

func (s *Server) handleConvertToInvoice(c *gin.Context) {
	deliveryID, ok := pathID(c)
	if !ok {
		return
	}
	var req toInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		badRequest(c, "invalid invoiceDate, expected YYYY-MM-DD")
		return
	}
	rate, err := decimal.NewFromString(req.TaxRate)
	if err != nil {
		badRequest(c, "invalid taxRate")
		return
	}

	invoice, err := s.converter.ConvertToInvoice(c.Request.Context(), convert.ToInvoiceParams{
		DeliveryID:    deliveryID,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   date,
		TaxRate:       rate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

type chainRequest struct {
	CustomerID    string `json:"customerId" binding:"required"`
	DeliveryDate  string `json:"deliveryDate" binding:"required"`
	InvoiceNumber string `json:"invoiceNumber" binding:"required"`
	InvoiceDate   string `json:"invoiceDate" binding:"required"`
	TaxRate       string `json:"taxRate" binding:"required"`
}

// handleConvertChain runs tender-to-delivery-to-invoice in one call. When
// the invoice stage fails the response still names the created delivery so
// the operator can retry invoicing alone.
func (s *Server) handleConvertChain(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}
	var req chainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		badRequest(c, "invalid customerId")
		return
	}
	deliveryDate, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		badRequest(c, "invalid deliveryDate, expected YYYY-MM-DD")
		return
	}
	invoiceDate, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		badRequest(c, "invalid invoiceDate, expected YYYY-MM-DD")
		return
	}
	rate, err := decimal.NewFromString(req.TaxRate)
	if err != nil {
		badRequest(c, "invalid taxRate")
		return
	}

	result, err := s.converter.ConvertTenderToInvoice(c.Request.Context(), convert.ChainParams{
		TenderID:      tenderID,
		CustomerID:    customerID,
		DeliveryDate:  deliveryDate,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   invoiceDate,
		TaxRate:       rate,
	})
	if err != nil {
		if result != nil && result.Delivery != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      err.Error(),
				"deliveryId": result.Delivery.ID,
			})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
