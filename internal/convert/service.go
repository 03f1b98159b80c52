package convert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
	"github.com/tradedocs/tradedocs/internal/repository"
)

// Service turns tenders into deliveries and deliveries into invoices. The
// two steps are independent, non-transactional writes: if invoicing fails
// after a delivery was created, the delivery stays.
type Service struct {
	tenders    repository.TenderRepository
	deliveries repository.DeliveryRepository
	invoices   repository.InvoiceRepository
	logger     *slog.Logger
}

func NewService(
	tenders repository.TenderRepository,
	deliveries repository.DeliveryRepository,
	invoices repository.InvoiceRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tenders:    tenders,
		deliveries: deliveries,
		invoices:   invoices,
		logger:     logger,
	}
}

// ToDeliveryParams are the operator-supplied inputs of a tender conversion.
type ToDeliveryParams struct {
	TenderID     uuid.UUID
	CustomerID   uuid.UUID
	DeliveryDate time.Time
	Notes        string
}

// ConvertToDelivery copies a tender's line items into a new delivery. Item
// order is preserved; unit prices start at zero pending manual entry. The
// source tender gets a conversion note appended.
func (s *Service) ConvertToDelivery(ctx context.Context, p ToDeliveryParams) (*entity.Delivery, error) {
	tender, err := s.tenders.GetByID(ctx, p.TenderID)
	if err != nil {
		return nil, err
	}
	if len(tender.Items) == 0 {
		return nil, common.ErrTenderNoItems
	}

	d := &entity.Delivery{
		TenderID:     tender.ID,
		CustomerID:   p.CustomerID,
		DeliveryDate: p.DeliveryDate,
		Notes:        p.Notes,
	}
	for i, it := range tender.Items {
		d.Items = append(d.Items, entity.DeliveryItem{
			TenderItemID: it.ID,
			Position:     i + 1,
			Description:  it.Description,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			UnitPrice:    0,
		})
	}

	if err := s.deliveries.Create(ctx, d); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Converted to delivery %s on %s",
		d.ID, p.DeliveryDate.Format("2006-01-02"))
	if err := s.tenders.AppendNote(ctx, tender.ID, note); err != nil {
		// The delivery exists; a lost annotation is not worth failing over.
		s.logger.Warn("convert.delivery.note_failed",
			"tender_id", tender.ID, "delivery_id", d.ID, "error", err)
	}

	s.logger.Info("convert.delivery.created",
		"tender_id", tender.ID,
		"delivery_id", d.ID,
		"items", len(d.Items),
	)
	return d, nil
}

// ToInvoiceParams are the operator-supplied inputs of a delivery conversion.
// TaxRate is a percentage and may be fractional.
type ToInvoiceParams struct {
	DeliveryID    uuid.UUID
	InvoiceNumber string
	InvoiceDate   time.Time
	TaxRate       decimal.Decimal
}

// ConvertToInvoice totals a delivery's priced items into a new draft
// invoice. subtotal = Σ(unitPrice × quantity); tax = subtotal × taxRate/100,
// rounded half up to whole minor units; total = subtotal + tax.
func (s *Service) ConvertToInvoice(ctx context.Context, p ToInvoiceParams) (*entity.Invoice, error) {
	if p.InvoiceNumber == "" {
		return nil, common.WrapError(common.ErrInvalidInput, "invoice number is required")
	}
	if p.TaxRate.IsNegative() {
		return nil, common.WrapError(common.ErrInvalidInput, "tax rate must not be negative")
	}

	delivery, err := s.deliveries.GetByID(ctx, p.DeliveryID)
	if err != nil {
		return nil, err
	}
	if len(delivery.Items) == 0 {
		return nil, common.ErrDeliveryNoItems
	}

	inv := &entity.Invoice{
		DeliveryID:    delivery.ID,
		InvoiceNumber: p.InvoiceNumber,
		InvoiceDate:   p.InvoiceDate,
		Status:        constants.InvoiceStatusDraft,
		TaxRate:       p.TaxRate,
	}

	var subtotal int64
	for i, it := range delivery.Items {
		lineTotal := it.UnitPrice * int64(it.Quantity)
		subtotal += lineTotal
		inv.Items = append(inv.Items, entity.InvoiceItem{
			Position:    i + 1,
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  lineTotal,
		})
	}

	inv.Subtotal = subtotal
	inv.TaxAmount = taxOn(subtotal, p.TaxRate)
	inv.TotalAmount = inv.Subtotal + inv.TaxAmount

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("convert.invoice.created",
		"delivery_id", delivery.ID,
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"subtotal", inv.Subtotal,
		"tax", inv.TaxAmount,
		"total", inv.TotalAmount,
	)
	return inv, nil
}

// ChainParams drives the composed tender-to-invoice conversion.
type ChainParams struct {
	TenderID      uuid.UUID
	CustomerID    uuid.UUID
	DeliveryDate  time.Time
	InvoiceNumber string
	InvoiceDate   time.Time
	TaxRate       decimal.Decimal
}

// ChainResult reports both stages. Delivery is set whenever the first step
// succeeded, even if invoicing then failed.
type ChainResult struct {
	Delivery *entity.Delivery
	Invoice  *entity.Invoice
}

// ConvertTenderToInvoice runs both conversions back to back. There is no
// rollback: a delivery created by step one persists when step two fails, and
// the returned error tells the caller which stage broke.
func (s *Service) ConvertTenderToInvoice(ctx context.Context, p ChainParams) (*ChainResult, error) {
	d, err := s.ConvertToDelivery(ctx, ToDeliveryParams{
		TenderID:     p.TenderID,
		CustomerID:   p.CustomerID,
		DeliveryDate: p.DeliveryDate,
	})
	if err != nil {
		return nil, common.WrapError(err, "delivery stage")
	}

	inv, err := s.ConvertToInvoice(ctx, ToInvoiceParams{
		DeliveryID:    d.ID,
		InvoiceNumber: p.InvoiceNumber,
		InvoiceDate:   p.InvoiceDate,
		TaxRate:       p.TaxRate,
	})
	if err != nil {
		return &ChainResult{Delivery: d}, common.WrapError(err, "invoice stage")
	}

	return &ChainResult{Delivery: d, Invoice: inv}, nil
}

// taxOn computes the tax in minor units from a percentage rate, rounding
// half up so fractional rates like 7.5 stay exact until the final cent.
func taxOn(subtotal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
