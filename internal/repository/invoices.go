package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]entity.Invoice, error)
}

type invoiceRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewInvoiceRepository(db *gorm.DB, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepo{db: db, logger: logger}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		r.logger.Error("invoice create failed", "invoice_number", inv.InvoiceNumber, "error", err)
		return err
	}
	r.logger.Info("invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"subtotal", inv.Subtotal,
		"tax_amount", inv.TaxAmount,
		"total_amount", inv.TotalAmount,
	)
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, limit, offset int) ([]entity.Invoice, error) {
	var out []entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}
