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

type DeliveryRepository interface {
	Create(ctx context.Context, d *entity.Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error)
	List(ctx context.Context, limit, offset int) ([]entity.Delivery, error)
	UpdateItemPrice(ctx context.Context, itemID uuid.UUID, unitPrice int64) error
}

type deliveryRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDeliveryRepository(db *gorm.DB, logger *slog.Logger) DeliveryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &deliveryRepo{db: db, logger: logger}
}

func (r *deliveryRepo) Create(ctx context.Context, d *entity.Delivery) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		r.logger.Error("delivery create failed", "tender_id", d.TenderID, "error", err)
		return err
	}
	r.logger.Info("delivery created", "delivery_id", d.ID, "tender_id", d.TenderID, "items", len(d.Items))
	return nil
}

func (r *deliveryRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error) {
	var d entity.Delivery
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrDeliveryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepo) List(ctx context.Context, limit, offset int) ([]entity.Delivery, error) {
	var out []entity.Delivery
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// UpdateItemPrice sets the manually-corrected unit price (minor units) on one
// delivery item.
func (r *deliveryRepo) UpdateItemPrice(ctx context.Context, itemID uuid.UUID, unitPrice int64) error {
	res := r.db.WithContext(ctx).Model(&entity.DeliveryItem{}).
		Where("id = ?", itemID).Update("unit_price", unitPrice)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}
