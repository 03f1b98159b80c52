package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
)

type TenderRepository interface {
	Create(ctx context.Context, t *entity.Tender) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tender, error)
	List(ctx context.Context, includeArchived bool, limit, offset int) ([]entity.Tender, error)
	AppendNote(ctx context.Context, id uuid.UUID, note string) error
	Archive(ctx context.Context, id uuid.UUID) error
}

type tenderRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewTenderRepository(db *gorm.DB, logger *slog.Logger) TenderRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &tenderRepo{db: db, logger: logger}
}

func (r *tenderRepo) Create(ctx context.Context, t *entity.Tender) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		r.logger.Error("tender create failed", "reference", t.Reference, "error", err)
		return err
	}
	r.logger.Info("tender created", "tender_id", t.ID, "reference", t.Reference, "items", len(t.Items))
	return nil
}

func (r *tenderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tender, error) {
	var t entity.Tender
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrTenderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenderRepo) List(ctx context.Context, includeArchived bool, limit, offset int) ([]entity.Tender, error) {
	q := r.db.WithContext(ctx).Model(&entity.Tender{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	var out []entity.Tender
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

// AppendNote adds a non-destructive annotation to the tender's notes field.
func (r *tenderRepo) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	var t entity.Tender
	if err := r.db.WithContext(ctx).Select("id", "notes").First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrTenderNotFound
		}
		return err
	}
	notes := t.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += note
	return r.db.WithContext(ctx).Model(&entity.Tender{}).
		Where("id = ?", id).Update("notes", notes).Error
}

func (r *tenderRepo) Archive(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&entity.Tender{}).
		Where("id = ? AND archived_at IS NULL", id).
		Update("archived_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrTenderNotFound
	}
	r.logger.Info("tender archived", "tender_id", id)
	return nil
}
