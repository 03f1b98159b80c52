package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
)

// DraftRepository persists batch review snapshots. One latest snapshot per
// operator; saving overwrites, restoring returns the latest.
type DraftRepository interface {
	Save(ctx context.Context, operator string, payload []byte) (*entity.BatchDraft, error)
	Latest(ctx context.Context, operator string) (*entity.BatchDraft, error)
	Delete(ctx context.Context, operator string) error
}

type draftRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDraftRepository(db *gorm.DB, logger *slog.Logger) DraftRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &draftRepo{db: db, logger: logger}
}

func (r *draftRepo) Save(ctx context.Context, operator string, payload []byte) (*entity.BatchDraft, error) {
	draft := &entity.BatchDraft{
		Operator: operator,
		Payload:  payload,
		SavedAt:  time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("operator = ?", operator).Delete(&entity.BatchDraft{}).Error; err != nil {
			return err
		}
		return tx.Create(draft).Error
	})
	if err != nil {
		r.logger.Error("draft save failed", "operator", operator, "error", err)
		return nil, err
	}
	r.logger.Info("draft saved", "operator", operator, "bytes", len(payload), "saved_at", draft.SavedAt)
	return draft, nil
}

func (r *draftRepo) Latest(ctx context.Context, operator string) (*entity.BatchDraft, error) {
	var draft entity.BatchDraft
	err := r.db.WithContext(ctx).
		Where("operator = ?", operator).
		Order("saved_at DESC").
		First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepo) Delete(ctx context.Context, operator string) error {
	return r.db.WithContext(ctx).Where("operator = ?", operator).Delete(&entity.BatchDraft{}).Error
}
