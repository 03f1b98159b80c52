package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, limit, offset int) ([]entity.Document, error)
}

type documentRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *gorm.DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		r.logger.Error("document create failed", "file", doc.FileName, "error", err)
		return err
	}
	r.logger.Info("document created", "document_id", doc.ID, "file", doc.FileName)
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var doc entity.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, limit, offset int) ([]entity.Document, error) {
	var docs []entity.Document
	err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Limit(limit).Offset(offset).
		Find(&docs).Error
	return docs, err
}
