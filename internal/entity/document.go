package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/constants"
)

// Document is the immutable upload record. Created once on upload and never
// mutated; extraction results reference it by ID.
type Document struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	FileName   string             `gorm:"not null" json:"file_name"`
	FilePath   string             `gorm:"not null" json:"file_path"`
	MediaType  string             `gorm:"type:varchar(120);not null" json:"media_type"`
	Category   constants.Category `gorm:"type:varchar(30);not null;default:'OTHER'" json:"category"`
	SizeBytes  int64              `json:"size_bytes"`
	UploadedAt time.Time          `gorm:"not null" json:"uploaded_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	return nil
}
