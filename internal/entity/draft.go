package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchDraft is a durable snapshot of an in-progress batch review session.
// The payload is the serialized session (entries plus operator edits);
// restoring replaces the in-memory session wholesale.
type BatchDraft struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Operator string    `gorm:"type:varchar(120);index;not null" json:"operator"`
	Payload  []byte    `gorm:"not null" json:"payload"`
	SavedAt  time.Time `gorm:"not null" json:"saved_at"`
}

func (d *BatchDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
