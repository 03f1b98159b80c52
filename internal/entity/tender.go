package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tender owns an ordered list of TenderItems. Created from an accepted
// extraction result or manually. Archiving soft-removes it from default
// listings without deleting anything.
type Tender struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Reference    string       `gorm:"type:varchar(120);index" json:"reference"`
	Title        string       `gorm:"not null" json:"title"`
	Organization string       `json:"organization"`
	ClosingDate  *time.Time   `json:"closing_date,omitempty"`
	Notes        string       `json:"notes"`
	DocumentID   *uuid.UUID   `gorm:"type:uuid;index" json:"document_id,omitempty"`
	Items        []TenderItem `gorm:"foreignKey:TenderID;constraint:OnDelete:CASCADE" json:"items"`
	ArchivedAt   *time.Time   `gorm:"index" json:"archived_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type TenderItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenderID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"tender_id"`
	Position    int        `gorm:"not null" json:"position"`
	Description string     `gorm:"not null" json:"description"`
	Quantity    int        `gorm:"not null;default:1" json:"quantity"`
	Unit        string     `gorm:"type:varchar(30);not null;default:'pcs'" json:"unit"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
}

func (t *Tender) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (i *TenderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
