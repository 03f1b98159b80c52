package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery is created from an existing Tender (or manually). Item quantities
// are copied from the source TenderItems; unit prices start at zero pending
// manual correction. All money fields are integer minor units (cents).
type Delivery struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenderID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"tender_id"`
	CustomerID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"customer_id"`
	DeliveryDate time.Time      `gorm:"not null" json:"delivery_date"`
	Notes        string         `json:"notes"`
	Items        []DeliveryItem `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type DeliveryItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeliveryID   uuid.UUID `gorm:"type:uuid;index;not null" json:"delivery_id"`
	TenderItemID uuid.UUID `gorm:"type:uuid" json:"tender_item_id"`
	Position     int       `gorm:"not null" json:"position"`
	Description  string    `gorm:"not null" json:"description"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity"`
	Unit         string    `gorm:"type:varchar(30);not null;default:'pcs'" json:"unit"`
	UnitPrice    int64     `gorm:"not null;default:0" json:"unit_price"` // minor units
}

func (d *Delivery) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (i *DeliveryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
