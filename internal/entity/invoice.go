package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/constants"
)

// Invoice references exactly one Delivery. subtotal = Σ(unitPrice × quantity)
// over the delivery items; tax = subtotal × taxRate/100; total = subtotal + tax.
// Money fields are integer minor units; TaxRate is a percentage and may be
// fractional (e.g. 7.5).
type Invoice struct {
	ID            uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	DeliveryID    uuid.UUID               `gorm:"type:uuid;uniqueIndex;not null" json:"delivery_id"`
	InvoiceNumber string                  `gorm:"type:varchar(60);uniqueIndex;not null" json:"invoice_number"`
	InvoiceDate   time.Time               `gorm:"not null" json:"invoice_date"`
	Status        constants.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	TaxRate       decimal.Decimal         `gorm:"type:decimal(6,3);not null" json:"tax_rate"`
	Subtotal      int64                   `gorm:"not null" json:"subtotal"`   // minor units
	TaxAmount     int64                   `gorm:"not null" json:"tax_amount"` // minor units
	TotalAmount   int64                   `gorm:"not null" json:"total_amount"`
	Items         []InvoiceItem           `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index;not null" json:"invoice_id"`
	Position    int       `gorm:"not null" json:"position"`
	Description string    `gorm:"not null" json:"description"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	Unit        string    `gorm:"type:varchar(30);not null;default:'pcs'" json:"unit"`
	UnitPrice   int64     `gorm:"not null;default:0" json:"unit_price"`  // minor units
	TotalPrice  int64     `gorm:"not null;default:0" json:"total_price"` // unitPrice × quantity
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
