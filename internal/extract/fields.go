package extract

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/constants"
)

// Confidence is the score map attached to every successful extraction:
// "overall" plus one [0,1] entry per field. It is always present so
// downstream consumers never need to nil-check.
type Confidence map[string]float64

// DefaultFieldConfidence is the neutral score synthesized when the provider
// output carries no confidence block.
const DefaultFieldConfidence = 0.5

func (c Confidence) Overall() float64 {
	return c["overall"]
}

// FillDefaults sets the neutral default for every missing field key, then
// ensures "overall" is present (arithmetic mean of the field scores when the
// extractor did not provide one).
func (c Confidence) FillDefaults(fields []string) {
	for _, f := range fields {
		if _, ok := c[f]; !ok {
			c[f] = DefaultFieldConfidence
		}
	}
	if _, ok := c["overall"]; !ok {
		var sum float64
		for _, f := range fields {
			sum += c[f]
		}
		if len(fields) > 0 {
			c["overall"] = sum / float64(len(fields))
		} else {
			c["overall"] = DefaultFieldConfidence
		}
	}
}

// NeutralConfidence builds the all-defaults confidence map for a field set.
func NeutralConfidence(fields []string) Confidence {
	c := make(Confidence, len(fields)+1)
	c.FillDefaults(fields)
	return c
}

// TenderLineItem is one requested line of a tender notice.
type TenderLineItem struct {
	ItemDescription string `json:"itemDescription"`
	Quantity        int    `json:"quantity"`
	Unit            string `json:"unit"`
}

// TenderFields is the normalized shape we want from the provider for tender
// notices.
type TenderFields struct {
	Reference    string           `json:"reference"`
	Title        string           `json:"title"`
	Organization string           `json:"organization"`
	ClosingDate  string           `json:"closingDate"` // YYYY-MM-DD
	Items        []TenderLineItem `json:"items"`
	Notes        string           `json:"notes"`
}

// MoneyLineItem is one priced line of an invoice, delivery note, or purchase
// order. Money values are decimal strings as produced by the extractor.
type MoneyLineItem struct {
	ItemDescription string `json:"itemDescription"`
	Quantity        int    `json:"quantity"`
	Unit            string `json:"unit"`
	UnitPrice       string `json:"unitPrice,omitempty"`
	TotalPrice      string `json:"totalPrice,omitempty"`
}

type InvoiceFields struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	Vendor        string          `json:"vendor"`
	Customer      string          `json:"customer"`
	InvoiceDate   string          `json:"invoiceDate"` // YYYY-MM-DD
	Items         []MoneyLineItem `json:"items"`
	Subtotal      string          `json:"subtotal"`
	Tax           string          `json:"tax"`
	Total         string          `json:"total"`
	Notes         string          `json:"notes"`
}

type DeliveryNoteFields struct {
	NoteNumber   string          `json:"noteNumber"`
	Vendor       string          `json:"vendor"`
	Customer     string          `json:"customer"`
	DeliveryDate string          `json:"deliveryDate"` // YYYY-MM-DD
	Items        []MoneyLineItem `json:"items"`
	Notes        string          `json:"notes"`
}

type PurchaseOrderFields struct {
	OrderNumber string          `json:"orderNumber"`
	Vendor      string          `json:"vendor"`
	Customer    string          `json:"customer"`
	OrderDate   string          `json:"orderDate"` // YYYY-MM-DD
	Items       []MoneyLineItem `json:"items"`
	Total       string          `json:"total"`
	Notes       string          `json:"notes"`
}

// Result is the per-document extraction outcome. Success=false means no
// payload and a human-readable note in Error; success=true means exactly one
// category payload is set and Confidence is fully populated.
type Result struct {
	DocumentID    uuid.UUID            `json:"documentId"`
	FileName      string               `json:"fileName"`
	Category      constants.Category   `json:"category"`
	Success       bool                 `json:"success"`
	Tender        *TenderFields        `json:"tender,omitempty"`
	Invoice       *InvoiceFields       `json:"invoice,omitempty"`
	DeliveryNote  *DeliveryNoteFields  `json:"deliveryNote,omitempty"`
	PurchaseOrder *PurchaseOrderFields `json:"purchaseOrder,omitempty"`
	Confidence    Confidence           `json:"confidence,omitempty"`
	Error         string               `json:"error,omitempty"`
	Raw           json.RawMessage      `json:"raw,omitempty"`
}
