package extract

import (
	"encoding/json"

	"github.com/tradedocs/tradedocs/constants"
)

// CategorySpec is the table-driven description of one document category's
// expected output shape: which fields exist, which are required, how items
// look, and how confidence is keyed. Adding a document category means adding
// one entry to the specs table below.
type CategorySpec struct {
	// Scalars are the top-level string fields; missing ones default to "".
	Scalars []string
	// DateFields must be YYYY-MM-DD; malformed values are cleared.
	DateFields []string
	// MoneyFields are top-level decimal strings, normalized to two decimals.
	MoneyFields []string
	// ItemMoney lists per-item decimal string fields (unitPrice, totalPrice).
	ItemMoney []string
	// Required names the fields the schema demands after defaulting.
	Required []string
	// ConfidenceFields are the keys scored in the confidence map ("items"
	// covers the whole list).
	ConfidenceFields []string

	BuildSchema func() map[string]any

	assign func(r *Result, cleaned []byte) error
}

var specs = map[constants.Category]CategorySpec{
	constants.Tender: {
		Scalars:          []string{"reference", "title", "organization", "closingDate", "notes"},
		DateFields:       []string{"closingDate"},
		Required:         []string{"reference", "title", "items"},
		ConfidenceFields: []string{"reference", "title", "organization", "closingDate", "items"},
		BuildSchema:      BuildTenderJSONSchema,
		assign: func(r *Result, cleaned []byte) error {
			var f TenderFields
			if err := json.Unmarshal(cleaned, &f); err != nil {
				return err
			}
			r.Tender = &f
			return nil
		},
	},
	constants.Invoice: {
		Scalars:          []string{"invoiceNumber", "vendor", "customer", "invoiceDate", "subtotal", "tax", "total", "notes"},
		DateFields:       []string{"invoiceDate"},
		MoneyFields:      []string{"subtotal", "tax", "total"},
		ItemMoney:        []string{"unitPrice", "totalPrice"},
		Required:         []string{"invoiceNumber", "vendor", "total", "items"},
		ConfidenceFields: []string{"invoiceNumber", "vendor", "customer", "invoiceDate", "items", "total"},
		BuildSchema:      BuildInvoiceJSONSchema,
		assign: func(r *Result, cleaned []byte) error {
			var f InvoiceFields
			if err := json.Unmarshal(cleaned, &f); err != nil {
				return err
			}
			r.Invoice = &f
			return nil
		},
	},
	constants.DeliveryNote: {
		Scalars:          []string{"noteNumber", "vendor", "customer", "deliveryDate", "notes"},
		DateFields:       []string{"deliveryDate"},
		ItemMoney:        []string{"unitPrice"},
		Required:         []string{"noteNumber", "items"},
		ConfidenceFields: []string{"noteNumber", "vendor", "customer", "deliveryDate", "items"},
		BuildSchema:      BuildDeliveryNoteJSONSchema,
		assign: func(r *Result, cleaned []byte) error {
			var f DeliveryNoteFields
			if err := json.Unmarshal(cleaned, &f); err != nil {
				return err
			}
			r.DeliveryNote = &f
			return nil
		},
	},
	constants.PurchaseOrder: {
		Scalars:          []string{"orderNumber", "vendor", "customer", "orderDate", "total", "notes"},
		DateFields:       []string{"orderDate"},
		MoneyFields:      []string{"total"},
		ItemMoney:        []string{"unitPrice"},
		Required:         []string{"orderNumber", "items"},
		ConfidenceFields: []string{"orderNumber", "vendor", "customer", "orderDate", "items"},
		BuildSchema:      BuildPurchaseOrderJSONSchema,
		assign: func(r *Result, cleaned []byte) error {
			var f PurchaseOrderFields
			if err := json.Unmarshal(cleaned, &f); err != nil {
				return err
			}
			r.PurchaseOrder = &f
			return nil
		},
	},
}

// SpecFor returns the category spec. Only categories present in the table can
// be extracted; "other" documents must be re-declared first.
func SpecFor(cat constants.Category) (CategorySpec, bool) {
	s, ok := specs[cat]
	return s, ok
}
