package constants

import (
	"strings"
)

// Category is the declared document category for an upload.
type Category string

const (
	Tender        Category = "TENDER"
	Invoice       Category = "INVOICE"
	DeliveryNote  Category = "DELIVERY_NOTE"
	PurchaseOrder Category = "PURCHASE_ORDER"
	Other         Category = "OTHER"
)

var allCategories = []Category{
	Tender,
	Invoice,
	DeliveryNote,
	PurchaseOrder,
	Other,
}

func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form labels (UI input, filename hints, provider
// output) to a known category. Returns Other,false when nothing matches.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	// synonyms map
	synonyms := map[string]Category{
		"tender_notice":  Tender,
		"rfq":            Tender,
		"rfp":            Tender,
		"bill":           Invoice,
		"tax_invoice":    Invoice,
		"delivery":       DeliveryNote,
		"deliverynote":   DeliveryNote,
		"waybill":        DeliveryNote,
		"grn":            DeliveryNote,
		"po":             PurchaseOrder,
		"purchaseorder":  PurchaseOrder,
		"purchase_order": PurchaseOrder,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}

// SniffFromFilename guesses a category from the file name when the upload
// declared none. Best effort only; unknown names stay Other.
func SniffFromFilename(name string) Category {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "tender"), strings.Contains(n, "rfq"), strings.Contains(n, "rfp"):
		return Tender
	case strings.Contains(n, "invoice"), strings.Contains(n, "bill"):
		return Invoice
	case strings.Contains(n, "delivery"), strings.Contains(n, "waybill"):
		return DeliveryNote
	case strings.Contains(n, "purchase"), strings.Contains(n, "order"):
		return PurchaseOrder
	default:
		return Other
	}
}
