package extract

// JSON-Schema builders (draft 2020-12 subset) as generic maps. Each schema is
// sent to the provider as a structured-output constraint and used locally to
// validate the normalized document.

func BuildTenderJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"reference":    map[string]any{"type": "string"},
			"title":        map[string]any{"type": "string"},
			"organization": map[string]any{"type": "string"},
			"closingDate":  dateProp(),
			"items":        itemsProp(false),
			"notes":        map[string]any{"type": "string"},
			"confidence":   confidenceProp(),
		},
		"required": []string{"reference", "title", "items"},
	}
}

func BuildInvoiceJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoiceNumber": map[string]any{"type": "string"},
			"vendor":        map[string]any{"type": "string"},
			"customer":      map[string]any{"type": "string"},
			"invoiceDate":   dateProp(),
			"items":         itemsProp(true),
			"subtotal":      decimalProp(),
			"tax":           decimalProp(),
			"total":         decimalProp(),
			"notes":         map[string]any{"type": "string"},
			"confidence":    confidenceProp(),
		},
		"required": []string{"invoiceNumber", "vendor", "total", "items"},
	}
}

func BuildDeliveryNoteJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"noteNumber":   map[string]any{"type": "string"},
			"vendor":       map[string]any{"type": "string"},
			"customer":     map[string]any{"type": "string"},
			"deliveryDate": dateProp(),
			"items":        itemsProp(true),
			"notes":        map[string]any{"type": "string"},
			"confidence":   confidenceProp(),
		},
		"required": []string{"noteNumber", "items"},
	}
}

func BuildPurchaseOrderJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"orderNumber": map[string]any{"type": "string"},
			"vendor":      map[string]any{"type": "string"},
			"customer":    map[string]any{"type": "string"},
			"orderDate":   dateProp(),
			"items":       itemsProp(true),
			"total":       decimalProp(),
			"notes":       map[string]any{"type": "string"},
			"confidence":  confidenceProp(),
		},
		"required": []string{"orderNumber", "items"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^(-?\d+(\.\d{1,2})?)?$`, // decimal or empty (defaulted)
	}
}

func dateProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^(\d{4}-\d{2}-\d{2})?$`, // YYYY-MM-DD or empty
	}
}

func itemsProp(withMoney bool) map[string]any {
	props := map[string]any{
		"itemDescription": map[string]any{"type": "string", "minLength": 1},
		"quantity":        map[string]any{"type": "integer", "minimum": 1},
		"unit":            map[string]any{"type": "string", "minLength": 1},
	}
	if withMoney {
		props["unitPrice"] = decimalProp()
		props["totalPrice"] = decimalProp()
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           props,
			"required":             []string{"itemDescription", "quantity", "unit"},
		},
	}
}

func confidenceProp() map[string]any {
	return map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type": "number", "minimum": 0.0, "maximum": 1.0,
		},
	}
}
