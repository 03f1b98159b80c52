package extract

import (
	"encoding/json"
	"strings"

	"github.com/tradedocs/tradedocs/constants"
)

var categoryNouns = map[constants.Category]string{
	constants.Tender:        "tender notice",
	constants.Invoice:       "supplier invoice",
	constants.DeliveryNote:  "delivery note",
	constants.PurchaseOrder: "purchase order",
}

// BuildSystemPrompt composes the system message for one category with strict
// formatting rules and the category's JSON Schema inline.
func BuildSystemPrompt(cat constants.Category) string {
	noun := categoryNouns[cat]
	if noun == "" {
		noun = "business document"
	}

	spec, _ := SpecFor(cat)
	var schemaJSON string
	if spec.BuildSchema != nil {
		schemaJSON = mustJSON(spec.BuildSchema())
	}

	parts := []string{
		"You are a " + noun + " parser for a trading company. Return ONLY JSON that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Quantities are integers; when a quantity is written in words, resolve it to a number.",
		"Use the unit printed on the document; when no unit is visible, use \"pcs\".",
		"Money values are decimal strings with at most two decimals, no currency symbols or thousands separators.",
		"Include every line item you can read, in document order.",
		"Optionally include a 'confidence' object scoring each field from 0.0 to 1.0 plus an 'overall' score.",

		// formatting hygiene:
		"Never output null. If a field is not present, use an empty string.",
		"Do not wrap the JSON in Markdown fences.",
	}
	if schemaJSON != "" {
		parts = append(parts, "JSON Schema:\n"+schemaJSON)
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint and, for text runs, the document
// text. When the file itself is attached the text is intentionally omitted.
func BuildUserPrompt(fileName, text string, fileAttached bool) string {
	var b strings.Builder
	if fileName != "" {
		b.WriteString("Filename: ")
		b.WriteString(fileName)
		b.WriteString("\n")
	}

	if fileAttached {
		b.WriteString("\nThe document is attached. Extract the fields from it.\n")
		return b.String()
	}

	b.WriteString("\nDocument text (first ~12k chars):\n")
	if len(text) > 12000 {
		b.WriteString(text[:12000])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
