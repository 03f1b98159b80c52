package extract

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedocs/tradedocs/constants"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"no fences":       {`{"a":1}`, `{"a":1}`},
		"plain fences":    {"```\n{\"a\":1}\n```", `{"a":1}`},
		"json fences":     {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"leading spaces":  {"  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		"fence mid-value": {"{\"a\":\"``` not a fence\"}", "{\"a\":\"``` not a fence\"}"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}

func TestNormalizeUnparseableOutputFailsAsData(t *testing.T) {
	docID := uuid.New()
	res := Normalize(constants.Tender, docID, "garbled.pdf", []byte("I could not read this document."), nil)

	assert.False(t, res.Success)
	assert.Equal(t, docID, res.DocumentID)
	assert.Equal(t, "garbled.pdf", res.FileName)
	assert.Equal(t, FailureNote, res.Error)
	assert.Nil(t, res.Tender)
}

func TestNormalizeTenderHappyPath(t *testing.T) {
	raw := "```json\n" + `{
		"reference": "TN-2026-001",
		"title": "Supply of lab equipment",
		"organization": "City Hospital",
		"closingDate": "2026-10-15",
		"items": [
			{"itemDescription": "Microscope", "quantity": 2, "unit": "pcs"},
			{"itemDescription": "Slide kit", "quantity": 10, "unit": "box"}
		],
		"notes": "Sealed bids only",
		"confidence": {"overall": 0.92, "reference": 0.99, "title": 0.95}
	}` + "\n```"

	res := Normalize(constants.Tender, uuid.New(), "tender.pdf", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	require.NotNil(t, res.Tender)
	assert.Equal(t, "TN-2026-001", res.Tender.Reference)
	assert.Equal(t, "2026-10-15", res.Tender.ClosingDate)
	require.Len(t, res.Tender.Items, 2)
	assert.Equal(t, "Microscope", res.Tender.Items[0].ItemDescription)
	assert.Equal(t, 10, res.Tender.Items[1].Quantity)

	assert.InDelta(t, 0.92, res.Confidence.Overall(), 1e-9)
	assert.InDelta(t, 0.99, res.Confidence["reference"], 1e-9)
	// Fields the provider did not score get the neutral default.
	assert.InDelta(t, DefaultFieldConfidence, res.Confidence["organization"], 1e-9)
}

func TestNormalizeItemDefaults(t *testing.T) {
	raw := `{
		"reference": "TN-7",
		"title": "Office chairs",
		"organization": "Ministry",
		"closingDate": "",
		"items": [
			{"itemDescription": "Chair"},
			{"itemDescription": "Desk", "quantity": "three", "unit": ""}
		],
		"notes": ""
	}`

	res := Normalize(constants.Tender, uuid.New(), "t.txt", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	require.Len(t, res.Tender.Items, 2)
	assert.Equal(t, 1, res.Tender.Items[0].Quantity)
	assert.Equal(t, DefaultUnit, res.Tender.Items[0].Unit)
	assert.Equal(t, 1, res.Tender.Items[1].Quantity, "non-numeric quantity defaults to 1")
	assert.Equal(t, DefaultUnit, res.Tender.Items[1].Unit)
}

func TestNormalizeMissingScalarsDefaultEmpty(t *testing.T) {
	raw := `{"title": "Minimal tender", "items": []}`

	res := Normalize(constants.Tender, uuid.New(), "m.txt", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "", res.Tender.Reference)
	assert.Equal(t, "", res.Tender.Organization)
	assert.Equal(t, "", res.Tender.ClosingDate)
	assert.Empty(t, res.Tender.Items)
}

func TestNormalizeMalformedDateCleared(t *testing.T) {
	raw := `{"reference":"R","title":"T","organization":"O","closingDate":"15/10/2026","items":[],"notes":""}`

	res := Normalize(constants.Tender, uuid.New(), "d.txt", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "", res.Tender.ClosingDate)
}

func TestNormalizeDropsUnknownKeys(t *testing.T) {
	raw := `{"reference":"R","title":"T","organization":"O","closingDate":"2026-01-01",
		"items":[],"notes":"","hallucinated":"yes","vendor":"nope"}`

	res := Normalize(constants.Tender, uuid.New(), "u.txt", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	var m map[string]any
	require.NoError(t, json.Unmarshal(res.Raw, &m))
	assert.NotContains(t, m, "hallucinated")
	assert.NotContains(t, m, "vendor")
}

func TestNormalizeConfidenceSynthesis(t *testing.T) {
	raw := `{"reference":"R","title":"T","organization":"O","closingDate":"2026-01-01","items":[],"notes":""}`

	res := Normalize(constants.Tender, uuid.New(), "c.txt", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	spec, ok := SpecFor(constants.Tender)
	require.True(t, ok)
	for _, f := range spec.ConfidenceFields {
		assert.InDelta(t, DefaultFieldConfidence, res.Confidence[f], 1e-9, f)
	}
	// Overall is the mean of all-default field scores.
	assert.InDelta(t, DefaultFieldConfidence, res.Confidence.Overall(), 1e-9)
}

func TestNormalizeConfidenceClamped(t *testing.T) {
	raw := `{"reference":"R","title":"T","organization":"O","closingDate":"",
		"items":[],"notes":"","confidence":{"overall":1.7,"reference":-0.3}}`

	res := Normalize(constants.Tender, uuid.New(), "cl.txt", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	assert.InDelta(t, 1.0, res.Confidence.Overall(), 1e-9)
	assert.InDelta(t, 0.0, res.Confidence["reference"], 1e-9)
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := `{"reference":"R-1","title":"T","organization":"O","closingDate":"2026-03-01",
		"items":[{"itemDescription":"Widget","quantity":4,"unit":"box"}],"notes":"n"}`

	first := Normalize(constants.Tender, uuid.New(), "i.txt", []byte(raw), nil)
	require.True(t, first.Success, "error: %s", first.Error)

	second := Normalize(constants.Tender, first.DocumentID, first.FileName, first.Raw, nil)
	require.True(t, second.Success, "error: %s", second.Error)
	assert.Equal(t, first.Tender, second.Tender)
}

func TestNormalizeInvoiceMoneyRepair(t *testing.T) {
	raw := `{
		"invoiceNumber": "INV-9",
		"vendor": "Acme",
		"customer": "City Hospital",
		"invoiceDate": "2026-02-02",
		"items": [{"itemDescription":"Gloves","quantity":5,"unit":"box","unitPrice":"$1,200.50"}],
		"subtotal": 6002.5,
		"tax": "600.25",
		"total": "6,602.75",
		"notes": ""
	}`

	res := Normalize(constants.Invoice, uuid.New(), "inv.pdf", []byte(raw), nil)

	require.True(t, res.Success, "error: %s", res.Error)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, "6002.50", res.Invoice.Subtotal)
	assert.Equal(t, "600.25", res.Invoice.Tax)
	assert.Equal(t, "6602.75", res.Invoice.Total)
	require.Len(t, res.Invoice.Items, 1)
	assert.Equal(t, "1200.50", res.Invoice.Items[0].UnitPrice)
}

func TestCoerceMoney(t *testing.T) {
	cases := map[string]struct {
		in      any
		want    string
		changed bool
	}{
		"canonical":         {"600.25", "600.25", false},
		"one decimal":       {"6002.5", "6002.50", true},
		"bare integer":      {"3500", "3500.00", true},
		"json number":       {6002.5, "6002.50", true},
		"currency + commas": {"$1,200.50", "1200.50", true},
		"garbage":           {"n/a", "", true},
		"absent":            {nil, "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, changed := coerceMoney(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.changed, changed)
		})
	}
}

func TestFailureResultShape(t *testing.T) {
	res := Failure(uuid.Nil, "x.pdf", constants.Tender, "")
	assert.False(t, res.Success)
	assert.Equal(t, FailureNote, res.Error)
	assert.Nil(t, res.Tender)
	assert.Nil(t, res.Confidence)
}
