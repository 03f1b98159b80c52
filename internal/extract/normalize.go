package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/constants"
)

// FailureNote is the operator-facing message attached to results whose raw
// output could not be parsed or repaired.
const FailureNote = "extraction failed, please enter data manually"

// DefaultUnit is substituted for missing or empty item units.
const DefaultUnit = "pcs"

var (
	reFenceOpen  = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\n?")
	reFenceClose = regexp.MustCompile("(?s)\n?\\s*```\\s*$")
	reYMD        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDecimal    = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)
)

// StripCodeFences removes surrounding Markdown code-fence markup, which
// providers frequently wrap JSON output in despite instructions.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Failure builds the failure-as-data result for a document. Provider and
// parse errors are converted into this shape, never thrown past the
// normalizer, so one bad document cannot abort a batch.
func Failure(docID uuid.UUID, fileName string, cat constants.Category, note string) Result {
	if note == "" {
		note = FailureNote
	}
	return Result{
		DocumentID: docID,
		FileName:   fileName,
		Category:   cat,
		Success:    false,
		Error:      note,
	}
}

// Normalize turns raw provider output into a typed, scored Result for the
// given category. It strips fences, parses strictly, repairs and defaults
// per the category spec, validates against the category schema, and
// synthesizes confidence when absent. All failures come back as data.
func Normalize(cat constants.Category, docID uuid.UUID, fileName string, raw []byte, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	spec, ok := SpecFor(cat)
	if !ok {
		return Failure(docID, fileName, cat, fmt.Sprintf("unsupported document category %q: %s", cat, FailureNote))
	}

	content := StripCodeFences(string(raw))

	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		logger.Warn("extract.normalize.parse_failed",
			"document_id", docID, "file", fileName, "error", err, "raw_bytes", len(raw))
		return Failure(docID, fileName, cat, FailureNote)
	}

	dropped := sanitize(spec, m)
	if len(dropped) > 0 {
		logger.Warn("extract.normalize.sanitized",
			"document_id", docID, "file", fileName, "dropped", dropped)
	}

	conf := liftConfidence(m)

	cleaned, err := json.Marshal(m)
	if err != nil {
		return Failure(docID, fileName, cat, FailureNote)
	}
	if err := ValidateJSONAgainstSchema(spec.BuildSchema(), cleaned); err != nil {
		logger.Warn("extract.normalize.schema_failed",
			"document_id", docID, "file", fileName, "error", err)
		return Failure(docID, fileName, cat, FailureNote)
	}

	res := Result{
		DocumentID: docID,
		FileName:   fileName,
		Category:   cat,
		Success:    true,
		Confidence: conf,
		Raw:        json.RawMessage(cleaned),
	}
	if err := spec.assign(&res, cleaned); err != nil {
		logger.Warn("extract.normalize.decode_failed",
			"document_id", docID, "file", fileName, "error", err)
		return Failure(docID, fileName, cat, FailureNote)
	}
	res.Confidence.FillDefaults(spec.ConfidenceFields)
	return res
}

// sanitize repairs the parsed document in place per the category spec:
// defaults missing scalars, clears malformed dates, normalizes money strings,
// coerces item quantities/units, and removes unknown keys. Returns the list
// of repaired/dropped keys for logging.
func sanitize(spec CategorySpec, m map[string]any) []string {
	var dropped []string

	allowed := map[string]struct{}{"items": {}, "confidence": {}}
	for _, k := range spec.Scalars {
		allowed[k] = struct{}{}
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	for _, k := range spec.Scalars {
		m[k] = coerceString(m[k])
	}
	for _, k := range spec.DateFields {
		if s, _ := m[k].(string); s != "" && !reYMD.MatchString(s) {
			m[k] = ""
			dropped = append(dropped, k+"(date)")
		}
	}
	for _, k := range spec.MoneyFields {
		s, changed := coerceMoney(m[k])
		m[k] = s
		if changed {
			dropped = append(dropped, k+"(money)")
		}
	}

	items, _ := m["items"].([]any)
	cleanItems := make([]any, 0, len(items))
	for _, it := range items {
		im, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, "items(entry)")
			continue
		}
		desc := coerceString(im["itemDescription"])
		if desc == "" {
			dropped = append(dropped, "items(empty description)")
			continue
		}
		out := map[string]any{
			"itemDescription": desc,
			"quantity":        coerceQuantity(im["quantity"]),
		}
		if u := coerceString(im["unit"]); u != "" {
			out["unit"] = u
		} else {
			out["unit"] = DefaultUnit
		}
		for _, k := range spec.ItemMoney {
			if _, present := im[k]; present {
				if s, _ := coerceMoney(im[k]); s != "" {
					out[k] = s
				}
			}
		}
		cleanItems = append(cleanItems, out)
	}
	m["items"] = cleanItems

	return dropped
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// coerceQuantity accepts numbers and digit strings; anything non-numeric
// (including absence) defaults to 1.
func coerceQuantity(v any) int {
	switch t := v.(type) {
	case float64:
		if q := int(t); q >= 1 {
			return q
		}
		return 1
	case string:
		s := strings.TrimSpace(t)
		if q, err := strconv.Atoi(s); err == nil && q >= 1 {
			return q
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && int(f) >= 1 {
			return int(f)
		}
		return 1
	default:
		return 1
	}
}

// coerceMoney normalizes decimal-string money fields, reformatting numeric
// values to two decimals and clearing anything unparseable.
func coerceMoney(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case float64:
		return fmt.Sprintf("%.2f", t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		if reDecimal.MatchString(s) {
			// Pad one-decimal values ("6002.5") to the canonical two places.
			f, _ := strconv.ParseFloat(s, 64)
			if out := fmt.Sprintf("%.2f", f); out != s {
				return out, true
			}
			return s, false
		}
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimLeft(s, "$€£ ")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fmt.Sprintf("%.2f", f), true
		}
		return "", true
	default:
		return "", true
	}
}

// liftConfidence pulls the provider's confidence block out of the document,
// clamping values into [0,1]. Returns an empty map when none was provided;
// the caller fills defaults.
func liftConfidence(m map[string]any) Confidence {
	conf := make(Confidence)
	block, ok := m["confidence"].(map[string]any)
	if !ok {
		delete(m, "confidence")
		return conf
	}
	for k, v := range block {
		f, ok := v.(float64)
		if !ok {
			continue
		}
		conf[k] = math.Max(0, math.Min(1, f))
	}
	delete(m, "confidence")
	return conf
}
