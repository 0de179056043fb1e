// Package bundle converts raw extracted field data into typed document
// bundles. All parse and normalize failures are caught here, at the
// construction boundary, so the validator never sees an untyped value.
package bundle

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/healthpay/claimcheck/internal/model"
)

// RawField is one field as delivered by an external extraction stage:
// a name, an unparsed string value, and the extractor's confidence.
type RawField struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// RawDocument is the extraction stage's output for one uploaded document.
type RawDocument struct {
	DocumentID string     `json:"document_id"`
	Filename   string     `json:"filename,omitempty"`
	Type       string     `json:"document_type"`
	Fields     []RawField `json:"fields"`
}

// dateLayouts are the formats extraction output has been observed to use.
// Order matters: ISO first, then day-first forms.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
}

// ParseDate parses a raw date string against the known layouts and
// truncates it to a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, eris.Errorf("bundle: unparseable date %q", s)
}

// Build converts a RawDocument into a typed DocumentBundle. Malformed field
// values are recorded on the bundle and excluded from its records; a
// duplicate field name is a hard error because a document contributes at
// most one record per field.
func Build(raw RawDocument) (model.DocumentBundle, error) {
	if raw.DocumentID == "" {
		return model.DocumentBundle{}, eris.New("bundle: document_id is required")
	}

	b := model.DocumentBundle{
		DocumentID: raw.DocumentID,
		Type:       parseDocumentType(raw.Type),
		Records:    make(map[model.FieldName]model.FieldRecord, len(raw.Fields)),
	}

	for _, rf := range raw.Fields {
		field := model.FieldName(strings.ToLower(strings.TrimSpace(rf.Name)))
		if !field.Known() {
			b.Malformed = append(b.Malformed, model.MalformedField{
				FieldName: field,
				Raw:       rf.Value,
				Reason:    "unknown field name",
			})
			continue
		}
		if _, dup := b.Records[field]; dup {
			return model.DocumentBundle{}, eris.Errorf("bundle: duplicate field %s in document %s", field, raw.DocumentID)
		}

		value, err := parseValue(field, rf.Value)
		if err != nil {
			b.Malformed = append(b.Malformed, model.MalformedField{
				FieldName: field,
				Raw:       rf.Value,
				Reason:    eris.Cause(err).Error(),
			})
			continue
		}

		b.Records[field] = model.FieldRecord{
			FieldName:        field,
			Value:            value,
			Confidence:       clampConfidence(rf.Confidence),
			SourceDocumentID: raw.DocumentID,
		}
	}

	return b, nil
}

// BuildAll converts a batch of raw documents belonging to one claim.
func BuildAll(raws []RawDocument) ([]model.DocumentBundle, error) {
	bundles := make([]model.DocumentBundle, 0, len(raws))
	for _, raw := range raws {
		b, err := Build(raw)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func parseValue(field model.FieldName, raw string) (model.FieldValue, error) {
	switch field.Kind() {
	case model.KindDate:
		t, err := ParseDate(raw)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.DateValue(t), nil
	case model.KindAmount:
		amt, err := ParseAmount(raw)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.AmountValue(amt), nil
	default:
		s := strings.TrimSpace(raw)
		if s == "" {
			return model.FieldValue{}, eris.New("empty value")
		}
		return model.StringValue(s), nil
	}
}

func parseDocumentType(s string) model.DocumentType {
	switch model.DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case model.DocBill:
		return model.DocBill
	case model.DocDischargeSummary:
		return model.DocDischargeSummary
	case model.DocIDCard:
		return model.DocIDCard
	case model.DocPrescription:
		return model.DocPrescription
	case model.DocLabReport:
		return model.DocLabReport
	default:
		return model.DocOther
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
