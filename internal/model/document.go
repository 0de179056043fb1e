package model

import (
	"fmt"
	"time"
)

// FieldName identifies one of the extracted claim fields the validator
// understands. Declaration order is the canonical order used when sorting
// findings.
type FieldName string

const (
	FieldPatientName   FieldName = "patient_name"
	FieldAdmissionDate FieldName = "admission_date"
	FieldDischargeDate FieldName = "discharge_date"
	FieldHospitalName  FieldName = "hospital_name"
	FieldTotalCharge   FieldName = "total_charge"
)

// FieldNames lists all known fields in canonical declaration order.
var FieldNames = []FieldName{
	FieldPatientName,
	FieldAdmissionDate,
	FieldDischargeDate,
	FieldHospitalName,
	FieldTotalCharge,
}

var fieldIndex = func() map[FieldName]int {
	m := make(map[FieldName]int, len(FieldNames))
	for i, f := range FieldNames {
		m[f] = i
	}
	return m
}()

// CanonicalIndex returns the field's position in declaration order.
// Unknown fields sort after all known fields.
func (f FieldName) CanonicalIndex() int {
	if i, ok := fieldIndex[f]; ok {
		return i
	}
	return len(FieldNames)
}

// Known reports whether f is one of the declared field names.
func (f FieldName) Known() bool {
	_, ok := fieldIndex[f]
	return ok
}

// FieldKind is the value type a field carries.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindDate   FieldKind = "date"
	KindAmount FieldKind = "amount"
)

// Kind returns the value kind expected for the field.
func (f FieldName) Kind() FieldKind {
	switch f {
	case FieldAdmissionDate, FieldDischargeDate:
		return KindDate
	case FieldTotalCharge:
		return KindAmount
	default:
		return KindString
	}
}

// FieldValue is a tagged union over the three value types a field record can
// carry. Exactly one of Str, Date, or Amount is meaningful, per Kind.
// Values are validated at the bundle construction boundary, not inside the
// comparison logic.
type FieldValue struct {
	Kind   FieldKind `json:"kind"`
	Str    string    `json:"str,omitempty"`
	Date   time.Time `json:"date,omitempty"`
	Amount float64   `json:"amount,omitempty"`
}

// StringValue wraps a string as a FieldValue.
func StringValue(s string) FieldValue {
	return FieldValue{Kind: KindString, Str: s}
}

// DateValue wraps a calendar date as a FieldValue. The time portion is
// truncated to UTC midnight so two records extracted with different clock
// components still compare equal on the same day.
func DateValue(t time.Time) FieldValue {
	y, m, d := t.UTC().Date()
	return FieldValue{Kind: KindDate, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// AmountValue wraps a monetary amount as a FieldValue.
func AmountValue(v float64) FieldValue {
	return FieldValue{Kind: KindAmount, Amount: v}
}

// String renders the value for reports and logs.
func (v FieldValue) String() string {
	switch v.Kind {
	case KindDate:
		return v.Date.Format("2006-01-02")
	case KindAmount:
		return fmt.Sprintf("%.2f", v.Amount)
	default:
		return v.Str
	}
}

// FieldRecord is one extracted field from one document.
type FieldRecord struct {
	FieldName        FieldName  `json:"field_name"`
	Value            FieldValue `json:"value"`
	Confidence       float64    `json:"confidence"`
	SourceDocumentID string     `json:"source_document_id"`
}

// DocumentType tags the kind of uploaded document a bundle came from.
type DocumentType string

const (
	DocBill             DocumentType = "bill"
	DocDischargeSummary DocumentType = "discharge_summary"
	DocIDCard           DocumentType = "id_card"
	DocPrescription     DocumentType = "prescription"
	DocLabReport        DocumentType = "lab_report"
	DocOther            DocumentType = "other"
)

// MalformedField records a raw value that failed its type's parse or
// normalize step during bundle construction. The validator surfaces these as
// Info findings rather than aborting.
type MalformedField struct {
	FieldName FieldName `json:"field_name"`
	Raw       string    `json:"raw"`
	Reason    string    `json:"reason"`
}

// DocumentBundle is the set of extracted field records belonging to one
// uploaded document. A document contributes at most one record per field
// name; the bundle builder enforces this.
type DocumentBundle struct {
	DocumentID string                        `json:"document_id"`
	Type       DocumentType                  `json:"document_type"`
	Records    map[FieldName]FieldRecord     `json:"records"`
	Malformed  []MalformedField              `json:"malformed,omitempty"`
}

// Record returns the bundle's record for the given field, if present.
func (b DocumentBundle) Record(name FieldName) (FieldRecord, bool) {
	r, ok := b.Records[name]
	return r, ok
}
