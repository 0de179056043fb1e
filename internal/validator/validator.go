package validator

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/healthpay/claimcheck/internal/config"
	"github.com/healthpay/claimcheck/internal/model"
)

// ErrInsufficientDocuments is returned when fewer than two bundles are
// supplied. Cross-document validation is meaningless for a single document.
var ErrInsufficientDocuments = eris.New("validator: at least two document bundles are required")

// Validator compares field records across document bundles belonging to the
// same claim. It is a pure computation: safe for concurrent use across
// independent claims.
type Validator struct {
	cfg config.ValidatorConfig
}

// New creates a Validator after checking the config.
func New(cfg config.ValidatorConfig) (*Validator, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg}, nil
}

// Validate compares all bundle pairs field by field and returns a report of
// discrepancies, ordered by descending severity, canonical field order, then
// document ID. Identical inputs always produce identical reports.
func (v *Validator) Validate(bundles []model.DocumentBundle) (*model.ValidationReport, error) {
	if len(bundles) < 2 {
		return nil, ErrInsufficientDocuments
	}

	var findings []model.DiscrepancyFinding

	for _, b := range bundles {
		findings = append(findings, v.bundleFindings(b)...)
	}

	for _, field := range model.FieldNames {
		findings = append(findings, v.compareField(field, bundles)...)
	}

	sortFindings(findings)

	report := &model.ValidationReport{
		Findings:                findings,
		IsConsistent:            true,
		ConfidenceAdjustedScore: qualityScore(bundles),
	}
	for _, f := range findings {
		if f.Severity == model.SeverityCritical {
			report.IsConsistent = false
			break
		}
	}
	return report, nil
}

// bundleFindings runs the checks that involve only a single bundle:
// malformed fields, admission/discharge ordering, and charge sanity.
func (v *Validator) bundleFindings(b model.DocumentBundle) []model.DiscrepancyFinding {
	var findings []model.DiscrepancyFinding

	for _, mf := range b.Malformed {
		findings = append(findings, model.DiscrepancyFinding{
			FieldName:        mf.FieldName,
			ValuesByDocument: map[string]string{b.DocumentID: mf.Raw},
			Severity:         model.SeverityInfo,
			Reason:           fmt.Sprintf("field could not be normalized: %s", mf.Reason),
		})
	}

	// Records whose value kind disagrees with the field's declared kind
	// bypassed the bundle builder; they are excluded from comparison.
	for _, field := range model.FieldNames {
		r, ok := b.Records[field]
		if !ok || usable(r, field) {
			continue
		}
		findings = append(findings, model.DiscrepancyFinding{
			FieldName:        field,
			ValuesByDocument: map[string]string{b.DocumentID: r.Value.String()},
			Severity:         model.SeverityInfo,
			Reason:           fmt.Sprintf("field could not be normalized: value kind %s, expected %s", r.Value.Kind, field.Kind()),
		})
	}

	// Internal consistency: admission must not be after discharge. This is
	// Critical regardless of extraction confidence or cross-document state.
	adm, admOK := b.Records[model.FieldAdmissionDate]
	dis, disOK := b.Records[model.FieldDischargeDate]
	if admOK && disOK && usable(adm, model.FieldAdmissionDate) && usable(dis, model.FieldDischargeDate) {
		if adm.Value.Date.After(dis.Value.Date) {
			findings = append(findings, model.DiscrepancyFinding{
				FieldName: model.FieldAdmissionDate,
				ValuesByDocument: map[string]string{
					b.DocumentID: fmt.Sprintf("admission %s, discharge %s", adm.Value, dis.Value),
				},
				Severity: model.SeverityCritical,
				Reason:   "AdmissionDate after DischargeDate",
			})
		}
	}

	// Monetary sanity: amounts are never cross-compared (billed vs approved
	// legitimately differ), only checked for format validity.
	if charge, ok := b.Records[model.FieldTotalCharge]; ok && usable(charge, model.FieldTotalCharge) {
		values := map[string]string{b.DocumentID: charge.Value.String()}
		switch {
		case charge.Value.Amount < 0:
			findings = append(findings, model.DiscrepancyFinding{
				FieldName:        model.FieldTotalCharge,
				ValuesByDocument: values,
				Severity:         model.SeverityWarning,
				Reason:           "negative charge amount",
			})
		case charge.Value.Amount > v.cfg.ChargeCeiling:
			findings = append(findings, model.DiscrepancyFinding{
				FieldName:        model.FieldTotalCharge,
				ValuesByDocument: values,
				Severity:         model.SeverityWarning,
				Reason:           fmt.Sprintf("charge amount exceeds sanity ceiling %.2f", v.cfg.ChargeCeiling),
			})
		}
	}

	return findings
}

// compareField compares one field across all bundle pairs.
func (v *Validator) compareField(field model.FieldName, bundles []model.DocumentBundle) []model.DiscrepancyFinding {
	var present []model.FieldRecord
	presentCount := 0
	for _, b := range bundles {
		r, ok := b.Records[field]
		if !ok {
			continue
		}
		presentCount++
		if usable(r, field) {
			present = append(present, r)
		}
	}

	var findings []model.DiscrepancyFinding

	// Partially-present fields are noted, never escalated: a bill has no
	// discharge date to disagree with.
	if presentCount > 0 && presentCount < len(bundles) {
		values := make(map[string]string, len(present))
		for _, r := range present {
			values[r.SourceDocumentID] = r.Value.String()
		}
		findings = append(findings, model.DiscrepancyFinding{
			FieldName:        field,
			ValuesByDocument: values,
			Severity:         model.SeverityInfo,
			Reason:           "field unavailable for comparison",
		})
	}

	if len(present) < 2 || field.Kind() == model.KindAmount {
		return findings
	}

	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			if f := v.comparePair(field, present[i], present[j]); f != nil {
				findings = append(findings, *f)
			}
		}
	}
	return findings
}

// comparePair compares two records of the same field and returns a finding,
// or nil if the values are byte-identical.
func (v *Validator) comparePair(field model.FieldName, a, b model.FieldRecord) *model.DiscrepancyFinding {
	values := map[string]string{
		a.SourceDocumentID: a.Value.String(),
		b.SourceDocumentID: b.Value.String(),
	}

	switch field.Kind() {
	case model.KindDate:
		if a.Value.Date.Equal(b.Value.Date) {
			return nil
		}
		return &model.DiscrepancyFinding{
			FieldName:        field,
			ValuesByDocument: values,
			Severity:         v.downgradeIfUncertain(model.SeverityCritical, a, b),
			Reason:           fmt.Sprintf("%s differs across documents", field),
		}

	case model.KindString:
		if a.Value.Str == b.Value.Str {
			return nil
		}

		na, nb := NormalizeText(a.Value.Str), NormalizeText(b.Value.Str)
		dist := EditDistance(na, nb)

		threshold := v.cfg.HospitalEditDistance
		mismatchSeverity := model.SeverityWarning
		fuzzyEligible := true
		if field == model.FieldPatientName {
			threshold = v.cfg.NameEditDistance
			mismatchSeverity = model.SeverityCritical
			// Short names only: two edits in a 5-rune name is a different
			// person, but the threshold is calibrated for names up to the cap.
			fuzzyEligible = len([]rune(na)) <= v.cfg.NameFuzzyMaxLen && len([]rune(nb)) <= v.cfg.NameFuzzyMaxLen
		}

		if na == nb || (fuzzyEligible && dist <= threshold) {
			return &model.DiscrepancyFinding{
				FieldName:        field,
				ValuesByDocument: values,
				Severity:         model.SeverityInfo,
				Reason:           fmt.Sprintf("fuzzy match (edit distance %d)", dist),
			}
		}

		return &model.DiscrepancyFinding{
			FieldName:        field,
			ValuesByDocument: values,
			Severity:         v.downgradeIfUncertain(mismatchSeverity, a, b),
			Reason:           fmt.Sprintf("%s mismatch beyond edit distance %d", field, threshold),
		}
	}

	return nil
}

// downgradeIfUncertain lowers a mismatch severity one level when either
// side's extraction confidence is below the configured floor.
func (v *Validator) downgradeIfUncertain(s model.Severity, a, b model.FieldRecord) model.Severity {
	if a.Confidence < v.cfg.ConfidenceFloor || b.Confidence < v.cfg.ConfidenceFloor {
		return s.Downgrade()
	}
	return s
}

func usable(r model.FieldRecord, field model.FieldName) bool {
	return r.Value.Kind == field.Kind()
}

// sortFindings orders findings by descending severity, canonical field
// order, then lowest contributing document ID, for deterministic output.
func sortFindings(findings []model.DiscrepancyFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.FieldName.CanonicalIndex() != b.FieldName.CanonicalIndex() {
			return a.FieldName.CanonicalIndex() < b.FieldName.CanonicalIndex()
		}
		return minDocID(a) < minDocID(b)
	})
}

func minDocID(f model.DiscrepancyFinding) string {
	min := ""
	for id := range f.ValuesByDocument {
		if min == "" || id < min {
			min = id
		}
	}
	return min
}

// qualityScore summarizes how much to trust the report given its inputs:
// mean extraction confidence per bundle, with a bonus for each key field the
// document type is expected to carry, capped at 1.
func qualityScore(bundles []model.DocumentBundle) float64 {
	if len(bundles) == 0 {
		return 0
	}

	total := 0.0
	for _, b := range bundles {
		score := meanConfidence(b)
		for _, f := range keyFields(b.Type) {
			if _, ok := b.Records[f]; ok {
				score += 0.1
			}
		}
		if score > 1 {
			score = 1
		}
		total += score
	}
	return total / float64(len(bundles))
}

func meanConfidence(b model.DocumentBundle) float64 {
	if len(b.Records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range b.Records {
		sum += r.Confidence
	}
	return sum / float64(len(b.Records))
}

func keyFields(t model.DocumentType) []model.FieldName {
	switch t {
	case model.DocBill:
		return []model.FieldName{model.FieldTotalCharge, model.FieldHospitalName, model.FieldPatientName}
	case model.DocDischargeSummary:
		return []model.FieldName{model.FieldAdmissionDate, model.FieldDischargeDate}
	default:
		return nil
	}
}
