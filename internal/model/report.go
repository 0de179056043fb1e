package model

// Severity classifies a discrepancy finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank returns a numeric order for severity (higher is more severe).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Downgrade lowers severity by one level: Critical becomes Warning,
// Warning becomes Info. Info stays Info.
func (s Severity) Downgrade() Severity {
	switch s {
	case SeverityCritical:
		return SeverityWarning
	case SeverityWarning:
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// DiscrepancyFinding is one detected mismatch or notable condition.
type DiscrepancyFinding struct {
	FieldName        FieldName         `json:"field_name"`
	ValuesByDocument map[string]string `json:"values_by_document"`
	Severity         Severity          `json:"severity"`
	Reason           string            `json:"reason"`
}

// ValidationReport is the validator's output: an ordered sequence of
// findings plus summary verdicts. It is constructed fresh per validation
// call and not mutated after being returned.
type ValidationReport struct {
	Findings                []DiscrepancyFinding `json:"findings"`
	IsConsistent            bool                 `json:"is_consistent"`
	ConfidenceAdjustedScore float64              `json:"confidence_adjusted_score"`
}

// CriticalCount returns the number of critical findings.
func (r *ValidationReport) CriticalCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
