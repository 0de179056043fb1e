// Package decision implements the claim decision engine: it turns a
// validation report and the underlying bundles into an approve, reject,
// or pending verdict.
package decision

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/healthpay/claimcheck/internal/config"
)

// DefaultConfig returns a config.DecisionConfig with the standard weights.
// Weights sum to 1.
func DefaultConfig() config.DecisionConfig {
	return config.DecisionConfig{
		// Weights (sum = 1).
		QualityWeight:      0.4,
		CompletenessWeight: 0.3,
		ConsistencyWeight:  0.2,
		ConfidenceWeight:   0.1,

		// Verdict thresholds.
		ApprovalThreshold:  0.7,
		RejectionThreshold: 0.3,

		// Claims above this charge get a secondary-review risk factor.
		HighChargeThreshold: 500_000,

		RequiredDocuments: []string{"bill", "discharge_summary"},
	}
}

// WeightSum returns the sum of all component weights.
func WeightSum(c config.DecisionConfig) float64 {
	return c.QualityWeight + c.CompletenessWeight + c.ConsistencyWeight + c.ConfidenceWeight
}

// ValidateConfig checks that a DecisionConfig is internally consistent.
func ValidateConfig(c config.DecisionConfig) error {
	var errs []string

	weights := map[string]float64{
		"quality_weight":      c.QualityWeight,
		"completeness_weight": c.CompletenessWeight,
		"consistency_weight":  c.ConsistencyWeight,
		"confidence_weight":   c.ConfidenceWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := WeightSum(c)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	if math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.2f", sum))
	}

	if c.ApprovalThreshold < 0 || c.ApprovalThreshold > 1 {
		errs = append(errs, "approval_threshold must be between 0 and 1")
	}
	if c.RejectionThreshold < 0 || c.RejectionThreshold > 1 {
		errs = append(errs, "rejection_threshold must be between 0 and 1")
	}
	if c.RejectionThreshold >= c.ApprovalThreshold {
		errs = append(errs, "rejection_threshold must be below approval_threshold")
	}
	if c.HighChargeThreshold < 0 {
		errs = append(errs, "high_charge_threshold must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("decision: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
