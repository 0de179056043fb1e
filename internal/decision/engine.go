package decision

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/healthpay/claimcheck/internal/config"
	"github.com/healthpay/claimcheck/internal/model"
)

// Penalty applied to the consistency component per finding severity.
const (
	criticalPenalty = 0.25
	warningPenalty  = 0.10
)

// Engine scores a validated claim and produces a decision.
type Engine struct {
	cfg config.DecisionConfig
}

// New returns an Engine after validating cfg.
func New(cfg config.DecisionConfig) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, eris.Wrap(err, "decision: invalid config")
	}
	return &Engine{cfg: cfg}, nil
}

// Decide combines document quality, completeness, consistency, and
// extraction confidence into a weighted score and maps it onto a verdict.
func (e *Engine) Decide(bundles []model.DocumentBundle, report *model.ValidationReport) model.ClaimDecision {
	quality := report.ConfidenceAdjustedScore
	completeness, missing := e.completeness(bundles)
	consistency := consistencyScore(report)
	confidence := meanRecordConfidence(bundles)

	score := e.cfg.QualityWeight*quality +
		e.cfg.CompletenessWeight*completeness +
		e.cfg.ConsistencyWeight*consistency +
		e.cfg.ConfidenceWeight*confidence

	risks := e.riskFactors(bundles, report, missing)

	var status model.ClaimStatus
	switch {
	case score >= e.cfg.ApprovalThreshold:
		status = model.ClaimApproved
	case score <= e.cfg.RejectionThreshold:
		status = model.ClaimRejected
	default:
		status = model.ClaimPending
	}

	decision := model.ClaimDecision{
		Status: status,
		Reason: fmt.Sprintf(
			"score %.2f (quality %.2f, completeness %.2f, consistency %.2f, confidence %.2f)",
			score, quality, completeness, consistency, confidence),
		Confidence:         decisionConfidence(status, score),
		RiskFactors:        risks,
		RecommendedActions: recommendedActions(status, risks),
	}

	zap.L().Debug("decision computed",
		zap.String("status", string(status)),
		zap.Float64("score", score),
		zap.Strings("risk_factors", risks))

	return decision
}

// completeness returns the fraction of required document types present in
// the claim, plus the sorted list of missing types.
func (e *Engine) completeness(bundles []model.DocumentBundle) (float64, []string) {
	if len(e.cfg.RequiredDocuments) == 0 {
		return 1, nil
	}

	present := make(map[string]bool, len(bundles))
	for _, b := range bundles {
		present[string(b.Type)] = true
	}

	var missing []string
	for _, req := range e.cfg.RequiredDocuments {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	sort.Strings(missing)

	found := len(e.cfg.RequiredDocuments) - len(missing)
	return float64(found) / float64(len(e.cfg.RequiredDocuments)), missing
}

// consistencyScore maps a validation report onto [0, 1]. Each critical
// finding costs criticalPenalty and each warning costs warningPenalty;
// info findings are free.
func consistencyScore(report *model.ValidationReport) float64 {
	score := 1.0
	for _, f := range report.Findings {
		switch f.Severity {
		case model.SeverityCritical:
			score -= criticalPenalty
		case model.SeverityWarning:
			score -= warningPenalty
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

func meanRecordConfidence(bundles []model.DocumentBundle) float64 {
	var sum float64
	var n int
	for _, b := range bundles {
		for _, rec := range b.Records {
			sum += rec.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (e *Engine) riskFactors(bundles []model.DocumentBundle, report *model.ValidationReport, missing []string) []string {
	var risks []string

	if n := report.CriticalCount(); n > 0 {
		risks = append(risks, fmt.Sprintf("%d critical discrepancies across documents", n))
	}
	if len(missing) > 0 {
		risks = append(risks, "missing required documents: "+strings.Join(missing, ", "))
	}

	for _, b := range bundles {
		rec, ok := b.Record(model.FieldTotalCharge)
		if !ok || rec.Value.Kind != model.KindAmount {
			continue
		}
		if rec.Value.Amount > e.cfg.HighChargeThreshold {
			risks = append(risks, fmt.Sprintf(
				"high claim amount %.2f exceeds %.2f in document %s",
				rec.Value.Amount, e.cfg.HighChargeThreshold, b.DocumentID))
		}
	}

	var lowConf int
	for _, b := range bundles {
		for _, rec := range b.Records {
			if rec.Confidence < 0.5 {
				lowConf++
			}
		}
	}
	if lowConf > 0 {
		risks = append(risks, fmt.Sprintf("%d extracted fields below 0.5 confidence", lowConf))
	}

	return risks
}

func decisionConfidence(status model.ClaimStatus, score float64) float64 {
	var c float64
	switch status {
	case model.ClaimApproved:
		c = score
	case model.ClaimRejected:
		c = 1 - score
	default:
		c = 0.5
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func recommendedActions(status model.ClaimStatus, risks []string) []string {
	switch status {
	case model.ClaimApproved:
		if len(risks) > 0 {
			return []string{"proceed with payment processing", "flag for post-payment audit"}
		}
		return []string{"proceed with payment processing"}
	case model.ClaimRejected:
		return []string{"notify claimant of rejection", "request corrected documents"}
	default:
		return []string{"route to manual review", "request additional supporting documents"}
	}
}
