package model

import "time"

// RunStatus represents the current state of a validation run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusValidating RunStatus = "validating"
	RunStatusDeciding   RunStatus = "deciding"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// ClaimStatus is the outcome of the claim decision engine.
type ClaimStatus string

const (
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
	ClaimPending  ClaimStatus = "pending"
)

// ClaimDecision is the decision engine's verdict for a claim.
type ClaimDecision struct {
	Status             ClaimStatus `json:"status"`
	Reason             string      `json:"reason"`
	Confidence         float64     `json:"confidence"`
	RiskFactors        []string    `json:"risk_factors,omitempty"`
	RecommendedActions []string    `json:"recommended_actions,omitempty"`
}

// Claim identifies one upload batch under validation.
type Claim struct {
	ID        string `json:"id"`
	Documents int    `json:"documents"`
}

// RunResult holds the final outcome of a validation run.
type RunResult struct {
	Report   *ValidationReport `json:"report,omitempty"`
	Decision *ClaimDecision    `json:"decision,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Run represents a single validation run for a claim.
type Run struct {
	ID        string     `json:"id"`
	Claim     Claim      `json:"claim"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
