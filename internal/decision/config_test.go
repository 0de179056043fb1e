package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpay/claimcheck/internal/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateConfig(cfg))
	assert.InDelta(t, 1.0, WeightSum(cfg), 0.001)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.DecisionConfig)
		wantErr string
	}{
		{
			name:    "negative weight",
			mutate:  func(c *config.DecisionConfig) { c.QualityWeight = -0.1 },
			wantErr: "quality_weight must be >= 0",
		},
		{
			name: "weights do not sum to one",
			mutate: func(c *config.DecisionConfig) {
				c.QualityWeight = 0.8
			},
			wantErr: "weights should sum to 1",
		},
		{
			name:    "approval threshold out of range",
			mutate:  func(c *config.DecisionConfig) { c.ApprovalThreshold = 1.5 },
			wantErr: "approval_threshold must be between 0 and 1",
		},
		{
			name: "rejection above approval",
			mutate: func(c *config.DecisionConfig) {
				c.RejectionThreshold = 0.9
			},
			wantErr: "rejection_threshold must be below approval_threshold",
		},
		{
			name:    "negative high charge threshold",
			mutate:  func(c *config.DecisionConfig) { c.HighChargeThreshold = -1 },
			wantErr: "high_charge_threshold must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
