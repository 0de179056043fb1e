package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Rank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityWarning.Rank())
	assert.Greater(t, SeverityWarning.Rank(), SeverityInfo.Rank())
}

func TestSeverity_Downgrade(t *testing.T) {
	assert.Equal(t, SeverityWarning, SeverityCritical.Downgrade())
	assert.Equal(t, SeverityInfo, SeverityWarning.Downgrade())
	assert.Equal(t, SeverityInfo, SeverityInfo.Downgrade())
}

func TestValidationReport_CriticalCount(t *testing.T) {
	r := &ValidationReport{
		Findings: []DiscrepancyFinding{
			{Severity: SeverityCritical},
			{Severity: SeverityInfo},
			{Severity: SeverityCritical},
			{Severity: SeverityWarning},
		},
	}
	assert.Equal(t, 2, r.CriticalCount())
	assert.Equal(t, 0, (&ValidationReport{}).CriticalCount())
}
