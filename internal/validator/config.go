// Package validator implements cross-document consistency validation for
// medical claim field records.
package validator

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/healthpay/claimcheck/internal/config"
)

// DefaultConfig returns a config.ValidatorConfig with the standard
// comparison thresholds.
func DefaultConfig() config.ValidatorConfig {
	return config.ValidatorConfig{
		// Patient names: tolerate OCR noise up to 2 edits on short names.
		NameEditDistance: 2,
		NameFuzzyMaxLen:  20,

		// Hospital names carry abbreviations ("Gen. Hosp."), so allow more.
		HospitalEditDistance: 4,

		// Mismatches where either side was extracted below this confidence
		// are downgraded one severity level.
		ConfidenceFloor: 0.5,

		// Sanity ceiling for a single claim's total charge.
		ChargeCeiling: 10_000_000,
	}
}

// ValidateConfig checks that a ValidatorConfig is internally consistent.
func ValidateConfig(c config.ValidatorConfig) error {
	var errs []string

	if c.NameEditDistance < 0 {
		errs = append(errs, "name_edit_distance must be >= 0")
	}
	if c.NameFuzzyMaxLen < 0 {
		errs = append(errs, "name_fuzzy_max_len must be >= 0")
	}
	if c.HospitalEditDistance < 0 {
		errs = append(errs, "hospital_edit_distance must be >= 0")
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		errs = append(errs, "confidence_floor must be between 0 and 1")
	}
	if c.ChargeCeiling <= 0 {
		errs = append(errs, fmt.Sprintf("charge_ceiling must be > 0, got %.2f", c.ChargeCeiling))
	}

	if len(errs) > 0 {
		return eris.Errorf("validator: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// configFile mirrors config.ValidatorConfig with pointer fields so a file
// can set a threshold to an explicit zero; absent fields keep the defaults.
type configFile struct {
	NameEditDistance     *int     `yaml:"name_edit_distance"`
	NameFuzzyMaxLen      *int     `yaml:"name_fuzzy_max_len"`
	HospitalEditDistance *int     `yaml:"hospital_edit_distance"`
	ConfidenceFloor      *float64 `yaml:"confidence_floor"`
	ChargeCeiling        *float64 `yaml:"charge_ceiling"`
}

// LoadConfig reads validator thresholds from a YAML file. Absent fields fall
// back to the defaults, so partial files only override what they name.
func LoadConfig(path string) (config.ValidatorConfig, error) {
	def := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return def, eris.Wrapf(err, "validator: read config %s", path)
	}

	// The YAML has a top-level "validator" key
	var wrapper struct {
		Validator configFile `yaml:"validator"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return def, eris.Wrap(err, "validator: parse config")
	}

	cfg := def
	file := wrapper.Validator
	if file.NameEditDistance != nil {
		cfg.NameEditDistance = *file.NameEditDistance
	}
	if file.NameFuzzyMaxLen != nil {
		cfg.NameFuzzyMaxLen = *file.NameFuzzyMaxLen
	}
	if file.HospitalEditDistance != nil {
		cfg.HospitalEditDistance = *file.HospitalEditDistance
	}
	if file.ConfidenceFloor != nil {
		cfg.ConfidenceFloor = *file.ConfidenceFloor
	}
	if file.ChargeCeiling != nil {
		cfg.ChargeCeiling = *file.ChargeCeiling
	}

	if err := ValidateConfig(cfg); err != nil {
		return def, err
	}
	return cfg, nil
}
