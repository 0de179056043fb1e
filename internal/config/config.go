package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Validator ValidatorConfig `yaml:"validator" mapstructure:"validator"`
	Decision  DecisionConfig  `yaml:"decision" mapstructure:"decision"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the validation API server.
type ServerConfig struct {
	Port           int     `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// ValidatorConfig holds the cross-document comparison thresholds.
type ValidatorConfig struct {
	NameEditDistance     int     `yaml:"name_edit_distance" mapstructure:"name_edit_distance"`
	NameFuzzyMaxLen      int     `yaml:"name_fuzzy_max_len" mapstructure:"name_fuzzy_max_len"`
	HospitalEditDistance int     `yaml:"hospital_edit_distance" mapstructure:"hospital_edit_distance"`
	ConfidenceFloor      float64 `yaml:"confidence_floor" mapstructure:"confidence_floor"`
	ChargeCeiling        float64 `yaml:"charge_ceiling" mapstructure:"charge_ceiling"`
}

// DecisionConfig holds the claim decision engine weights and thresholds.
// Weights are fractions summing to 1.
type DecisionConfig struct {
	QualityWeight       float64  `yaml:"quality_weight" mapstructure:"quality_weight"`
	CompletenessWeight  float64  `yaml:"completeness_weight" mapstructure:"completeness_weight"`
	ConsistencyWeight   float64  `yaml:"consistency_weight" mapstructure:"consistency_weight"`
	ConfidenceWeight    float64  `yaml:"confidence_weight" mapstructure:"confidence_weight"`
	ApprovalThreshold   float64  `yaml:"approval_threshold" mapstructure:"approval_threshold"`
	RejectionThreshold  float64  `yaml:"rejection_threshold" mapstructure:"rejection_threshold"`
	HighChargeThreshold float64  `yaml:"high_charge_threshold" mapstructure:"high_charge_threshold"`
	RequiredDocuments   []string `yaml:"required_documents" mapstructure:"required_documents"`
}

// BatchConfig configures batch validation.
type BatchConfig struct {
	MaxConcurrentClaims int `yaml:"max_concurrent_claims" mapstructure:"max_concurrent_claims"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLAIMCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "claimcheck.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("batch.max_concurrent_claims", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("validator.name_edit_distance", 2)
	v.SetDefault("validator.name_fuzzy_max_len", 20)
	v.SetDefault("validator.hospital_edit_distance", 4)
	v.SetDefault("validator.confidence_floor", 0.5)
	v.SetDefault("validator.charge_ceiling", 10_000_000)
	v.SetDefault("decision.quality_weight", 0.4)
	v.SetDefault("decision.completeness_weight", 0.3)
	v.SetDefault("decision.consistency_weight", 0.2)
	v.SetDefault("decision.confidence_weight", 0.1)
	v.SetDefault("decision.approval_threshold", 0.7)
	v.SetDefault("decision.rejection_threshold", 0.3)
	v.SetDefault("decision.high_charge_threshold", 500_000)
	v.SetDefault("decision.required_documents", []string{"bill", "discharge_summary"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
