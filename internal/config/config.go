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
	Gate  GateConfig  `yaml:"gate" mapstructure:"gate"`
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	Batch BatchConfig `yaml:"batch" mapstructure:"batch"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// GateConfig holds every threshold and window the gating engine uses.
// Validation rejects out-of-range values at startup instead of clamping.
type GateConfig struct {
	TriSignalWindow     int  `yaml:"tri_signal_window" mapstructure:"tri_signal_window"`
	TriSignalMinSignals int  `yaml:"tri_signal_min_signals" mapstructure:"tri_signal_min_signals"`
	TriSignalRequireDate bool `yaml:"tri_signal_require_date" mapstructure:"tri_signal_require_date"`

	HeaderConflictKillRadius int     `yaml:"header_conflict_kill_radius" mapstructure:"header_conflict_kill_radius"`
	MaxCrossColumnDistance   int     `yaml:"max_cross_column_distance" mapstructure:"max_cross_column_distance"`
	TimelineDensityThreshold float64 `yaml:"timeline_density_threshold" mapstructure:"timeline_density_threshold"`
	TimelineWindowSize       int     `yaml:"timeline_window_size" mapstructure:"timeline_window_size"`

	ExpGateMin    float64 `yaml:"exp_gate_min" mapstructure:"exp_gate_min"`
	MinDescTokens int     `yaml:"min_desc_tokens" mapstructure:"min_desc_tokens"`

	PatternDiversityHardBlock   float64 `yaml:"pattern_diversity_hard_block" mapstructure:"pattern_diversity_hard_block"`
	PatternDiversityMediumAlert float64 `yaml:"pattern_diversity_medium_alert" mapstructure:"pattern_diversity_medium_alert"`
	MaxMergeMultiplier          int     `yaml:"max_merge_multiplier" mapstructure:"max_merge_multiplier"`

	OrgRebindWindow          int     `yaml:"org_rebind_window" mapstructure:"org_rebind_window"`
	EmploymentScoreThreshold float64 `yaml:"employment_score_threshold" mapstructure:"employment_score_threshold"`
	EmploymentScoreWindow    int     `yaml:"employment_score_window" mapstructure:"employment_score_window"`

	RescueWindowRadius     int `yaml:"rescue_window_radius" mapstructure:"rescue_window_radius"`
	RescueRelaxedMinSignals int `yaml:"rescue_relaxed_min_signals" mapstructure:"rescue_relaxed_min_signals"`
	MaxExtractionPasses    int `yaml:"max_extraction_passes" mapstructure:"max_extraction_passes"`

	EduKeepRateSecondPass float64 `yaml:"edu_keep_rate_second_pass" mapstructure:"edu_keep_rate_second_pass"`
	EduItemsPer100Lines   int     `yaml:"edu_items_per_100_lines" mapstructure:"edu_items_per_100_lines"`

	ConfidenceFloor float64 `yaml:"confidence_floor" mapstructure:"confidence_floor"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig configures cross-document batch processing.
type BatchConfig struct {
	MaxConcurrentDocuments int     `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
	DocsPerSecond          float64 `yaml:"docs_per_second" mapstructure:"docs_per_second"`
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
	v.SetEnvPrefix("CVGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("gate.tri_signal_window", 3)
	v.SetDefault("gate.tri_signal_min_signals", 2)
	v.SetDefault("gate.tri_signal_require_date", true)
	v.SetDefault("gate.header_conflict_kill_radius", 8)
	v.SetDefault("gate.max_cross_column_distance", 2)
	v.SetDefault("gate.timeline_density_threshold", 0.45)
	v.SetDefault("gate.timeline_window_size", 4)
	v.SetDefault("gate.exp_gate_min", 0.55)
	v.SetDefault("gate.min_desc_tokens", 6)
	v.SetDefault("gate.pattern_diversity_hard_block", 0.20)
	v.SetDefault("gate.pattern_diversity_medium_alert", 0.30)
	v.SetDefault("gate.max_merge_multiplier", 2)
	v.SetDefault("gate.org_rebind_window", 4)
	v.SetDefault("gate.employment_score_threshold", 0.5)
	v.SetDefault("gate.employment_score_window", 3)
	v.SetDefault("gate.rescue_window_radius", 6)
	v.SetDefault("gate.rescue_relaxed_min_signals", 1)
	v.SetDefault("gate.max_extraction_passes", 3)
	v.SetDefault("gate.edu_keep_rate_second_pass", 0.10)
	v.SetDefault("gate.edu_items_per_100_lines", 20)
	v.SetDefault("gate.confidence_floor", 0.1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "cvgate.db")
	v.SetDefault("batch.max_concurrent_documents", 4)
	v.SetDefault("batch.docs_per_second", 8.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks thresholds and windows. Any violation is a startup error;
// values are never silently clamped here.
func (c *Config) Validate() error {
	var problems []string

	unit := func(name string, val float64) {
		if val < 0 || val > 1 {
			problems = append(problems, name+" must be between 0 and 1")
		}
	}
	positive := func(name string, val int) {
		if val <= 0 {
			problems = append(problems, name+" must be > 0")
		}
	}

	unit("gate.exp_gate_min", c.Gate.ExpGateMin)
	unit("gate.pattern_diversity_hard_block", c.Gate.PatternDiversityHardBlock)
	unit("gate.pattern_diversity_medium_alert", c.Gate.PatternDiversityMediumAlert)
	unit("gate.timeline_density_threshold", c.Gate.TimelineDensityThreshold)
	unit("gate.employment_score_threshold", c.Gate.EmploymentScoreThreshold)
	unit("gate.edu_keep_rate_second_pass", c.Gate.EduKeepRateSecondPass)
	unit("gate.confidence_floor", c.Gate.ConfidenceFloor)

	if c.Gate.PatternDiversityHardBlock > c.Gate.PatternDiversityMediumAlert {
		problems = append(problems, "gate.pattern_diversity_hard_block must be <= gate.pattern_diversity_medium_alert")
	}

	positive("gate.tri_signal_window", c.Gate.TriSignalWindow)
	positive("gate.tri_signal_min_signals", c.Gate.TriSignalMinSignals)
	positive("gate.header_conflict_kill_radius", c.Gate.HeaderConflictKillRadius)
	positive("gate.max_cross_column_distance", c.Gate.MaxCrossColumnDistance)
	positive("gate.timeline_window_size", c.Gate.TimelineWindowSize)
	positive("gate.min_desc_tokens", c.Gate.MinDescTokens)
	positive("gate.max_merge_multiplier", c.Gate.MaxMergeMultiplier)
	positive("gate.org_rebind_window", c.Gate.OrgRebindWindow)
	positive("gate.employment_score_window", c.Gate.EmploymentScoreWindow)
	positive("gate.rescue_window_radius", c.Gate.RescueWindowRadius)
	positive("gate.rescue_relaxed_min_signals", c.Gate.RescueRelaxedMinSignals)
	positive("gate.max_extraction_passes", c.Gate.MaxExtractionPasses)
	positive("gate.edu_items_per_100_lines", c.Gate.EduItemsPer100Lines)

	if c.Gate.TriSignalMinSignals > 3 {
		problems = append(problems, "gate.tri_signal_min_signals must be <= 3")
	}

	if c.Batch.MaxConcurrentDocuments < 1 || c.Batch.MaxConcurrentDocuments > 64 {
		problems = append(problems, "batch.max_concurrent_documents must be between 1 and 64")
	}
	if c.Batch.DocsPerSecond <= 0 {
		problems = append(problems, "batch.docs_per_second must be > 0")
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if len(problems) > 0 {
		return eris.New("config: invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
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
