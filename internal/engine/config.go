package engine

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/querylens/querylens/internal/analyzers"
	"github.com/querylens/querylens/internal/rules"
	"github.com/querylens/querylens/internal/scoring"
)

// Config is the full engine configuration. Everything has a working
// default; config files and QUERYLENS_* environment variables override.
type Config struct {
	Driver      string `mapstructure:"driver"`
	Connection  string `mapstructure:"connection"`
	Environment string `mapstructure:"environment"`

	Scoring struct {
		Weights         scoring.Weights         `mapstructure:"weights"`
		GradeThresholds scoring.GradeThresholds `mapstructure:"grade_thresholds"`
	} `mapstructure:"scoring"`

	Rules struct {
		Enabled []string `mapstructure:"enabled"`
	} `mapstructure:"rules"`

	Thresholds struct {
		MaxExecutionTimeMs float64 `mapstructure:"max_execution_time_ms"`
		MaxRowsExamined    float64 `mapstructure:"max_rows_examined"`
		MaxLoops           float64 `mapstructure:"max_loops"`
		MaxCost            float64 `mapstructure:"max_cost"`
		MaxNestedLoopDepth int     `mapstructure:"max_nested_loop_depth"`
		DeepNestedLoop     int     `mapstructure:"deep_nested_loop"`
	} `mapstructure:"thresholds"`

	Projection struct {
		Targets []float64 `mapstructure:"targets"`
	} `mapstructure:"projection"`

	CardinalityDrift struct {
		WarningThreshold  float64 `mapstructure:"warning_threshold"`
		CriticalThreshold float64 `mapstructure:"critical_threshold"`
	} `mapstructure:"cardinality_drift"`

	AntiPatterns struct {
		OrChainThreshold         int     `mapstructure:"or_chain_threshold"`
		MissingLimitRowThreshold float64 `mapstructure:"missing_limit_row_threshold"`
	} `mapstructure:"anti_patterns"`

	IndexSynthesis struct {
		MaxRecommendations int `mapstructure:"max_recommendations"`
		MaxColumnsPerIndex int `mapstructure:"max_columns_per_index"`
	} `mapstructure:"index_synthesis"`

	MemoryPressure struct {
		HighThresholdBytes     float64 `mapstructure:"high_threshold_bytes"`
		ModerateThresholdBytes float64 `mapstructure:"moderate_threshold_bytes"`
		ConcurrentSessions     int     `mapstructure:"concurrent_sessions"`
	} `mapstructure:"memory_pressure"`

	Regression struct {
		Enabled             bool    `mapstructure:"enabled"`
		StoragePath         string  `mapstructure:"storage_path"`
		MaxHistory          int     `mapstructure:"max_history"`
		TimeWarningPct      float64 `mapstructure:"time_warning_pct"`
		TimeCriticalPct     float64 `mapstructure:"time_critical_pct"`
		ScoreWarningPct     float64 `mapstructure:"score_warning_pct"`
		ScoreCriticalPct    float64 `mapstructure:"score_critical_pct"`
		NoiseFloorMs        float64 `mapstructure:"noise_floor_ms"`
		MinimumMeasurableMs float64 `mapstructure:"minimum_measurable_ms"`
	} `mapstructure:"regression"`

	HypotheticalIndex struct {
		Enabled             bool     `mapstructure:"enabled"`
		MaxSimulations      int      `mapstructure:"max_simulations"`
		TimeoutSeconds      int      `mapstructure:"timeout_seconds"`
		AllowedEnvironments []string `mapstructure:"allowed_environments"`
	} `mapstructure:"hypothetical_index"`

	CI struct {
		FailOnWarning    bool   `mapstructure:"fail_on_warning"`
		FailOnGradeBelow string `mapstructure:"fail_on_grade_below"`
	} `mapstructure:"ci"`
}

// Default returns the shipped configuration.
func Default() Config {
	var c Config
	c.Driver = "mysql"
	c.Environment = "local"
	c.Scoring.Weights = scoring.DefaultWeights()
	c.Scoring.GradeThresholds = scoring.DefaultGradeThresholds()

	rt := rules.DefaultThresholds()
	c.Thresholds.DeepNestedLoop = rt.DeepNestedLoopThreshold

	c.Projection.Targets = analyzers.DefaultScalabilityConfig().Targets

	cd := analyzers.DefaultCardinalityConfig()
	c.CardinalityDrift.WarningThreshold = cd.WarningThreshold
	c.CardinalityDrift.CriticalThreshold = cd.CriticalThreshold

	ap := analyzers.DefaultAntiPatternConfig()
	c.AntiPatterns.OrChainThreshold = ap.OrChainThreshold
	c.AntiPatterns.MissingLimitRowThreshold = ap.MissingLimitRowThreshold

	is := analyzers.DefaultIndexSynthesisConfig()
	c.IndexSynthesis.MaxRecommendations = is.MaxRecommendations
	c.IndexSynthesis.MaxColumnsPerIndex = is.MaxColumnsPerIndex

	mp := analyzers.DefaultMemoryPressureConfig()
	c.MemoryPressure.HighThresholdBytes = mp.HighThresholdBytes
	c.MemoryPressure.ModerateThresholdBytes = mp.ModerateThresholdBytes
	c.MemoryPressure.ConcurrentSessions = mp.ConcurrentSessions

	rg := analyzers.DefaultRegressionConfig()
	c.Regression.Enabled = rg.Enabled
	c.Regression.StoragePath = ".querylens/baselines"
	c.Regression.MaxHistory = 50
	c.Regression.TimeWarningPct = rg.TimeWarningPct
	c.Regression.TimeCriticalPct = rg.TimeCriticalPct
	c.Regression.ScoreWarningPct = rg.ScoreWarningPct
	c.Regression.ScoreCriticalPct = rg.ScoreCriticalPct
	c.Regression.NoiseFloorMs = rg.NoiseFloorMs
	c.Regression.MinimumMeasurableMs = rg.MinimumMeasurableMs

	hi := analyzers.DefaultHypotheticalIndexConfig()
	c.HypotheticalIndex.Enabled = hi.Enabled
	c.HypotheticalIndex.MaxSimulations = hi.MaxSimulations
	c.HypotheticalIndex.TimeoutSeconds = int(hi.Timeout / time.Second)
	c.HypotheticalIndex.AllowedEnvironments = hi.AllowedEnvironments

	return c
}

// FromViper overlays viper-provided values on the defaults.
func FromViper(v *viper.Viper) (Config, error) {
	c := Default()
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshaling config: %w", err)
	}
	if sum := c.Scoring.Weights.Sum(); sum <= 0 {
		c.Scoring.Weights = scoring.DefaultWeights()
	}
	return c, nil
}

// RuleThresholds adapts the config to the rule package.
func (c Config) RuleThresholds() rules.Thresholds {
	t := rules.DefaultThresholds()
	if c.Thresholds.DeepNestedLoop > 0 {
		t.DeepNestedLoopThreshold = c.Thresholds.DeepNestedLoop
	}
	return t
}

// HypotheticalIndexConfig adapts the config to the analyzer.
func (c Config) HypotheticalIndexConfig() analyzers.HypotheticalIndexConfig {
	cfg := analyzers.DefaultHypotheticalIndexConfig()
	cfg.Enabled = c.HypotheticalIndex.Enabled
	cfg.Environment = c.Environment
	if len(c.HypotheticalIndex.AllowedEnvironments) > 0 {
		cfg.AllowedEnvironments = c.HypotheticalIndex.AllowedEnvironments
	}
	if c.HypotheticalIndex.MaxSimulations > 0 {
		cfg.MaxSimulations = c.HypotheticalIndex.MaxSimulations
	}
	if c.HypotheticalIndex.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(c.HypotheticalIndex.TimeoutSeconds) * time.Second
	}
	return cfg
}

// RegressionConfig adapts the config to the analyzer.
func (c Config) RegressionConfig() analyzers.RegressionConfig {
	cfg := analyzers.DefaultRegressionConfig()
	cfg.Enabled = c.Regression.Enabled
	if c.Regression.TimeWarningPct > 0 {
		cfg.TimeWarningPct = c.Regression.TimeWarningPct
	}
	if c.Regression.TimeCriticalPct > 0 {
		cfg.TimeCriticalPct = c.Regression.TimeCriticalPct
	}
	if c.Regression.ScoreWarningPct > 0 {
		cfg.ScoreWarningPct = c.Regression.ScoreWarningPct
	}
	if c.Regression.ScoreCriticalPct > 0 {
		cfg.ScoreCriticalPct = c.Regression.ScoreCriticalPct
	}
	if c.Regression.NoiseFloorMs > 0 {
		cfg.NoiseFloorMs = c.Regression.NoiseFloorMs
	}
	if c.Regression.MinimumMeasurableMs > 0 {
		cfg.MinimumMeasurableMs = c.Regression.MinimumMeasurableMs
	}
	return cfg
}
