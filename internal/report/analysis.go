package report

// Analyzer output DTOs. They live here rather than next to the analyzers so
// the report can embed them without a dependency cycle.

// TableDrift is the estimate-versus-observed record for one table.
type TableDrift struct {
	EstimatedRows float64  `json:"estimated_rows"`
	ActualRows    float64  `json:"actual_rows"`
	Loops         float64  `json:"loops"`
	DriftRatio    float64  `json:"drift_ratio"`
	Severity      Severity `json:"severity"`
}

// CardinalityDrift reports how far optimizer estimates diverged from
// observed row counts.
type CardinalityDrift struct {
	PerTable   map[string]TableDrift `json:"per_table"`
	DriftScore float64               `json:"drift_score"`
	Findings   []Finding             `json:"findings"`
}

// AntiPatterns lists lexical anti-patterns found in the SQL text.
type AntiPatterns struct {
	Detected []string  `json:"detected"`
	Findings []Finding `json:"findings"`
}

// IndexProposal is one synthesized composite-index suggestion.
type IndexProposal struct {
	Table     string   `json:"table"`
	Columns   []string `json:"columns"`
	IndexName string   `json:"index_name"`
	DDL       string   `json:"ddl"`
	Rationale string   `json:"rationale"`
	Overlaps  []string `json:"overlaps,omitempty"`
}

// IndexSynthesis bundles the proposed indexes.
type IndexSynthesis struct {
	Proposals []IndexProposal `json:"proposals"`
	Findings  []Finding       `json:"findings"`
}

// IndexSimulation records one hypothetical-index run: plan shape before and
// after the transient index existed.
type IndexSimulation struct {
	DDL          string  `json:"ddl"`
	DropDDL      string  `json:"drop_ddl"`
	Table        string  `json:"table"`
	IndexName    string  `json:"index_name"`
	BeforeAccess string  `json:"before_access"`
	AfterAccess  string  `json:"after_access"`
	BeforeRows   float64 `json:"before_rows"`
	AfterRows    float64 `json:"after_rows"`
	Improvement  string  `json:"improvement"`
	Validated    bool    `json:"validated"`
	Error        string  `json:"error,omitempty"`
}

// HypotheticalIndex is the simulation batch output.
type HypotheticalIndex struct {
	Simulations        []IndexSimulation `json:"simulations"`
	BestRecommendation string            `json:"best_recommendation,omitempty"`
	Findings           []Finding         `json:"findings"`
}

// RegressionDelta is one metric compared against its stored baseline.
type RegressionDelta struct {
	Metric        string   `json:"metric"`
	Baseline      float64  `json:"baseline"`
	Current       float64  `json:"current"`
	PercentChange float64  `json:"percent_change"`
	Severity      Severity `json:"severity"`
}

// Regression is the baseline-comparison output.
type Regression struct {
	QueryHash    string            `json:"query_hash"`
	HasBaseline  bool              `json:"has_baseline"`
	BaselineTime string            `json:"baseline_time,omitempty"`
	Deltas       []RegressionDelta `json:"deltas,omitempty"`
	Findings     []Finding         `json:"findings"`
}

// Concurrency is the locking and contention assessment.
type Concurrency struct {
	LockScope       string    `json:"lock_scope"`
	DeadlockRisk    float64   `json:"deadlock_risk"`
	ContentionScore float64   `json:"contention_score"`
	RiskLabel       string    `json:"risk_label"`
	Findings        []Finding `json:"findings"`
}

// MemoryPressure estimates per-query buffer memory demand.
type MemoryPressure struct {
	EstimatedBytes float64            `json:"estimated_bytes"`
	Components     map[string]float64 `json:"components"`
	AggregateBytes float64            `json:"aggregate_bytes"`
	Level          string             `json:"level"`
	Findings       []Finding          `json:"findings"`
}

// Confidence scores how trustworthy the whole analysis is.
type Confidence struct {
	Score    float64            `json:"score"`
	Label    string             `json:"label"`
	Factors  map[string]float64 `json:"factors"`
	Findings []Finding          `json:"findings"`
}

// Projection is one scalability data point at a target row count.
type Projection struct {
	TargetRows      float64 `json:"target_rows"`
	Factor          float64 `json:"factor"`
	ProjectedTimeMs float64 `json:"projected_time_ms"`
}

// Scalability projects query cost to larger data sets using the complexity
// class growth factor.
type Scalability struct {
	Complexity       string       `json:"complexity"`
	Risk             string       `json:"risk"`
	Projections      []Projection `json:"projections"`
	LimitSensitivity string       `json:"limit_sensitivity,omitempty"`
}
