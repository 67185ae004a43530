// Package metrics derives scalar performance metrics from a parsed plan.
package metrics

import "github.com/querylens/querylens/internal/plan"

// PerTableEstimate records the optimizer estimate next to the observed row
// count for one table. When a table appears in several plan nodes the most
// expensive instance wins.
type PerTableEstimate struct {
	EstimatedRows float64 `json:"estimated_rows"`
	ActualRows    float64 `json:"actual_rows"`
	Loops         float64 `json:"loops"`
}

// Metrics is the flat metric bag every downstream stage reads. Field names
// mirror the serialized keys.
type Metrics struct {
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	RowsExamined    float64 `json:"rows_examined"`
	RowsReturned    float64 `json:"rows_returned"`
	NestedLoopDepth int     `json:"nested_loop_depth"`
	MaxLoops        float64 `json:"max_loops"`
	MaxCost         float64 `json:"max_cost"`

	HasTempTable        bool `json:"has_temp_table"`
	HasWeedout          bool `json:"has_weedout"`
	HasFilesort         bool `json:"has_filesort"`
	HasTableScan        bool `json:"has_table_scan"`
	HasIndexMerge       bool `json:"has_index_merge"`
	HasCoveringIndex    bool `json:"has_covering_index"`
	HasDiskTemp         bool `json:"has_disk_temp"`
	HasMaterialization  bool `json:"has_materialization"`
	HasEarlyTermination bool `json:"has_early_termination"`

	IsIndexBacked     bool `json:"is_index_backed"`
	IsZeroRowConst    bool `json:"is_zero_row_const"`
	IsIntentionalScan bool `json:"is_intentional_scan"`

	PrimaryAccessType plan.AccessType `json:"primary_access_type"`
	MySQLAccessType   string          `json:"mysql_access_type"`

	Complexity      ComplexityClass `json:"complexity"`
	ComplexityLabel string          `json:"complexity_label"`
	ComplexityRisk  RiskLevel       `json:"complexity_risk"`

	FanoutFactor     float64 `json:"fanout_factor"`
	JoinCount        int     `json:"join_count"`
	SelectivityRatio float64 `json:"selectivity_ratio"`

	IndexesUsed    []string `json:"indexes_used"`
	TablesAccessed []string `json:"tables_accessed"`
	NodeCount      int      `json:"node_count"`

	PerTableEstimates map[string]PerTableEstimate `json:"per_table_estimates"`

	ParsingValid bool `json:"parsing_valid"`
}
