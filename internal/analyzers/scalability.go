package analyzers

import (
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/sqltext"
)

// ScalabilityConfig lists the target row counts to project to.
type ScalabilityConfig struct {
	Targets []float64
}

// DefaultScalabilityConfig projects to one million and ten million rows.
func DefaultScalabilityConfig() ScalabilityConfig {
	return ScalabilityConfig{Targets: []float64{1e6, 1e7}}
}

// ScalabilityEstimator projects execution time to larger data sets using
// the complexity class growth curve. Projections are order-of-magnitude
// guidance, not predictions.
type ScalabilityEstimator struct {
	cfg ScalabilityConfig
	log logger.Interface
}

// NewScalabilityEstimator builds the estimator.
func NewScalabilityEstimator(cfg ScalabilityConfig, log logger.Interface) *ScalabilityEstimator {
	if log == nil {
		log = logger.Nop{}
	}
	return &ScalabilityEstimator{cfg: cfg, log: log}
}

// Analyze projects current cost to each configured target row count.
func (s *ScalabilityEstimator) Analyze(sqlText string, m *metrics.Metrics) *report.Scalability {
	out := &report.Scalability{
		Complexity: m.ComplexityLabel,
		Risk:       string(m.ComplexityRisk),
	}

	current := m.RowsExamined
	if current < 1 {
		current = 1
	}
	for _, target := range s.cfg.Targets {
		growth := target / current
		if growth < 1 {
			growth = 1
		}
		factor := m.Complexity.ScalabilityFactor(growth)
		out.Projections = append(out.Projections, report.Projection{
			TargetRows:      target,
			Factor:          factor,
			ProjectedTimeMs: m.ExecutionTimeMs * factor,
		})
	}

	switch {
	case m.HasEarlyTermination:
		out.LimitSensitivity = "LIMIT bounds the work; cost stays flat until the index order no longer matches"
	case sqltext.HasLimit(sqlText):
		out.LimitSensitivity = "LIMIT present but not terminating early; cost grows with the scanned set"
	}
	return out
}
