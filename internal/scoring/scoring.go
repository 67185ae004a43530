// Package scoring turns a metric bag into five component scores, a weighted
// composite, and a letter grade.
package scoring

import (
	"math"

	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
)

// Weights distributes the composite across the five components. They are
// expected to sum to 1.0; other sums are used as-is with a warning.
type Weights struct {
	ExecutionTime  float64 `json:"execution_time" mapstructure:"execution_time"`
	ScanEfficiency float64 `json:"scan_efficiency" mapstructure:"scan_efficiency"`
	IndexQuality   float64 `json:"index_quality" mapstructure:"index_quality"`
	JoinEfficiency float64 `json:"join_efficiency" mapstructure:"join_efficiency"`
	Scalability    float64 `json:"scalability" mapstructure:"scalability"`
}

// DefaultWeights returns the shipped weight distribution.
func DefaultWeights() Weights {
	return Weights{
		ExecutionTime:  0.30,
		ScanEfficiency: 0.25,
		IndexQuality:   0.20,
		JoinEfficiency: 0.15,
		Scalability:    0.10,
	}
}

// Sum returns the total weight mass.
func (w Weights) Sum() float64 {
	return w.ExecutionTime + w.ScanEfficiency + w.IndexQuality + w.JoinEfficiency + w.Scalability
}

// GradeThresholds are minimum composite scores per letter grade. Anything
// below D is an F.
type GradeThresholds struct {
	A float64 `json:"a" mapstructure:"a"`
	B float64 `json:"b" mapstructure:"b"`
	C float64 `json:"c" mapstructure:"c"`
	D float64 `json:"d" mapstructure:"d"`
}

// DefaultGradeThresholds returns the shipped grade boundaries.
func DefaultGradeThresholds() GradeThresholds {
	return GradeThresholds{A: 90, B: 75, C: 50, D: 25}
}

// Grade maps a composite score to a letter.
func (t GradeThresholds) Grade(score float64) string {
	switch {
	case score >= t.A:
		return "A"
	case score >= t.B:
		return "B"
	case score >= t.C:
		return "C"
	case score >= t.D:
		return "D"
	default:
		return "F"
	}
}

// Scores is the full scoring breakdown for one query.
type Scores struct {
	ExecutionTime   float64 `json:"execution_time"`
	ScanEfficiency  float64 `json:"scan_efficiency"`
	IndexQuality    float64 `json:"index_quality"`
	JoinEfficiency  float64 `json:"join_efficiency"`
	Scalability     float64 `json:"scalability"`
	Composite       float64 `json:"composite"`
	Grade           string  `json:"grade"`
	ContextOverride bool    `json:"context_override"`
}

// Engine computes scores under a fixed weight and grade configuration. It is
// stateless after construction and safe for concurrent use.
type Engine struct {
	weights    Weights
	thresholds GradeThresholds
	log        logger.Interface
}

// New builds a scoring engine. Weights that do not sum to 1.0 are kept
// as-is; the skew is logged once here rather than per query.
func New(w Weights, t GradeThresholds, log logger.Interface) *Engine {
	if log == nil {
		log = logger.Nop{}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > 0.001 {
		log.Warn("scoring weights do not sum to 1.0, using as-is", "sum", sum)
	}
	return &Engine{weights: w, thresholds: t, log: log}
}

// Score computes the five components and their weighted composite.
func (e *Engine) Score(m *metrics.Metrics) *Scores {
	s := &Scores{
		ExecutionTime:  scoreExecutionTime(m.ExecutionTimeMs),
		ScanEfficiency: scoreScanEfficiency(m.SelectivityRatio),
		IndexQuality:   scoreIndexQuality(m),
		JoinEfficiency: scoreJoinEfficiency(m),
		Scalability:    scoreScalability(m),
	}

	composite := s.ExecutionTime*e.weights.ExecutionTime +
		s.ScanEfficiency*e.weights.ScanEfficiency +
		s.IndexQuality*e.weights.IndexQuality +
		s.JoinEfficiency*e.weights.JoinEfficiency +
		s.Scalability*e.weights.Scalability
	composite = clamp(composite, 0, 100)

	// A covering-index lookup that terminated early in under 10 ms is as
	// good as it gets regardless of what the components say.
	if composite < 90 && m.HasEarlyTermination && m.HasCoveringIndex &&
		!m.HasFilesort && m.ExecutionTimeMs < 10 {
		if composite < 95 {
			composite = 95
		}
		s.ContextOverride = true
	}

	s.Composite = composite
	s.Grade = e.thresholds.Grade(composite)
	return s
}

func scoreExecutionTime(ms float64) float64 {
	switch {
	case ms < 1:
		return 100
	case ms < 10:
		return lerp(ms, 1, 10, 100, 90)
	case ms < 100:
		return lerp(ms, 10, 100, 90, 70)
	case ms < 1000:
		return lerp(ms, 100, 1000, 70, 30)
	case ms < 10000:
		return lerp(ms, 1000, 10000, 30, 0)
	default:
		return 0
	}
}

func scoreScanEfficiency(ratio float64) float64 {
	switch {
	case ratio <= 1:
		return 100
	case ratio <= 2:
		return 95
	case ratio <= 10:
		return lerp(ratio, 1, 10, 100, 80)
	case ratio <= 100:
		return lerp(ratio, 10, 100, 80, 50)
	case ratio <= 1000:
		return lerp(ratio, 100, 1000, 50, 20)
	case ratio <= 100000:
		return lerp(ratio, 1000, 100000, 20, 0)
	default:
		return 0
	}
}

func scoreIndexQuality(m *metrics.Metrics) float64 {
	score := 100.0
	if m.HasTableScan {
		score -= 40
	}
	if !m.IsIndexBacked {
		score -= 30
	}
	if m.HasIndexMerge {
		score -= 20
	}
	if !m.HasCoveringIndex && !m.HasTableScan {
		score -= 10
	}
	return clamp(score, 0, 100)
}

func scoreJoinEfficiency(m *metrics.Metrics) float64 {
	var score float64
	switch {
	case m.NestedLoopDepth <= 2:
		score = 100
	case m.NestedLoopDepth == 3:
		score = 80
	default:
		score = math.Max(20, 60-5*float64(m.NestedLoopDepth))
	}

	switch {
	case m.FanoutFactor > 10000:
		score -= 30
	case m.FanoutFactor > 1000:
		score -= 20
	case m.FanoutFactor > 100:
		score -= 10
	}
	if m.HasWeedout {
		score -= 15
	}
	if m.HasTempTable {
		score -= 10
	}
	return clamp(score, 0, 100)
}

func scoreScalability(m *metrics.Metrics) float64 {
	var score float64
	switch m.Complexity {
	case metrics.ComplexityConstant, metrics.ComplexityLogarithmic:
		score = 100
	case metrics.ComplexityLogRange:
		score = 80
	case metrics.ComplexityLinear:
		score = 50
	case metrics.ComplexityLinearithmic:
		score = 30
	default:
		score = 10
	}
	if m.HasEarlyTermination {
		score += 20
	}
	return clamp(score, 0, 100)
}

// lerp maps v in [lo,hi] linearly onto [from,to].
func lerp(v, lo, hi, from, to float64) float64 {
	return from + (v-lo)/(hi-lo)*(to-from)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
