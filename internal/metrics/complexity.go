package metrics

import "math"

// ComplexityClass is the asymptotic cost class assigned to a plan.
type ComplexityClass string

const (
	ComplexityConstant     ComplexityClass = "constant"
	ComplexityLogarithmic  ComplexityClass = "logarithmic"
	ComplexityLogRange     ComplexityClass = "log_range"
	ComplexityLinear       ComplexityClass = "linear"
	ComplexityLinearithmic ComplexityClass = "linearithmic"
	ComplexityQuadratic    ComplexityClass = "quadratic"
)

// RiskLevel buckets a complexity class for reporting.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (c ComplexityClass) Label() string {
	switch c {
	case ComplexityConstant:
		return "O(1) - Constant"
	case ComplexityLogarithmic:
		return "O(log n) - Logarithmic"
	case ComplexityLogRange:
		return "O(log n + k) - Range"
	case ComplexityLinear:
		return "O(n) - Linear"
	case ComplexityLinearithmic:
		return "O(n log n) - Linearithmic"
	case ComplexityQuadratic:
		return "O(n²) - Quadratic"
	default:
		return string(c)
	}
}

func (c ComplexityClass) Risk() RiskLevel {
	switch c {
	case ComplexityConstant, ComplexityLogarithmic, ComplexityLogRange:
		return RiskLow
	case ComplexityLinear, ComplexityLinearithmic:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Ordinal orders classes from cheapest to most expensive.
func (c ComplexityClass) Ordinal() int {
	switch c {
	case ComplexityConstant:
		return 0
	case ComplexityLogarithmic:
		return 1
	case ComplexityLogRange:
		return 2
	case ComplexityLinear:
		return 3
	case ComplexityLinearithmic:
		return 4
	case ComplexityQuadratic:
		return 5
	default:
		return 3
	}
}

// ScalabilityFactor returns the relative cost multiplier when the data set
// grows by factor n. The scalability estimator uses it for projections.
func (c ComplexityClass) ScalabilityFactor(n float64) float64 {
	if n <= 1 {
		return 1
	}
	switch c {
	case ComplexityConstant:
		return 1
	case ComplexityLogarithmic, ComplexityLogRange:
		return math.Log2(n)
	case ComplexityLinear:
		return n
	case ComplexityLinearithmic:
		return n * math.Log2(n)
	default:
		return n * n
	}
}

// atLeast lifts c to floor when c orders below it.
func (c ComplexityClass) atLeast(floor ComplexityClass) ComplexityClass {
	if c.Ordinal() < floor.Ordinal() {
		return floor
	}
	return c
}
