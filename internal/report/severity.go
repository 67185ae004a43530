package report

// Severity classifies how urgent a finding is.
type Severity string

const (
	SeverityInfo         Severity = "info"
	SeverityOptimization Severity = "optimization"
	SeverityWarning      Severity = "warning"
	SeverityCritical     Severity = "critical"
)

// Weight returns the numeric weight used for score aggregation.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 25
	case SeverityWarning:
		return 10
	case SeverityOptimization:
		return 5
	default:
		return 1
	}
}

// Priority returns the display rank: Critical=1 ... Info=4.
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 1
	case SeverityWarning:
		return 2
	case SeverityOptimization:
		return 3
	default:
		return 4
	}
}

// Color returns the console color tag for this severity.
func (s Severity) Color() string {
	switch s {
	case SeverityCritical:
		return "red"
	case SeverityWarning:
		return "yellow"
	case SeverityOptimization:
		return "cyan"
	default:
		return "gray"
	}
}

// Icon returns the glyph rendered next to findings of this severity.
func (s Severity) Icon() string {
	switch s {
	case SeverityCritical:
		return "✗"
	case SeverityWarning:
		return "⚠"
	case SeverityOptimization:
		return "▲"
	default:
		return "ℹ"
	}
}

// Worse reports whether s is more severe than other.
func (s Severity) Worse(other Severity) bool {
	return s.Priority() < other.Priority()
}

// WorstSeverity returns the most severe severity among the findings,
// or empty when there are none. The reduction is order-independent.
func WorstSeverity(findings []Finding) Severity {
	var worst Severity
	for _, f := range findings {
		if worst == "" || f.Severity.Worse(worst) {
			worst = f.Severity
		}
	}
	return worst
}
