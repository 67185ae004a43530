package report

// Finding is a single diagnostic produced by a rule or analyzer.
// Findings are immutable once produced.
type Finding struct {
	Severity       Severity       `json:"severity"`
	Category       string         `json:"category"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Recommendation string         `json:"recommendation,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Key identifies a finding for duplicate detection: two findings with the
// same category, title and recommendation are considered duplicates.
func (f Finding) Key() string {
	return f.Category + "|" + f.Title + "|" + f.Recommendation
}

// CountBySeverity tallies findings per severity level.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
