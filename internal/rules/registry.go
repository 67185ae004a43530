// Package rules evaluates registered predicates over the metric bag and
// emits findings.
package rules

import (
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
)

// Rule is a pure predicate: the same metrics always produce the same
// finding (or none).
type Rule struct {
	Key      string
	Name     string
	Evaluate func(m *metrics.Metrics) *report.Finding
}

// Registry holds rules in registration order. Evaluation order is the
// registration order, so finding output is deterministic.
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register appends a rule. Re-registering a key replaces the rule in place,
// keeping its original position.
func (r *Registry) Register(rule Rule) {
	if i, ok := r.index[rule.Key]; ok {
		r.rules[i] = rule
		return
	}
	r.index[rule.Key] = len(r.rules)
	r.rules = append(r.rules, rule)
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// EvaluateAll runs every rule against the metrics, honoring an optional
// enabled-keys filter (nil or empty means all).
func (r *Registry) EvaluateAll(m *metrics.Metrics, enabled []string) []report.Finding {
	var allow map[string]bool
	if len(enabled) > 0 {
		allow = make(map[string]bool, len(enabled))
		for _, k := range enabled {
			allow[k] = true
		}
	}

	var findings []report.Finding
	for _, rule := range r.rules {
		if allow != nil && !allow[rule.Key] {
			continue
		}
		if f := rule.Evaluate(m); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}
