package analyzers

import (
	"context"
	"fmt"
	"sync"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
)

// MemoryPressureConfig sets the alert thresholds on aggregate demand, which
// is the per-query estimate multiplied by the assumed concurrent sessions.
type MemoryPressureConfig struct {
	HighThresholdBytes     float64
	ModerateThresholdBytes float64
	ConcurrentSessions     int
}

// DefaultMemoryPressureConfig returns the shipped thresholds.
func DefaultMemoryPressureConfig() MemoryPressureConfig {
	return MemoryPressureConfig{
		HighThresholdBytes:     256 << 20,
		ModerateThresholdBytes: 64 << 20,
		ConcurrentSessions:     50,
	}
}

// Buffer sizing heuristics, matching common server defaults.
const (
	sortBufferBytes = 256 << 10
	joinBufferBytes = 256 << 10
	tempRowBytes    = 128
)

// MemoryPressureAnalyzer estimates the buffer memory one execution demands
// and scales it by concurrency to find queries that look cheap alone but
// exhaust memory under load.
type MemoryPressureAnalyzer struct {
	cfg MemoryPressureConfig
	log logger.Interface

	probeOnce  sync.Once
	sortBuffer float64
	joinBuffer float64
}

// NewMemoryPressureAnalyzer builds the analyzer.
func NewMemoryPressureAnalyzer(cfg MemoryPressureConfig, log logger.Interface) *MemoryPressureAnalyzer {
	if log == nil {
		log = logger.Nop{}
	}
	return &MemoryPressureAnalyzer{
		cfg:        cfg,
		log:        log,
		sortBuffer: sortBufferBytes,
		joinBuffer: joinBufferBytes,
	}
}

// UseServerBuffers replaces the buffer-size heuristics with the server's
// configured sort_buffer_size and join_buffer_size. Probe failures keep the
// defaults; the probe runs at most once per analyzer.
func (a *MemoryPressureAnalyzer) UseServerBuffers(ctx context.Context, vr driver.VariableReader) {
	a.probeOnce.Do(func() {
		if v, err := vr.VariableInt(ctx, "sort_buffer_size"); err == nil && v > 0 {
			a.sortBuffer = float64(v)
		}
		if v, err := vr.VariableInt(ctx, "join_buffer_size"); err == nil && v > 0 {
			a.joinBuffer = float64(v)
		}
	})
}

// Analyze sums temp-table, sort-buffer and join-buffer demand.
func (a *MemoryPressureAnalyzer) Analyze(m *metrics.Metrics) *report.MemoryPressure {
	out := &report.MemoryPressure{Components: map[string]float64{}}

	if m.HasTempTable || m.HasMaterialization {
		rows := m.RowsExamined
		if m.RowsReturned > rows {
			rows = m.RowsReturned
		}
		out.Components["temp_table"] = rows * tempRowBytes
	}
	if m.HasFilesort {
		out.Components["sort_buffer"] = a.sortBuffer
	}
	if m.JoinCount > 0 && !m.IsIndexBacked {
		// Non-indexed joins fall back to block nested loop with a join
		// buffer per level.
		out.Components["join_buffer"] = float64(m.JoinCount) * a.joinBuffer
	}

	for _, v := range out.Components {
		out.EstimatedBytes += v
	}
	sessions := a.cfg.ConcurrentSessions
	if sessions < 1 {
		sessions = 1
	}
	out.AggregateBytes = out.EstimatedBytes * float64(sessions)

	switch {
	case out.AggregateBytes >= a.cfg.HighThresholdBytes:
		out.Level = "high"
	case out.AggregateBytes >= a.cfg.ModerateThresholdBytes:
		out.Level = "moderate"
	default:
		out.Level = "low"
	}

	if out.Level != "low" {
		sev := report.SeverityOptimization
		if out.Level == "high" {
			sev = report.SeverityWarning
		}
		out.Findings = append(out.Findings, report.Finding{
			Severity: sev,
			Category: "memory_pressure",
			Title:    fmt.Sprintf("Memory pressure %s under load", out.Level),
			Description: fmt.Sprintf(
				"One execution demands ≈%.1f MB of buffers; at %d concurrent sessions that is ≈%.0f MB.",
				out.EstimatedBytes/(1<<20), sessions, out.AggregateBytes/(1<<20)),
			Recommendation: "Cut the materialized row set (tighter predicates, fewer columns) or satisfy the sort with an index.",
			Metadata: map[string]any{
				"estimated_bytes": out.EstimatedBytes,
				"aggregate_bytes": out.AggregateBytes,
			},
		})
	}
	return out
}
