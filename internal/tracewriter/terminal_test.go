package tracewriter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jurisagi/core/pkg/types"
)

func TestRenderAuditIncludesTaskIDAndStatus(t *testing.T) {
	var buf bytes.Buffer
	RenderAudit(&buf, types.AuditTrace{TaskID: "task1", Success: true, Certified: true, Regime: "ARC_DISCRETE", DurationSec: 1.5})
	out := buf.String()
	if !strings.Contains(out, "task1") || !strings.Contains(out, "solved") {
		t.Errorf("RenderAudit output = %q, want it to mention task1 and solved", out)
	}
}

func TestRenderAuditFailedCase(t *testing.T) {
	var buf bytes.Buffer
	RenderAudit(&buf, types.AuditTrace{TaskID: "task2", Success: false, Regime: "UNCERTAIN"})
	out := buf.String()
	if !strings.Contains(out, "failed") {
		t.Errorf("RenderAudit output = %q, want it to mention failed", out)
	}
}

func TestRenderTraceIncludesHeaderAndRegime(t *testing.T) {
	trace := types.NewSolveTrace("task3", "2026-01-01T00:00:00")
	trace.SetRegime("2026-01-01T00:00:01", "ARC_DISCRETE", 0.9, "test")
	trace.Finalize("2026-01-01T00:00:02", true, "identity")

	var buf bytes.Buffer
	RenderTrace(&buf, trace, false)
	out := buf.String()
	if !strings.Contains(out, "task3") {
		t.Errorf("expected trace output to include task id, got %q", out)
	}
	if !strings.Contains(out, "ARC_DISCRETE") {
		t.Errorf("expected trace output to include regime, got %q", out)
	}
	if !strings.Contains(out, "identity") {
		t.Errorf("expected trace output to include final program, got %q", out)
	}
}

func TestRenderTraceVerboseIncludesEntries(t *testing.T) {
	trace := types.NewSolveTrace("task4", "2026-01-01T00:00:00")
	trace.Log("2026-01-01T00:00:01", "synthesis_started", "synth", map[string]interface{}{"depth": 3})

	var buf bytes.Buffer
	RenderTrace(&buf, trace, true)
	out := buf.String()
	if !strings.Contains(out, "synthesis_started") {
		t.Errorf("expected verbose output to include logged entries, got %q", out)
	}
}

func TestRenderTraceNonVerboseOmitsEntries(t *testing.T) {
	trace := types.NewSolveTrace("task5", "2026-01-01T00:00:00")
	trace.Log("2026-01-01T00:00:01", "synthesis_started", "synth", map[string]interface{}{"depth": 3})

	var buf bytes.Buffer
	RenderTrace(&buf, trace, false)
	out := buf.String()
	if strings.Contains(out, "synthesis_started") {
		t.Errorf("expected non-verbose output to omit entries, got %q", out)
	}
}

func TestRenderTraceIncludesBudgetAndUncertainty(t *testing.T) {
	trace := types.NewSolveTrace("task6", "2026-01-01T00:00:00")
	trace.LogBudget("2026-01-01T00:00:01", map[string]types.PhaseBudgetSnapshot{
		"synthesis": {Phase: "synthesis", TimeLimit: 30, TimeUsed: 10, IterationLimit: 5000, IterationsUsed: 1000},
	})
	trace.LogUncertainty("2026-01-01T00:00:02", "synthesis", 0.2, 0.1, 0.15, 4, 0.02)

	var buf bytes.Buffer
	RenderTrace(&buf, trace, false)
	out := buf.String()
	if !strings.Contains(out, "Phase budgets:") {
		t.Errorf("expected budget section, got %q", out)
	}
	if !strings.Contains(out, "Uncertainty:") {
		t.Errorf("expected uncertainty section, got %q", out)
	}
}

func TestColorForFractionThresholds(t *testing.T) {
	var buf bytes.Buffer
	if colorForFraction(&buf, 5, 0) == nil {
		t.Error("expected a non-nil color even with a zero limit")
	}
}

func TestIsTerminalWriterFalseForBuffer(t *testing.T) {
	var buf bytes.Buffer
	if isTerminalWriter(&buf) {
		t.Error("expected a bytes.Buffer to never be treated as a terminal")
	}
}
