// Package tracewriter renders a SolveTrace or AuditTrace to a terminal
// (colorized, threshold-based) or to disk as JSON. It is purely a
// reporting layer: nothing here feeds back into synthesis, scoring, or
// certification. Colors are disabled outright when w is not a terminal
// (e.g. redirected to a file or pipe), the same isatty check the
// teacher's progress indicators use before animating output.
package tracewriter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/jurisagi/core/pkg/types"
)

// isTerminalWriter reports whether w is a terminal file descriptor,
// mirroring internal/agent/progress.go's
// isatty.IsTerminal(...)||isatty.IsCygwinTerminal(...) check. Any
// io.Writer that isn't an *os.File (a bytes.Buffer in a test, a plain
// file on disk) is treated as non-terminal.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newColor builds a *color.Color bound to w's terminal-ness: colors
// render normally on a TTY and are disabled outright otherwise, so a
// redirected trace file never ends up full of escape codes.
func newColor(w io.Writer, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if !isTerminalWriter(w) {
		c.DisableColor()
	}
	return c
}

// Regime color thresholds. ARC_DISCRETE is the confident regime, so it
// renders green; UNCERTAIN renders yellow; anything else (a future
// regime name, or an empty string before classification) renders plain.
const (
	regimeConfident = "ARC_DISCRETE"
	regimeUncertain = "UNCERTAIN"
)

// uncertaintyYellowMax repeats the cut point the controller uses to pick
// a regime (internal/controller's regimeFromUncertainty cuts at 0.6);
// uncertaintyGreenMax is a display-only band below it. Both serve
// display only; the renderer does not re-derive the regime.
const (
	uncertaintyGreenMax  = 0.3
	uncertaintyYellowMax = 0.6
)

// RenderAudit prints a one-line colorized summary of audit to w,
// followed by a newline. Green means solved and certified, yellow
// means solved but not certified, red means failed.
func RenderAudit(w io.Writer, audit types.AuditTrace) {
	c := auditColor(w, audit)
	c.Fprintln(w, audit.String())
}

func auditColor(w io.Writer, audit types.AuditTrace) *color.Color {
	if !audit.Success {
		return newColor(w, color.FgRed)
	}
	if audit.Certified {
		return newColor(w, color.FgGreen)
	}
	return newColor(w, color.FgYellow)
}

// RenderTrace prints a full SolveTrace to w: header, regime, budget and
// uncertainty snapshots, and (when verbose) every logged entry in
// order. Mirrors the header/separator/section layout of the teacher's
// RenderSummary.
func RenderTrace(w io.Writer, trace *types.SolveTrace, verbose bool) {
	bold := newColor(w, color.Bold)
	green := newColor(w, color.FgGreen)
	yellow := newColor(w, color.FgYellow)
	red := newColor(w, color.FgRed)

	bold.Fprintf(w, "Trace: %s\n", trace.TaskID)
	fmt.Fprintln(w, "────────────────────────────────────────")

	fmt.Fprintf(w, "Started:  %s\n", trace.StartTime)
	if trace.EndTime != "" {
		fmt.Fprintf(w, "Finished: %s\n", trace.EndTime)
	}

	switch trace.Regime {
	case regimeConfident:
		green.Fprintf(w, "Regime:   %s\n", trace.Regime)
	case regimeUncertain:
		yellow.Fprintf(w, "Regime:   %s\n", trace.Regime)
	default:
		fmt.Fprintf(w, "Regime:   %s\n", trace.Regime)
	}

	if trace.Success {
		green.Fprintf(w, "Result:   solved\n")
	} else {
		red.Fprintf(w, "Result:   failed\n")
	}
	if trace.FinalProgram != "" {
		fmt.Fprintf(w, "Program:  %s\n", trace.FinalProgram)
	}

	if len(trace.BudgetPerPhase) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Phase budgets:")
		for phase, snap := range trace.BudgetPerPhase {
			renderBudgetLine(w, phase, snap)
		}
	}

	if len(trace.UncertaintyTrail) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Uncertainty:")
		for _, snap := range trace.UncertaintyTrail {
			renderUncertaintyLine(w, snap)
		}
	}

	if verbose && len(trace.Entries) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Entries:")
		for _, e := range trace.Entries {
			fmt.Fprintf(w, "  [%s] %s/%s %v\n", e.Timestamp, e.Component, e.EventType, e.Details)
		}
	}
}

func renderBudgetLine(w io.Writer, phase string, snap types.PhaseBudgetSnapshot) {
	timeColor := colorForFraction(w, snap.TimeUsed, snap.TimeLimit)
	iterColor := colorForFraction(w, float64(snap.IterationsUsed), float64(snap.IterationLimit))
	fmt.Fprintf(w, "  %-12s time ", phase)
	timeColor.Fprintf(w, "%.1fs/%.1fs", snap.TimeUsed, snap.TimeLimit)
	fmt.Fprintf(w, "  iters ")
	iterColor.Fprintf(w, "%d/%d\n", snap.IterationsUsed, snap.IterationLimit)
}

// colorForFraction colors used/limit green below 0.7, yellow below 1.0,
// red at or past the limit. A zero limit (budget not yet set) renders plain.
func colorForFraction(w io.Writer, used, limit float64) *color.Color {
	if limit <= 0 {
		return newColor(w, color.Reset)
	}
	frac := used / limit
	if frac < 0.7 {
		return newColor(w, color.FgGreen)
	}
	if frac < 1.0 {
		return newColor(w, color.FgYellow)
	}
	return newColor(w, color.FgRed)
}

func renderUncertaintyLine(w io.Writer, snap types.UncertaintySnapshot) {
	c := colorForFloat(w, snap.Total, uncertaintyGreenMax, uncertaintyYellowMax)
	fmt.Fprintf(w, "  %-12s ", snap.Phase)
	c.Fprintf(w, "total=%.2f", snap.Total)
	fmt.Fprintf(w, " (epistemic=%.2f aleatoric=%.2f, %d candidates, var=%.3f)\n",
		snap.Epistemic, snap.Aleatoric, snap.NumCandidates, snap.ScoreVariance)
}

// colorForFloat returns green at or below greenMax, yellow at or below
// yellowMax, red above.
func colorForFloat(w io.Writer, val, greenMax, yellowMax float64) *color.Color {
	if val <= greenMax {
		return newColor(w, color.FgGreen)
	}
	if val <= yellowMax {
		return newColor(w, color.FgYellow)
	}
	return newColor(w, color.FgRed)
}
