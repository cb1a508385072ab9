package tracewriter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jurisagi/core/pkg/types"
)

// Writer writes SolveTrace records to disk as JSON, one file per solve
// plus an optional aggregate summary file.
type Writer struct {
	outputDir string
}

// NewWriter creates a Writer rooted at outputDir, creating the
// directory (and any parents) if it does not already exist.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace output dir: %w", err)
	}
	return &Writer{outputDir: outputDir}, nil
}

// Write serializes trace to its own file named
// "{task_id}_{start_time}.json", with colons in the timestamp replaced
// by hyphens so the name stays filesystem-safe, and returns the path
// written.
func (w *Writer) Write(trace *types.SolveTrace) (string, error) {
	safeStart := strings.ReplaceAll(trace.StartTime, ":", "-")
	filename := fmt.Sprintf("%s_%s.json", trace.TaskID, safeStart)
	path := filepath.Join(w.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating trace file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(trace); err != nil {
		return "", fmt.Errorf("encoding trace: %w", err)
	}
	return path, nil
}

// summaryTaskEntry is one row of a WriteSummary aggregate.
type summaryTaskEntry struct {
	TaskID  string `json:"task_id"`
	Success bool   `json:"success"`
	Program string `json:"program"`
}

// traceSummary is the aggregate document WriteSummary produces across
// a batch of traces, mirroring the teacher's write_summary output.
type traceSummary struct {
	TotalTasks  int                `json:"total_tasks"`
	Successful  int                `json:"successful"`
	Failed      int                `json:"failed"`
	SuccessRate float64            `json:"success_rate"`
	Tasks       []summaryTaskEntry `json:"tasks"`
}

// WriteSummary aggregates traces into a single summary file (default
// name "summary.json" if filename is empty) and returns the path
// written.
func (w *Writer) WriteSummary(traces []*types.SolveTrace, filename string) (string, error) {
	if filename == "" {
		filename = "summary.json"
	}

	summary := traceSummary{
		TotalTasks: len(traces),
		Tasks:      make([]summaryTaskEntry, len(traces)),
	}
	for i, t := range traces {
		if t.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		summary.Tasks[i] = summaryTaskEntry{
			TaskID:  t.TaskID,
			Success: t.Success,
			Program: t.FinalProgram,
		}
	}
	if len(traces) > 0 {
		summary.SuccessRate = float64(summary.Successful) / float64(len(traces))
	}

	path := filepath.Join(w.outputDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating summary file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}
	return path, nil
}
