package memory

import (
	"strings"
	"testing"

	"github.com/jurisagi/core/pkg/types"
)

func TestExportJSONRoundTripsMetadata(t *testing.T) {
	store := NewInMemoryStore()
	store.Store(SolutionMemory{
		TaskID:        "task1",
		ProgramSource: "rotate90(1)",
		TaskFeatures:  map[string]interface{}{"num_train_pairs": float64(2)},
		Success:       true,
	})

	raw, err := store.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if !strings.Contains(raw, "task1") || !strings.Contains(raw, "rotate90(1)") {
		t.Errorf("exported JSON = %q, want it to mention task1 and the program source", raw)
	}

	restored := NewInMemoryStore()
	if err := restored.ImportJSON([]byte(raw)); err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	results := restored.Retrieve(types.ARCTask{TaskID: "task1"}, 5)
	if len(results) == 0 {
		t.Fatal("expected at least one restored memory")
	}
	if results[0].Memory.ProgramSource != "rotate90(1)" {
		t.Errorf("restored ProgramSource = %q, want rotate90(1)", results[0].Memory.ProgramSource)
	}
}

func TestImportJSONRejectsInvalidPayload(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.ImportJSON([]byte("not json")); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestPatchUsageCountUpdatesFieldOnly(t *testing.T) {
	original := `{"task_id":"task1","usage_count":0}`
	patched, err := PatchUsageCount(original, 3)
	if err != nil {
		t.Fatalf("PatchUsageCount: %v", err)
	}
	if !strings.Contains(patched, `"usage_count":3`) {
		t.Errorf("patched = %q, want usage_count updated to 3", patched)
	}
	if !strings.Contains(patched, `"task_id":"task1"`) {
		t.Errorf("patched = %q, want task_id preserved", patched)
	}
}

func TestContextMatchesGlobPattern(t *testing.T) {
	if !contextMatches([]string{"rotation_*"}, "rotation_simple") {
		t.Error("expected rotation_* to match rotation_simple")
	}
	if contextMatches([]string{"rotation_*"}, "recolor_simple") {
		t.Error("did not expect rotation_* to match recolor_simple")
	}
}

func TestContextMatchesLiteralEquality(t *testing.T) {
	if !contextMatches([]string{"task-a"}, "task-a") {
		t.Error("expected a literal context to match itself exactly")
	}
}
