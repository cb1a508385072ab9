package memory

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// exportedMemory is the on-disk shape of a SolutionMemory. Program is
// deliberately omitted: the DSL has no text-to-AST parser (programs are
// built by search, never parsed from source), so only the rendered
// ProgramSource round-trips. ImportJSON restores everything except the
// live *dsl.Node — callers that need a runnable program re-synthesize
// or re-derive it rather than deserializing one.
type exportedMemory struct {
	TaskID          string                 `json:"task_id"`
	ProgramSource   string                 `json:"program_source"`
	TaskFeatures    map[string]interface{} `json:"task_features"`
	Success         bool                   `json:"success"`
	RobustnessScore float64                `json:"robustness_score"`
	UsageCount      int                    `json:"usage_count"`
	Timestamp       string                 `json:"timestamp"`
}

// ExportJSON renders every stored memory as a pretty-printed JSON
// array, suitable for writing to disk between solver runs.
func (s *InMemoryStore) ExportJSON() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exported := make([]exportedMemory, 0, len(s.memories))
	for _, m := range s.memories {
		exported = append(exported, exportedMemory{
			TaskID:          m.TaskID,
			ProgramSource:   m.ProgramSource,
			TaskFeatures:    m.TaskFeatures,
			Success:         m.Success,
			RobustnessScore: m.RobustnessScore,
			UsageCount:      m.UsageCount,
			Timestamp:       m.Timestamp,
		})
	}

	raw, err := json.Marshal(exported)
	if err != nil {
		return "", fmt.Errorf("marshaling memory store: %w", err)
	}
	return string(pretty.Pretty(raw)), nil
}

// ImportJSON loads memories from data (as produced by ExportJSON),
// adding each as a store entry. It uses gjson to walk the array rather
// than a full json.Unmarshal so a store file with extra, unrecognized
// top-level fields (e.g. written by a newer build) does not fail to
// load.
func (s *InMemoryStore) ImportJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid memory store JSON")
	}

	var loadErr error
	gjson.ParseBytes(data).ForEach(func(_, entry gjson.Result) bool {
		m := SolutionMemory{
			TaskID:          entry.Get("task_id").String(),
			ProgramSource:   entry.Get("program_source").String(),
			Success:         entry.Get("success").Bool(),
			RobustnessScore: entry.Get("robustness_score").Float(),
			UsageCount:      int(entry.Get("usage_count").Int()),
			Timestamp:       entry.Get("timestamp").String(),
		}
		if features := entry.Get("task_features"); features.Exists() {
			featureMap := make(map[string]interface{})
			if err := json.Unmarshal([]byte(features.Raw), &featureMap); err != nil {
				loadErr = fmt.Errorf("parsing task_features for %s: %w", m.TaskID, err)
				return false
			}
			m.TaskFeatures = featureMap
		}
		s.Store(m)
		return true
	})
	return loadErr
}

// PatchUsageCount bumps the usage_count field of a single already
// serialized memory entry without re-marshaling the whole record, for
// callers that keep a store snapshot on disk and only touch one
// counter per retrieval.
func PatchUsageCount(entryJSON string, count int) (string, error) {
	return sjson.Set(entryJSON, "usage_count", count)
}
