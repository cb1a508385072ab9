package memory

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/pkg/types"
)

// SolutionMemory is one stored solved-or-attempted program.
type SolutionMemory struct {
	TaskID          string
	Program         dsl.Node
	ProgramSource   string
	TaskFeatures    map[string]interface{}
	Success         bool
	RobustnessScore float64
	UsageCount      int
	Timestamp       string
}

// RetrievalResult pairs a stored memory with how well it matched a query.
type RetrievalResult struct {
	Memory         SolutionMemory
	Similarity     float64
	RelevanceScore float64
}

// Store is the persistence interface solvers retrieve past solutions
// through; InMemoryStore is the only implementation shipped here, but
// callers can supply their own (e.g. disk-backed) implementation.
type Store interface {
	Store(memory SolutionMemory)
	Retrieve(task types.ARCTask, topK int) []RetrievalResult
	Clear()
}

// InMemoryStore keeps every memory in a map keyed by a content hash and
// retrieves by feature-overlap similarity. Safe for concurrent use: a
// RWMutex guards the map, and a singleflight.Group collapses concurrent
// Retrieve calls for the same task ID into one scan.
type InMemoryStore struct {
	mu        sync.RWMutex
	memories  map[string]SolutionMemory
	retrieves singleflight.Group
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{memories: make(map[string]SolutionMemory)}
}

// Store records memory, keyed by a hash of its task ID and program
// source so re-storing the same solution for the same task overwrites
// rather than duplicates.
func (s *InMemoryStore) Store(memory SolutionMemory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories[storeKey(memory)] = memory
}

func storeKey(m SolutionMemory) string {
	sum := md5.Sum([]byte(m.TaskID + ":" + m.ProgramSource))
	return hex.EncodeToString(sum[:])
}

// Retrieve returns up to topK memories ranked by relevance: feature
// similarity to task, scaled down by half for memories that didn't
// actually succeed.
func (s *InMemoryStore) Retrieve(task types.ARCTask, topK int) []RetrievalResult {
	key := task.TaskID
	if key == "" {
		key = fmt.Sprintf("%v", ExtractTaskFeatures(task))
	}
	v, _, _ := s.retrieves.Do(key, func() (interface{}, error) {
		return s.retrieveLocked(task), nil
	})
	results := v.([]RetrievalResult)
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (s *InMemoryStore) retrieveLocked(task types.ARCTask) []RetrievalResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.memories) == 0 {
		return nil
	}

	queryFeatures := ExtractTaskFeatures(task)
	var results []RetrievalResult
	for _, m := range s.memories {
		similarity := computeSimilarity(queryFeatures, m.TaskFeatures)
		relevance := similarity
		if !m.Success {
			relevance *= 0.5
		}
		results = append(results, RetrievalResult{Memory: m, Similarity: similarity, RelevanceScore: relevance})
	}

	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			if results[j].RelevanceScore > results[i].RelevanceScore {
				results[i], results[j] = results[j], results[i]
			}
		}
	}
	return results
}

// Clear empties the store.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories = make(map[string]SolutionMemory)
}

// ExtractTaskFeatures is the single canonical feature-extraction
// function used by both the store path (building a SolutionMemory) and
// the retrieve path (building the query vector). The reference
// implementation used two different feature sets for these — a rich
// per-pair feature map in the retrieval store, and a single-pair subset
// when constructing a memory for storage — which meant every query
// after the first pair undercounted overlap against what was actually
// persisted. Both callers here go through this one function instead.
func ExtractTaskFeatures(task types.ARCTask) map[string]interface{} {
	features := make(map[string]interface{})
	if len(task.Train) == 0 {
		return features
	}

	for i, pair := range task.Train {
		features[featureKey(i, "input_shape")] = pair.Input.Shape()
		features[featureKey(i, "output_shape")] = pair.Output.Shape()
		features[featureKey(i, "same_dims")] = pair.Input.Shape() == pair.Output.Shape()
		features[featureKey(i, "input_palette_size")] = len(pair.Input.Palette())
		features[featureKey(i, "output_palette_size")] = len(pair.Output.Palette())
	}

	features["num_train_pairs"] = len(task.Train)
	features["num_test_pairs"] = len(task.Test)

	allSameDims := true
	first := task.Train[0]
	for _, p := range task.Train {
		if p.Input.Shape() != first.Input.Shape() || p.Output.Shape() != first.Output.Shape() {
			allSameDims = false
			break
		}
	}
	features["consistent_dimensions"] = allSameDims

	return features
}

func featureKey(pairIndex int, suffix string) string {
	return "pair_" + itoa(pairIndex) + "_" + suffix
}

// computeSimilarity is the fraction of features shared between two
// feature maps whose values actually match.
func computeSimilarity(query, memory map[string]interface{}) float64 {
	if len(query) == 0 || len(memory) == 0 {
		return 0.0
	}

	common := 0
	matches := 0
	for k, qv := range query {
		mv, ok := memory[k]
		if !ok {
			continue
		}
		common++
		if qv == mv {
			matches++
		}
	}
	if common == 0 {
		return 0.0
	}
	return float64(matches) / float64(common)
}

// CreateMemoryFromSolution builds a SolutionMemory for a solved (or
// attempted) task, using the same feature extraction Retrieve queries
// with.
func CreateMemoryFromSolution(task types.ARCTask, program dsl.Node, success bool, robustnessScore float64) SolutionMemory {
	return SolutionMemory{
		TaskID:          task.TaskID,
		Program:         program,
		ProgramSource:   dsl.ToSource(program),
		TaskFeatures:    ExtractTaskFeatures(task),
		Success:         success,
		RobustnessScore: robustnessScore,
	}
}
