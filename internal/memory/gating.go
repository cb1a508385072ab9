package memory

// GatingMode decides how heavily a solver leans on memory versus fresh
// synthesis for a given task.
type GatingMode int

const (
	FreshSynthesis GatingMode = iota
	UseMemory
	AdaptMemory
	Hybrid
)

func (m GatingMode) String() string {
	switch m {
	case UseMemory:
		return "USE_MEMORY"
	case AdaptMemory:
		return "ADAPT_MEMORY"
	case Hybrid:
		return "HYBRID"
	default:
		return "FRESH_SYNTHESIS"
	}
}

// GatingDecision is the gate's recommendation for one task.
type GatingDecision struct {
	Mode                GatingMode
	Confidence          float64
	RetrievedSolutions  []RetrievalResult
	SuggestedPrimitives []string
	Rationale           string
}

// Gate decides between reusing memory directly, adapting it, blending
// it with fresh synthesis, or ignoring it entirely.
type Gate struct {
	MemoryThreshold float64
	AdaptThreshold  float64
}

// NewGate creates a Gate with the given similarity thresholds.
func NewGate(memoryThreshold, adaptThreshold float64) *Gate {
	return &Gate{MemoryThreshold: memoryThreshold, AdaptThreshold: adaptThreshold}
}

// DefaultGate mirrors the reference thresholds (0.8 direct-reuse, 0.5
// adapt).
func DefaultGate() *Gate {
	return NewGate(0.8, 0.5)
}

// Decide picks a GatingMode for a task given its retrieved candidates.
func (g *Gate) Decide(retrieved []RetrievalResult) GatingDecision {
	if len(retrieved) == 0 {
		return GatingDecision{
			Mode:       FreshSynthesis,
			Confidence: 0.5,
			Rationale:  "no similar solutions found in memory",
		}
	}

	best := retrieved[0]

	if best.Similarity >= g.MemoryThreshold && best.Memory.Success {
		return GatingDecision{
			Mode:                UseMemory,
			Confidence:           best.Similarity,
			RetrievedSolutions:   []RetrievalResult{best},
			SuggestedPrimitives:  extractPrimitives(best),
			Rationale:            "high similarity to a successful solution",
		}
	}

	if best.Similarity >= g.AdaptThreshold {
		top3 := topN(retrieved, 3)
		return GatingDecision{
			Mode:                AdaptMemory,
			Confidence:           best.Similarity * 0.8,
			RetrievedSolutions:   top3,
			SuggestedPrimitives:  extractPrimitivesFromMultiple(top3),
			Rationale:            "moderate similarity, recommend adaptation",
		}
	}

	for _, r := range retrieved {
		if r.Memory.Success {
			top3 := topN(retrieved, 3)
			return GatingDecision{
				Mode:                Hybrid,
				Confidence:           0.4,
				RetrievedSolutions:   top3,
				SuggestedPrimitives:  extractPrimitivesFromMultiple(top3),
				Rationale:            "low similarity but some successful solutions found",
			}
		}
	}

	return GatingDecision{
		Mode:               FreshSynthesis,
		Confidence:         0.5,
		RetrievedSolutions: retrieved,
		Rationale:          "no sufficiently similar successful solutions",
	}
}

func topN(results []RetrievalResult, n int) []RetrievalResult {
	if len(results) > n {
		return results[:n]
	}
	return results
}

var knownPrimitiveNames = []string{
	"identity", "crop_to_content", "rotate90", "reflect_h", "reflect_v",
	"transpose", "scale", "tile_h", "tile_v", "recolor_map",
}

// extractPrimitives does a crude substring scan of a program's source
// for known primitive names, good enough to seed a synthesis beam with
// primitives worth trying first.
func extractPrimitives(r RetrievalResult) []string {
	var out []string
	for _, name := range knownPrimitiveNames {
		if indexOf(r.Memory.ProgramSource, name) >= 0 {
			out = append(out, name)
		}
	}
	return out
}

func extractPrimitivesFromMultiple(results []RetrievalResult) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		for _, name := range extractPrimitives(r) {
			if counts[name] == 0 {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if counts[order[j]] > counts[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}
	if len(order) > 5 {
		order = order[:5]
	}
	return order
}
