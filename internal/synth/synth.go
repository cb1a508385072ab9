// Package synth implements beam-search program synthesis: it builds a
// seed pool of candidate programs, scores and prunes them against a
// task's training pairs, and expands the surviving beam one primitive at
// a time until an exactly-matching program is found or the search
// budget is exhausted.
package synth

import (
	"fmt"
	"sort"

	"github.com/jurisagi/core/internal/critic"
	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/internal/dsl/primitives"
	"github.com/jurisagi/core/internal/interpreter"
	"github.com/jurisagi/core/internal/refine"
	"github.com/jurisagi/core/pkg/types"
)

// Config controls the shape of the search.
type Config struct {
	MaxDepth              int
	BeamWidth             int
	MaxIterations         int
	UseDimensionPruning   bool
	UsePalettePruning     bool
	UseObjectCountPruning bool
	MinPixelAccuracy      float64
	EnableRefinement      bool
	NearMissThreshold     float64
	TopKNearMiss          int
	MaxRefinementIters    int
}

// DefaultConfig mirrors the reference synthesizer's defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:              4,
		BeamWidth:             50,
		MaxIterations:         1000,
		UseDimensionPruning:   true,
		UsePalettePruning:     true,
		UseObjectCountPruning: false,
		MinPixelAccuracy:      0.0,
		EnableRefinement:      true,
		NearMissThreshold:     30.0,
		TopKNearMiss:          5,
		MaxRefinementIters:    20,
	}
}

// Result is what the synthesizer found, and how hard it had to work.
type Result struct {
	Success            bool
	Program            dsl.Node
	ProgramSource      string
	Score              float64
	Iterations         int
	NodesExplored      int
	CandidatesPruned   int
	Err                string
	NearMisses         []ScoredCandidate
	RefinementApplied  bool
	RefinementImproved bool
	RefinementEdits    int
}

// ScoredCandidate pairs a program with its score, used for the near-miss
// list that seeds refinement when the beam exhausts itself.
type ScoredCandidate struct {
	AST   dsl.Node
	Score float64
}

// candidate is one member of the search beam.
type candidate struct {
	ast         dsl.Node
	score       float64
	depth       int
	pairResults []critic.PairResult
	allExact    bool
}

// gridPrimitiveNames is the fixed subset of the registry the synthesizer
// composes over — the same "useful primitives for Grid -> Grid search"
// list as the reference's _select_grid_primitives, restricted to names
// that are actually registered (extract_object, a SPEC_FULL.md
// supplement, is deliberately excluded from the seed/expansion set since
// it's rarely useful as a blind compositional step; no refinement edit
// introduces it either).
var gridPrimitiveNames = []string{
	"identity",
	"crop_to_content",
	"rotate90",
	"reflect_h",
	"reflect_v",
	"transpose",
	"scale",
	"tile_h",
	"tile_v",
	"tile_repeat",
	"fill_background",
	"invert_mask",
}

// Synthesizer runs beam search over DSL programs for one task at a time.
type Synthesizer struct {
	config           Config
	refinementEngine *refine.Engine
	criticEngine     *critic.Critic
	gridPrimitives   []string
	seedProvider     func(types.ARCTask) []dsl.Node
	priorityBonus    func(dsl.Node) float64
}

// New creates a Synthesizer.
func New(cfg Config) *Synthesizer {
	var available []string
	for _, name := range gridPrimitiveNames {
		if _, ok := primitives.Get(name); ok {
			available = append(available, name)
		}
	}
	return &Synthesizer{
		config:           cfg,
		refinementEngine: refine.New(cfg.MaxRefinementIters),
		criticEngine:     critic.New(true),
		gridPrimitives:   available,
	}
}

// SetSeedProvider wires an external source of extra initial candidates
// (e.g. a neural sketcher backend's suggestions) into the beam's seed
// pool. These candidates are scored and pruned exactly like the built-in
// seeds — a sketcher proposal never bypasses evaluation, it only adds to
// the pool evaluation runs over.
func (s *Synthesizer) SetSeedProvider(provider func(types.ARCTask) []dsl.Node) {
	s.seedProvider = provider
}

// SetPriorityBonus wires a score adjustment (e.g. derived from the
// meta-controller's world-model priors) into candidate evaluation. It
// is added to a candidate's score before the beam is sorted and cut to
// BeamWidth, so it can only shift which near-miss candidates survive —
// it never applies to an already-exact match, so it cannot turn a
// correct program into an incorrect one or vice versa.
func (s *Synthesizer) SetPriorityBonus(bonus func(dsl.Node) float64) {
	s.priorityBonus = bonus
}

// SetEnableRefinement toggles the post-beam refinement pass on or off
// after construction, for callers that decide per-solve (rather than
// per-process) whether refinement should run.
func (s *Synthesizer) SetEnableRefinement(enabled bool) {
	s.config.EnableRefinement = enabled
}

// Synthesize runs beam search over task's training pairs.
func (s *Synthesizer) Synthesize(task types.ARCTask) Result {
	beam := s.initialBeam(task)

	iterations := 0
	nodesExplored := len(beam)
	candidatesPruned := 0

	for _, c := range beam {
		if c.allExact {
			return s.success(c, iterations, nodesExplored, candidatesPruned)
		}
	}

	for iterations < s.config.MaxIterations && len(beam) > 0 {
		iterations++
		var fresh []candidate

		for _, c := range beam {
			if c.depth >= s.config.MaxDepth {
				continue
			}

			for _, expanded := range s.expand(c.ast) {
				nodesExplored++

				if s.shouldPrune(expanded, task) {
					candidatesPruned++
					continue
				}

				next := s.evaluateCandidate(expanded, task)
				if next.allExact {
					return s.success(next, iterations, nodesExplored, candidatesPruned)
				}
				if next.score > s.config.MinPixelAccuracy {
					fresh = append(fresh, next)
				}
			}
		}

		all := append(beam, fresh...)
		sort.Slice(all, func(i, j int) bool { return lessCandidate(all[i], all[j]) })
		if len(all) > s.config.BeamWidth {
			all = all[:s.config.BeamWidth]
		}
		beam = all

		if len(fresh) == 0 {
			break
		}
	}

	nearMisses := s.nearMisses(beam)
	if s.config.EnableRefinement && len(nearMisses) > 0 {
		if refined, ok := s.tryRefinement(task, nearMisses, iterations, nodesExplored, candidatesPruned); ok {
			return refined
		}
	}

	if len(beam) > 0 {
		best := beam[0]
		return Result{
			Success:          false,
			Program:          best.ast,
			ProgramSource:    dsl.ToSource(best.ast),
			Score:            best.score,
			Iterations:       iterations,
			NodesExplored:    nodesExplored,
			CandidatesPruned: candidatesPruned,
			Err:              "no exact solution found",
			NearMisses:       nearMisses,
		}
	}

	return Result{
		Success:          false,
		Iterations:       iterations,
		NodesExplored:    nodesExplored,
		CandidatesPruned: candidatesPruned,
		Err:              "search exhausted without finding solution",
	}
}

func (s *Synthesizer) success(c candidate, iterations, nodesExplored, candidatesPruned int) Result {
	return Result{
		Success:          true,
		Program:          c.ast,
		ProgramSource:    dsl.ToSource(c.ast),
		Score:            c.score,
		Iterations:       iterations,
		NodesExplored:    nodesExplored,
		CandidatesPruned: candidatesPruned,
	}
}

func (s *Synthesizer) initialBeam(task types.ARCTask) []candidate {
	var beam []candidate
	seeds := s.generateInitialCandidates()
	if s.seedProvider != nil {
		seeds = append(seeds, s.seedProvider(task)...)
	}
	for _, ast := range seeds {
		c := s.evaluateCandidate(ast, task)
		beam = append(beam, c)
	}
	sort.Slice(beam, func(i, j int) bool { return lessCandidate(beam[i], beam[j]) })
	if len(beam) > s.config.BeamWidth {
		beam = beam[:s.config.BeamWidth]
	}
	return beam
}

// lessCandidate is the beam's canonical ordering: score descending, then
// (among ties) program size ascending, then (among remaining ties) source
// text ascending — so that two runs over the same task always settle on
// the same beam trajectory regardless of map/slice iteration order.
func lessCandidate(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	sizeA, sizeB := dsl.Size(a.ast), dsl.Size(b.ast)
	if sizeA != sizeB {
		return sizeA < sizeB
	}
	return dsl.ToSource(a.ast) < dsl.ToSource(b.ast)
}

func (s *Synthesizer) generateInitialCandidates() []dsl.Node {
	var out []dsl.Node
	out = append(out, &dsl.PrimitiveNode{Name: "identity"})
	for _, name := range s.gridPrimitives {
		if name != "identity" {
			out = append(out, &dsl.PrimitiveNode{Name: name})
		}
	}
	for _, n := range []int{1, 2, 3} {
		out = append(out, &dsl.PrimitiveNode{Name: "rotate90", Args: []dsl.Node{&dsl.LiteralNode{Value: n, Type: dsl.Int}}})
	}
	for _, factor := range []int{2, 3} {
		if _, ok := primitives.Get("scale"); ok {
			out = append(out, &dsl.PrimitiveNode{Name: "scale", Args: []dsl.Node{&dsl.LiteralNode{Value: factor, Type: dsl.Int}}})
		}
	}
	for _, n := range []int{2, 3} {
		if _, ok := primitives.Get("tile_h"); ok {
			out = append(out, &dsl.PrimitiveNode{Name: "tile_h", Args: []dsl.Node{&dsl.LiteralNode{Value: n, Type: dsl.Int}}})
		}
		if _, ok := primitives.Get("tile_v"); ok {
			out = append(out, &dsl.PrimitiveNode{Name: "tile_v", Args: []dsl.Node{&dsl.LiteralNode{Value: n, Type: dsl.Int}}})
		}
	}
	if _, ok := primitives.Get("tile_repeat"); ok {
		for _, rows := range []int{2, 3} {
			for _, cols := range []int{2, 3} {
				out = append(out, &dsl.PrimitiveNode{Name: "tile_repeat", Args: []dsl.Node{
					&dsl.LiteralNode{Value: rows, Type: dsl.Int},
					&dsl.LiteralNode{Value: cols, Type: dsl.Int},
				}})
			}
		}
	}
	if _, ok := primitives.Get("fill_background"); ok {
		for _, color := range []int{1, 2, 3, 4, 5} {
			out = append(out, &dsl.PrimitiveNode{Name: "fill_background", Args: []dsl.Node{&dsl.LiteralNode{Value: color, Type: dsl.Color}}})
		}
	}
	return out
}

func (s *Synthesizer) expand(ast dsl.Node) []dsl.Node {
	var out []dsl.Node
	steps, isCompose := composeSteps(ast)

	for _, name := range s.gridPrimitives {
		prim := &dsl.PrimitiveNode{Name: name}
		if isCompose {
			out = append(out, &dsl.ComposeNode{Steps: prepend(prim, steps)})
			out = append(out, &dsl.ComposeNode{Steps: append(append([]dsl.Node{}, steps...), prim)})
		} else {
			out = append(out, &dsl.ComposeNode{Steps: []dsl.Node{prim, ast}})
			out = append(out, &dsl.ComposeNode{Steps: []dsl.Node{ast, prim}})
		}
	}

	for _, n := range []int{1, 2, 3} {
		rot := &dsl.PrimitiveNode{Name: "rotate90", Args: []dsl.Node{&dsl.LiteralNode{Value: n, Type: dsl.Int}}}
		if isCompose {
			out = append(out, &dsl.ComposeNode{Steps: append(append([]dsl.Node{}, steps...), rot)})
		} else {
			out = append(out, &dsl.ComposeNode{Steps: []dsl.Node{ast, rot}})
		}
	}

	return out
}

func composeSteps(ast dsl.Node) ([]dsl.Node, bool) {
	if c, ok := ast.(*dsl.ComposeNode); ok {
		return c.Steps, true
	}
	return nil, false
}

func prepend(n dsl.Node, rest []dsl.Node) []dsl.Node {
	out := make([]dsl.Node, 0, len(rest)+1)
	out = append(out, n)
	out = append(out, rest...)
	return out
}

func (s *Synthesizer) evaluateCandidate(ast dsl.Node, task types.ARCTask) candidate {
	programFn, err := interpreter.MakeProgram(ast)
	if err != nil {
		return candidate{ast: ast, score: -1.0, depth: dsl.Depth(ast)}
	}

	allExact := true
	totalAccuracy := 0.0
	var pairResults []critic.PairResult
	for i, pair := range task.Train {
		predicted, err := programFn(pair.Input)
		if err != nil {
			allExact = false
			pairResults = append(pairResults, critic.PairResult{PairIndex: i, Err: err})
			continue
		}
		diff := critic.ComputeSymbolicDiff(predicted, pair.Output, pair.Input)
		if !diff.ExactMatch {
			allExact = false
		}
		totalAccuracy += diff.PixelAccuracy
		pairResults = append(pairResults, critic.PairResult{
			PairIndex:      i,
			ExactMatch:     diff.ExactMatch,
			PixelAccuracy:  diff.PixelAccuracy,
			DimensionMatch: diff.DimensionMatch,
		})
	}

	var score float64
	if allExact {
		score = 100.0
	} else {
		if len(task.Train) > 0 {
			score = (totalAccuracy / float64(len(task.Train))) * 50.0
		}
		score -= float64(dsl.Size(ast)) * 0.1
		if s.priorityBonus != nil {
			score += s.priorityBonus(ast)
		}
	}

	return candidate{ast: ast, score: score, depth: dsl.Depth(ast), pairResults: pairResults, allExact: allExact}
}

func (s *Synthesizer) shouldPrune(ast dsl.Node, task types.ARCTask) bool {
	programFn, err := interpreter.MakeProgram(ast)
	if err != nil {
		return true
	}

	for _, pair := range task.Train {
		output, err := programFn(pair.Input)
		if err != nil {
			return true
		}

		if s.config.UseDimensionPruning && output.Shape() != pair.Output.Shape() {
			if output.Height > 100 || output.Width > 100 || output.Height == 0 || output.Width == 0 {
				return true
			}
		}

		if s.config.UsePalettePruning {
			allowed := pair.Output.Palette()
			allowed[0] = struct{}{}
			for c := range output.Palette() {
				if _, ok := allowed[c]; !ok {
					return true
				}
			}
		}
	}

	return false
}

func (s *Synthesizer) nearMisses(beam []candidate) []ScoredCandidate {
	var out []ScoredCandidate
	for _, c := range beam {
		if c.score >= s.config.NearMissThreshold {
			out = append(out, ScoredCandidate{AST: c.ast, Score: c.score})
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessScoredCandidate(out[i], out[j]) })
	if len(out) > s.config.TopKNearMiss {
		out = out[:s.config.TopKNearMiss]
	}
	return out
}

// lessScoredCandidate applies the same score/size/source tie-break as
// lessCandidate to the near-miss list, which carries ASTs and scores but
// not a beam candidate's depth/pairResults.
func lessScoredCandidate(a, b ScoredCandidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	sizeA, sizeB := dsl.Size(a.AST), dsl.Size(b.AST)
	if sizeA != sizeB {
		return sizeA < sizeB
	}
	return dsl.ToSource(a.AST) < dsl.ToSource(b.AST)
}

func (s *Synthesizer) tryRefinement(task types.ARCTask, nearMisses []ScoredCandidate, iterations, nodesExplored, candidatesPruned int) (Result, bool) {
	for _, nm := range nearMisses {
		result := s.refinementEngine.Refine(nm.AST, task, nil)
		if result.Success {
			return Result{
				Success:            true,
				Program:            result.RefinedAST,
				ProgramSource:      result.RefinedProgram,
				Score:              100.0,
				Iterations:         iterations,
				NodesExplored:      nodesExplored,
				CandidatesPruned:   candidatesPruned,
				NearMisses:         nearMisses,
				RefinementApplied:  true,
				RefinementImproved: true,
				RefinementEdits:    len(result.EditsApplied),
			}, true
		}
	}
	return Result{}, false
}

// HardVeto checks the absolute rejection conditions a candidate must
// clear before it can even be soft-ranked: execution failure, empty
// output, or a dimension mismatch on any training pair. This is
// distinct from shouldPrune (used mid-search to keep the beam focused).
// Synthesize does not call HardVeto; it is exported for callers that
// apply a hard-veto-then-soft-score selection over a shortlist.
func HardVeto(ast dsl.Node, task types.ARCTask) (bool, string) {
	programFn, err := interpreter.MakeProgram(ast)
	if err != nil {
		return true, fmt.Sprintf("execution failed: %v", err)
	}
	for i, pair := range task.Train {
		output, err := programFn(pair.Input)
		if err != nil {
			return true, fmt.Sprintf("execution error on train pair %d: %v", i, err)
		}
		if output.Height == 0 || output.Width == 0 {
			return true, fmt.Sprintf("empty output on train pair %d", i)
		}
		if output.Shape() != pair.Output.Shape() {
			return true, fmt.Sprintf("dimension mismatch on train pair %d: got %v, expected %v", i, output.Shape(), pair.Output.Shape())
		}
	}
	return false, ""
}
