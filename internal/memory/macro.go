// Package memory stores solved programs, induces reusable sub-patterns
// (macros) from them, retrieves similar past solutions for a new task,
// and gates how heavily a solver should lean on memory versus fresh
// synthesis.
package memory

import (
	"github.com/tidwall/match"

	"github.com/jurisagi/core/internal/dsl"
)

// Macro is a learned reusable pattern: a sub-program that appeared
// across multiple solved tasks.
type Macro struct {
	Name          string
	Pattern       dsl.Node
	PatternSource string
	Frequency     int
	Contexts      []string
	SuccessRate   float64
}

// MacroMatch is an occurrence of a macro within a larger program.
type MacroMatch struct {
	Macro      Macro
	Location   int // byte offset of the match within the program's source
	MatchScore float64
}

// MacroLibrary induces and stores macros from successful solutions.
type MacroLibrary struct {
	macros       map[string]*Macro
	minFrequency int
}

// NewMacroLibrary creates an empty library.
func NewMacroLibrary(minFrequency int) *MacroLibrary {
	return &MacroLibrary{macros: make(map[string]*Macro), minFrequency: minFrequency}
}

// AddProgram extracts sub-patterns from program and folds them into the
// library, updating frequency and a running-average success rate for
// patterns already known.
func (l *MacroLibrary) AddProgram(program dsl.Node, taskContext string, success bool) {
	for _, p := range extractPatterns(program) {
		existing, ok := l.macros[p.source]
		if ok {
			existing.Frequency++
			if taskContext != "" && !containsString(existing.Contexts, taskContext) {
				existing.Contexts = append(existing.Contexts, taskContext)
			}
			if success {
				// Running average pulled toward 1.0; a failed reuse leaves
				// the rate untouched rather than pulling it down, matching
				// the asymmetric update the induction was ported from.
				existing.SuccessRate = (existing.SuccessRate*float64(existing.Frequency-1) + 1.0) / float64(existing.Frequency)
			}
			continue
		}

		contexts := []string{}
		if taskContext != "" {
			contexts = append(contexts, taskContext)
		}
		successRate := 1.0
		if !success {
			successRate = 0.0
		}
		l.macros[p.source] = &Macro{
			Name:          macroName(len(l.macros)),
			Pattern:       p.node,
			PatternSource: p.source,
			Frequency:     1,
			Contexts:      contexts,
			SuccessRate:   successRate,
		}
	}
}

func macroName(n int) string {
	return "macro_" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// contextMatches reports whether context matches any of a macro's
// recorded contexts, treating each recorded context as a shell-style
// glob pattern (e.g. "rotation_*" matches a regime label of
// "rotation_simple"). A literal context with no glob metacharacters
// still matches itself exactly, since match.Match degrades to plain
// equality in that case.
func contextMatches(contexts []string, context string) bool {
	for _, pattern := range contexts {
		if match.Match(context, pattern) {
			return true
		}
	}
	return false
}

// GetFrequentMacros returns up to topK macros meeting the minimum
// frequency, ranked by frequency times success rate.
func (l *MacroLibrary) GetFrequentMacros(topK int) []Macro {
	var out []Macro
	for _, m := range l.macros {
		if m.Frequency >= l.minFrequency {
			out = append(out, *m)
		}
	}
	sortByScore(out, func(m Macro) float64 { return float64(m.Frequency) * m.SuccessRate })
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// FindMatches returns every macro whose source text appears as a
// substring of program's rendered source, ranked by match score.
func (l *MacroLibrary) FindMatches(program dsl.Node) []MacroMatch {
	source := dsl.ToSource(program)
	var matches []MacroMatch
	for src, m := range l.macros {
		if idx := indexOf(source, src); idx >= 0 {
			matches = append(matches, MacroMatch{
				Macro:      *m,
				Location:   idx,
				MatchScore: float64(m.Frequency) * m.SuccessRate,
			})
		}
	}
	sortMatches(matches)
	return matches
}

// SuggestMacros proposes macros useful for a given context, weighting
// an exact context match above a generic one.
func (l *MacroLibrary) SuggestMacros(context string, topK int) []Macro {
	type scored struct {
		m     Macro
		score float64
	}
	var candidates []scored
	for _, m := range l.macros {
		if m.Frequency < l.minFrequency {
			continue
		}
		contextScore := 0.5
		if contextMatches(m.Contexts, context) {
			contextScore = 1.0
		}
		candidates = append(candidates, scored{m: *m, score: float64(m.Frequency) * m.SuccessRate * contextScore})
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].score > candidates[i].score {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]Macro, len(candidates))
	for i, c := range candidates {
		out[i] = c.m
	}
	return out
}

// Clear removes every stored macro.
func (l *MacroLibrary) Clear() {
	l.macros = make(map[string]*Macro)
}

type pattern struct {
	node   dsl.Node
	source string
}

// extractPatterns mirrors the reference induction's sub-pattern sweep:
// the whole program, every contiguous Compose subsequence of length >=
// 2 (plus each singleton step), and every primitive invocation that
// carries arguments (argument-free primitives are too generic to be
// worth remembering as a macro on their own).
func extractPatterns(program dsl.Node) []pattern {
	var out []pattern
	out = append(out, pattern{node: program, source: dsl.ToSource(program)})

	if compose, ok := program.(*dsl.ComposeNode); ok && len(compose.Steps) >= 2 {
		for i := range compose.Steps {
			for j := i + 1; j <= len(compose.Steps); j++ {
				sub := compose.Steps[i:j]
				var subNode dsl.Node
				if len(sub) == 1 {
					subNode = sub[0]
				} else {
					steps := make([]dsl.Node, len(sub))
					copy(steps, sub)
					subNode = &dsl.ComposeNode{Steps: steps}
				}
				out = append(out, pattern{node: subNode, source: dsl.ToSource(subNode)})
			}
		}
	}

	for _, n := range dsl.Walk(program) {
		if prim, ok := n.(*dsl.PrimitiveNode); ok && len(prim.Args) > 0 {
			out = append(out, pattern{node: prim, source: dsl.ToSource(prim)})
		}
	}

	return out
}

func indexOf(haystack, needle string) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func sortByScore(macros []Macro, score func(Macro) float64) {
	for i := 0; i < len(macros); i++ {
		for j := i + 1; j < len(macros); j++ {
			if score(macros[j]) > score(macros[i]) {
				macros[i], macros[j] = macros[j], macros[i]
			}
		}
	}
}

func sortMatches(matches []MacroMatch) {
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[j].MatchScore > matches[i].MatchScore {
				matches[i], matches[j] = matches[j], matches[i]
			}
		}
	}
}

// InduceMacros builds a library from a batch of successful programs in
// one pass.
func InduceMacros(programs []dsl.Node, minFrequency int) *MacroLibrary {
	lib := NewMacroLibrary(minFrequency)
	for _, p := range programs {
		lib.AddProgram(p, "", true)
	}
	return lib
}

// SuggestProgramsFromMacros generates candidate programs by combining
// macros: each macro alone, plus every pair of the first five composed
// together.
func SuggestProgramsFromMacros(macros []Macro) []dsl.Node {
	var out []dsl.Node
	for _, m := range macros {
		out = append(out, m.Pattern)
	}

	limit := len(macros)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		for j := i + 1; j < limit; j++ {
			out = append(out, &dsl.ComposeNode{Steps: []dsl.Node{macros[i].Pattern, macros[j].Pattern}})
		}
	}
	return out
}
