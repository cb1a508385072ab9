// Package sketcher defines the pluggable neural sketcher/critic backend:
// a component that proposes candidate programs and transformation
// priors from a learned model. Its output is always a soft signal fed
// into beam search's initial candidate pool or the controller's prior
// ranking — never a verdict. The symbolic critic keeps sole veto power
// regardless of what a Backend proposes.
package sketcher

import (
	"context"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/pkg/types"
)

// Suggestion is one neural-sketcher proposal: a candidate program plus
// the backend's own confidence in it. Confidence is advisory context for
// callers (e.g. ordering the initial beam); it is never compared against
// a veto threshold.
type Suggestion struct {
	Program    dsl.Node
	Confidence float64
	Source     string // backend name, for tracing which model proposed it
}

// Backend is anything that can propose program sketches for a task. The
// heuristic default requires no network access; an Anthropic-backed
// implementation is available behind the same interface.
type Backend interface {
	Name() string
	Suggest(ctx context.Context, task types.ARCTask, maxSuggestions int) ([]Suggestion, error)
}

// Sketcher wraps an optional Backend. With no backend configured (the
// default) it proposes nothing, and callers fall back entirely to
// synthesis's own candidate generation.
type Sketcher struct {
	backend Backend
	enabled bool
}

// New creates a disabled Sketcher. Call Enable or SetBackend to activate it.
func New() *Sketcher {
	return &Sketcher{enabled: false}
}

// Enable activates sketching with the given backend.
func (s *Sketcher) Enable(backend Backend) {
	s.backend = backend
	s.enabled = true
}

// SetBackend sets the backend for sketching. A non-nil backend auto-enables
// sketching; nil disables it. Mirrors the teacher's evaluator-control pattern.
func (s *Sketcher) SetBackend(backend Backend) {
	s.backend = backend
	s.enabled = backend != nil
}

// Enabled reports whether a backend is currently configured.
func (s *Sketcher) Enabled() bool {
	return s.enabled
}

// Suggest returns up to maxSuggestions candidate programs from the
// configured backend, or nil if no backend is configured.
func (s *Sketcher) Suggest(ctx context.Context, task types.ARCTask, maxSuggestions int) ([]Suggestion, error) {
	if !s.enabled || s.backend == nil {
		return nil, nil
	}
	return s.backend.Suggest(ctx, task, maxSuggestions)
}
