package controller

// ControllerConfig holds solve-time toggles that are not part of any
// sub-component's own Config, because they control whether a whole
// phase of the pipeline runs at all rather than how it behaves.
type ControllerConfig struct {
	// DisablePhases lists phases Solve should skip entirely. Skipping
	// PhaseSynthesis is not supported — synthesis is the one phase
	// every solve must attempt — so it is silently ignored if present.
	DisablePhases []SolvePhase
}

// Disabled reports whether phase appears in DisablePhases.
func (c ControllerConfig) Disabled(phase SolvePhase) bool {
	for _, p := range c.DisablePhases {
		if p == phase {
			return true
		}
	}
	return false
}
