// Package primitives holds the global primitive registry: name ->
// PrimitiveSpec, populated once at process startup and read-only
// thereafter, plus the concrete, deterministic, side-effect-free
// implementations themselves.
package primitives

import (
	"fmt"

	"github.com/jurisagi/core/internal/dsl"
)

// Spec describes one registered primitive: its signature, implementation,
// and a fixed evaluation cost. The synthesizer's MDL-style size penalty
// counts AST nodes (dsl.Size) and does not read Cost.
type Spec struct {
	Name      string
	ArgTypes  []dsl.Type
	Return    dsl.Type
	Impl      func(args []interface{}) (interface{}, error)
	Doc       string
	Cost      int
}

var registry = map[string]*Spec{}

func register(name string, argTypes []dsl.Type, ret dsl.Type, doc string, cost int, impl func([]interface{}) (interface{}, error)) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("primitives: duplicate registration for %q", name))
	}
	registry[name] = &Spec{Name: name, ArgTypes: argTypes, Return: ret, Impl: impl, Doc: doc, Cost: cost}
}

// Get looks up a primitive by name.
func Get(name string) (*Spec, bool) {
	s, ok := registry[name]
	return s, ok
}

// List returns every registered primitive name.
func List() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
