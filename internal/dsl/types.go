// Package dsl implements the typed DSL that ARC transformations are
// expressed in: the type system, the AST node kinds, walk/transform
// helpers, and a pretty-printer. internal/dsl/primitives holds the
// primitive registry and implementations; internal/interpreter walks
// the AST built here.
package dsl

import (
	"fmt"
	"strings"
)

// Type is a flat-subtyping DSL type. The only non-trivial subtyping rule
// is Color <: Int (every color is a valid int, not every int is a color).
type Type interface {
	String() string
	IsSubtypeOf(other Type) bool
}

// baseType supplies the String() every concrete type embeds. IsSubtypeOf
// is NOT provided here: Go method promotion would bind the receiver to
// baseType itself rather than the embedding concrete type, breaking the
// kind comparison below. Every concrete type instead defines its own
// IsSubtypeOf that forwards to sameKind with itself as the first argument.
type baseType struct{ name string }

func (b baseType) String() string { return b.name }

// sameKind is also used directly as the equality check for most concrete
// types (every variant but ColorType and FunctionType's structural
// comparison delegates straight to it). It compares concrete Go types,
// since two distinct types could stringify the same by coincidence (they
// don't here, but be precise).
// stringify the same by coincidence (they don't here, but be precise).
func sameKind(a, b Type) bool {
	switch a.(type) {
	case GridType:
		_, ok := b.(GridType)
		return ok
	case IntType:
		_, ok := b.(IntType)
		return ok
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case ColorType:
		_, ok := b.(ColorType)
		return ok
	case ListType:
		other, ok := b.(ListType)
		return ok && a.(ListType).Elem.IsSubtypeOf(other.Elem) && other.Elem.IsSubtypeOf(a.(ListType).Elem)
	case ObjectType:
		_, ok := b.(ObjectType)
		return ok
	case PointType:
		_, ok := b.(PointType)
		return ok
	case BBoxType:
		_, ok := b.(BBoxType)
		return ok
	case ColorMapType:
		_, ok := b.(ColorMapType)
		return ok
	case FunctionType:
		other, ok := b.(FunctionType)
		if !ok || len(a.(FunctionType).Args) != len(other.Args) {
			return false
		}
		ft := a.(FunctionType)
		for i, arg := range ft.Args {
			if !arg.IsSubtypeOf(other.Args[i]) || !other.Args[i].IsSubtypeOf(arg) {
				return false
			}
		}
		return ft.Return.IsSubtypeOf(other.Return) && other.Return.IsSubtypeOf(ft.Return)
	}
	return false
}

// GridType is the type of an ARC grid.
type GridType struct{ baseType }

func (t GridType) IsSubtypeOf(other Type) bool { return sameKind(t, other) }

// IntType is the type of an unconstrained integer.
type IntType struct{ baseType }

func (t IntType) IsSubtypeOf(other Type) bool { return sameKind(t, other) }

// BoolType is the type of a boolean.
type BoolType struct{ baseType }

func (t BoolType) IsSubtypeOf(other Type) bool { return sameKind(t, other) }

// ColorType is the type of an ARC color (0-9). ColorType <: IntType, but
// not the reverse.
type ColorType struct{ baseType }

// IsSubtypeOf overrides the default kind check: a Color is always also a
// valid Int.
func (c ColorType) IsSubtypeOf(other Type) bool {
	if _, ok := other.(IntType); ok {
		return true
	}
	return sameKind(c, other)
}

// ListType is the type of a homogeneous list.
type ListType struct {
	baseType
	Elem Type
}

func (l ListType) String() string         { return fmt.Sprintf("List[%s]", l.Elem.String()) }
func (l ListType) IsSubtypeOf(other Type) bool { return sameKind(l, other) }

// ObjectType is the type of a GridObject (connected component).
type ObjectType struct{ baseType }

func (t ObjectType) IsSubtypeOf(other Type) bool { return sameKind(t, other) }

// PointType is the type of a (row, col) coordinate.
type PointType struct{ baseType }

func (t PointType) IsSubtypeOf(other Type) bool { return sameKind(t, other) }

// BBoxType is the type of an axis-aligned bounding box.
type BBoxType struct{ baseType }

func (t BBoxType) IsSubtypeOf(other Type) bool { return sameKind(t, other) }

// ColorMapType is the type of a color-to-color remapping.
type ColorMapType struct{ baseType }

func (t ColorMapType) IsSubtypeOf(other Type) bool { return sameKind(t, other) }

// FunctionType is the type of a primitive or lambda: a fixed argument
// list mapping to a return type.
type FunctionType struct {
	baseType
	Args   []Type
	Return Type
}

func (f FunctionType) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Return.String())
}

func (f FunctionType) IsSubtypeOf(other Type) bool { return sameKind(f, other) }

// Convenience singletons, mirroring the original's GRID/INT/BOOL/... constants.
var (
	Grid     Type = GridType{baseType{"Grid"}}
	Int      Type = IntType{baseType{"Int"}}
	Bool     Type = BoolType{baseType{"Bool"}}
	Color    Type = ColorType{baseType{"Color"}}
	Object   Type = ObjectType{baseType{"Object"}}
	Point    Type = PointType{baseType{"Point"}}
	BBox     Type = BBoxType{baseType{"BBox"}}
	ColorMap Type = ColorMapType{baseType{"ColorMap"}}
)

// ListOf constructs a ListType of the given element type.
func ListOf(elem Type) Type { return ListType{baseType{"List"}, elem} }

// FuncOf constructs a FunctionType.
func FuncOf(args []Type, ret Type) Type { return FunctionType{baseType{"Function"}, args, ret} }

// TypeCheck raises an error-shaped string (via errs.TypeCheckError at the
// call site) when actual is not a subtype of expected. Context, if
// non-empty, prefixes the message.
func TypeCheck(expected, actual Type, context string) error {
	if actual.IsSubtypeOf(expected) {
		return nil
	}
	msg := fmt.Sprintf("type mismatch: expected %s, got %s", expected.String(), actual.String())
	if context != "" {
		msg = context + ": " + msg
	}
	return fmt.Errorf("%s", msg)
}

// InferLiteralType infers the DSL type of a raw Go literal value, matching
// the original's infer_literal_type: bools are Bool, small non-negative
// ints (0-9) are Color, other ints are Int, [2]int is Point, map[int]int
// is ColorMap, and []interface{} is a List of its first element's
// inferred type (List[Int] when empty). Any other Go type, [][]int
// included, is an error.
func InferLiteralType(value interface{}) (Type, error) {
	switch v := value.(type) {
	case bool:
		return Bool, nil
	case int:
		if v >= 0 && v <= 9 {
			return Color, nil
		}
		return Int, nil
	case [2]int:
		return Point, nil
	case map[int]int:
		return ColorMap, nil
	case []interface{}:
		if len(v) == 0 {
			return ListOf(Int), nil
		}
		elem, err := InferLiteralType(v[0])
		if err != nil {
			return nil, err
		}
		return ListOf(elem), nil
	default:
		return nil, fmt.Errorf("cannot infer DSL type for literal of Go type %T", value)
	}
}
