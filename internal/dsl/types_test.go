package dsl

import "testing"

func TestColorIsSubtypeOfInt(t *testing.T) {
	if !Color.IsSubtypeOf(Int) {
		t.Error("Color should be a subtype of Int")
	}
	if Int.IsSubtypeOf(Color) {
		t.Error("Int should not be a subtype of Color")
	}
}

func TestGridNotSubtypeOfInt(t *testing.T) {
	if Grid.IsSubtypeOf(Int) {
		t.Error("Grid should not be a subtype of Int")
	}
}

func TestListOfEquality(t *testing.T) {
	a := ListOf(Color)
	b := ListOf(Color)
	if !a.IsSubtypeOf(b) || !b.IsSubtypeOf(a) {
		t.Error("two List[Color] types should be mutually subtypes")
	}
}

func TestInferLiteralType(t *testing.T) {
	cases := []struct {
		value interface{}
		want  string
	}{
		{true, "Bool"},
		{5, "Color"},
		{42, "Int"},
	}
	for _, c := range cases {
		got, err := InferLiteralType(c.value)
		if err != nil {
			t.Fatalf("InferLiteralType(%v): %v", c.value, err)
		}
		if got.String() != c.want {
			t.Errorf("InferLiteralType(%v) = %s, want %s", c.value, got.String(), c.want)
		}
	}
}

func TestTypeCheckMismatch(t *testing.T) {
	if err := TypeCheck(Grid, Int, "test"); err == nil {
		t.Error("expected type mismatch error")
	}
	if err := TypeCheck(Int, Color, ""); err != nil {
		t.Errorf("Color should satisfy Int: %v", err)
	}
}
