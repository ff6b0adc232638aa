// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"fmt"

	"github.com/gomlx/exceptions"
)

type dimensionKind uint8

const (
	kindStatic dimensionKind = iota
	kindDynamic
)

// Dimension is the size of one axis of a Shape. It is either Static (known when the kernel is
// generated) or Dynamic (only known at run time).
//
// A Dynamic dimension may carry an axis name, used to resolve it through AxisBindings, and a
// known divisor: DynamicMultipleOf("seq", 16) is a dimension known to be a multiple of 16.
// Scaling a dynamic dimension keeps the axis name and records the factor, so
// Dynamic("k").Scale(2) is "2*k" and resolves to twice the value bound to "k".
//
// The zero value is Static(0).
type Dimension struct {
	kind     dimensionKind
	value    int
	name     string
	scale    int
	multiple int
}

// Static returns a dimension known at compile time. It panics if n < 0.
func Static(n int) Dimension {
	if n < 0 {
		exceptions.Panicf("shapes.Static(%d): static dimensions must be non-negative", n)
	}
	return Dimension{kind: kindStatic, value: n}
}

// Dynamic returns a dimension only known at run time. The name can be empty, in which case it
// can't be resolved by AxisBindings.
func Dynamic(name string) Dimension {
	return Dimension{kind: kindDynamic, name: name, scale: 1, multiple: 1}
}

// DynamicMultipleOf returns a dynamic dimension known to be a multiple of `multiple`.
// It panics if multiple < 1.
func DynamicMultipleOf(name string, multiple int) Dimension {
	if multiple < 1 {
		exceptions.Panicf("shapes.DynamicMultipleOf(%q, %d): multiple must be >= 1", name, multiple)
	}
	return Dimension{kind: kindDynamic, name: name, scale: 1, multiple: multiple}
}

// IsStatic returns whether the dimension is known at compile time.
func (d Dimension) IsStatic() bool { return d.kind == kindStatic }

// IsDynamic returns whether the dimension is only known at run time.
func (d Dimension) IsDynamic() bool { return d.kind == kindDynamic }

// Value returns the static value and true, or 0 and false for dynamic dimensions.
func (d Dimension) Value() (int, bool) {
	if d.kind != kindStatic {
		return 0, false
	}
	return d.value, true
}

// Name of a dynamic axis. Empty for static dimensions and unnamed dynamic ones.
func (d Dimension) Name() string { return d.name }

// Factor by which the value bound to Name is multiplied. It is 1 for static dimensions.
func (d Dimension) Factor() int {
	if d.kind == kindStatic {
		return 1
	}
	return d.scale
}

// Multiple returns the largest value known to divide the dimension.
// For static dimensions it is the value itself, so Static(0) reports 0 ("divisible by anything").
func (d Dimension) Multiple() int {
	if d.kind == kindStatic {
		return d.value
	}
	return d.multiple
}

// IsMultipleOf returns whether the dimension is provably divisible by n.
// It panics if n < 1.
func (d Dimension) IsMultipleOf(n int) bool {
	if n < 1 {
		exceptions.Panicf("Dimension.IsMultipleOf(%d): n must be >= 1", n)
	}
	if d.kind == kindStatic {
		return d.value%n == 0
	}
	return d.multiple%n == 0
}

// Scale returns the dimension multiplied by factor: static values are multiplied, while dynamic
// dimensions keep their name, accumulate the factor and have their known multiple scaled.
// It panics if factor < 1.
func (d Dimension) Scale(factor int) Dimension {
	if factor < 1 {
		exceptions.Panicf("Dimension.Scale(%d): factor must be >= 1", factor)
	}
	if d.kind == kindStatic {
		return Static(d.value * factor)
	}
	d.scale *= factor
	d.multiple *= factor
	return d
}

// Equal returns whether both dimensions are the same symbol: equal static values, or
// dynamic dimensions with the same non-empty name and factor. Unnamed dynamic dimensions are
// never equal.
func (d Dimension) Equal(other Dimension) bool {
	if d.kind != other.kind {
		return false
	}
	if d.kind == kindStatic {
		return d.value == other.value
	}
	return d.name != "" && d.name == other.name && d.scale == other.scale
}

// String implements fmt.Stringer.
func (d Dimension) String() string {
	if d.kind == kindStatic {
		return fmt.Sprintf("%d", d.value)
	}
	name := d.name
	if name == "" {
		name = "?"
	}
	if d.scale > 1 {
		name = fmt.Sprintf("%d*%s", d.scale, name)
	}
	if d.multiple > d.scale {
		return fmt.Sprintf("%s%%%d", name, d.multiple)
	}
	return name
}

// StaticDims converts a list of ints to static dimensions.
func StaticDims(dims ...int) []Dimension {
	result := make([]Dimension, len(dims))
	for ii, dim := range dims {
		result[ii] = Static(dim)
	}
	return result
}
