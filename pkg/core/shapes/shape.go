// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape and Dimension, the description of matmul operands used to
// derive kernel launch configurations.
//
// A Shape holds the DType of the elements and one Dimension per axis. Each Dimension is
// either Static (known when the kernel is generated) or Dynamic (only known at run time,
// optionally named so it can be resolved later through AxisBindings).
//
// Example: a batch of matrices with a dynamic batch size and 512x64 matrices:
//
//	shape := shapes.Make(dtypes.Float16, shapes.Dynamic("batch"), shapes.Static(512), shapes.Static(64))
//	fmt.Println(shape) // (Float16)[batch 512 64]
//
// Shapes are values: Make and the accessors clone the dimensions, so a Shape is never
// modified after it is created.
package shapes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Shape of a matmul operand or result: the dtype and the dimensions of each axis.
//
// Use Make or MakeStatic to create a new shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []Dimension
}

// Make returns a Shape with the given dtype and dimensions.
func Make(dtype dtypes.DType, dimensions ...Dimension) Shape {
	return Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
}

// MakeStatic returns a Shape with only static dimensions.
// It panics if any dimension is negative.
func MakeStatic(dtype dtypes.DType, dimensions ...int) Shape {
	return Shape{DType: dtype, Dimensions: StaticDims(dimensions...)}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just instantiating it with Shape{} will be invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
func (s Shape) Dim(axis int) Dimension {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// BatchDimensions returns a copy of all but the last two dimensions: the batch prefix of a
// (possibly batched) matrix. It panics if the rank is smaller than 2.
func (s Shape) BatchDimensions() []Dimension {
	if s.Rank() < 2 {
		exceptions.Panicf("Shape.BatchDimensions(): shape %s is not a matrix, it must have rank >= 2", s)
	}
	return slices.Clone(s.Dimensions[:s.Rank()-2])
}

// IsFullyStatic returns whether every dimension is static.
func (s Shape) IsFullyStatic() bool {
	for _, dim := range s.Dimensions {
		if dim.IsDynamic() {
			return false
		}
	}
	return true
}

// StaticDimensions returns the dimensions as ints, if they are all static.
func (s Shape) StaticDimensions() ([]int, bool) {
	dims := make([]int, 0, s.Rank())
	for _, dim := range s.Dimensions {
		value, ok := dim.Value()
		if !ok {
			return nil, false
		}
		dims = append(dims, value)
	}
	return dims, true
}

// String implements stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, len(s.Dimensions))
	for ii, dim := range s.Dimensions {
		parts[ii] = dim.String()
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return s.EqualDimensions(s2)
}

// EqualDimensions compares two shapes for equality of dimensions. Dtypes can be different.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.EqualFunc(s.Dimensions, s2.Dimensions, Dimension.Equal)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}

// ParseDimension parses the textual form of a Dimension, as printed by Dimension.String:
//
//   - "128": Static(128).
//   - "batch": Dynamic("batch").
//   - "seq%16": DynamicMultipleOf("seq", 16).
//   - "2*k": Dynamic("k").Scale(2).
//   - "2*k%32": DynamicMultipleOf("k", 16).Scale(2).
//   - "?": an unnamed Dynamic dimension.
func ParseDimension(text string) (Dimension, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Dimension{}, errors.New("empty dimension")
	}
	if value, err := strconv.Atoi(text); err == nil {
		if value < 0 {
			return Dimension{}, errors.Errorf("invalid dimension %q: static dimensions must be non-negative", text)
		}
		return Static(value), nil
	}
	name, multipleText, hasMultiple := strings.Cut(text, "%")
	factor := 1
	if factorText, scaledName, scaled := strings.Cut(name, "*"); scaled {
		var err error
		factor, err = strconv.Atoi(factorText)
		if err != nil || factor < 1 {
			return Dimension{}, errors.Errorf("invalid dimension %q: factor must be a positive integer", text)
		}
		name = scaledName
	}
	if name == "?" {
		name = ""
	}
	multiple := factor
	if hasMultiple {
		var err error
		multiple, err = strconv.Atoi(multipleText)
		if err != nil || multiple < 1 {
			return Dimension{}, errors.Errorf("invalid dimension %q: multiple must be a positive integer", text)
		}
		if multiple%factor != 0 {
			return Dimension{}, errors.Errorf("invalid dimension %q: multiple must be divisible by the factor %d", text, factor)
		}
	}
	return DynamicMultipleOf(name, multiple/factor).Scale(factor), nil
}
