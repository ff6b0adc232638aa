// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Operand of a matmul: its shape (batch axes followed by the two matrix axes) and whether
// the matrix axes are stored transposed (column-major).
type Operand struct {
	Shape      shapes.Shape
	Transposed bool
}

// ArgsOptions configure ResolveArgs.
type ArgsOptions struct {
	// RightTransposed indicates the right operand is given as [..., N, K] instead of [..., K, N].
	RightTransposed bool

	// DoubledContraction indicates the right operand's contraction axis is packed at half its
	// width (e.g. two 4-bit values per element), so it is doubled before comparing with the
	// left operand.
	DoubledContraction bool

	// Layout of the output. If nil it is derived from the operands.
	Layout *shapes.Shape

	// OutDType is the dtype of the output, if Layout is nil. If left as dtypes.InvalidDType it
	// defaults to the left operand's dtype.
	OutDType dtypes.DType

	// Others are extra inputs (e.g. the bias of addmm), broadcast to the output layout.
	Others []shapes.Shape
}

// Args are the normalized arguments of a matmul-like operator.
type Args struct {
	// M, N and K are the rows, columns and contraction dimensions of the problem.
	M, N, K shapes.Dimension

	// Layout of the output: batch axes followed by [M, N].
	Layout shapes.Shape

	Left, Right Operand

	// Others are the extra inputs broadcast to the output layout dimensions.
	Others []shapes.Shape
}

// ResolveArgs validates the operands of mm, bmm, addmm and friends, and computes the output
// layout and problem dimensions.
//
// Batch axes and the contraction dimension must match: if both sides are static and differ it
// returns an error wrapping ErrShapeMismatch, otherwise the equality is registered with
// guards and checked later. Errors returned by guards are wrapped with the context.
//
// Passing both opts.Layout and opts.OutDType returns an error wrapping
// ErrConflictingSpecification.
func ResolveArgs(guards symbolic.Guards, left, right Operand, opts ArgsOptions) (*Args, error) {
	if left.Shape.Rank() < 2 || right.Shape.Rank() < 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "matmul operands must have rank >= 2, got %s and %s",
			left.Shape, right.Shape)
	}
	if opts.Layout != nil && opts.OutDType != dtypes.InvalidDType {
		return nil, errors.Wrapf(ErrConflictingSpecification,
			"output dtype %s can't be given together with the output layout %s", opts.OutDType, *opts.Layout)
	}

	leftBatch := left.Shape.BatchDimensions()
	rightBatch := right.Shape.BatchDimensions()
	if len(leftBatch) != len(rightBatch) {
		return nil, errors.Wrapf(ErrShapeMismatch, "matmul operands must have the same number of batch axes, got %s and %s",
			left.Shape, right.Shape)
	}
	m, leftK := left.Shape.Dim(-2), left.Shape.Dim(-1)
	var n, rightK shapes.Dimension
	if opts.RightTransposed {
		n, rightK = right.Shape.Dim(-2), right.Shape.Dim(-1)
	} else {
		rightK, n = right.Shape.Dim(-2), right.Shape.Dim(-1)
	}

	batch := make([]shapes.Dimension, len(leftBatch))
	for axis := range leftBatch {
		dim, err := unifyDimensions(guards, leftBatch[axis], rightBatch[axis])
		if err != nil {
			return nil, errors.WithMessagef(err, "batch axis #%d of matmul operands %s and %s", axis, left.Shape, right.Shape)
		}
		batch[axis] = dim
	}

	if opts.DoubledContraction {
		rightK = rightK.Scale(2)
	}
	k, err := unifyDimensions(guards, leftK, rightK)
	if err != nil {
		return nil, errors.WithMessagef(err, "contraction dimension of matmul operands %s and %s", left.Shape, right.Shape)
	}

	args := &Args{M: m, N: n, K: k, Left: left, Right: right}
	if opts.Layout == nil {
		outDType := opts.OutDType
		if outDType == dtypes.InvalidDType {
			outDType = left.Shape.DType
		}
		args.Layout = shapes.Make(outDType, append(batch, m, n)...)
	} else {
		args.Layout = opts.Layout.Clone()
	}

	args.Others = make([]shapes.Shape, 0, len(opts.Others))
	for ii, other := range opts.Others {
		expanded, err := expandTo(guards, other, args.Layout)
		if err != nil {
			return nil, errors.WithMessagef(err, "extra input #%d", ii)
		}
		args.Others = append(args.Others, expanded)
	}
	return args, nil
}

// unifyDimensions checks that a and b are equal and returns the most informative of the two.
func unifyDimensions(guards symbolic.Guards, a, b shapes.Dimension) (shapes.Dimension, error) {
	aValue, aStatic := a.Value()
	bValue, bStatic := b.Value()
	if aStatic && bStatic && aValue != bValue {
		return a, errors.Wrapf(ErrShapeMismatch, "%d != %d", aValue, bValue)
	}
	if err := guards.AssertEqual(a, b); err != nil {
		return a, err
	}
	if a.IsDynamic() && b.IsStatic() {
		return b, nil
	}
	return a, nil
}

// expandTo broadcasts shape to the dimensions of target, aligning the trailing axes: each axis
// must be either 1 or equal to the target dimension.
func expandTo(guards symbolic.Guards, shape, target shapes.Shape) (shapes.Shape, error) {
	if shape.Rank() > target.Rank() {
		return shapes.Shape{}, errors.Wrapf(ErrShapeMismatch, "can't expand %s to %s: rank is too large", shape, target)
	}
	offset := target.Rank() - shape.Rank()
	for axis, dim := range shape.Dimensions {
		if value, ok := dim.Value(); ok && value == 1 {
			continue
		}
		targetDim := target.Dimensions[offset+axis]
		if _, err := unifyDimensions(guards, dim, targetDim); err != nil {
			return shapes.Shape{}, errors.WithMessagef(err, "can't expand %s to %s (axis #%d)", shape, target, axis)
		}
	}
	return shapes.Make(shape.DType, target.Dimensions...), nil
}
