// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"golang.org/x/exp/constraints"
)

// GridDims are the dimensions of a kernel launch grid.
type GridDims struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// String implements fmt.Stringer.
func (g GridDims) String() string {
	return fmt.Sprintf("(%d, %d, %d)", g.X, g.Y, g.Z)
}

// NumBlocks is the total number of blocks launched.
func (g GridDims) NumBlocks() int { return g.X * g.Y * g.Z }

// CeilDiv returns ceil(a/b) for non-negative a. It panics if b <= 0.
func CeilDiv[T constraints.Integer](a, b T) T {
	if b <= 0 {
		exceptions.Panicf("CeilDiv(%d, %d): divisor must be positive", a, b)
	}
	return (a + b - 1) / b
}

// NumTiles is the number of blockM x blockN tiles needed to cover an m x n output.
func NumTiles(m, n, blockM, blockN int) int {
	return CeilDiv(m, blockM) * CeilDiv(n, blockN)
}

// Grid returns the launch grid for matmul templates: one block per output tile.
func Grid(m, n, blockM, blockN int) GridDims {
	return GridDims{X: NumTiles(m, n, blockM, blockN), Y: 1, Z: 1}
}

// PersistentGrid returns the launch grid for persistent matmul kernels: at most one block per
// compute unit, each looping over output tiles.
func PersistentGrid(m, n, blockM, blockN, numComputeUnits int) GridDims {
	return GridDims{X: min(numComputeUnits, NumTiles(m, n, blockM, blockN)), Y: 1, Z: 1}
}

// GridFn computes the launch grid from the problem sizes and the kernel's launch configuration.
// It is called once the problem sizes are known, at kernel launch time for dynamic shapes.
type GridFn func(m, n int, options LaunchConfig) GridDims

// MMGrid is the GridFn for matmul templates, using the BLOCK_M and BLOCK_N options.
func MMGrid(m, n int, options LaunchConfig) GridDims {
	return Grid(m, n, options.MustInt(KeyBlockM), options.MustInt(KeyBlockN))
}

// PersistentMMGrid is the GridFn for persistent matmul templates, using the BLOCK_M, BLOCK_N and
// NUM_SMS options.
func PersistentMMGrid(m, n int, options LaunchConfig) GridDims {
	return PersistentGrid(m, n, options.MustInt(KeyBlockM), options.MustInt(KeyBlockN), options.MustInt(KeyNumSMs))
}

// BatchGridFn is the GridFn of batched matmuls, where batch is the number of matrices: the
// product of the batch dimensions.
type BatchGridFn func(batch, m, n int, options LaunchConfig) GridDims

// BMMGrid is the BatchGridFn for batched matmul templates: the tiles of one matrix along X, and
// one batch element per Y.
func BMMGrid(batch, m, n int, options LaunchConfig) GridDims {
	grid := MMGrid(m, n, options)
	grid.Y = batch
	return grid
}

var (
	_ GridFn      = MMGrid
	_ GridFn      = PersistentMMGrid
	_ BatchGridFn = BMMGrid
)

// ResolveGrid evaluates gridFn if m and n can be resolved to static values. Otherwise, it
// returns false and the grid must be computed at launch time.
func ResolveGrid(resolver symbolic.StaticResolver, gridFn GridFn, m, n shapes.Dimension, options LaunchConfig) (GridDims, bool) {
	mValue, mOk := resolver.TryResolveStatic(m)
	nValue, nOk := resolver.TryResolveStatic(n)
	if !mOk || !nOk {
		return GridDims{}, false
	}
	return gridFn(mValue, nValue, options), true
}

// ResolveBatchGrid is like ResolveGrid for batched problems, where batch are the batch dimensions
// of the output. All of them, as well as m and n, must resolve to static values.
func ResolveBatchGrid(resolver symbolic.StaticResolver, gridFn BatchGridFn, batch []shapes.Dimension, m, n shapes.Dimension,
	options LaunchConfig) (GridDims, bool) {
	numMatrices := 1
	for _, dim := range batch {
		value, ok := resolver.TryResolveStatic(dim)
		if !ok {
			return GridDims{}, false
		}
		numMatrices *= value
	}
	return ResolveGrid(resolver, func(m, n int, options LaunchConfig) GridDims {
		return gridFn(numMatrices, m, n, options)
	}, m, n, options)
}
