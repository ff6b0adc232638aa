// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"math/bits"

	"github.com/gomlx/gemmtune/internal/sets"
	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"github.com/gomlx/gemmtune/pkg/hardware"
)

// MinBlockSize is the smallest block size used by FilterCandidates.
const MinBlockSize = 16

// ExcludeFn returns true for block sizes that should not be searched.
type ExcludeFn func(blockM, blockN, blockK int) bool

// SearchSpaceOptions adjust the candidates searched for a device.
type SearchSpaceOptions struct {
	// Scale multiplies the block sizes of the candidates. 0 is the same as 1.
	Scale float64

	// Exclude, if not nil, removes candidates.
	Exclude ExcludeFn
}

// SearchSpaceFor returns the search space options for the device kind: CPUs use blocks half
// as large and honor exclude, other devices use the candidates unchanged.
func SearchSpaceFor(kind hardware.Kind, exclude ExcludeFn) SearchSpaceOptions {
	if kind == hardware.KindCPU {
		return SearchSpaceOptions{Scale: 0.5, Exclude: exclude}
	}
	return SearchSpaceOptions{}
}

// FilterCandidates adapts the candidates to a problem: block sizes are scaled by opts.Scale and
// clamped between MinBlockSize and the next power of 2 of the corresponding problem dimension
// (if static), excluded candidates are dropped, and duplicates are removed, preserving order.
func FilterCandidates(resolver symbolic.StaticResolver, candidates []Candidate, m, n, k shapes.Dimension,
	opts SearchSpaceOptions) []Candidate {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	mBound := blockBound(resolver, m)
	nBound := blockBound(resolver, n)
	kBound := blockBound(resolver, k)

	filtered := make([]Candidate, 0, len(candidates))
	seen := sets.Make[string](len(candidates))
	for _, candidate := range candidates {
		candidate.BlockM = adjustBlockSize(candidate.BlockM, scale, mBound)
		candidate.BlockN = adjustBlockSize(candidate.BlockN, scale, nBound)
		candidate.BlockK = adjustBlockSize(candidate.BlockK, scale, kBound)
		if opts.Exclude != nil && opts.Exclude(candidate.BlockM, candidate.BlockN, candidate.BlockK) {
			continue
		}
		if !seen.InsertNew(candidate.String()) {
			continue
		}
		candidate.Extra = candidate.Extra.Clone()
		filtered = append(filtered, candidate)
	}
	return filtered
}

// blockBound is the largest useful block size for a dimension, or 0 if unbounded.
func blockBound(resolver symbolic.StaticResolver, dim shapes.Dimension) int {
	value, ok := resolver.TryResolveStatic(dim)
	if !ok {
		return 0
	}
	return max(NextPowerOf2(value), MinBlockSize)
}

func adjustBlockSize(blockSize int, scale float64, bound int) int {
	blockSize = int(float64(blockSize) * scale)
	if bound > 0 {
		blockSize = min(blockSize, bound)
	}
	return max(blockSize, MinBlockSize)
}

// NextPowerOf2 returns the smallest power of 2 >= n, and 1 for n <= 1.
func NextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
