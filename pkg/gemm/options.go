// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"strings"

	"github.com/gomlx/gemmtune/pkg/config"
	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"github.com/gomlx/gemmtune/pkg/hardware"
	"github.com/gomlx/gopjrt/dtypes"
	"k8s.io/klog/v2"
)

// Alignments required for reduced precision (TF32) matmuls when config.ForceSamePrecision is set.
const (
	TF32AlignmentM = 16
	TF32AlignmentN = 16
	TF32AlignmentK = 8
)

// AccumulatorType returns the dtype used to accumulate the products of a matmul with the given
// output dtype: half precision floats accumulate in Float32, everything else in its own dtype.
func AccumulatorType(outDType dtypes.DType) dtypes.DType {
	if outDType == dtypes.Float16 || outDType == dtypes.BFloat16 {
		return dtypes.Float32
	}
	return outDType
}

// TemplateTypeName returns the name of the dtype in the kernel templates, e.g. "tl.float32".
func TemplateTypeName(dtype dtypes.DType) string {
	var name string
	switch dtype {
	case dtypes.Bool:
		name = "int1"
	case dtypes.BFloat16:
		name = "bfloat16"
	case dtypes.Float16:
		name = "float16"
	case dtypes.Float32:
		name = "float32"
	case dtypes.Float64:
		name = "float64"
	default:
		name = strings.ToLower(dtype.String())
	}
	return "tl." + name
}

// IsEvenK returns whether k is provably divisible by blockK. A dynamic k is never resolved
// through a runtime guard: only what is known about its divisibility is used.
func IsEvenK(resolver symbolic.StaticResolver, k shapes.Dimension, blockK int) bool {
	if value, ok := resolver.TryResolveStatic(k); ok {
		k = shapes.Static(value)
	}
	divisor, ok := symbolic.GCD(k, shapes.Static(blockK)).Value()
	return ok && divisor == blockK
}

// isAligned returns whether the dimension is provably a multiple of alignment.
func isAligned(resolver symbolic.StaticResolver, dim shapes.Dimension, alignment int) bool {
	if value, ok := resolver.TryResolveStatic(dim); ok {
		return value%alignment == 0
	}
	return dim.IsMultipleOf(alignment)
}

// AllowTF32 returns whether reduced precision is allowed for the problem: cfg.AllowTF32 must be
// set and, if cfg.ForceSamePrecision is set, m, n and k must be aligned to the tensor-core tiles.
func AllowTF32(cfg config.Config, resolver symbolic.StaticResolver, m, n, k shapes.Dimension) bool {
	if !cfg.AllowTF32 {
		return false
	}
	if !cfg.ForceSamePrecision {
		return true
	}
	return isAligned(resolver, m, TF32AlignmentM) &&
		isAligned(resolver, n, TF32AlignmentN) &&
		isAligned(resolver, k, TF32AlignmentK)
}

// BuildOptions returns the LaunchConfig of a matmul template for one candidate: the grouping
// factor, whether K divides evenly in BLOCK_K blocks, whether reduced precision is allowed, the
// accumulator type, and the candidate's scheduling and block tiling options.
//
// It is a pure function: calling it twice with the same inputs returns equal configurations.
func BuildOptions(cfg config.Config, resolver symbolic.StaticResolver, candidate Candidate,
	m, n, k shapes.Dimension, outDType dtypes.DType) LaunchConfig {
	evenK := IsEvenK(resolver, k, candidate.BlockK)
	if klog.V(3).Enabled() && k.IsDynamic() {
		klog.Infof("gemm: EVEN_K=%v for dynamic K=%s and BLOCK_K=%d", evenK, k, candidate.BlockK)
	}
	options := LaunchConfig{
		KeyGroupM:    cfg.GroupM,
		KeyEvenK:     evenK,
		KeyAllowTF32: AllowTF32(cfg, resolver, m, n, k),
		KeyAccType:   TemplateTypeName(AccumulatorType(outDType)),
		KeyNumStages: candidate.NumStages,
		KeyNumWarps:  candidate.NumWarps,
	}
	return options.Merge(candidate.Kwargs())
}

// BuildPersistentOptions returns the extra options of persistent matmul templates: the operands
// memory order, the number of compute units of the device and the size of the tensor memory
// descriptors.
func BuildPersistentOptions(device hardware.Device, left, right Operand) LaunchConfig {
	return LaunchConfig{
		KeyARowMajor: !left.Transposed,
		KeyBRowMajor: !right.Transposed,
		KeyNumSMs:    device.ComputeUnitCount(),
		KeyTMASize:   device.DescriptorSizeBytes(),
	}
}
