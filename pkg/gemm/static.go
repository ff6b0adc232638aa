// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
)

// StaticnessVerdict tells whether a problem's output shape is known at compile time, and
// whether it has any elements.
type StaticnessVerdict struct {
	// IsStatic is true if all dimensions resolve to static values.
	IsStatic bool `json:"is_static"`

	// IsNonZero is true if the output has elements. For shapes that are not static it is only
	// false if some dimension is known to be 0: unknown dimensions are assumed to be non-zero.
	IsNonZero bool `json:"is_non_zero"`
}

// IsStaticProblem classifies the output shape of a problem. It never fails.
func IsStaticProblem(resolver symbolic.StaticResolver, shape shapes.Shape) StaticnessVerdict {
	isStatic := true
	knownZero := false
	for _, dim := range shape.Dimensions {
		value, ok := resolver.TryResolveStatic(dim)
		if !ok {
			isStatic = false
			continue
		}
		if value == 0 {
			knownZero = true
		}
	}
	return StaticnessVerdict{IsStatic: isStatic, IsNonZero: !knownZero}
}
