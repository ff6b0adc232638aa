// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// Epilogue of addmm: output = Alpha * (left x right) + Beta * bias.
//
// Scaling by a factor of 1 is skipped, so the identity epilogue adds no operations to the kernel.
type Epilogue struct {
	Alpha, Beta float64

	// DType of the output, the reference implementation rounds its results to it.
	DType dtypes.DType
}

// NewEpilogue returns the epilogue for the given output dtype and scaling factors.
func NewEpilogue(dtype dtypes.DType, alpha, beta float64) Epilogue {
	return Epilogue{Alpha: alpha, Beta: beta, DType: dtype}
}

// IsIdentity returns whether the epilogue is a plain addition of the bias.
func (e Epilogue) IsIdentity() bool {
	return e.Alpha == 1 && e.Beta == 1
}

// Options returns the template options for the scaling factors different from 1.
func (e Epilogue) Options() LaunchConfig {
	options := make(LaunchConfig)
	if e.Alpha != 1 {
		options[KeyAlpha] = e.Alpha
	}
	if e.Beta != 1 {
		options[KeyBeta] = e.Beta
	}
	return options
}

// Apply is the reference implementation of the epilogue for one accumulated value and bias.
func (e Epilogue) Apply(acc, bias float64) float64 {
	if e.Alpha != 1 {
		acc *= e.Alpha
	}
	if e.Beta != 1 {
		bias *= e.Beta
	}
	return acc + bias
}

// ApplyFloat32 is like Apply, computed in float32.
func (e Epilogue) ApplyFloat32(acc, bias float32) float32 {
	if e.Alpha != 1 {
		acc *= float32(e.Alpha)
	}
	if e.Beta != 1 {
		bias *= float32(e.Beta)
	}
	return acc + bias
}

// Round rounds a float32 value to the precision of the epilogue's DType. Only Float16 and
// BFloat16 lose precision, other dtypes return value unchanged.
func (e Epilogue) Round(value float32) float32 {
	switch e.DType {
	case dtypes.Float16:
		return float16.Fromfloat32(value).Float32()
	case dtypes.BFloat16:
		return bfloat16.FromFloat32(value).Float32()
	}
	return value
}

// ApplyRounded applies the epilogue in float32 and rounds the result to the epilogue's DType.
func (e Epilogue) ApplyRounded(acc, bias float32) float32 {
	return e.Round(e.ApplyFloat32(acc, bias))
}

// ApplyFloat16 applies the epilogue to a float32 accumulator and a Float16 bias, rounding the
// result to Float16.
func (e Epilogue) ApplyFloat16(acc float32, bias float16.Float16) float16.Float16 {
	return float16.Fromfloat32(e.ApplyFloat32(acc, bias.Float32()))
}

// ApplyBFloat16 applies the epilogue to a float32 accumulator and a BFloat16 bias, rounding the
// result to BFloat16.
func (e Epilogue) ApplyBFloat16(acc float32, bias bfloat16.BFloat16) bfloat16.BFloat16 {
	return bfloat16.FromFloat32(e.ApplyFloat32(acc, bias.Float32()))
}
