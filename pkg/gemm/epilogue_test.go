// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestEpilogue(t *testing.T) {
	identity := NewEpilogue(dtypes.Float32, 1, 1)
	require.True(t, identity.IsIdentity())
	require.Empty(t, identity.Options())
	require.Equal(t, 5.0, identity.Apply(2, 3))

	scaled := NewEpilogue(dtypes.Float32, 2, 0.5)
	require.False(t, scaled.IsIdentity())
	require.Equal(t, LaunchConfig{KeyAlpha: 2.0, KeyBeta: 0.5}, scaled.Options())
	require.Equal(t, 2*3.0+0.5*4.0, scaled.Apply(3, 4))
	require.Equal(t, float32(8), scaled.ApplyFloat32(3, 4))

	alphaOnly := NewEpilogue(dtypes.Float32, 0.25, 1)
	require.Equal(t, LaunchConfig{KeyAlpha: 0.25}, alphaOnly.Options())
	require.Equal(t, 1.0+10.0, alphaOnly.Apply(4, 10))
}

func TestEpilogueRounding(t *testing.T) {
	third := float32(1) / 3
	require.Equal(t, third, NewEpilogue(dtypes.Float32, 1, 1).Round(third))
	require.NotEqual(t, third, NewEpilogue(dtypes.Float16, 1, 1).Round(third))
	require.NotEqual(t, third, NewEpilogue(dtypes.BFloat16, 1, 1).Round(third))
	require.InDelta(t, third, NewEpilogue(dtypes.Float16, 1, 1).Round(third), 1e-3)
	require.InDelta(t, third, NewEpilogue(dtypes.BFloat16, 1, 1).Round(third), 1e-2)

	e := NewEpilogue(dtypes.BFloat16, 2, 1)
	require.Equal(t, e.Round(e.ApplyFloat32(third, 1)), e.ApplyRounded(third, 1))

	f16 := NewEpilogue(dtypes.Float16, 2, 1)
	require.Equal(t, float32(3.25), f16.ApplyFloat16(1.5, float16.Fromfloat32(0.25)).Float32())
	bf16 := NewEpilogue(dtypes.BFloat16, 1, 2)
	require.Equal(t, float32(2.5), bf16.ApplyBFloat16(1.5, bfloat16.FromFloat32(0.5)).Float32())
}
