// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLaunchConfig(t *testing.T) {
	lc := LaunchConfig{KeyBlockM: 64, KeyEvenK: true, KeyAccType: "tl.float32", KeyAlpha: 0.5}
	require.Equal(t, []string{KeyAccType, KeyAlpha, KeyBlockM, KeyEvenK}, lc.Keys())
	require.Equal(t, "{ACC_TYPE=tl.float32, ALPHA=0.5, BLOCK_M=64, EVEN_K=true}", lc.String())

	blockM, err := lc.Int(KeyBlockM)
	require.NoError(t, err)
	require.Equal(t, 64, blockM)
	_, err = lc.Int(KeyEvenK)
	require.Error(t, err)
	_, err = lc.Int(KeyBlockN)
	require.ErrorContains(t, err, "no option")
	require.Panics(t, func() { lc.MustInt(KeyBlockN) })

	evenK, err := lc.Bool(KeyEvenK)
	require.NoError(t, err)
	require.True(t, evenK)
	_, err = lc.Bool(KeyBlockM)
	require.Error(t, err)

	accType, err := lc.Str(KeyAccType)
	require.NoError(t, err)
	require.Equal(t, "tl.float32", accType)
	_, err = lc.Str(KeyAlpha)
	require.Error(t, err)

	clone := lc.Clone()
	require.True(t, lc.Equal(clone))
	clone[KeyBlockM] = 128
	require.False(t, lc.Equal(clone))
	require.Equal(t, 64, lc[KeyBlockM])

	merged := lc.Merge(LaunchConfig{KeyBlockM: 32}, LaunchConfig{KeyBlockM: 16, KeyBlockN: 16})
	require.Equal(t, 16, merged[KeyBlockM])
	require.Equal(t, 16, merged[KeyBlockN])
	require.Equal(t, 64, lc[KeyBlockM], "Merge must not modify the receiver")

	var empty LaunchConfig
	require.NotNil(t, empty.Merge())
	require.Equal(t, "{}", empty.String())
}

func TestCandidate(t *testing.T) {
	c := Candidate{BlockM: 64, BlockN: 32, BlockK: 16, NumStages: 2, NumWarps: 4}
	require.NoError(t, c.Validate())
	require.Equal(t, "64x32x16/s2/w4", c.String())
	require.Equal(t, LaunchConfig{KeyBlockM: 64, KeyBlockN: 32, KeyBlockK: 16}, c.Kwargs())

	c.Extra = LaunchConfig{"kpack": 2}
	require.Equal(t, "64x32x16/s2/w4{kpack=2}", c.String())
	require.Equal(t, 2, c.Kwargs()["kpack"])
	require.False(t, c.Equal(Candidate{BlockM: 64, BlockN: 32, BlockK: 16, NumStages: 2, NumWarps: 4}))

	require.Error(t, Candidate{BlockM: 0, BlockN: 32, BlockK: 16, NumStages: 2, NumWarps: 4}.Validate())
	require.Error(t, Candidate{BlockM: 64, BlockN: 32, BlockK: 16, NumStages: 0, NumWarps: 4}.Validate())

	defaults := DefaultCandidates()
	require.NotEmpty(t, defaults)
	for _, candidate := range defaults {
		require.NoError(t, candidate.Validate())
	}
	defaults[0].BlockM = 1
	require.NotEqual(t, 1, DefaultCandidates()[0].BlockM)
}
