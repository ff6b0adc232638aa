// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"fmt"
	"testing"

	"github.com/gomlx/gemmtune/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestShouldFallbackToGeneric(t *testing.T) {
	for _, numCandidates := range []int{0, 3} {
		for _, backends := range [][]string{{"TRITON"}, {"ATEN", "TRITON"}, {"triton", "generic"}} {
			for _, fallback := range []bool{false, true} {
				name := fmt.Sprintf("candidates=%d/backends=%v/fallback=%v", numCandidates, backends, fallback)
				t.Run(name, func(t *testing.T) {
					cfg := config.Default()
					cfg.GemmBackends = backends
					cfg.AutotuneFallbackToGeneric = fallback
					want := numCandidates == 0 && !cfg.GenericBackendEnabled() && fallback
					require.Equal(t, want, ShouldFallbackToGeneric(cfg, numCandidates))
				})
			}
		}
	}

	// The only case that falls back.
	cfg := config.Default()
	cfg.GemmBackends = []string{"TRITON"}
	cfg.AutotuneFallbackToGeneric = true
	require.True(t, ShouldFallbackToGeneric(cfg, 0))
}
