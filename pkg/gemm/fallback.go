// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"github.com/gomlx/gemmtune/pkg/config"
	"k8s.io/klog/v2"
)

// ShouldFallbackToGeneric decides, when the autotune search yields no candidates, whether the
// caller should add the generic backend as a choice.
//
// It returns false if there are candidates or the generic backend is already enabled. Otherwise,
// it follows cfg.AutotuneFallbackToGeneric, logging a warning either way: falling back is
// deprecated, and not falling back leaves the caller with no choices.
func ShouldFallbackToGeneric(cfg config.Config, numCandidates int) bool {
	if numCandidates > 0 || cfg.GenericBackendEnabled() {
		return false
	}
	if cfg.AutotuneFallbackToGeneric {
		klog.Warningf("No choices for GEMM, using the generic backend as fallback. " +
			"This behavior is being deprecated, please include ATEN in gemm_backends.")
		return true
	}
	klog.Warningf("No choices for GEMM, chose not to fallback to the generic backend. "+
		"To temporarily change this behavior set %s=1, but this knob is being deprecated. "+
		"The long term fix is to include ATEN in gemm_backends.", config.GEMMTUNE_AUTOTUNE_FALLBACK_TO_GENERIC)
	return false
}
