// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Launch configuration keys shared by the matmul templates.
const (
	KeyBlockM     = "BLOCK_M"
	KeyBlockN     = "BLOCK_N"
	KeyBlockK     = "BLOCK_K"
	KeyGroupM     = "GROUP_M"
	KeyEvenK      = "EVEN_K"
	KeyAllowTF32  = "ALLOW_TF32"
	KeyAccType    = "ACC_TYPE"
	KeyNumStages  = "num_stages"
	KeyNumWarps   = "num_warps"
	KeyARowMajor  = "A_ROW_MAJOR"
	KeyBRowMajor  = "B_ROW_MAJOR"
	KeyNumSMs     = "NUM_SMS"
	KeyTMASize    = "TMA_SIZE"
	KeyAlpha      = "ALPHA"
	KeyBeta       = "BETA"
	KeyPersistent = "PERSISTENT"
)

// LaunchConfig maps option names to the values passed to a kernel template. Values are int,
// bool, float64 or string.
//
// A LaunchConfig is created fresh for each candidate and is not modified afterward.
type LaunchConfig map[string]any

// Keys returns the option names sorted.
func (lc LaunchConfig) Keys() []string {
	return slices.Sorted(maps.Keys(lc))
}

// String implements fmt.Stringer, with the options sorted by name.
func (lc LaunchConfig) String() string {
	parts := make([]string, 0, len(lc))
	for _, key := range lc.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", key, lc[key]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Clone returns a shallow copy, which is a full copy since values are scalars.
func (lc LaunchConfig) Clone() LaunchConfig {
	return maps.Clone(lc)
}

// Equal returns whether both configurations have the same options and values.
func (lc LaunchConfig) Equal(other LaunchConfig) bool {
	return maps.Equal(lc, other)
}

// Merge returns a new LaunchConfig with the options of lc and others. Later configurations
// override earlier ones.
func (lc LaunchConfig) Merge(others ...LaunchConfig) LaunchConfig {
	merged := lc.Clone()
	if merged == nil {
		merged = make(LaunchConfig)
	}
	for _, other := range others {
		maps.Copy(merged, other)
	}
	return merged
}

// Int returns the option as an int.
func (lc LaunchConfig) Int(key string) (int, error) {
	value, found := lc[key]
	if !found {
		return 0, errors.Errorf("launch configuration has no option %q: %s", key, lc)
	}
	intValue, ok := value.(int)
	if !ok {
		return 0, errors.Errorf("launch configuration option %q is a %T, not an int", key, value)
	}
	return intValue, nil
}

// MustInt is like Int, but panics if the option is missing or not an int.
func (lc LaunchConfig) MustInt(key string) int {
	value, err := lc.Int(key)
	if err != nil {
		exceptions.Panicf("%v", err)
	}
	return value
}

// Bool returns the option as a bool.
func (lc LaunchConfig) Bool(key string) (bool, error) {
	value, found := lc[key]
	if !found {
		return false, errors.Errorf("launch configuration has no option %q: %s", key, lc)
	}
	boolValue, ok := value.(bool)
	if !ok {
		return false, errors.Errorf("launch configuration option %q is a %T, not a bool", key, value)
	}
	return boolValue, nil
}

// Str returns the option as a string.
func (lc LaunchConfig) Str(key string) (string, error) {
	value, found := lc[key]
	if !found {
		return "", errors.Errorf("launch configuration has no option %q: %s", key, lc)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", errors.Errorf("launch configuration option %q is a %T, not a string", key, value)
	}
	return strValue, nil
}
