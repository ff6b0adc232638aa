// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"fmt"
	"maps"

	"github.com/pkg/errors"
)

// Candidate is one block-tiling and scheduling configuration considered by the autotune search.
type Candidate struct {
	BlockM    int `json:"block_m"`
	BlockN    int `json:"block_n"`
	BlockK    int `json:"block_k"`
	NumStages int `json:"num_stages"`
	NumWarps  int `json:"num_warps"`

	// Extra template options, copied verbatim to the LaunchConfig.
	Extra LaunchConfig `json:"extra,omitempty"`
}

// Validate returns an error if the candidate can't be used to build a launch configuration.
func (c Candidate) Validate() error {
	if c.BlockM < 1 || c.BlockN < 1 || c.BlockK < 1 {
		return errors.Errorf("candidate %s: block sizes must be >= 1", c)
	}
	if c.NumStages < 1 || c.NumWarps < 1 {
		return errors.Errorf("candidate %s: num_stages and num_warps must be >= 1", c)
	}
	return nil
}

// Kwargs returns the block sizes and extra options of the candidate.
func (c Candidate) Kwargs() LaunchConfig {
	kwargs := LaunchConfig{
		KeyBlockM: c.BlockM,
		KeyBlockN: c.BlockN,
		KeyBlockK: c.BlockK,
	}
	maps.Copy(kwargs, c.Extra)
	return kwargs
}

// String implements fmt.Stringer.
func (c Candidate) String() string {
	s := fmt.Sprintf("%dx%dx%d/s%d/w%d", c.BlockM, c.BlockN, c.BlockK, c.NumStages, c.NumWarps)
	if len(c.Extra) > 0 {
		s += c.Extra.String()
	}
	return s
}

// Equal returns whether both candidates have the same configuration.
func (c Candidate) Equal(other Candidate) bool {
	return c.BlockM == other.BlockM && c.BlockN == other.BlockN && c.BlockK == other.BlockK &&
		c.NumStages == other.NumStages && c.NumWarps == other.NumWarps && c.Extra.Equal(other.Extra)
}

// DefaultCandidates returns the standard list of matmul block configurations searched by the
// autotuner. A new slice is returned on each call.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{BlockM: 32, BlockN: 32, BlockK: 16, NumStages: 1, NumWarps: 2},
		{BlockM: 32, BlockN: 32, BlockK: 128, NumStages: 2, NumWarps: 4},
		{BlockM: 32, BlockN: 64, BlockK: 32, NumStages: 5, NumWarps: 8},
		{BlockM: 64, BlockN: 32, BlockK: 32, NumStages: 5, NumWarps: 8},
		{BlockM: 64, BlockN: 32, BlockK: 128, NumStages: 5, NumWarps: 4},
		{BlockM: 64, BlockN: 64, BlockK: 16, NumStages: 2, NumWarps: 4},
		{BlockM: 64, BlockN: 64, BlockK: 32, NumStages: 2, NumWarps: 4},
		{BlockM: 64, BlockN: 64, BlockK: 64, NumStages: 3, NumWarps: 8},
		{BlockM: 64, BlockN: 64, BlockK: 128, NumStages: 5, NumWarps: 4},
		{BlockM: 64, BlockN: 128, BlockK: 32, NumStages: 3, NumWarps: 4},
		{BlockM: 64, BlockN: 128, BlockK: 32, NumStages: 4, NumWarps: 8},
		{BlockM: 64, BlockN: 128, BlockK: 64, NumStages: 3, NumWarps: 4},
		{BlockM: 64, BlockN: 128, BlockK: 128, NumStages: 4, NumWarps: 4},
		{BlockM: 128, BlockN: 64, BlockK: 32, NumStages: 3, NumWarps: 4},
		{BlockM: 128, BlockN: 64, BlockK: 32, NumStages: 4, NumWarps: 8},
		{BlockM: 128, BlockN: 128, BlockK: 32, NumStages: 2, NumWarps: 8},
		{BlockM: 128, BlockN: 128, BlockK: 32, NumStages: 3, NumWarps: 4},
		{BlockM: 128, BlockN: 128, BlockK: 64, NumStages: 3, NumWarps: 4},
		{BlockM: 128, BlockN: 128, BlockK: 64, NumStages: 5, NumWarps: 8},
	}
}
