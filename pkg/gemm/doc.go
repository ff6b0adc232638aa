// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gemm derives the arguments and launch configurations of generated matrix
// multiplication kernels (mm, bmm, addmm and friends).
//
// The flow for one operator is:
//
//  1. ResolveArgs validates the operand shapes and computes the output Layout and the
//     M, N, K problem dimensions, registering deferred guards for dynamic dimensions.
//  2. IsStaticProblem classifies the output as static and/or non-zero sized.
//  3. For each autotune Candidate, BuildOptions (and BuildPersistentOptions for persistent
//     kernels) assemble the LaunchConfig, and Grid or PersistentGrid the launch grid.
//  4. If the search yields no candidates, ShouldFallbackToGeneric decides whether to fall back
//     to the generic backend.
//
// All functions are pure and safe for concurrent use: they only read their inputs.
package gemm
