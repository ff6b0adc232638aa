// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import "github.com/pkg/errors"

var (
	// ErrShapeMismatch is returned (wrapped) when operand dimensions are provably incompatible.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrConflictingSpecification is returned (wrapped) when both an explicit output layout and
	// an explicit output dtype are given.
	ErrConflictingSpecification = errors.New("conflicting specification")
)
