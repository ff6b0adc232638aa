// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package symbolic implements the minimal symbolic reasoning over shapes.Dimension needed to
// derive matmul launch configurations: resolving dimensions to static values, registering
// deferred equality guards on dynamic dimensions, and a greatest-common-divisor that only
// relies on what is provably known about dynamic dimensions.
//
// SizeVars is the default implementation of both Guards and StaticResolver, backed by
// shapes.AxisBindings.
package symbolic

import (
	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/pkg/errors"
)

// ErrGuardViolation is returned (wrapped) when an equality assumed about dynamic dimensions is
// proven false. Use errors.Is to test for it.
var ErrGuardViolation = errors.New("guard violation")

// Guards registers equalities between dimensions that can't be verified yet.
type Guards interface {
	// AssertEqual returns an error wrapping ErrGuardViolation if a and b are provably
	// different. Otherwise, if equality can't be proven, it is deferred as a guard.
	AssertEqual(a, b shapes.Dimension) error
}

// StaticResolver resolves dimensions to values known at compile time.
type StaticResolver interface {
	// TryResolveStatic returns the static value of the dimension, if it is known.
	TryResolveStatic(dim shapes.Dimension) (int, bool)
}

// StaticOnly is a StaticResolver that only resolves static dimensions.
type StaticOnly struct{}

// TryResolveStatic implements StaticResolver.
func (StaticOnly) TryResolveStatic(dim shapes.Dimension) (int, bool) { return dim.Value() }

// GCD returns the greatest common divisor of two dimensions, as far as it can be proven.
//
// For static dimensions it is the usual gcd (with gcd(0, x) = x). For a dynamic dimension
// known to be a multiple of m, gcd(dynamic, Static(b)) = Static(gcd(m, b)): the largest value
// known to divide both. Two different dynamic dimensions yield an unnamed dynamic dimension
// whose known multiple is the gcd of their multiples.
func GCD(a, b shapes.Dimension) shapes.Dimension {
	aValue, aStatic := a.Value()
	bValue, bStatic := b.Value()
	switch {
	case aStatic && bStatic:
		return shapes.Static(gcd(aValue, bValue))
	case aStatic:
		if aValue == 0 {
			return b
		}
		return shapes.Static(gcd(aValue, b.Multiple()))
	case bStatic:
		if bValue == 0 {
			return a
		}
		return shapes.Static(gcd(a.Multiple(), bValue))
	case a.Equal(b):
		return a
	default:
		return shapes.DynamicMultipleOf("", gcd(a.Multiple(), b.Multiple()))
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ProvablyDifferent returns whether two dimensions, after resolution, can't possibly be equal.
// It returns a description of the reason, used in error messages.
func ProvablyDifferent(resolver StaticResolver, a, b shapes.Dimension) (reason string, different bool) {
	aValue, aOk := resolver.TryResolveStatic(a)
	bValue, bOk := resolver.TryResolveStatic(b)
	switch {
	case aOk && bOk:
		if aValue != bValue {
			return "different values", true
		}
	case aOk && aValue != 0 && b.IsDynamic() && aValue%b.Multiple() != 0:
		return "value is not a multiple of the dynamic dimension's known divisor", true
	case bOk && bValue != 0 && a.IsDynamic() && bValue%a.Multiple() != 0:
		return "value is not a multiple of the dynamic dimension's known divisor", true
	}
	return "", false
}
