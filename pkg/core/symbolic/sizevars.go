// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Guard is a deferred equality between two dimensions.
type Guard struct {
	LHS, RHS shapes.Dimension
}

// String implements fmt.Stringer.
func (g Guard) String() string {
	return fmt.Sprintf("%s == %s", g.LHS, g.RHS)
}

// SizeVars resolves dimensions using the axis bindings known at compile time, and keeps
// the list of deferred guards registered with AssertEqual.
//
// It is safe for concurrent use.
type SizeVars struct {
	mu       sync.Mutex
	bindings shapes.AxisBindings
	guards   []Guard
}

var (
	_ Guards         = (*SizeVars)(nil)
	_ StaticResolver = (*SizeVars)(nil)
)

// NewSizeVars creates a SizeVars with the given bindings (they may be nil). The bindings are cloned.
func NewSizeVars(bindings shapes.AxisBindings) *SizeVars {
	sv := &SizeVars{bindings: bindings.Clone()}
	if sv.bindings == nil {
		sv.bindings = make(shapes.AxisBindings)
	}
	return sv
}

// TryResolveStatic implements StaticResolver.
func (sv *SizeVars) TryResolveStatic(dim shapes.Dimension) (int, bool) {
	if value, ok := dim.Value(); ok {
		return value, true
	}
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.bindings.Lookup(dim)
}

// AssertEqual implements Guards.
//
// Equal symbols are trivially accepted. Provably different dimensions return an error
// wrapping ErrGuardViolation. Everything else is registered as a deferred Guard, verified later
// with Check.
func (sv *SizeVars) AssertEqual(a, b shapes.Dimension) error {
	if a.Equal(b) {
		return nil
	}
	if reason, different := ProvablyDifferent(sv, a, b); different {
		return errors.Wrapf(ErrGuardViolation, "%s != %s (%s)", a, b, reason)
	}
	_, aOk := sv.TryResolveStatic(a)
	_, bOk := sv.TryResolveStatic(b)
	if aOk && bOk {
		return nil
	}
	guard := Guard{LHS: a, RHS: b}
	sv.mu.Lock()
	sv.guards = append(sv.guards, guard)
	sv.mu.Unlock()
	klog.V(2).Infof("symbolic: deferred guard %s", guard)
	return nil
}

// Guards returns a copy of the deferred guards registered so far.
func (sv *SizeVars) Guards() []Guard {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return slices.Clone(sv.guards)
}

// Bind adds new axis bindings, typically once the concrete shapes of a call are known.
// It returns an error if a binding conflicts with a previous one, or if the deferred guards
// are proven false with the new bindings. On error the SizeVars is left unchanged.
func (sv *SizeVars) Bind(bindings shapes.AxisBindings) error {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	merged := sv.bindings.Clone()
	if merged == nil {
		merged = make(shapes.AxisBindings, len(bindings))
	}
	if err := merged.Merge(bindings); err != nil {
		return errors.WithMessage(err, "SizeVars.Bind()")
	}
	if err := checkGuards(merged, sv.guards); err != nil {
		return errors.WithMessage(err, "SizeVars.Bind()")
	}
	sv.bindings = merged
	return nil
}

// Check verifies all deferred guards, using the SizeVars bindings plus the extra given bindings
// (which may be nil and are not stored).
//
// It returns an error wrapping ErrGuardViolation for the first guard proven false. Guards
// that still can't be decided are not an error.
func (sv *SizeVars) Check(extra shapes.AxisBindings) error {
	sv.mu.Lock()
	bindings := sv.bindings.Clone()
	guards := slices.Clone(sv.guards)
	sv.mu.Unlock()
	if bindings == nil {
		bindings = make(shapes.AxisBindings, len(extra))
	}
	if err := bindings.Merge(extra); err != nil {
		return errors.WithMessage(err, "SizeVars.Check()")
	}
	return checkGuards(bindings, guards)
}

func checkGuards(bindings shapes.AxisBindings, guards []Guard) error {
	for _, guard := range guards {
		lhs, err := resolveForCheck(bindings, guard.LHS)
		if err != nil {
			return errors.Wrapf(ErrGuardViolation, "guard %s: %v", guard, err)
		}
		rhs, err := resolveForCheck(bindings, guard.RHS)
		if err != nil {
			return errors.Wrapf(ErrGuardViolation, "guard %s: %v", guard, err)
		}
		if reason, different := ProvablyDifferent(StaticOnly{}, lhs, rhs); different {
			return errors.Wrapf(ErrGuardViolation, "guard %s with bindings {%s}: %s",
				guard, bindings.Key(), reason)
		}
	}
	return nil
}

// resolveForCheck resolves the dimension to a static one if it is bound. A bound value that is
// not a multiple of the dimension's known divisor is an error.
func resolveForCheck(bindings shapes.AxisBindings, dim shapes.Dimension) (shapes.Dimension, error) {
	if dim.IsStatic() || dim.Name() == "" {
		return dim, nil
	}
	bound, found := bindings[dim.Name()]
	if !found {
		return dim, nil
	}
	value := bound * dim.Factor()
	if bound < 0 || value%dim.Multiple() != 0 {
		return dim, errors.Errorf("axis %q bound to %d, which is incompatible with %s", dim.Name(), bound, dim)
	}
	return shapes.Static(value), nil
}
