// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// AxisBindings maps axis names to concrete dimension values.
// Used to resolve dynamic dimensions to static ones once they become known.
type AxisBindings map[string]int

// Key returns a canonical string representation for map keying.
// Format: "name1=val1,name2=val2" with names sorted alphabetically.
// Returns empty string for empty or nil bindings.
func (ab AxisBindings) Key() string {
	if len(ab) == 0 {
		return ""
	}
	names := make([]string, 0, len(ab))
	for name := range ab {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, ab[name])
	}
	return strings.Join(parts, ",")
}

// Clone returns a copy of the bindings.
func (ab AxisBindings) Clone() AxisBindings {
	if ab == nil {
		return nil
	}
	clone := make(AxisBindings, len(ab))
	for k, v := range ab {
		clone[k] = v
	}
	return clone
}

// Merge combines bindings from another AxisBindings into this one.
// Returns an error if there are conflicting values for the same axis name, in which case
// ab is left unchanged.
func (ab AxisBindings) Merge(other AxisBindings) error {
	if conflicts := ab.conflicts(other); len(conflicts) > 0 {
		name := conflicts[0]
		return errors.Errorf("conflicting values for axis %q: %d vs %d", name, ab[name], other[name])
	}
	for name, val := range other {
		ab[name] = val
	}
	return nil
}

// conflicts returns the sorted names bound to different values in ab and other.
func (ab AxisBindings) conflicts(other AxisBindings) []string {
	var names []string
	for name, val := range other {
		if existing, ok := ab[name]; ok && existing != val {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Lookup returns the static value of the dimension: its value if static, or the bound value
// of its name (times its factor) if dynamic and bound.
//
// A bound value that is not a multiple of the dimension's known divisor is ignored: the
// binding contradicts what is known of the axis.
func (ab AxisBindings) Lookup(dim Dimension) (int, bool) {
	if value, ok := dim.Value(); ok {
		return value, true
	}
	if dim.Name() == "" {
		return 0, false
	}
	bound, ok := ab[dim.Name()]
	if !ok || bound < 0 {
		return 0, false
	}
	value := bound * dim.Factor()
	if value%dim.Multiple() != 0 {
		return 0, false
	}
	return value, true
}

// Resolve replaces named dynamic dimensions with static values from bindings.
// If a named axis has no binding, it remains dynamic.
// Static dimensions are unchanged.
func (s Shape) Resolve(bindings AxisBindings) Shape {
	result := s.Clone()
	if len(bindings) == 0 {
		return result
	}
	for i, dim := range s.Dimensions {
		if value, ok := bindings.Lookup(dim); ok && dim.IsDynamic() {
			result.Dimensions[i] = Static(value)
		}
	}
	return result
}

// ExtractBindings gets axis bindings from a concrete shape matching a pattern.
// The pattern may have named dynamic axes; concrete must be fully static.
//
// Returns error if:
//   - Shapes have different ranks
//   - Shapes have different dtypes
//   - Concrete has a dynamic dimension
//   - Static dimensions don't match
//   - A concrete value is not a multiple of the pattern's known divisor
//   - Same axis name has conflicting values
func ExtractBindings(pattern, concrete Shape) (AxisBindings, error) {
	if pattern.Rank() != concrete.Rank() {
		return nil, errors.Errorf("rank mismatch: pattern has %d, concrete has %d",
			pattern.Rank(), concrete.Rank())
	}
	if pattern.DType != concrete.DType {
		return nil, errors.Errorf("dtype mismatch: pattern is %s, concrete is %s",
			pattern.DType, concrete.DType)
	}

	bindings := make(AxisBindings)
	for i, patternDim := range pattern.Dimensions {
		concreteVal, ok := concrete.Dimensions[i].Value()
		if !ok {
			return nil, errors.Errorf("dimension %d of concrete shape %s is not static", i, concrete)
		}
		if staticVal, isStatic := patternDim.Value(); isStatic {
			if staticVal != concreteVal {
				return nil, errors.Errorf("dimension %d mismatch: pattern has %d, concrete has %d",
					i, staticVal, concreteVal)
			}
			continue
		}
		if concreteVal%patternDim.Multiple() != 0 {
			return nil, errors.Errorf("dimension %d: value %d is not a multiple of %d as required by pattern %s",
				i, concreteVal, patternDim.Multiple(), pattern)
		}
		name := patternDim.Name()
		if name == "" {
			// Unnamed dynamic accepts any value.
			continue
		}
		bound := concreteVal / patternDim.Factor()
		if existing, ok := bindings[name]; ok && existing != bound {
			return nil, errors.Errorf("axis %q has conflicting values at dimension %d: %d vs %d",
				name, i, existing, bound)
		}
		bindings[name] = bound
	}
	return bindings, nil
}
