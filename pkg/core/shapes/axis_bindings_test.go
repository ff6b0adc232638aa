// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestAxisBindingsKey(t *testing.T) {
	tests := []struct {
		name     string
		bindings AxisBindings
		want     string
	}{
		{
			name:     "empty",
			bindings: AxisBindings{},
			want:     "",
		},
		{
			name:     "nil",
			bindings: nil,
			want:     "",
		},
		{
			name:     "single",
			bindings: AxisBindings{"batch": 32},
			want:     "batch=32",
		},
		{
			name:     "insertion_order_ignored",
			bindings: AxisBindings{"seq": 128, "batch": 32, "hidden": 512},
			want:     "batch=32,hidden=512,seq=128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.bindings.Key())
		})
	}
}

func TestAxisBindingsCloneAndMerge(t *testing.T) {
	original := AxisBindings{"batch": 32, "seq": 128}
	clone := original.Clone()
	require.Equal(t, original, clone)
	clone["batch"] = 64
	require.Equal(t, 32, original["batch"])

	var nilBindings AxisBindings
	require.Nil(t, nilBindings.Clone())

	t.Run("same_value", func(t *testing.T) {
		ab := AxisBindings{"batch": 32}
		require.NoError(t, ab.Merge(AxisBindings{"batch": 32, "seq": 7}))
		require.Equal(t, AxisBindings{"batch": 32, "seq": 7}, ab)
	})
	t.Run("conflict", func(t *testing.T) {
		ab := AxisBindings{"batch": 32}
		err := ab.Merge(AxisBindings{"batch": 64})
		require.Error(t, err)
		require.Contains(t, err.Error(), "batch")
	})
	t.Run("conflict_leaves_unchanged", func(t *testing.T) {
		for range 20 {
			ab := AxisBindings{"a": 1}
			err := ab.Merge(AxisBindings{"a": 2, "b": 7, "c": 9, "d": 11, "e": 3})
			require.Error(t, err)
			require.Equal(t, AxisBindings{"a": 1}, ab)
		}
	})
}

func TestAxisBindingsLookup(t *testing.T) {
	bindings := AxisBindings{"batch": 8, "seq": 48, "bad": 10}
	tests := []struct {
		name  string
		dim   Dimension
		want  int
		found bool
	}{
		{"static", Static(5), 5, true},
		{"static_zero", Static(0), 0, true},
		{"bound", Dynamic("batch"), 8, true},
		{"unbound", Dynamic("hidden"), 0, false},
		{"unnamed", Dynamic(""), 0, false},
		{"multiple_ok", DynamicMultipleOf("seq", 16), 48, true},
		{"multiple_contradicted", DynamicMultipleOf("bad", 4), 0, false},
		{"scaled", Dynamic("seq").Scale(2), 96, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := bindings.Lookup(tt.dim)
			require.Equal(t, tt.found, found)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestShapeResolve(t *testing.T) {
	shape := Make(dtypes.Float32, Dynamic("batch"), Dynamic("seq"), Static(64))
	resolved := shape.Resolve(AxisBindings{"batch": 4})
	require.True(t, resolved.Dim(0).IsStatic())
	require.True(t, resolved.Dim(1).IsDynamic())
	require.Equal(t, "(Float32)[4 seq 64]", resolved.String())

	// Original is unchanged.
	require.True(t, shape.Dim(0).IsDynamic())

	full := shape.Resolve(AxisBindings{"batch": 4, "seq": 10})
	dims, ok := full.StaticDimensions()
	require.True(t, ok)
	require.Equal(t, []int{4, 10, 64}, dims)
}

func TestExtractBindings(t *testing.T) {
	pattern := Make(dtypes.Float32, Dynamic("batch"), DynamicMultipleOf("seq", 8), Static(64), Dynamic("batch"))

	t.Run("ok", func(t *testing.T) {
		bindings, err := ExtractBindings(pattern, MakeStatic(dtypes.Float32, 2, 32, 64, 2))
		require.NoError(t, err)
		require.Equal(t, AxisBindings{"batch": 2, "seq": 32}, bindings)
	})
	t.Run("scaled", func(t *testing.T) {
		scaled := Make(dtypes.Float32, Dynamic("k").Scale(2))
		bindings, err := ExtractBindings(scaled, MakeStatic(dtypes.Float32, 10))
		require.NoError(t, err)
		require.Equal(t, AxisBindings{"k": 5}, bindings)
	})
	t.Run("errors", func(t *testing.T) {
		for name, concrete := range map[string]Shape{
			"rank":        MakeStatic(dtypes.Float32, 2, 32, 64),
			"dtype":       MakeStatic(dtypes.Float16, 2, 32, 64, 2),
			"static":      MakeStatic(dtypes.Float32, 2, 32, 65, 2),
			"multiple":    MakeStatic(dtypes.Float32, 2, 33, 64, 2),
			"conflicting": MakeStatic(dtypes.Float32, 2, 32, 64, 3),
			"dynamic":     Make(dtypes.Float32, Static(2), Static(32), Static(64), Dynamic("x")),
		} {
			_, err := ExtractBindings(pattern, concrete)
			require.Errorf(t, err, "expected error for %q", name)
		}
	})
}
