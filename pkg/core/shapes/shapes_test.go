// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestDimension(t *testing.T) {
	var zero Dimension
	require.True(t, zero.IsStatic())
	require.Equal(t, "0", zero.String())

	d := Static(12)
	value, ok := d.Value()
	require.True(t, ok)
	require.Equal(t, 12, value)
	require.True(t, d.IsMultipleOf(4))
	require.False(t, d.IsMultipleOf(5))
	require.Equal(t, Static(24), d.Scale(2))

	dyn := DynamicMultipleOf("seq", 16)
	_, ok = dyn.Value()
	require.False(t, ok)
	require.True(t, dyn.IsMultipleOf(8))
	require.False(t, dyn.IsMultipleOf(32))
	require.Equal(t, "seq%16", dyn.String())
	require.Equal(t, "2*seq%32", dyn.Scale(2).String())
	require.True(t, dyn.Scale(2).IsMultipleOf(32))
	require.Equal(t, "?", Dynamic("").String())

	require.True(t, Dynamic("k").Equal(Dynamic("k")))
	require.False(t, Dynamic("k").Equal(Dynamic("k").Scale(2)))
	require.False(t, Dynamic("").Equal(Dynamic("")))
	require.False(t, Static(3).Equal(Dynamic("3")))

	require.Panics(t, func() { _ = Static(-1) })
	require.Panics(t, func() { _ = DynamicMultipleOf("x", 0) })
	err := exceptions.TryCatch[error](func() { _ = Static(3).Scale(0) })
	require.Error(t, err)
	require.Contains(t, err.Error(), "factor must be >= 1")
}

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape := MakeStatic(dtypes.Float32, 4, 3, 2)
	require.True(t, shape.Ok())
	require.Equal(t, 3, shape.Rank())
	require.True(t, shape.IsFullyStatic())
	require.Equal(t, "(Float32)[4 3 2]", shape.String())
	require.Equal(t, []Dimension{Static(4)}, shape.BatchDimensions())

	dims := []Dimension{Dynamic("batch"), Static(3), Static(2)}
	dynShape := Make(dtypes.Float16, dims...)
	dims[1] = Static(100)
	require.Equal(t, Static(3), dynShape.Dim(1), "Make must copy the dimensions")
	require.False(t, dynShape.IsFullyStatic())
	_, ok := dynShape.StaticDimensions()
	require.False(t, ok)

	batch := dynShape.BatchDimensions()
	batch[0] = Static(1)
	require.True(t, dynShape.Dim(0).IsDynamic(), "BatchDimensions must return a copy")

	require.Panics(t, func() { _ = Make(dtypes.Float32, Static(1)).BatchDimensions() })
}

func TestDim(t *testing.T) {
	shape := MakeStatic(dtypes.Float32, 4, 3, 2)
	require.Equal(t, Static(4), shape.Dim(0))
	require.Equal(t, Static(2), shape.Dim(2))
	require.Equal(t, Static(4), shape.Dim(-3))
	require.Equal(t, Static(2), shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestEqual(t *testing.T) {
	a := Make(dtypes.Float32, Dynamic("batch"), Static(3))
	require.True(t, a.Equal(a.Clone()))
	require.False(t, a.Equal(Make(dtypes.Float16, Dynamic("batch"), Static(3))))
	require.True(t, a.EqualDimensions(Make(dtypes.Float16, Dynamic("batch"), Static(3))))
	require.False(t, a.Equal(Make(dtypes.Float32, Dynamic("seq"), Static(3))))
	require.False(t, a.Equal(MakeStatic(dtypes.Float32, 3)))
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		text    string
		want    Dimension
		wantErr bool
	}{
		{text: "128", want: Static(128)},
		{text: " 0 ", want: Static(0)},
		{text: "batch", want: Dynamic("batch")},
		{text: "seq%16", want: DynamicMultipleOf("seq", 16)},
		{text: "?", want: Dynamic("")},
		{text: "2*k", want: Dynamic("k").Scale(2)},
		{text: "2*k%32", want: DynamicMultipleOf("k", 16).Scale(2)},
		{text: "4*?", want: Dynamic("").Scale(4)},
		{text: "", wantErr: true},
		{text: "0*k", wantErr: true},
		{text: "2*k%3", wantErr: true},
		{text: "-3", wantErr: true},
		{text: "seq%0", wantErr: true},
		{text: "seq%x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseDimension(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	// String and ParseDimension round trip.
	for _, dim := range []Dimension{
		Static(7), Dynamic("seq"), DynamicMultipleOf("seq", 8), Dynamic("k").Scale(2),
		DynamicMultipleOf("k", 16).Scale(4), Dynamic("").Scale(3),
	} {
		got, err := ParseDimension(dim.String())
		require.NoError(t, err, "parsing %q", dim)
		require.Equal(t, dim, got, "parsing %q", dim)
	}
}
