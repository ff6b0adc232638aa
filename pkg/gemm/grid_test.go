// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"testing"

	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"github.com/stretchr/testify/require"
)

func TestCeilDiv(t *testing.T) {
	require.Equal(t, 0, CeilDiv(0, 16))
	require.Equal(t, 1, CeilDiv(1, 16))
	require.Equal(t, 1, CeilDiv(16, 16))
	require.Equal(t, 2, CeilDiv(17, 16))
	require.Equal(t, int64(3), CeilDiv[int64](65, 32))
	require.Panics(t, func() { CeilDiv(3, 0) })
	require.Panics(t, func() { CeilDiv(3, -1) })
}

func TestGrid(t *testing.T) {
	require.Equal(t, GridDims{X: 64, Y: 1, Z: 1}, Grid(1024, 512, 128, 64))
	require.Equal(t, GridDims{X: 4, Y: 1, Z: 1}, Grid(100, 100, 64, 64))
	require.Equal(t, 0, Grid(0, 100, 64, 64).NumBlocks())
	require.Equal(t, "(64, 1, 1)", Grid(1024, 512, 128, 64).String())

	blockSizes := []int{16, 32, 64, 128}
	for m := 0; m <= 300; m += 7 {
		for n := 1; n <= 300; n += 11 {
			for _, bm := range blockSizes {
				for _, bn := range blockSizes {
					grid := Grid(m, n, bm, bn)
					require.Equal(t, CeilDiv(m, bm)*CeilDiv(n, bn), grid.X)
					require.Equal(t, 1, grid.Y)
					require.Equal(t, 1, grid.Z)
				}
			}
		}
	}
}

func TestPersistentGrid(t *testing.T) {
	require.Equal(t, GridDims{X: 132, Y: 1, Z: 1}, PersistentGrid(4096, 4096, 128, 128, 132))
	require.Equal(t, GridDims{X: 4, Y: 1, Z: 1}, PersistentGrid(100, 100, 64, 64, 132))

	for _, numSMs := range []int{1, 8, 108, 132} {
		for m := 1; m <= 2048; m += 97 {
			for n := 1; n <= 2048; n += 131 {
				grid := PersistentGrid(m, n, 64, 128, numSMs)
				require.Equal(t, min(numSMs, NumTiles(m, n, 64, 128)), grid.X)
				require.LessOrEqual(t, grid.X, numSMs)
				require.Equal(t, 1, grid.Y)
				require.Equal(t, 1, grid.Z)
			}
		}
	}
}

func TestGridFn(t *testing.T) {
	options := LaunchConfig{KeyBlockM: 64, KeyBlockN: 32, KeyNumSMs: 8}
	require.Equal(t, GridDims{X: 32, Y: 1, Z: 1}, MMGrid(256, 256, options))
	require.Equal(t, GridDims{X: 8, Y: 1, Z: 1}, PersistentMMGrid(256, 256, options))
	require.Panics(t, func() { PersistentMMGrid(256, 256, LaunchConfig{KeyBlockM: 64, KeyBlockN: 32}) })
	require.Panics(t, func() { MMGrid(256, 256, LaunchConfig{KeyBlockM: 64, KeyBlockN: "32"}) })
}

func TestResolveGrid(t *testing.T) {
	options := LaunchConfig{KeyBlockM: 64, KeyBlockN: 64}
	sv := symbolic.NewSizeVars(nil)
	grid, ok := ResolveGrid(sv, MMGrid, shapes.Static(128), shapes.Static(256), options)
	require.True(t, ok)
	require.Equal(t, GridDims{X: 8, Y: 1, Z: 1}, grid)

	// Dynamic sizes are only known at launch time.
	m := shapes.Dynamic("seq")
	_, ok = ResolveGrid(sv, MMGrid, m, shapes.Static(256), options)
	require.False(t, ok)

	require.NoError(t, sv.Bind(shapes.AxisBindings{"seq": 1000}))
	grid, ok = ResolveGrid(sv, MMGrid, m, shapes.Static(256), options)
	require.True(t, ok)
	require.Equal(t, GridDims{X: 16 * 4, Y: 1, Z: 1}, grid)
}

func TestBatchGrid(t *testing.T) {
	options := LaunchConfig{KeyBlockM: 64, KeyBlockN: 64}
	require.Equal(t, GridDims{X: 4, Y: 8, Z: 1}, BMMGrid(8, 128, 128, options))

	sv := symbolic.NewSizeVars(nil)
	batch := []shapes.Dimension{shapes.Static(2), shapes.Dynamic("heads")}
	_, ok := ResolveBatchGrid(sv, BMMGrid, batch, shapes.Static(128), shapes.Static(128), options)
	require.False(t, ok)

	require.NoError(t, sv.Bind(shapes.AxisBindings{"heads": 4}))
	grid, ok := ResolveBatchGrid(sv, BMMGrid, batch, shapes.Static(128), shapes.Static(128), options)
	require.True(t, ok)
	require.Equal(t, GridDims{X: 4, Y: 8, Z: 1}, grid)
	require.Equal(t, 32, grid.NumBlocks())

	// No batch dimensions is a single matrix.
	grid, ok = ResolveBatchGrid(sv, BMMGrid, nil, shapes.Static(128), shapes.Static(128), options)
	require.True(t, ok)
	require.Equal(t, MMGrid(128, 128, options), grid)
}
