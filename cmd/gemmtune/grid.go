// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gemmtune/pkg/gemm"
	"github.com/urfave/cli/v3"
)

type gridReport struct {
	Grid       gemm.GridDims `json:"grid"`
	Tiles      int           `json:"tiles"`
	Persistent bool          `json:"persistent"`
}

func gridCmd() *cli.Command {
	var m, n, blockM, blockN, computeUnits int

	return &cli.Command{
		Name:  "grid",
		Usage: "Compute the launch grid of a matmul kernel",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "m", Usage: "rows of the output", Required: true, Destination: &m},
			&cli.IntFlag{Name: "n", Usage: "columns of the output", Required: true, Destination: &n},
			&cli.IntFlag{Name: "block-m", Usage: "BLOCK_M", Value: 64, Destination: &blockM},
			&cli.IntFlag{Name: "block-n", Usage: "BLOCK_N", Value: 64, Destination: &blockN},
			&cli.IntFlag{
				Name:        "compute-units",
				Usage:       "number of compute units for a persistent kernel (0 for a non-persistent one)",
				Destination: &computeUnits,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if m < 0 || n < 0 {
				return cli.Exit(fmt.Sprintf("error: problem sizes must be non-negative, got m=%d n=%d", m, n), 1)
			}
			if blockM < 1 || blockN < 1 || computeUnits < 0 {
				return cli.Exit("error: block sizes must be positive and compute units non-negative", 1)
			}
			report := gridReport{Tiles: gemm.NumTiles(m, n, blockM, blockN), Persistent: computeUnits > 0}
			if report.Persistent {
				report.Grid = gemm.PersistentGrid(m, n, blockM, blockN, computeUnits)
			} else {
				report.Grid = gemm.Grid(m, n, blockM, blockN)
			}
			if jsonOutput {
				return printJSON(report)
			}

			table := newTable(nil, lipgloss.Left, lipgloss.Right)
			table.Row(false, "problem", fmt.Sprintf("%s x %s", humanize.Comma(int64(m)), humanize.Comma(int64(n))))
			table.Row(false, "blocks", fmt.Sprintf("%d x %d", blockM, blockN))
			table.Row(false, "tiles", humanize.Comma(int64(report.Tiles)))
			if report.Persistent {
				table.Row(false, "compute units", humanize.Comma(int64(computeUnits)))
			}
			table.Row(true, "grid", report.Grid.String())
			fmt.Println(table.Table.Render())
			return nil
		},
	}
}
