// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/gemmtune/pkg/gemm"
	"github.com/urfave/cli/v3"
)

type optionsReport struct {
	Layout  string            `json:"layout"`
	Options gemm.LaunchConfig `json:"options"`
	Grid    *gemm.GridDims    `json:"grid,omitempty"`
	Guards  []string          `json:"guards,omitempty"`
}

func optionsCmd() *cli.Command {
	var (
		problem     problemFlags
		candidate   gemm.Candidate
		persistent  bool
		alpha, beta float64
	)

	flags := problem.flags()
	flags = append(flags,
		&cli.IntFlag{Name: "block-m", Usage: "BLOCK_M", Value: 64, Destination: &candidate.BlockM},
		&cli.IntFlag{Name: "block-n", Usage: "BLOCK_N", Value: 64, Destination: &candidate.BlockN},
		&cli.IntFlag{Name: "block-k", Usage: "BLOCK_K", Value: 32, Destination: &candidate.BlockK},
		&cli.IntFlag{Name: "num-stages", Usage: "software pipelining stages", Value: 2, Destination: &candidate.NumStages},
		&cli.IntFlag{Name: "num-warps", Usage: "warps per block", Value: 4, Destination: &candidate.NumWarps},
		&cli.BoolFlag{Name: "persistent", Usage: "persistent kernel template", Destination: &persistent},
		&cli.FloatFlag{Name: "alpha", Usage: "addmm scale of the product", Value: 1, Destination: &alpha},
		&cli.FloatFlag{Name: "beta", Usage: "addmm scale of the bias", Value: 1, Destination: &beta},
	)

	return &cli.Command{
		Name:  "options",
		Usage: "Derive the launch configuration of one matmul template candidate",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := candidate.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			args, sizeVars, err := problem.resolve(problem.m)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			device, err := registry.Get(cfg.Device)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			problemCfg := cfg.Clone()
			if c.IsSet("allow-tf32") {
				problemCfg.AllowTF32 = problem.allowTF32
			}

			options := gemm.BuildOptions(problemCfg, sizeVars, candidate, args.M, args.N, args.K, args.Layout.DType)
			gridFn := gemm.MMGrid
			if persistent {
				options = options.Merge(gemm.BuildPersistentOptions(device, args.Left, args.Right),
					gemm.LaunchConfig{gemm.KeyPersistent: true})
				gridFn = gemm.PersistentMMGrid
			}
			options = options.Merge(gemm.NewEpilogue(args.Layout.DType, alpha, beta).Options())

			report := optionsReport{Layout: args.Layout.String(), Options: options}
			if grid, ok := gemm.ResolveGrid(sizeVars, gridFn, args.M, args.N, options); ok {
				report.Grid = &grid
			}
			for _, guard := range sizeVars.Guards() {
				report.Guards = append(report.Guards, guard.String())
			}
			if jsonOutput {
				return printJSON(report)
			}

			printTitle(fmt.Sprintf("%s on %s", report.Layout, device.Name()))
			table := newTable([]string{"option", "value"}, lipgloss.Left, lipgloss.Right)
			for _, key := range options.Keys() {
				highlight := key == gemm.KeyEvenK || key == gemm.KeyAllowTF32
				table.Row(highlight, key, fmt.Sprint(options[key]))
			}
			if report.Grid != nil {
				table.Row(false, "grid", report.Grid.String())
			} else {
				table.Row(false, "grid", "computed at launch")
			}
			fmt.Println(table.Table.Render())
			for _, guard := range report.Guards {
				fmt.Printf("guard: %s\n", guard)
			}
			return nil
		},
	}
}
