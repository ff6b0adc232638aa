// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gemmtune/internal/workerspool"
	"github.com/gomlx/gemmtune/pkg/autotune"
	"github.com/gomlx/gemmtune/pkg/gemm"
	"github.com/gomlx/gemmtune/pkg/hardware"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

type sweepReport struct {
	Layout  string            `json:"layout"`
	Results []autotune.Result `json:"results"`
}

func sweepCmd() *cli.Command {
	var (
		problem     problemFlags
		persistent  bool
		maxBlock    int
		parallelism int
	)

	flags := problem.flags()
	flags = append(flags,
		&cli.BoolFlag{Name: "persistent", Usage: "persistent kernel templates", Destination: &persistent},
		&cli.IntFlag{Name: "max-block", Usage: "on CPU devices, exclude candidates with larger blocks (0 for no limit)", Destination: &maxBlock},
		&cli.IntFlag{Name: "parallelism", Usage: "number of candidates evaluated in parallel (-1 unlimited, 0 inline), defaults to the number of CPUs", Destination: &parallelism},
	)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Evaluate the default candidates for one or more problem sizes (--m accepts a comma-separated list)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			device, err := registry.Get(cfg.Device)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			problemCfg := cfg.Clone()
			if c.IsSet("allow-tf32") {
				problemCfg.AllowTF32 = problem.allowTF32
			}
			pool := workerspool.New()
			if c.IsSet("parallelism") {
				pool.SetMaxParallelism(parallelism)
			}
			var exclude gemm.ExcludeFn
			if maxBlock > 0 {
				exclude = func(blockM, blockN, blockK int) bool {
					return max(blockM, blockN, blockK) > maxBlock
				}
			}

			ms := strings.Split(problem.m, ",")
			var bar *progressbar.ProgressBar
			if !jsonOutput {
				bar = progressbar.NewOptions(len(ms),
					progressbar.OptionSetDescription("sweep"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetTheme(progressbar.ThemeASCII),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionClearOnFinish(),
				)
			}
			candidates := gemm.DefaultCandidates()
			reports := make([]sweepReport, 0, len(ms))
			for _, m := range ms {
				args, sizeVars, err := problem.resolve(strings.TrimSpace(m))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				tuner := autotune.New(pool, problemCfg, sizeVars, device)
				results, err := tuner.Evaluate(ctx, autotune.Problem{Args: args, Persistent: persistent, Exclude: exclude}, candidates)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				reports = append(reports, sweepReport{Layout: args.Layout.String(), Results: results})
				if bar != nil {
					_ = bar.Add(1)
				}
			}
			if jsonOutput {
				return printJSON(reports)
			}
			for _, report := range reports {
				printSweepReport(device, report)
			}
			return nil
		},
	}
}

func printSweepReport(device hardware.Device, report sweepReport) {
	printTitle(fmt.Sprintf("%s on %s (%d compute units)", report.Layout, device.Name(), device.ComputeUnitCount()))
	table := newTable([]string{"#", "choice", "grid", "blocks", "EVEN_K", "ALLOW_TF32", "id"},
		lipgloss.Right, lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Center, lipgloss.Center, lipgloss.Left)
	for ii, result := range report.Results {
		idx := fmt.Sprintf("%d", ii)
		id := result.ID.String()[:8]
		if result.Generic {
			table.Row(true, idx, "generic", "-", "-", "-", "-", id)
			continue
		}
		grid, blocks := "at launch", "-"
		if result.GridResolved {
			grid = result.Grid.String()
			blocks = humanize.Comma(int64(result.Grid.NumBlocks()))
		}
		table.Row(false, idx, result.Candidate.String(), grid, blocks,
			fmt.Sprint(result.Options[gemm.KeyEvenK]), fmt.Sprint(result.Options[gemm.KeyAllowTF32]), id)
	}
	fmt.Println(table.Table.Render())
}
