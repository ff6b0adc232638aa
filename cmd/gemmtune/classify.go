// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"github.com/gomlx/gemmtune/pkg/gemm"
	"github.com/urfave/cli/v3"
)

type classifyReport struct {
	Shape    string `json:"shape"`
	Resolved string `json:"resolved"`
	gemm.StaticnessVerdict
}

func classifyCmd() *cli.Command {
	var (
		dtypeName string
		bindings  []string
	)

	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify an output shape as static or dynamic, and possibly empty",
		ArgsUsage: "DIM [DIM...]   (e.g. 4 batch seq%16 0)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dtype", Usage: "dtype of the output", Value: "float32", Destination: &dtypeName},
			&cli.StringSliceFlag{Name: "bind", Usage: "bind a dynamic axis, e.g. --bind batch=8", Destination: &bindings},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			dims, err := parseDimensions(c.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			dtype, err := parseDType(dtypeName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			axisBindings, err := parseBindings(bindings)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			shape := shapes.Make(dtype, dims...)
			report := classifyReport{
				Shape:             shape.String(),
				Resolved:          shape.Resolve(axisBindings).String(),
				StaticnessVerdict: gemm.IsStaticProblem(symbolic.NewSizeVars(axisBindings), shape),
			}
			if jsonOutput {
				return printJSON(report)
			}
			table := newTable(nil, lipgloss.Left, lipgloss.Right)
			table.Row(false, "shape", report.Shape)
			if report.Resolved != report.Shape {
				table.Row(false, "resolved", report.Resolved)
			}
			table.Row(report.IsStatic, "static", strconv.FormatBool(report.IsStatic))
			table.Row(report.IsNonZero, "non-zero", strconv.FormatBool(report.IsNonZero))
			fmt.Println(table.Table.Render())
			return nil
		},
	}
}
