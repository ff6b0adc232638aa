// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// gemmtune derives the launch configurations of matmul kernels: output layouts, launch grids,
// template options, and the candidates an autotuner would benchmark.
//
// Examples:
//
//	gemmtune grid --m 4096 --n 4096 --block-m 128 --block-n 128 --compute-units 132
//	gemmtune classify batch 512 0
//	gemmtune options --m seq%16 --n 1024 --k 512 --dtype f16 --allow-tf32
//	gemmtune sweep --m 8192 --n 8192 --k 4096 --dtype bf16 --device h100 --persistent
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:   "gemmtune",
		Usage:  "Matmul shape and launch configuration resolver",
		Flags:  globalFlags(),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			gridCmd(),
			classifyCmd(),
			optionsCmd(),
			sweepCmd(),
			devicesCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
