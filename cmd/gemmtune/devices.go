// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gemmtune/pkg/hardware"
	"github.com/urfave/cli/v3"
)

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List the known device profiles",
		Action: func(ctx context.Context, c *cli.Command) error {
			profiles := make([]hardware.Profile, 0)
			for _, name := range registry.Names() {
				profile, err := registry.Get(name)
				if err != nil {
					return err
				}
				profiles = append(profiles, profile)
			}
			if jsonOutput {
				return printJSON(profiles)
			}
			table := newTable([]string{"name", "kind", "compute units", "descriptor size"},
				lipgloss.Left, lipgloss.Left, lipgloss.Right)
			for _, profile := range profiles {
				table.Row(strings.EqualFold(profile.Name(), cfg.Device),
					profile.Name(), string(profile.Kind()),
					humanize.Comma(int64(profile.ComputeUnitCount())),
					humanize.Bytes(uint64(profile.DescriptorSizeBytes())))
			}
			fmt.Println(table.Table.Render())
			return nil
		},
	}
}
