// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/gemmtune/pkg/config"
	"github.com/gomlx/gemmtune/pkg/hardware"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"k8s.io/klog/v2"
)

var (
	configPath   string
	profilesPath string
	deviceName   string
	jsonOutput   bool
	noColor      bool
	verbosity    int

	// Set by setup.
	cfg      config.Config
	registry *hardware.Registry
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "YAML configuration file; " + config.GEMMTUNE_CONFIG + " overrides it",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "profiles",
			Usage:       "YAML file with extra device profiles",
			Destination: &profilesPath,
		},
		&cli.StringFlag{
			Name:        "device",
			Aliases:     []string{"d"},
			Usage:       "device profile, overrides the configuration (see the devices command)",
			Destination: &deviceName,
		},
		&cli.BoolFlag{Name: "json", Usage: "print results as JSON", Destination: &jsonOutput},
		&cli.BoolFlag{Name: "no-color", Usage: "disable colors", Destination: &noColor},
		&cli.IntFlag{
			Name:        "verbosity",
			Aliases:     []string{"v"},
			Usage:       "log verbosity (klog -v)",
			Destination: &verbosity,
		},
	}
}

// setup initializes logging, the configuration and the device registry.
func setup(ctx context.Context, _ *cli.Command) (context.Context, error) {
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	if err := klogFlags.Set("v", strconv.Itoa(verbosity)); err != nil {
		return ctx, errors.Wrap(err, "setting log verbosity")
	}

	if noColor || termenv.NewOutput(os.Stdout).Profile == termenv.Ascii {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	var err error
	if configPath == "" {
		cfg, err = config.FromEnvironment()
	} else {
		cfg, err = config.Load(configPath)
		if err == nil {
			cfg, err = cfg.WithEnv(os.LookupEnv)
		}
	}
	if err != nil {
		return ctx, err
	}
	if deviceName != "" {
		cfg.Device = deviceName
	}

	registry = hardware.NewRegistry()
	if profilesPath != "" {
		if err := registry.LoadProfiles(profilesPath); err != nil {
			return ctx, err
		}
	}
	klog.V(1).Infof("gemmtune: device=%q backends=%v group_m=%d", cfg.Device, cfg.GemmBackends, cfg.GroupM)
	return ctx, nil
}

// problemFlags are the flags describing a matmul problem, shared by options and sweep.
type problemFlags struct {
	m, n, k    string
	dtype      string
	transposeA bool
	transposeB bool
	allowTF32  bool
	bindings   []string
}

func (p *problemFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "m", Usage: "rows of the output: a number, an axis name or name%multiple", Required: true, Destination: &p.m},
		&cli.StringFlag{Name: "n", Usage: "columns of the output", Required: true, Destination: &p.n},
		&cli.StringFlag{Name: "k", Usage: "contraction dimension", Required: true, Destination: &p.k},
		&cli.StringFlag{Name: "dtype", Usage: "dtype of the operands and output", Value: "float32", Destination: &p.dtype},
		&cli.BoolFlag{Name: "transpose-a", Usage: "left operand is stored column-major", Destination: &p.transposeA},
		&cli.BoolFlag{Name: "transpose-b", Usage: "right operand is stored column-major", Destination: &p.transposeB},
		&cli.BoolFlag{Name: "allow-tf32", Usage: "allow reduced precision, overrides the configuration", Destination: &p.allowTF32},
		&cli.StringSliceFlag{Name: "bind", Usage: "bind a dynamic axis, e.g. --bind seq=1024", Destination: &p.bindings},
	}
}
