// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"strconv"
	"strings"

	"github.com/gomlx/gemmtune/pkg/core/shapes"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"github.com/gomlx/gemmtune/pkg/gemm"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

var knownDTypes = []dtypes.DType{
	dtypes.Bool,
	dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
	dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64,
	dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64,
}

var dtypeAliases = map[string]dtypes.DType{
	"f16":  dtypes.Float16,
	"half": dtypes.Float16,
	"bf16": dtypes.BFloat16,
	"f32":  dtypes.Float32,
	"f64":  dtypes.Float64,
	"i8":   dtypes.Int8,
	"i32":  dtypes.Int32,
	"u8":   dtypes.Uint8,
}

// parseDType accepts the dtype names (case-insensitive) and a few short aliases like "bf16".
func parseDType(name string) (dtypes.DType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if dtype, found := dtypeAliases[name]; found {
		return dtype, nil
	}
	for _, dtype := range knownDTypes {
		if strings.ToLower(dtype.String()) == name {
			return dtype, nil
		}
	}
	return dtypes.InvalidDType, errors.Errorf("unknown dtype %q", name)
}

// parseDimensions parses each of the texts with shapes.ParseDimension.
func parseDimensions(texts []string) ([]shapes.Dimension, error) {
	dims := make([]shapes.Dimension, 0, len(texts))
	for _, text := range texts {
		dim, err := shapes.ParseDimension(text)
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
	}
	return dims, nil
}

// parseBindings parses "name=value" pairs. Each entry may hold several comma-separated pairs.
func parseBindings(entries []string) (shapes.AxisBindings, error) {
	bindings := make(shapes.AxisBindings)
	for _, entry := range entries {
		for _, pair := range strings.Split(entry, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			name, valueText, found := strings.Cut(pair, "=")
			if !found || strings.TrimSpace(name) == "" {
				return nil, errors.Errorf("invalid binding %q, expected name=value", pair)
			}
			value, err := strconv.Atoi(strings.TrimSpace(valueText))
			if err != nil || value < 0 {
				return nil, errors.Errorf("invalid binding %q, value must be a non-negative integer", pair)
			}
			if err := bindings.Merge(shapes.AxisBindings{strings.TrimSpace(name): value}); err != nil {
				return nil, err
			}
		}
	}
	return bindings, nil
}

// resolve builds the SizeVars from the --bind flags and resolves the arguments of the problem
// with the given m.
func (p *problemFlags) resolve(mText string) (*gemm.Args, *symbolic.SizeVars, error) {
	dims, err := parseDimensions([]string{mText, p.n, p.k})
	if err != nil {
		return nil, nil, err
	}
	dtype, err := parseDType(p.dtype)
	if err != nil {
		return nil, nil, err
	}
	bindings, err := parseBindings(p.bindings)
	if err != nil {
		return nil, nil, err
	}
	m, n, k := dims[0], dims[1], dims[2]
	sizeVars := symbolic.NewSizeVars(bindings)
	left := gemm.Operand{Shape: shapes.Make(dtype, m, k), Transposed: p.transposeA}
	right := gemm.Operand{Shape: shapes.Make(dtype, k, n), Transposed: p.transposeB}
	args, err := gemm.ResolveArgs(sizeVars, left, right, gemm.ArgsOptions{})
	if err != nil {
		return nil, nil, err
	}
	return args, sizeVars, nil
}
