// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package autotune evaluates the candidate kernel configurations of a matmul problem: for
// each candidate it derives the LaunchConfig and the launch grid, in parallel.
//
// The results are what a benchmarking harness needs to compile and time each choice. The
// timing itself is out of scope.
package autotune

import (
	"context"
	"fmt"

	"github.com/gomlx/gemmtune/internal/workerspool"
	"github.com/gomlx/gemmtune/pkg/config"
	"github.com/gomlx/gemmtune/pkg/core/symbolic"
	"github.com/gomlx/gemmtune/pkg/gemm"
	"github.com/gomlx/gemmtune/pkg/hardware"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrNoCandidates is returned when no choice is left for a problem and falling back to the
// generic backend is disabled.
var ErrNoCandidates = errors.New("no choices for matmul")

// namespace of the Result IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("github.com/gomlx/gemmtune/autotune"))

// Problem to autotune.
type Problem struct {
	Args *gemm.Args

	// Persistent selects the persistent matmul templates. Only 2D problems are supported.
	Persistent bool

	// Epilogue of addmm, nil for plain matmuls.
	Epilogue *gemm.Epilogue

	// Exclude is used to prune the search space on CPU devices.
	Exclude gemm.ExcludeFn
}

// Result is one choice for a problem: either a template candidate with its launch
// configuration and grid, or the generic backend.
type Result struct {
	// ID is derived from the launch configuration, so it is stable across runs.
	ID uuid.UUID `json:"id"`

	// Generic is set for the generic backend choice, in which case the other fields are empty.
	Generic bool `json:"generic,omitempty"`

	Candidate gemm.Candidate    `json:"candidate"`
	Options   gemm.LaunchConfig `json:"options,omitempty"`

	// GridFn computes the grid of 2D problems. For batched problems it is nil, and BatchGridFn is
	// used instead, with the batch dimensions of the output.
	GridFn      gemm.GridFn      `json:"-"`
	BatchGridFn gemm.BatchGridFn `json:"-"`

	// Grid is only valid if GridResolved, otherwise the problem size is dynamic, and the grid must
	// be computed at launch time with GridFn.
	Grid         gemm.GridDims `json:"grid"`
	GridResolved bool          `json:"grid_resolved"`
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.Generic {
		return "generic"
	}
	grid := "dynamic"
	if r.GridResolved {
		grid = r.Grid.String()
	}
	return fmt.Sprintf("%s grid=%s %s", r.Candidate, grid, r.Options)
}

// Tuner evaluates problems for one device and configuration.
//
// It is safe for concurrent use, provided SizeVars is not shared with other compilations.
type Tuner struct {
	pool     *workerspool.Pool
	cfg      config.Config
	sizeVars *symbolic.SizeVars
	device   hardware.Device
}

// New creates a Tuner. The pool can be shared with other Tuners.
func New(pool *workerspool.Pool, cfg config.Config, sizeVars *symbolic.SizeVars, device hardware.Device) *Tuner {
	return &Tuner{pool: pool, cfg: cfg.Clone(), sizeVars: sizeVars, device: device}
}

// Evaluate returns the choices for the problem, in the order of the candidates, preceded by
// the generic backend if it is enabled.
//
// Template candidates are only considered if config.TemplateBackendName is enabled and the
// output is not known to be empty. If no choice is left, the fallback policy decides between
// returning only the generic backend or ErrNoCandidates.
func (t *Tuner) Evaluate(ctx context.Context, problem Problem, candidates []gemm.Candidate) ([]Result, error) {
	args := problem.Args
	if args == nil {
		return nil, errors.New("autotune: problem without arguments")
	}
	if problem.Persistent && args.Layout.Rank() != 2 {
		return nil, errors.Errorf("autotune: persistent templates require 2D problems, got output %s", args.Layout)
	}
	for _, candidate := range candidates {
		if err := candidate.Validate(); err != nil {
			return nil, err
		}
	}

	var results []Result
	if t.cfg.GenericBackendEnabled() {
		results = append(results, genericResult())
	}
	verdict := gemm.IsStaticProblem(t.sizeVars, args.Layout)
	if t.cfg.TemplatesEnabled() && verdict.IsNonZero {
		opts := gemm.SearchSpaceFor(hardware.KindOf(t.device), problem.Exclude)
		filtered := gemm.FilterCandidates(t.sizeVars, candidates, args.M, args.N, args.K, opts)
		klog.V(1).Infof("autotune: %d of %d candidates for %s on %s", len(filtered), len(candidates),
			args.Layout, t.device.Name())
		templates, err := workerspool.Map(ctx, t.pool, filtered, func(candidate gemm.Candidate) (Result, error) {
			return t.evaluateCandidate(problem, candidate), nil
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "autotune: evaluating candidates for %s", args.Layout)
		}
		results = append(results, templates...)
	}

	if len(results) == 0 {
		if !gemm.ShouldFallbackToGeneric(t.cfg, 0) {
			return nil, errors.Wrapf(ErrNoCandidates, "output %s with backends %v", args.Layout, t.cfg.GemmBackends)
		}
		results = append(results, genericResult())
	}
	return results, nil
}

func (t *Tuner) evaluateCandidate(problem Problem, candidate gemm.Candidate) Result {
	args := problem.Args
	options := gemm.BuildOptions(t.cfg, t.sizeVars, candidate, args.M, args.N, args.K, args.Layout.DType)
	gridFn := gemm.MMGrid
	if problem.Persistent {
		options = options.Merge(
			gemm.BuildPersistentOptions(t.device, args.Left, args.Right),
			gemm.LaunchConfig{gemm.KeyPersistent: true})
		gridFn = gemm.PersistentMMGrid
	}
	if problem.Epilogue != nil {
		options = options.Merge(problem.Epilogue.Options())
	}
	result := Result{
		ID:        uuid.NewSHA1(namespace, []byte(options.String())),
		Candidate: candidate,
		Options:   options,
	}
	if args.Layout.Rank() > 2 {
		batch := args.Layout.BatchDimensions()
		result.BatchGridFn = gemm.BMMGrid
		result.Grid, result.GridResolved = gemm.ResolveBatchGrid(t.sizeVars, gemm.BMMGrid, batch, args.M, args.N, options)
		return result
	}
	result.GridFn = gridFn
	result.Grid, result.GridResolved = gemm.ResolveGrid(t.sizeVars, gridFn, args.M, args.N, options)
	return result
}

func genericResult() Result {
	return Result{ID: uuid.NewSHA1(namespace, []byte("generic")), Generic: true}
}
