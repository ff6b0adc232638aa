// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package config holds the knobs that drive matmul launch configuration derivation.
//
// A Config is passed explicitly to the functions that need it, there is no process-wide
// state. It can be built from Default, a YAML file (Load) and the environment (WithEnv), in
// that order of precedence.
package config

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/gemmtune/internal/sets"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// GEMMTUNE_CONFIG is the environment variable with a configuration override.
//
// The format is a comma-separated list of "key=value" pairs, with the same keys as the YAML
// file, e.g.: "force_same_precision=false,group_m=4,gemm_backends=triton|aten".
// List values are separated by "|".
const GEMMTUNE_CONFIG = "GEMMTUNE_CONFIG"

// GEMMTUNE_AUTOTUNE_FALLBACK_TO_GENERIC is the environment variable that, if set to a true
// value, enables falling back to the generic backend when no candidate is left.
//
// Deprecated: include "ATEN" in gemm_backends instead.
const GEMMTUNE_AUTOTUNE_FALLBACK_TO_GENERIC = "GEMMTUNE_AUTOTUNE_FALLBACK_TO_GENERIC"

// GenericBackendNames are the gemm_backends names that enable the generic (reference) backend.
var GenericBackendNames = []string{"ATEN", "GENERIC"}

// TemplateBackendName is the gemm_backends name that enables the generated (templated) kernels.
const TemplateBackendName = "TRITON"

// Config for matmul launch configuration derivation.
type Config struct {
	// AllowTF32 is the hardware/backend default for allowing reduced precision (TF32) matmuls.
	AllowTF32 bool `yaml:"allow_tf32"`

	// ForceSamePrecision only allows reduced precision if the problem is aligned to the
	// tensor-core tile sizes.
	ForceSamePrecision bool `yaml:"force_same_precision"`

	// AutotuneFallbackToGeneric falls back to the generic backend when the autotune search
	// yields no candidates.
	AutotuneFallbackToGeneric bool `yaml:"autotune_fallback_to_generic"`

	// GemmBackends lists the backends used for matmuls, in upper case.
	GemmBackends []string `yaml:"gemm_backends"`

	// GroupM is the number of row blocks grouped together when scheduling tiles.
	GroupM int `yaml:"group_m"`

	// Device is the name of the hardware profile to use.
	Device string `yaml:"device"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		AllowTF32:          false,
		ForceSamePrecision: true,
		GemmBackends:       []string{"ATEN", "TRITON"},
		GroupM:             8,
		Device:             "host",
	}
}

// BackendEnabled returns whether any of the names is in GemmBackends, ignoring case.
func (c Config) BackendEnabled(names ...string) bool {
	wanted := sets.MakeWith(names...)
	for _, backend := range c.GemmBackends {
		if wanted.Has(strings.ToUpper(strings.TrimSpace(backend))) {
			return true
		}
	}
	return false
}

// GenericBackendEnabled returns whether one of the GenericBackendNames is in GemmBackends.
func (c Config) GenericBackendEnabled() bool {
	return c.BackendEnabled(GenericBackendNames...)
}

// TemplatesEnabled returns whether TemplateBackendName is in GemmBackends.
func (c Config) TemplatesEnabled() bool {
	return c.BackendEnabled(TemplateBackendName)
}

// Validate returns an error if the configuration is not usable.
func (c Config) Validate() error {
	if c.GroupM < 1 {
		return errors.Errorf("config: group_m must be >= 1, got %d", c.GroupM)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	c.GemmBackends = slices.Clone(c.GemmBackends)
	return c
}

// Load reads the YAML file at path on top of Default. Fields not present in the file keep
// their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading configuration %q", path)
	}
	return Parse(data)
}

// Parse is like Load, but takes the YAML contents.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parsing configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnvironment returns Default overridden by the environment variables.
func FromEnvironment() (Config, error) {
	return Default().WithEnv(os.LookupEnv)
}

// WithEnv returns a copy of the configuration overridden by the environment variables
// GEMMTUNE_CONFIG and GEMMTUNE_AUTOTUNE_FALLBACK_TO_GENERIC, as returned by lookup
// (usually os.LookupEnv).
func (c Config) WithEnv(lookup func(key string) (string, bool)) (Config, error) {
	cfg := c.Clone()
	if value, found := lookup(GEMMTUNE_AUTOTUNE_FALLBACK_TO_GENERIC); found {
		enabled, err := parseBool(value)
		if err != nil {
			return Config{}, errors.WithMessagef(err, "environment variable %s", GEMMTUNE_AUTOTUNE_FALLBACK_TO_GENERIC)
		}
		cfg.AutotuneFallbackToGeneric = enabled
	}
	if value, found := lookup(GEMMTUNE_CONFIG); found {
		if err := cfg.Set(value); err != nil {
			return Config{}, errors.WithMessagef(err, "environment variable %s=%q", GEMMTUNE_CONFIG, value)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Set parses a comma-separated list of "key=value" pairs and sets the corresponding fields.
// See GEMMTUNE_CONFIG for the format.
func (c *Config) Set(settings string) error {
	for _, part := range strings.Split(settings, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return errors.Errorf("invalid setting %q, expected key=value", part)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		var err error
		switch key {
		case "allow_tf32":
			c.AllowTF32, err = parseBool(value)
		case "force_same_precision":
			c.ForceSamePrecision, err = parseBool(value)
		case "autotune_fallback_to_generic":
			c.AutotuneFallbackToGeneric, err = parseBool(value)
		case "gemm_backends":
			c.GemmBackends = nil
			for _, backend := range strings.Split(value, "|") {
				if backend = strings.TrimSpace(backend); backend != "" {
					c.GemmBackends = append(c.GemmBackends, strings.ToUpper(backend))
				}
			}
		case "group_m":
			c.GroupM, err = strconv.Atoi(value)
		case "device":
			c.Device = value
		default:
			return errors.Errorf("unknown setting %q", key)
		}
		if err != nil {
			return errors.Wrapf(err, "invalid value for %q", key)
		}
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return false, errors.Errorf("invalid boolean %q", value)
}
