// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package hardware describes the devices matmul kernels are generated for: how many compute
// units (e.g. streaming multiprocessors) they have, and the size of their tensor memory
// descriptors.
//
// Profiles for well known devices are built in, and more can be loaded from YAML files with
// LoadProfiles.
package hardware

import (
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Device is queried for the hardware dependent launch parameters.
type Device interface {
	// Name of the device profile.
	Name() string

	// ComputeUnitCount is the number of hardware parallel execution units, it bounds the grid of
	// persistent kernels.
	ComputeUnitCount() int

	// DescriptorSizeBytes is the size of a tensor memory access descriptor.
	DescriptorSizeBytes() int
}

// Kind of device.
type Kind string

const (
	KindGPU Kind = "gpu"
	KindCPU Kind = "cpu"
)

// KindOf returns the kind of the device, if it reports one with a Kind method, and KindGPU otherwise.
func KindOf(device Device) Kind {
	if withKind, ok := device.(interface{ Kind() Kind }); ok {
		return withKind.Kind()
	}
	return KindGPU
}

// DefaultDescriptorSize is the size in bytes of a TMA (tensor memory accelerator) descriptor.
const DefaultDescriptorSize = 128

// Profile is a static description of a device. It implements Device.
type Profile struct {
	ProfileName    string `yaml:"name" json:"name"`
	DeviceKind     Kind   `yaml:"kind" json:"kind,omitempty"`
	ComputeUnits   int    `yaml:"compute_units" json:"compute_units"`
	DescriptorSize int    `yaml:"descriptor_size" json:"descriptor_size,omitempty"`
}

var _ Device = Profile{}

// Name implements Device.
func (p Profile) Name() string { return p.ProfileName }

// Kind of the device, gpu if not set.
func (p Profile) Kind() Kind {
	if p.DeviceKind == "" {
		return KindGPU
	}
	return p.DeviceKind
}

// ComputeUnitCount implements Device.
func (p Profile) ComputeUnitCount() int { return p.ComputeUnits }

// DescriptorSizeBytes implements Device. It defaults to DefaultDescriptorSize if not set.
func (p Profile) DescriptorSizeBytes() int {
	if p.DescriptorSize <= 0 {
		return DefaultDescriptorSize
	}
	return p.DescriptorSize
}

// Validate checks that the profile describes a usable device.
func (p Profile) Validate() error {
	if p.ProfileName == "" {
		return errors.New("hardware profile without a name")
	}
	if p.ComputeUnits < 1 {
		return errors.Errorf("hardware profile %q: compute_units must be >= 1, got %d", p.ProfileName, p.ComputeUnits)
	}
	if p.DescriptorSize < 0 {
		return errors.Errorf("hardware profile %q: descriptor_size must be >= 0, got %d", p.ProfileName, p.DescriptorSize)
	}
	switch p.DeviceKind {
	case "", KindGPU, KindCPU:
	default:
		return errors.Errorf("hardware profile %q: unknown kind %q", p.ProfileName, p.DeviceKind)
	}
	return nil
}

// Host returns the profile of the CPU running the process, with one compute unit per logical CPU.
func Host() Profile {
	return Profile{ProfileName: "host", DeviceKind: KindCPU, ComputeUnits: runtime.NumCPU()}
}

var builtinProfiles = []Profile{
	{ProfileName: "a100", ComputeUnits: 108},
	{ProfileName: "h100", ComputeUnits: 132},
	{ProfileName: "h100-pcie", ComputeUnits: 114},
	{ProfileName: "l4", ComputeUnits: 58},
	{ProfileName: "rtx4090", ComputeUnits: 128},
	{ProfileName: "mi300x", ComputeUnits: 304},
}

// Registry of device profiles, indexed by lower-case name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry returns a registry with the built-in profiles and the "host" CPU.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range builtinProfiles {
		r.profiles[p.ProfileName] = p
	}
	host := Host()
	r.profiles[host.ProfileName] = host
	return r
}

// Add validates and adds (or replaces) a profile.
func (r *Registry) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.profiles[strings.ToLower(p.ProfileName)] = p
	return nil
}

// Get returns the profile with the given name (case-insensitive).
func (r *Registry) Get(name string) (Profile, error) {
	p, found := r.profiles[strings.ToLower(name)]
	if !found {
		return Profile{}, errors.Errorf("unknown device %q, known devices: %s", name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names returns the sorted names of the profiles.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.profiles))
}

type profilesFile struct {
	Devices []Profile `yaml:"devices"`
}

// LoadProfiles reads a YAML file with a list of device profiles and adds them to the registry:
//
//	devices:
//	  - name: my-gpu
//	    compute_units: 84
//	    descriptor_size: 128
func (r *Registry) LoadProfiles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading hardware profiles from %q", path)
	}
	return r.ParseProfiles(data)
}

// ParseProfiles is like LoadProfiles, but takes the YAML contents.
// If any profile is invalid, none is added.
func (r *Registry) ParseProfiles(data []byte) error {
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "parsing hardware profiles")
	}
	for ii, p := range file.Devices {
		if err := p.Validate(); err != nil {
			return errors.WithMessagef(err, "hardware profile #%d", ii)
		}
	}
	for _, p := range file.Devices {
		r.profiles[strings.ToLower(p.ProfileName)] = p
	}
	return nil
}
