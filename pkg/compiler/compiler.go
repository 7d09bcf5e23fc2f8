// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package compiler generates the pPIM instruction stream of a dense matrix multiplication C = A x B.
//
// A compilation is a pure, single-pass transform: the matrix shapes are laid out back-to-back
// in the accelerator's address space (see package layout), the LUT programming preamble is emitted,
// followed by the compute stream walking the output elements in row-major order, and a final END.
// The stream is then checked against its closed-form length and fully encoded, so a Program
// returned without error can always be serialized.
//
// Example:
//
//	c, err := compiler.Build().CrossCore(compiler.CrossCoreShared).Done()
//	if err != nil { ... }
//	program, err := c.Compile(compiler.MatmulDims{A: layout.Shape{Rows: 2, Cols: 3}, B: layout.Shape{Rows: 3, Cols: 2}})
package compiler

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Config for a Compiler, created with Build.
//
// Errors in the configuration are deferred and reported by Done.
type Config struct {
	topology    layout.Topology
	policy      CrossCorePolicy
	baseAddress int
	maxInstr    int
	err         error
}

// Build a Compiler configuration with the default topology, shared cross-core policy and
// A placed at layout.DefaultBaseAddress. Call Done to create the Compiler.
func Build() *Config {
	return &Config{
		topology:    layout.DefaultTopology(),
		policy:      CrossCoreShared,
		baseAddress: layout.DefaultBaseAddress,
		maxInstr:    DefaultMaxInstructions,
	}
}

func (c *Config) setError(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Topology sets the accelerator topology.
func (c *Config) Topology(topology layout.Topology) *Config {
	if err := topology.Validate(); err != nil {
		c.setError(err)
		return c
	}
	c.topology = topology
	return c
}

// CrossCore sets the policy for operands living in a core other than the accumulator's.
func (c *Config) CrossCore(policy CrossCorePolicy) *Config {
	if policy != CrossCoreShared && policy != CrossCoreReject {
		c.setError(errors.Errorf("unknown cross-core policy %s", policy))
		return c
	}
	c.policy = policy
	return c
}

// BaseAddress sets where matrix A is placed. B and C follow it.
func (c *Config) BaseAddress(addr int) *Config {
	if addr < 0 {
		c.setError(errors.Errorf("base address must be >= 0, got %d", addr))
		return c
	}
	c.baseAddress = addr
	return c
}

// MaxInstructions sets the limit on the length of generated programs, DefaultMaxInstructions by default.
// Compiling dimensions that would exceed it fails with ErrDimensionExtraction.
func (c *Config) MaxInstructions(n int) *Config {
	if n < 1 || n > maxInstructionsLimit {
		c.setError(errors.Errorf("max instructions must be in [1, %d], got %d", maxInstructionsLimit, n))
		return c
	}
	c.maxInstr = n
	return c
}

// Done returns the configured Compiler, or the first configuration error.
func (c *Config) Done() (*Compiler, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &Compiler{topology: c.topology, policy: c.policy, baseAddress: c.baseAddress, maxInstr: c.maxInstr}, nil
}

// MustDone is like Done, but panics on error.
func (c *Config) MustDone() *Compiler {
	compiler, err := c.Done()
	if err != nil {
		panic(errors.Wrap(err, "failed to configure compiler.Compiler"))
	}
	return compiler
}

// Compiler generates Programs for a fixed configuration. It holds no mutable state
// and it is safe for concurrent use.
type Compiler struct {
	topology    layout.Topology
	policy      CrossCorePolicy
	baseAddress int
	maxInstr    int
}

// New returns a Compiler with the default configuration.
func New() *Compiler {
	return Build().MustDone()
}

// Topology used by the compiler.
func (c *Compiler) Topology() layout.Topology { return c.topology }

// Compile generates the program computing C = A x B for dims.
//
// It fails before generating anything if the dimensions are invalid (ErrDimensionExtraction),
// and it never returns a partial program.
func (c *Compiler) Compile(dims MatmulDims) (*Program, error) {
	return c.CompileNamed("", dims)
}

// CompileNamed is like Compile, and sets the name of the program, used for logging and reporting.
func (c *Compiler) CompileNamed(name string, dims MatmulDims) (*Program, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if _, err := StreamLength(c.topology, dims, c.maxInstr); err != nil {
		return nil, err
	}
	if dims.DType == dtypes.InvalidDType {
		dims.DType = dtypes.Int32
	}
	if elementSize := int(dims.DType.Size()); elementSize != c.topology.BytesPerElement {
		return nil, errors.Errorf("element type %s has %d bytes, but the topology uses %d bytes per element",
			dims.DType, elementSize, c.topology.BytesPerElement)
	}
	a, b, cLayout := layout.AllocateBases(c.topology, dims.A, dims.B, c.baseAddress)
	if klog.V(1).Enabled() {
		klog.Infof("compiling %q: %s, layouts %s %s %s, %s", name, dims, a, b, cLayout, c.topology)
	}
	instructions, err := generateMatmul(a, b, cLayout, c.policy, c.maxInstr)
	if err != nil {
		return nil, errors.WithMessagef(err, "generating instructions for %s", dims)
	}
	if err := verifyStream(c.topology, dims, instructions); err != nil {
		return nil, err
	}
	words, err := encodeAll(c.topology, instructions)
	if err != nil {
		return nil, errors.WithMessagef(err, "encoding instructions for %s", dims)
	}
	p := &Program{
		name:         name,
		dims:         dims,
		topology:     c.topology,
		policy:       c.policy,
		a:            a,
		b:            b,
		c:            cLayout,
		instructions: instructions,
		words:        words,
		stats:        computeStats(c.topology, instructions),
	}
	if klog.V(1).Enabled() {
		klog.Infof("compiled %s: %d cross-core operand reads", p, p.stats.CrossCoreReads)
	}
	return p, nil
}

// MustCompile is like Compile, but panics with the error.
func (c *Compiler) MustCompile(dims MatmulDims) *Program {
	p, err := c.Compile(dims)
	if err != nil {
		exceptions.Panicf("compiler.MustCompile(%s): %+v", dims, err)
	}
	return p
}
