// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layout

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

const (
	// MaxCores is the number of cores addressable by the 6-bit pointer field of an instruction.
	MaxCores = 1 << 6

	// MaxRowSpan is the number of rows addressable by the 8-bit row_addr field of an instruction.
	MaxRowSpan = 1 << 8

	// DefaultBaseAddress is where the first matrix (A) is placed by AllocateBases.
	DefaultBaseAddress = 0x100
)

// RowAddrMode defines how a global row address (a byte address, or a LUT programming row) is turned
// into the value stored in the instruction's row_addr field.
type RowAddrMode int

const (
	// RowAddrLocal interprets row_addr as a per-core local row index: the global address
	// modulo the core's row span (Topology.RowSpan).
	RowAddrLocal RowAddrMode = iota

	// RowAddrStrict passes the global address unchanged and fails if it doesn't fit the field.
	RowAddrStrict
)

// String implements fmt.Stringer.
func (m RowAddrMode) String() string {
	switch m {
	case RowAddrLocal:
		return "local"
	case RowAddrStrict:
		return "strict"
	default:
		return fmt.Sprintf("RowAddrMode(%d)", int(m))
	}
}

// ParseRowAddrMode is the inverse of RowAddrMode.String.
func ParseRowAddrMode(s string) (RowAddrMode, error) {
	switch s {
	case "local":
		return RowAddrLocal, nil
	case "strict":
		return RowAddrStrict, nil
	}
	return 0, errors.Errorf("unknown row address mode %q, valid values are \"local\" or \"strict\"", s)
}

// Topology describes the accelerator the program is generated for.
//
// It is a plain value: each compilation carries its own copy, so compilations with different
// topologies can run concurrently.
type Topology struct {
	// NumCores is the number of PIM cores. Every core is programmed by the preamble.
	NumCores int

	// BlockSize is the side of the square tiles distributed round-robin across cores.
	BlockSize int

	// BytesPerElement of the matrices.
	BytesPerElement int

	// ProgrammingRowStride is the distance between the LUT storage rows of consecutive cores.
	ProgrammingRowStride int

	// RowSpan is the number of rows owned by each core, used by RowAddrLocal.
	RowSpan int

	// RowAddrMode selects how global addresses are mapped to the row_addr field.
	RowAddrMode RowAddrMode
}

// DefaultTopology returns the 8-core pPIM configuration, with int32 elements.
func DefaultTopology() Topology {
	return Topology{
		NumCores:             8,
		BlockSize:            2,
		BytesPerElement:      int(dtypes.Int32.Size()),
		ProgrammingRowStride: 64,
		RowSpan:              MaxRowSpan,
		RowAddrMode:          RowAddrLocal,
	}
}

// Validate returns an error if the topology cannot be encoded by the instruction format.
func (t Topology) Validate() error {
	if t.NumCores < 1 || t.NumCores > MaxCores {
		return errors.Errorf("invalid topology %s: number of cores must be in [1, %d]", t, MaxCores)
	}
	if t.BlockSize < 1 {
		return errors.Errorf("invalid topology %s: block size must be >= 1", t)
	}
	if t.BytesPerElement < 1 {
		return errors.Errorf("invalid topology %s: bytes per element must be >= 1", t)
	}
	if t.ProgrammingRowStride < 0 {
		return errors.Errorf("invalid topology %s: programming row stride must be >= 0", t)
	}
	if t.RowSpan < 1 || t.RowSpan > MaxRowSpan {
		return errors.Errorf("invalid topology %s: row span must be in [1, %d]", t, MaxRowSpan)
	}
	if t.RowAddrMode != RowAddrLocal && t.RowAddrMode != RowAddrStrict {
		return errors.Errorf("invalid topology %s: unknown row address mode", t)
	}
	return nil
}

// String implements fmt.Stringer.
func (t Topology) String() string {
	return fmt.Sprintf("Topology(cores=%d, block=%d, bytes/elem=%d, prog_stride=%d, row_span=%d, row_addr=%s)",
		t.NumCores, t.BlockSize, t.BytesPerElement, t.ProgrammingRowStride, t.RowSpan, t.RowAddrMode)
}

// CoreOf returns the core owning the tile that contains (i, j).
// It is a total function: every index pair maps to a core in [0, NumCores).
func (t Topology) CoreOf(i, j int) int {
	blockI, blockJ := floorDiv(i, t.BlockSize), floorDiv(j, t.BlockSize)
	core := (blockI + blockJ) % t.NumCores
	if core < 0 {
		core += t.NumCores
	}
	return core
}

// ProgrammingRow is the LUT storage row of the given core.
func (t Topology) ProgrammingRow(core int) int {
	return core * t.ProgrammingRowStride
}

// RowAddr maps a global address to the value of the instruction's row_addr field, according to RowAddrMode.
func (t Topology) RowAddr(global int) (int, error) {
	if global < 0 {
		return 0, errors.Errorf("negative row address %d", global)
	}
	switch t.RowAddrMode {
	case RowAddrLocal:
		return global % t.RowSpan, nil
	case RowAddrStrict:
		if global >= MaxRowSpan {
			return 0, errors.Errorf("row address %d doesn't fit the 8-bit row_addr field (row address mode %q)",
				global, t.RowAddrMode)
		}
		return global, nil
	}
	return 0, errors.Errorf("unknown row address mode %s", t.RowAddrMode)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
