// Copyright 2025 go-lsc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lsc

import "fmt"

// VectorSize is the number of contiguous elements each active lane transfers.
// The enumerated values are indices into the element count table
// {0, 1, 2, 3, 4, 8, 16, 32, 64}.
type VectorSize uint8

const (
	// VS0 is the reserved zero-element size; no operation accepts it.
	VS0 VectorSize = iota
	N1
	N2
	N3
	N4
	N8
	N16
	N32
	N64
)

var vectorSizeElements = [...]int{0, 1, 2, 3, 4, 8, 16, 32, 64}

// Elements returns the number of elements per lane, or 0 for values outside
// the table.
func (v VectorSize) Elements() int {
	if int(v) >= len(vectorSizeElements) {
		return 0
	}
	return vectorSizeElements[v]
}

// String returns the element count in the "N<k>" form.
func (v VectorSize) String() string {
	if int(v) >= len(vectorSizeElements) {
		return fmt.Sprintf("VectorSize(%d)", uint8(v))
	}
	return fmt.Sprintf("N%d", vectorSizeElements[v])
}

// VectorSizeOf returns the VectorSize whose element count is n.
func VectorSizeOf(n int) (VectorSize, bool) {
	for i, count := range vectorSizeElements {
		if i > 0 && count == n {
			return VectorSize(i), true
		}
	}
	return VS0, false
}

// DataSize is the logical wire size of one transferred element, independent
// of the register element type. The promoting variants read a narrow value
// from memory into a 32-bit register element and narrow it again on store.
type DataSize uint8

const (
	// DataSizeDefault selects the natural size of the element type.
	DataSizeDefault DataSize = iota
	U8
	U16
	U32
	U64
	// U8U32 loads one byte zero-extended to 32 bits.
	U8U32
	// U16U32 loads two bytes zero-extended to 32 bits.
	U16U32
	// U16U32H loads two bytes into the upper half of a 32-bit element.
	U16U32H
)

var dataSizeNames = [...]string{"default", "u8", "u16", "u32", "u64", "u8u32", "u16u32", "u16u32h"}

// String returns the lower-case name of the data size.
func (d DataSize) String() string {
	if int(d) >= len(dataSizeNames) {
		return fmt.Sprintf("DataSize(%d)", uint8(d))
	}
	return dataSizeNames[d]
}

// ParseDataSize parses the names produced by String.
func ParseDataSize(s string) (DataSize, error) {
	for i, name := range dataSizeNames {
		if name == s {
			return DataSize(i), nil
		}
	}
	return DataSizeDefault, fmt.Errorf("unknown data size %q", s)
}

// MemoryBytes returns the number of bytes one element occupies in memory.
func (d DataSize) MemoryBytes() int {
	switch d {
	case U8, U8U32:
		return 1
	case U16, U16U32, U16U32H:
		return 2
	case U32:
		return 4
	case U64:
		return 8
	default:
		return 0
	}
}

// Promoted reports whether d widens on load and narrows on store.
func (d DataSize) Promoted() bool {
	return d == U8U32 || d == U16U32 || d == U16U32H
}

// naturalDataSize returns the plain data size for an element of size bytes.
func naturalDataSize(size int) DataSize {
	switch size {
	case 1:
		return U8
	case 2:
		return U16
	case 4:
		return U32
	case 8:
		return U64
	default:
		return DataSizeDefault
	}
}

// CacheHint is the combined L1/L3 cache control carried by a message.
// The emulation has no cache hierarchy, so hints are decoded and ignored.
type CacheHint uint8

const (
	CacheDefault CacheHint = iota
	CacheL1UCL3UC
	CacheL1UCL3C
	CacheL1CL3UC
	CacheL1CL3C
	CacheL1SL3UC
	CacheL1SL3C
	CacheL1IARL3C
)

var cacheHintNames = [...]string{"default", "l1uc_l3uc", "l1uc_l3c", "l1c_l3uc", "l1c_l3c", "l1s_l3uc", "l1s_l3c", "l1iar_l3c"}

func (c CacheHint) String() string {
	if int(c) >= len(cacheHintNames) {
		return fmt.Sprintf("CacheHint(%d)", uint8(c))
	}
	return cacheHintNames[c]
}

// MemKind identifies the storage target of an operation.
type MemKind uint8

const (
	// UGM is untyped general memory addressed through a buffer handle.
	UGM MemKind = iota
	// UGML is general memory through the low-latency path.
	UGML
	// TGM is typed (texture) memory addressed through a buffer handle.
	TGM
	// SLM is the invocation's local scratch memory.
	SLM
)

var memKindNames = [...]string{"ugm", "ugml", "tgm", "slm"}

func (k MemKind) String() string {
	if int(k) >= len(memKindNames) {
		return fmt.Sprintf("MemKind(%d)", uint8(k))
	}
	return memKindNames[k]
}

// ParseMemKind parses the names produced by String.
func ParseMemKind(s string) (MemKind, error) {
	for i, name := range memKindNames {
		if name == s {
			return MemKind(i), nil
		}
	}
	return UGM, fmt.Errorf("unknown memory kind %q", s)
}

// FenceOp selects the cache action of a fence.
type FenceOp uint8

const (
	FenceNone FenceOp = iota
	FenceEvict
	FenceInvalidate
	FenceDiscard
	FenceClean
	FenceFlushL3
	numFenceOps
)

// Scope selects the set of agents a fence makes writes visible to.
type Scope uint8

const (
	ScopeGroup Scope = iota
	ScopeLocal
	ScopeTile
	ScopeGPU
	ScopeGPUs
	ScopeSystem
	ScopeSystemAcquire
	numScopes
)

// AtomicOp is an atomic read-modify-write operation. The values are the
// hardware operation codes.
type AtomicOp uint8

const (
	AtomicIInc AtomicOp = 0x08 + iota
	AtomicIDec
	AtomicLoad
	AtomicStore
	AtomicIAdd
	AtomicISub
	AtomicSMin
	AtomicSMax
	AtomicUMin
	AtomicUMax
	AtomicICAS
	AtomicFAdd
	AtomicFSub
	AtomicFMin
	AtomicFMax
	AtomicFCAS
	AtomicAnd
	AtomicOr
	AtomicXor
)

var atomicOpNames = map[AtomicOp]string{
	AtomicIInc:  "iinc",
	AtomicIDec:  "idec",
	AtomicLoad:  "load",
	AtomicStore: "store",
	AtomicIAdd:  "iadd",
	AtomicISub:  "isub",
	AtomicSMin:  "smin",
	AtomicSMax:  "smax",
	AtomicUMin:  "umin",
	AtomicUMax:  "umax",
	AtomicICAS:  "icas",
	AtomicFAdd:  "fadd",
	AtomicFSub:  "fsub",
	AtomicFMin:  "fmin",
	AtomicFMax:  "fmax",
	AtomicFCAS:  "fcas",
	AtomicAnd:   "and",
	AtomicOr:    "or",
	AtomicXor:   "xor",
}

func (op AtomicOp) String() string {
	if name, ok := atomicOpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("AtomicOp(%#x)", uint8(op))
}

// Valid reports whether op is a known atomic operation.
func (op AtomicOp) Valid() bool {
	return op >= AtomicIInc && op <= AtomicXor
}

// NumSources returns the number of source operands op consumes: 0 for
// IINC, IDEC and LOAD, 2 for the compare-and-swap forms, 1 otherwise.
func (op AtomicOp) NumSources() int {
	switch op {
	case AtomicIInc, AtomicIDec, AtomicLoad:
		return 0
	case AtomicICAS, AtomicFCAS:
		return 2
	default:
		return 1
	}
}

// IsFloat reports whether op is one of the floating-point operations.
func (op AtomicOp) IsFloat() bool {
	switch op {
	case AtomicFAdd, AtomicFSub, AtomicFMin, AtomicFMax, AtomicFCAS:
		return true
	}
	return false
}
