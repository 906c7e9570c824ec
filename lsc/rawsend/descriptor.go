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

// Package rawsend decodes packed LSC message descriptors and dispatches
// raw-send messages onto the lsc engine.
//
// Descriptor layout (bit offset, width):
//
//	op          0  6
//	vnni        7  1   (2-D block load only, overlaps address size)
//	addr size   7  2
//	data size   9  3
//	vector size 12 3
//	transpose   15 1   (load only)
//	cache hint  17 3
//	dst length  20 5
//	src0 length 25 4
//	addr type   29 2
package rawsend

import (
	"fmt"

	"github.com/ajroetker/go-lsc/lsc"
)

// Op is a message operation code.
type Op uint8

const (
	OpLoad         Op = 0x00
	OpLoadBlock2D  Op = 0x03
	OpStore        Op = 0x04
	OpStoreBlock2D Op = 0x07
	OpFence        Op = 0x1F
)

func (op Op) String() string {
	switch op {
	case OpLoad:
		return "load"
	case OpLoadBlock2D:
		return "load_block2d"
	case OpStore:
		return "store"
	case OpStoreBlock2D:
		return "store_block2d"
	case OpFence:
		return "fence"
	}
	if a := lsc.AtomicOp(op); a.Valid() {
		return "atomic_" + a.String()
	}
	return fmt.Sprintf("Op(%#x)", uint8(op))
}

// ParseOp parses the names produced by String for the supported codes.
func ParseOp(s string) (Op, error) {
	for _, op := range []Op{OpLoad, OpLoadBlock2D, OpStore, OpStoreBlock2D} {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown message op %q", s)
}

// AddrSize is the width of each per-lane address in the address payload.
type AddrSize uint8

const (
	A16 AddrSize = 1
	A32 AddrSize = 2
	A64 AddrSize = 3
)

// Bytes returns the size of one address, or 0 for reserved encodings.
func (a AddrSize) Bytes() int {
	switch a {
	case A16:
		return 2
	case A32:
		return 4
	case A64:
		return 8
	}
	return 0
}

func (a AddrSize) String() string {
	if n := a.Bytes(); n > 0 {
		return fmt.Sprintf("a%d", 8*n)
	}
	return fmt.Sprintf("AddrSize(%d)", uint8(a))
}

// AddrType selects how addresses are interpreted.
type AddrType uint8

const (
	// Flat addresses are virtual addresses (offsets for SLM).
	Flat AddrType = iota
	// BSS addresses are relative to a bindless surface state.
	BSS
	// SS addresses are relative to a surface state.
	SS
	// BTI addresses are offsets into the buffer named by the binding
	// table index in the extended descriptor.
	BTI
)

var addrTypeNames = [...]string{"flat", "bss", "ss", "bti"}

func (a AddrType) String() string {
	if int(a) < len(addrTypeNames) {
		return addrTypeNames[a]
	}
	return fmt.Sprintf("AddrType(%d)", uint8(a))
}

// dataSizeCodes maps the 3-bit data size field to lsc data sizes.
// Code 7 is reserved.
var dataSizeCodes = [8]lsc.DataSize{lsc.U8, lsc.U16, lsc.U32, lsc.U64, lsc.U8U32, lsc.U16U32, lsc.U16U32H, lsc.DataSizeDefault}

func dataSizeCode(ds lsc.DataSize) (uint32, bool) {
	for code, d := range dataSizeCodes[:7] {
		if d == ds {
			return uint32(code), true
		}
	}
	return 0, false
}

// Message is a decoded message descriptor.
type Message struct {
	Op         Op
	VNNI       bool
	AddrSize   AddrSize
	DataSize   lsc.DataSize
	VectorSize lsc.VectorSize
	Transpose  bool
	CacheHint  lsc.CacheHint
	DstLen     int
	Src0Len    int
	AddrType   AddrType
}

const (
	opShift        = 0
	opMask         = 0x3F
	vnniShift      = 7
	addrSizeShift  = 7
	addrSizeMask   = 0x3
	dataSizeShift  = 9
	dataSizeMask   = 0x7
	vectorShift    = 12
	vectorMask     = 0x7
	transposeShift = 15
	cacheShift     = 17
	cacheMask      = 0x7
	dstLenShift    = 20
	dstLenMask     = 0x1F
	src0LenShift   = 25
	src0LenMask    = 0xF
	addrTypeShift  = 29
	addrTypeMask   = 0x3
)

// Decode unpacks a message descriptor. Decoding never fails; reserved
// field values surface as invalid operations at dispatch.
func Decode(desc uint32) Message {
	return Message{
		Op:         Op(desc >> opShift & opMask),
		VNNI:       desc>>vnniShift&1 != 0,
		AddrSize:   AddrSize(desc >> addrSizeShift & addrSizeMask),
		DataSize:   dataSizeCodes[desc>>dataSizeShift&dataSizeMask],
		VectorSize: lsc.VectorSize(desc >> vectorShift & vectorMask),
		Transpose:  desc>>transposeShift&1 != 0,
		CacheHint:  lsc.CacheHint(desc >> cacheShift & cacheMask),
		DstLen:     int(desc >> dstLenShift & dstLenMask),
		Src0Len:    int(desc >> src0LenShift & src0LenMask),
		AddrType:   AddrType(desc >> addrTypeShift & addrTypeMask),
	}
}

// Encode packs m into a descriptor. Encode(Decode(d)) == d for every
// descriptor with clear reserved bits (6, 16 and 31) and a non-reserved data
// size. VNNI and AddrSize share bit 7, so setting VNNI also sets the low bit
// of the address size field.
func (m Message) Encode() (uint32, error) {
	code, ok := dataSizeCode(m.DataSize)
	switch {
	case uint32(m.Op) > opMask:
		return 0, fmt.Errorf("op %#x does not fit the descriptor", uint8(m.Op))
	case uint32(m.AddrSize) > addrSizeMask:
		return 0, fmt.Errorf("address size %d does not fit the descriptor", m.AddrSize)
	case !ok:
		return 0, fmt.Errorf("data size %v has no descriptor encoding", m.DataSize)
	case uint32(m.VectorSize) > vectorMask:
		return 0, fmt.Errorf("vector size %v does not fit the descriptor", m.VectorSize)
	case uint32(m.CacheHint) > cacheMask:
		return 0, fmt.Errorf("cache hint %d does not fit the descriptor", m.CacheHint)
	case m.DstLen < 0 || m.DstLen > dstLenMask:
		return 0, fmt.Errorf("destination length %d does not fit the descriptor", m.DstLen)
	case m.Src0Len < 0 || m.Src0Len > src0LenMask:
		return 0, fmt.Errorf("source length %d does not fit the descriptor", m.Src0Len)
	case uint32(m.AddrType) > addrTypeMask:
		return 0, fmt.Errorf("address type %d does not fit the descriptor", m.AddrType)
	}
	desc := uint32(m.Op)<<opShift |
		uint32(m.AddrSize)<<addrSizeShift |
		code<<dataSizeShift |
		uint32(m.VectorSize)<<vectorShift |
		uint32(m.CacheHint)<<cacheShift |
		uint32(m.DstLen)<<dstLenShift |
		uint32(m.Src0Len)<<src0LenShift |
		uint32(m.AddrType)<<addrTypeShift
	if m.VNNI {
		desc |= 1 << vnniShift
	}
	if m.Transpose {
		desc |= 1 << transposeShift
	}
	return desc, nil
}

func (m Message) String() string {
	return fmt.Sprintf("%v %v %v %v %v dst=%d src0=%d cache=%v transpose=%t vnni=%t",
		m.Op, m.AddrType, m.AddrSize, m.DataSize, m.VectorSize, m.DstLen, m.Src0Len, m.CacheHint, m.Transpose, m.VNNI)
}
