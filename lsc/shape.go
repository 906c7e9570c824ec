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

import (
	"fmt"
	"math/bits"
)

// AlignmentMask returns the byte-alignment mask every active lane's offset
// must satisfy for a gather or scatter of vs elements per lane, data size ds
// and the given lane count. ds must not be DataSizeDefault.
//
// The rules are:
//   - one element per lane: any data size, byte granular (mask 0);
//   - 2, 3, 4 or 8 elements per lane: U32 (mask 0x3) or U64 (mask 0x7) only;
//   - 16, 32 or 64 elements per lane: as above, and only with a single lane.
func AlignmentMask(vs VectorSize, ds DataSize, lanes int) (uint32, error) {
	if ds == DataSizeDefault || ds > U16U32H {
		return 0, fmt.Errorf("%w: data size %v", ErrIllegalShape, ds)
	}
	if lanes < 1 {
		return 0, fmt.Errorf("%w: %d lanes", ErrIllegalShape, lanes)
	}
	switch n := vs.Elements(); n {
	case 1:
		return 0, nil
	case 2, 3, 4, 8, 16, 32, 64:
		if n >= 16 && lanes != 1 {
			return 0, fmt.Errorf("%w: %v elements per lane needs a single lane, got %d", ErrIllegalShape, vs, lanes)
		}
		switch ds {
		case U32:
			return 0x3, nil
		case U64:
			return 0x7, nil
		}
		return 0, fmt.Errorf("%w: %v elements per lane with data size %v", ErrIllegalShape, vs, ds)
	default:
		return 0, fmt.Errorf("%w: vector size %v", ErrIllegalShape, vs)
	}
}

// Shape is a validated gather/scatter shape for element type T: the lane
// count, elements per lane and data size of one operation, checked against
// a platform once at construction. Operations only accept shapes, so an
// illegal combination never reaches the engine.
type Shape[T Element] struct {
	platform Platform
	lanes    int
	vs       VectorSize
	ds       DataSize
	mask     uint32
}

// NewShape validates a gather/scatter shape. ds may be DataSizeDefault to
// select the natural size of T. Plain data sizes must match the size of T;
// promoting data sizes need a 32-bit integer T and a single element per lane.
func NewShape[T Element](p Platform, lanes int, vs VectorSize, ds DataSize) (Shape[T], error) {
	if !p.valid() {
		return Shape[T]{}, fmt.Errorf("%w: platform %v", ErrIllegalShape, p)
	}
	if !p.SupportsWidth(lanes) {
		return Shape[T]{}, fmt.Errorf("%w: %d lanes not supported on %v (widths %v)", ErrIllegalShape, lanes, p, p.Widths())
	}
	size := sizeOf[T]()
	if ds == DataSizeDefault {
		ds = naturalDataSize(size)
	}
	if ds.Promoted() {
		if size != 4 || kindOf[T]().isFloat() {
			return Shape[T]{}, fmt.Errorf("%w: data size %v needs a 32-bit integer element, got %d-byte element", ErrIllegalShape, ds, size)
		}
	} else if ds.MemoryBytes() != size {
		return Shape[T]{}, fmt.Errorf("%w: data size %v does not match %d-byte element", ErrIllegalShape, ds, size)
	}
	mask, err := AlignmentMask(vs, ds, lanes)
	if err != nil {
		return Shape[T]{}, err
	}
	return Shape[T]{platform: p, lanes: lanes, vs: vs, ds: ds, mask: mask}, nil
}

// MustShape is like NewShape but panics on an illegal shape. It is meant
// for package-level shape variables, so that an illegal shape fails at
// program initialization.
func MustShape[T Element](p Platform, lanes int, vs VectorSize, ds DataSize) Shape[T] {
	s, err := NewShape[T](p, lanes, vs, ds)
	if err != nil {
		panic(err)
	}
	return s
}

// Lanes returns the SIMT width of the shape.
func (s Shape[T]) Lanes() int { return s.lanes }

// VectorSize returns the elements-per-lane enumerator.
func (s Shape[T]) VectorSize() VectorSize { return s.vs }

// DataSize returns the resolved data size.
func (s Shape[T]) DataSize() DataSize { return s.ds }

// Platform returns the platform the shape was validated for.
func (s Shape[T]) Platform() Platform { return s.platform }

// AlignMask returns the required offset alignment mask.
func (s Shape[T]) AlignMask() uint32 { return s.mask }

// Len returns the length of the data vector: lanes times elements per lane.
func (s Shape[T]) Len() int { return s.lanes * s.vs.Elements() }

func (s Shape[T]) String() string {
	return fmt.Sprintf("simd%d x %v x %v", s.lanes, s.vs, s.ds)
}

// AtomicShape is a validated atomic shape for element type T: operation,
// storage target kind, lane count and data size. Atomics always transfer a
// single element per lane.
type AtomicShape[T Element] struct {
	op    AtomicOp
	kind  MemKind
	lanes int
	ds    DataSize
	mask  uint32
}

// atomicDataSizes lists the data sizes each storage target accepts.
var atomicDataSizes = map[MemKind][]DataSize{
	SLM:  {U16U32, U32, U64},
	UGM:  {U16, U16U32, U32, U64},
	UGML: {U16, U16U32, U32, U64},
	TGM:  {U16, U32, U64},
}

// NewAtomic validates an atomic shape. The rules are:
//   - lanes is a power of two no larger than 32;
//   - the data size is one the target kind accepts (SLM: U16U32, U32, U64;
//     UGM: U16, U16U32, U32, U64; TGM: U16, U32, U64);
//   - SLM rejects FADD and FSUB, and 64-bit compare-and-swap;
//   - plain data sizes match the size of T, U16U32 needs a 32-bit integer T.
//
// Offsets must be naturally aligned to the in-memory element size.
func NewAtomic[T Element](op AtomicOp, kind MemKind, lanes int, ds DataSize) (AtomicShape[T], error) {
	if !op.Valid() {
		return AtomicShape[T]{}, fmt.Errorf("%w: atomic %v", ErrUnsupportedOp, op)
	}
	allowed, ok := atomicDataSizes[kind]
	if !ok {
		return AtomicShape[T]{}, fmt.Errorf("%w: atomic on %v", ErrUnsupportedTarget, kind)
	}
	if lanes < 1 || lanes > 32 || bits.OnesCount(uint(lanes)) != 1 {
		return AtomicShape[T]{}, fmt.Errorf("%w: atomic needs a power-of-two lane count up to 32, got %d", ErrIllegalShape, lanes)
	}
	size := sizeOf[T]()
	if ds == DataSizeDefault {
		ds = naturalDataSize(size)
	}
	legal := false
	for _, a := range allowed {
		legal = legal || a == ds
	}
	if !legal {
		return AtomicShape[T]{}, fmt.Errorf("%w: atomic data size %v on %v", ErrIllegalShape, ds, kind)
	}
	if ds.Promoted() {
		if size != 4 || kindOf[T]().isFloat() {
			return AtomicShape[T]{}, fmt.Errorf("%w: data size %v needs a 32-bit integer element", ErrIllegalShape, ds)
		}
	} else if ds.MemoryBytes() != size {
		return AtomicShape[T]{}, fmt.Errorf("%w: data size %v does not match %d-byte element", ErrIllegalShape, ds, size)
	}
	if kind == SLM {
		switch {
		case op == AtomicFAdd || op == AtomicFSub:
			return AtomicShape[T]{}, fmt.Errorf("%w: atomic %v on %v", ErrIllegalShape, op, kind)
		case ds == U64 && (op == AtomicICAS || op == AtomicFCAS):
			return AtomicShape[T]{}, fmt.Errorf("%w: 64-bit atomic %v on %v", ErrIllegalShape, op, kind)
		}
	}
	mask := uint32(ds.MemoryBytes() - 1)
	return AtomicShape[T]{op: op, kind: kind, lanes: lanes, ds: ds, mask: mask}, nil
}

// MustAtomic is like NewAtomic but panics on an illegal shape.
func MustAtomic[T Element](op AtomicOp, kind MemKind, lanes int, ds DataSize) AtomicShape[T] {
	a, err := NewAtomic[T](op, kind, lanes, ds)
	if err != nil {
		panic(err)
	}
	return a
}

// Op returns the atomic operation.
func (a AtomicShape[T]) Op() AtomicOp { return a.op }

// Kind returns the storage target kind the shape was validated for.
func (a AtomicShape[T]) Kind() MemKind { return a.kind }

// Lanes returns the SIMT width of the shape.
func (a AtomicShape[T]) Lanes() int { return a.lanes }

// DataSize returns the resolved data size.
func (a AtomicShape[T]) DataSize() DataSize { return a.ds }

// AlignMask returns the required offset alignment mask.
func (a AtomicShape[T]) AlignMask() uint32 { return a.mask }
