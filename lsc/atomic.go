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
	"math"
)

// AtomicUpdate performs a.Op() on one element per active lane and returns
// the value each lane observed before the operation. Lanes where the
// operation did not modify memory still report the value they observed;
// inactive lanes and out-of-bounds lanes report zero.
//
// src holds the source operands, one vector of a.Lanes() values per
// operand: none for IINC, IDEC and LOAD, two (compare, swap) for ICAS and
// FCAS, one otherwise.
//
// The whole call holds the engine's Serializer, so concurrent atomic calls
// never interleave at the lane level. Operations that do not apply to the
// element type (UMIN/UMAX and bitwise operations on floats, floating-point
// operations on integers) observe the old value and leave memory unchanged.
func AtomicUpdate[T Element](e *Engine, t Target, a AtomicShape[T], offsets []uint32, pred []bool, src ...[]T) ([]T, error) {
	if t.Kind != a.kind {
		return nil, fmt.Errorf("%w: atomic shape for %v used on %v", ErrIllegalShape, a.kind, t)
	}
	if err := checkLanes(a.lanes, offsets, pred); err != nil {
		return nil, err
	}
	if len(src) != a.op.NumSources() {
		return nil, fmt.Errorf("%w: atomic %v takes %d sources, got %d", ErrOperandCount, a.op, a.op.NumSources(), len(src))
	}
	for i, s := range src {
		if len(s) != a.lanes {
			return nil, fmt.Errorf("%w: source %d has %d values for %d lanes", ErrOperandCount, i, len(s), a.lanes)
		}
	}
	if err := checkAlignment(offsets, pred, a.mask, 1); err != nil {
		return nil, err
	}

	// A U16U32 memory value keeps the signedness of the 32-bit element.
	u := atomicUnit{op: a.op, kind: kindOf[T](), width: a.ds.MemoryBytes()}

	e.serial.mu.Lock()
	defer e.serial.mu.Unlock()

	r, err := e.region(t)
	if err != nil {
		return nil, err
	}
	out := make([]T, a.lanes)
	for lane := 0; lane < a.lanes; lane++ {
		if !active(pred, lane) {
			continue
		}
		pos := int64(offsets[lane])
		if !r.inBounds(pos, u.width) {
			continue
		}
		var s0, s1 uint64
		if len(src) > 0 {
			s0 = toBits(src[0][lane]) & widthMask(u.width)
		}
		if len(src) > 1 {
			s1 = toBits(src[1][lane]) & widthMask(u.width)
		}
		old := readLE(r.Data, int(pos), u.width)
		if next, write := u.apply(old, s0, s1); write {
			writeLE(r.Data, int(pos), u.width, next)
		}
		out[lane] = fromBits[T](u.widen(old))
	}
	return out, nil
}

// atomicUnit evaluates one atomic operation on raw element bits of the
// given in-memory width.
type atomicUnit struct {
	op    AtomicOp
	kind  elemKind
	width int
}

// widen sign-extends a signed narrow memory value into the register width.
// Other kinds are zero-extended.
func (u atomicUnit) widen(v uint64) uint64 {
	if u.kind == kindSigned {
		return uint64(u.signed(v))
	}
	return v
}

func (u atomicUnit) signed(v uint64) int64 {
	shift := 64 - 8*u.width
	return int64(v<<shift) >> shift
}

func (u atomicUnit) float(v uint64) float64 {
	switch {
	case u.kind == kindHalf:
		return float64(Float16(v).Float32())
	case u.kind == kindBFloat:
		return float64(BFloat16(v).Float32())
	case u.width == 4:
		return float64(math.Float32frombits(uint32(v)))
	default:
		return math.Float64frombits(v)
	}
}

func (u atomicUnit) bits(f float64) uint64 {
	switch {
	case u.kind == kindHalf:
		return uint64(Float16FromFloat32(float32(f)))
	case u.kind == kindBFloat:
		return uint64(BFloat16FromFloat32(float32(f)))
	case u.width == 4:
		return uint64(math.Float32bits(float32(f)))
	default:
		return math.Float64bits(f)
	}
}

// less compares two values in the element's own ordering: float ordering
// for floating-point elements, signed ordering otherwise.
func (u atomicUnit) less(a, b uint64) bool {
	if u.kind.isFloat() {
		return u.float(a) < u.float(b)
	}
	return u.signed(a) < u.signed(b)
}

// arith adds delta to v, in floating point for float elements.
func (u atomicUnit) arith(v uint64, delta uint64, neg bool) uint64 {
	if u.kind.isFloat() {
		d := u.float(delta)
		if neg {
			d = -d
		}
		return u.bits(u.float(v) + d)
	}
	if neg {
		return (v - delta) & widthMask(u.width)
	}
	return (v + delta) & widthMask(u.width)
}

// one returns the bits of the value 1 in the element's representation.
func (u atomicUnit) one() uint64 {
	if u.kind.isFloat() {
		return u.bits(1)
	}
	return 1
}

// fminmax implements FMIN and FMAX: a NaN operand yields the other one.
func (u atomicUnit) fminmax(old, src uint64, wantMax bool) (uint64, bool) {
	fo, fs := u.float(old), u.float(src)
	switch {
	case math.IsNaN(fs):
		return old, false
	case math.IsNaN(fo):
		return src, true
	case wantMax && fs > fo, !wantMax && fs < fo:
		return src, true
	}
	return old, false
}

// apply returns the new memory value and whether memory must be written.
func (u atomicUnit) apply(old, s0, s1 uint64) (uint64, bool) {
	isFloat := u.kind.isFloat()
	switch u.op {
	case AtomicLoad:
		return old, false
	case AtomicStore:
		return s0, true
	case AtomicIInc:
		return u.arith(old, u.one(), false), true
	case AtomicIDec:
		return u.arith(old, u.one(), true), true
	case AtomicIAdd:
		return u.arith(old, s0, false), true
	case AtomicISub:
		return u.arith(old, s0, true), true
	case AtomicSMin:
		return s0, u.less(s0, old)
	case AtomicSMax:
		return s0, u.less(old, s0)
	case AtomicUMin:
		return s0, !isFloat && s0 < old
	case AtomicUMax:
		return s0, !isFloat && s0 > old
	case AtomicFAdd, AtomicFSub:
		if !isFloat {
			return old, false
		}
		return u.arith(old, s0, u.op == AtomicFSub), true
	case AtomicFMin, AtomicFMax:
		if !isFloat {
			return old, false
		}
		return u.fminmax(old, s0, u.op == AtomicFMax)
	case AtomicAnd, AtomicOr, AtomicXor:
		if isFloat {
			return old, false
		}
		switch u.op {
		case AtomicAnd:
			return old & s0, true
		case AtomicOr:
			return old | s0, true
		default:
			return old ^ s0, true
		}
	case AtomicICAS:
		return s1, old == s0
	case AtomicFCAS:
		if isFloat {
			return s1, u.float(old) == u.float(s0)
		}
		return s1, old == s0
	}
	return old, false
}
