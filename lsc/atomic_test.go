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
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func TestAtomicIAddReturnsOld(t *testing.T) {
	e, r := newTestEngine()
	r.bufs[0] = iota32(16)

	a := MustAtomic[uint32](AtomicIAdd, UGM, 16, U32)
	src := slices.Repeat([]uint32{5}, 16)
	old, err := AtomicUpdate(e, Surface(UGM, 0), a, Offsets(16, 0, 4), nil, src)
	if err != nil {
		t.Fatal(err)
	}
	after, _ := DecodePayload[uint32](r.bufs[0], 16)
	for lane := range 16 {
		if old[lane] != uint32(lane) {
			t.Errorf("lane %d old: got %d, want %d", lane, old[lane], lane)
		}
		if after[lane] != uint32(lane)+5 {
			t.Errorf("lane %d memory: got %d, want %d", lane, after[lane], lane+5)
		}
	}
}

func TestAtomicSameAddress(t *testing.T) {
	e, r := newTestEngine()
	r.add(0, 4)

	a := MustAtomic[uint32](AtomicIInc, UGM, 16, U32)
	old, err := AtomicUpdate(e, Surface(UGM, 0), a, make([]uint32, 16), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]uint32, 16)
	for i := range want {
		want[i] = uint32(i)
	}
	if diff := cmp.Diff(want, old); diff != "" {
		t.Errorf("lanes must observe increments in lane order (-want +got):\n%s", diff)
	}
	if v := readLE(r.bufs[0], 0, 4); v != 16 {
		t.Errorf("counter: got %d, want 16", v)
	}
}

func TestAtomicUnsourcedOps(t *testing.T) {
	e, r := newTestEngine()
	mem := r.add(0, 8)
	writeLE(mem, 4, 4, 7)
	offs := []uint32{0, 4, 0, 4, 0, 4, 0, 4}

	dec := MustAtomic[uint32](AtomicIDec, UGM, 8, U32)
	if _, err := AtomicUpdate(e, Surface(UGM, 0), dec, offs, TailPredicate(8, 2)); err != nil {
		t.Fatal(err)
	}
	if got := readLE(mem, 0, 4); got != 0xFFFFFFFF {
		t.Errorf("IDEC of 0: got %#x, want 0xffffffff", got)
	}
	if got := readLE(mem, 4, 4); got != 6 {
		t.Errorf("IDEC of 7: got %d, want 6", got)
	}

	load := MustAtomic[uint32](AtomicLoad, UGM, 8, U32)
	old, err := AtomicUpdate(e, Surface(UGM, 0), load, offs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if old[0] != 0xFFFFFFFF || old[1] != 6 {
		t.Errorf("LOAD: got %v, want [0xffffffff 6 ...]", old)
	}
	if got := readLE(mem, 4, 4); got != 6 {
		t.Errorf("LOAD changed memory to %d", got)
	}
}

func TestAtomicCompareAndSwap(t *testing.T) {
	e, r := newTestEngine()
	r.bufs[0] = iota32(4)

	a := MustAtomic[uint32](AtomicICAS, UGM, 4, U32)
	cmpv := []uint32{0, 9, 2, 9}
	swap := []uint32{100, 101, 102, 103}
	old, err := AtomicUpdate(e, Surface(UGM, 0), a, Offsets(4, 0, 4), nil, cmpv, swap)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint32{0, 1, 2, 3}, old); diff != "" {
		t.Errorf("old values (-want +got):\n%s", diff)
	}
	after, _ := DecodePayload[uint32](r.bufs[0], 4)
	if diff := cmp.Diff([]uint32{100, 1, 102, 3}, after); diff != "" {
		t.Errorf("memory (-want +got):\n%s", diff)
	}
}

func TestAtomicMinMax(t *testing.T) {
	tests := []struct {
		name string
		op   AtomicOp
		mem  uint32
		src  uint32
		want uint32
	}{
		{"smin keeps negative", AtomicSMin, 0xFFFFFFFF, 5, 0xFFFFFFFF},
		{"umin takes smaller unsigned", AtomicUMin, 0xFFFFFFFF, 5, 5},
		{"smax takes positive", AtomicSMax, 0xFFFFFFFF, 5, 5},
		{"umax keeps larger unsigned", AtomicUMax, 0xFFFFFFFF, 5, 0xFFFFFFFF},
		{"smin takes smaller", AtomicSMin, 10, 3, 3},
		{"umax takes larger", AtomicUMax, 10, 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, r := newTestEngine()
			mem := r.add(0, 4)
			writeLE(mem, 0, 4, uint64(tt.mem))

			a := MustAtomic[uint32](tt.op, UGM, 1, U32)
			old, err := AtomicUpdate(e, Surface(UGM, 0), a, []uint32{0}, nil, []uint32{tt.src})
			if err != nil {
				t.Fatal(err)
			}
			if old[0] != tt.mem {
				t.Errorf("old: got %#x, want %#x", old[0], tt.mem)
			}
			if got := uint32(readLE(mem, 0, 4)); got != tt.want {
				t.Errorf("memory: got %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestAtomicFloat(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name string
		op   AtomicOp
		mem  float32
		src  float32
		want float32
	}{
		{"fadd", AtomicFAdd, 1.5, 2.25, 3.75},
		{"fsub", AtomicFSub, 1.5, 2.25, -0.75},
		{"fmin", AtomicFMin, 3, 1, 1},
		{"fmax", AtomicFMax, 3, 1, 3},
		{"fmin nan source", AtomicFMin, 3, nan, 3},
		{"fmax nan memory", AtomicFMax, nan, 2, 2},
		{"iadd on floats", AtomicIAdd, 1, 2, 3},
		{"smin on floats", AtomicSMin, -1, -2, -2},
		{"umin ignored on floats", AtomicUMin, 3, 1, 3},
		{"xor ignored on floats", AtomicXor, 3, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, r := newTestEngine()
			mem := r.add(0, 4)
			writeLE(mem, 0, 4, uint64(math.Float32bits(tt.mem)))

			a := MustAtomic[float32](tt.op, UGM, 1, U32)
			if _, err := AtomicUpdate(e, Surface(UGM, 0), a, []uint32{0}, nil, []float32{tt.src}); err != nil {
				t.Fatal(err)
			}
			if got := math.Float32frombits(uint32(readLE(mem, 0, 4))); got != tt.want {
				t.Errorf("memory: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAtomicFloatOpsIgnoredOnIntegers(t *testing.T) {
	e, r := newTestEngine()
	mem := r.add(0, 4)
	writeLE(mem, 0, 4, 10)

	a := MustAtomic[uint32](AtomicFAdd, UGM, 1, U32)
	old, err := AtomicUpdate(e, Surface(UGM, 0), a, []uint32{0}, nil, []uint32{1})
	if err != nil {
		t.Fatal(err)
	}
	if old[0] != 10 || readLE(mem, 0, 4) != 10 {
		t.Errorf("FADD on uint32: old %d, memory %d, want 10 and 10", old[0], readLE(mem, 0, 4))
	}
}

func TestAtomicFCAS(t *testing.T) {
	e, r := newTestEngine()
	mem := r.add(0, 8)
	writeLE(mem, 0, 8, math.Float64bits(2.5))

	a := MustAtomic[float64](AtomicFCAS, UGM, 1, U64)
	if _, err := AtomicUpdate(e, Surface(UGM, 0), a, []uint32{0}, nil, []float64{2.5}, []float64{-1}); err != nil {
		t.Fatal(err)
	}
	if got := math.Float64frombits(readLE(mem, 0, 8)); got != -1 {
		t.Errorf("FCAS on match: got %v, want -1", got)
	}
	if _, err := AtomicUpdate(e, Surface(UGM, 0), a, []uint32{0}, nil, []float64{2.5}, []float64{7}); err != nil {
		t.Fatal(err)
	}
	if got := math.Float64frombits(readLE(mem, 0, 8)); got != -1 {
		t.Errorf("FCAS on mismatch: got %v, want -1", got)
	}
}

func TestAtomicHalfFloat(t *testing.T) {
	e, r := newTestEngine()
	mem := r.add(0, 4)
	writeLE(mem, 0, 2, uint64(Float16FromFloat32(1)))
	writeLE(mem, 2, 2, uint64(BFloat16FromFloat32(1)))

	h := MustAtomic[Float16](AtomicFAdd, UGM, 1, U16)
	old, err := AtomicUpdate(e, Surface(UGM, 0), h, []uint32{0}, nil, []Float16{Float16FromFloat32(0.5)})
	if err != nil {
		t.Fatal(err)
	}
	if old[0].Float32() != 1 {
		t.Errorf("Float16 old: got %v, want 1", old[0].Float32())
	}
	if got := Float16(readLE(mem, 0, 2)).Float32(); got != 1.5 {
		t.Errorf("Float16 FADD: got %v, want 1.5", got)
	}

	b := MustAtomic[BFloat16](AtomicFMax, UGM, 1, U16)
	if _, err := AtomicUpdate(e, Surface(UGM, 0), b, []uint32{2}, nil, []BFloat16{BFloat16FromFloat32(4)}); err != nil {
		t.Fatal(err)
	}
	if got := BFloat16(readLE(mem, 2, 2)).Float32(); got != 4 {
		t.Errorf("BFloat16 FMAX: got %v, want 4", got)
	}
}

func TestAtomicBitwise(t *testing.T) {
	tests := []struct {
		op   AtomicOp
		want uint64
	}{
		{AtomicAnd, 0xF0F0 & 0xFF00},
		{AtomicOr, 0xF0F0 | 0xFF00},
		{AtomicXor, 0xF0F0 ^ 0xFF00},
		{AtomicStore, 0xFF00},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			e, r := newTestEngine()
			mem := r.add(0, 8)
			writeLE(mem, 0, 8, 0xF0F0)

			a := MustAtomic[uint64](tt.op, UGM, 1, U64)
			if _, err := AtomicUpdate(e, Surface(UGM, 0), a, []uint32{0}, nil, []uint64{0xFF00}); err != nil {
				t.Fatal(err)
			}
			if got := readLE(mem, 0, 8); got != tt.want {
				t.Errorf("memory: got %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestAtomicPromotedSigned(t *testing.T) {
	e, r := newTestEngine()
	mem := r.add(0, 4)
	writeLE(mem, 0, 2, 0xFFFF)
	writeLE(mem, 2, 2, 0x8000)

	add := MustAtomic[int32](AtomicIAdd, UGM, 1, U16U32)
	old, err := AtomicUpdate(e, Surface(UGM, 0), add, []uint32{0}, nil, []int32{1})
	if err != nil {
		t.Fatal(err)
	}
	if old[0] != -1 {
		t.Errorf("old: got %d, want -1", old[0])
	}
	if got := readLE(mem, 0, 2); got != 0 {
		t.Errorf("-1 + 1 in 16 bits: got %#x, want 0", got)
	}

	smin := MustAtomic[int32](AtomicSMin, UGM, 1, U16U32)
	if _, err := AtomicUpdate(e, Surface(UGM, 0), smin, []uint32{2}, nil, []int32{-1}); err != nil {
		t.Fatal(err)
	}
	if got := readLE(mem, 2, 2); got != 0x8000 {
		t.Errorf("SMIN(-32768, -1): got %#x, want 0x8000", got)
	}
}

func TestAtomicSkippedLanes(t *testing.T) {
	e, r := newTestEngine()
	r.bufs[0] = iota32(4)

	a := MustAtomic[uint32](AtomicIAdd, UGM, 4, U32)
	offs := []uint32{0, 4, 64, 12}
	pred := []bool{true, false, true, true}
	old, err := AtomicUpdate(e, Surface(UGM, 0), a, offs, pred, []uint32{10, 10, 10, 10})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint32{0, 0, 0, 3}, old); diff != "" {
		t.Errorf("old values (-want +got):\n%s", diff)
	}
	after, _ := DecodePayload[uint32](r.bufs[0], 4)
	if diff := cmp.Diff([]uint32{10, 1, 2, 13}, after); diff != "" {
		t.Errorf("memory (-want +got):\n%s", diff)
	}
}

func TestAtomicErrors(t *testing.T) {
	e, r := newTestEngine()
	mem := r.add(0, 64)
	a := MustAtomic[uint32](AtomicIAdd, UGM, 4, U32)
	src := []uint32{1, 1, 1, 1}

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"missing source", func() error {
			_, err := AtomicUpdate(e, Surface(UGM, 0), a, Offsets(4, 0, 4), nil)
			return err
		}, ErrOperandCount},
		{"short source", func() error {
			_, err := AtomicUpdate(e, Surface(UGM, 0), a, Offsets(4, 0, 4), nil, src[:2])
			return err
		}, ErrOperandCount},
		{"wrong target kind", func() error {
			_, err := AtomicUpdate(e, Scratch(), a, Offsets(4, 0, 4), nil, src)
			return err
		}, ErrIllegalShape},
		{"lane count", func() error {
			_, err := AtomicUpdate(e, Surface(UGM, 0), a, Offsets(8, 0, 4), nil, src)
			return err
		}, ErrLaneCount},
		{"misaligned", func() error {
			_, err := AtomicUpdate(e, Surface(UGM, 0), a, []uint32{0, 4, 6, 12}, nil, src)
			return err
		}, ErrMisaligned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	for i, b := range mem {
		if b != 0 {
			t.Fatalf("byte %d = %#x after failed atomics, want 0", i, b)
		}
	}
}

func TestAtomicSerialized(t *testing.T) {
	const (
		workers = 8
		rounds  = 200
		lanes   = 16
	)
	e, r := newTestEngine()
	r.add(0, 4)
	a := MustAtomic[uint32](AtomicIInc, UGM, lanes, U32)

	seen := make([][]uint32, workers)
	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			offs := make([]uint32, lanes)
			for range rounds {
				old, err := AtomicUpdate(e, Surface(UGM, 0), a, offs, nil)
				if err != nil {
					return err
				}
				// One call is one critical section: its lanes observe
				// consecutive values.
				for lane := 1; lane < lanes; lane++ {
					if old[lane] != old[0]+uint32(lane) {
						t.Errorf("worker %d: lane %d saw %d after lane 0 saw %d", w, lane, old[lane], old[0])
					}
				}
				seen[w] = append(seen[w], old...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	const total = workers * rounds * lanes
	if got := readLE(r.bufs[0], 0, 4); got != total {
		t.Fatalf("counter: got %d, want %d", got, total)
	}
	all := slices.Concat(seen...)
	slices.Sort(all)
	for i, v := range all {
		if v != uint32(i) {
			t.Fatalf("observed values are not a permutation of 0..%d: position %d holds %d", total-1, i, v)
		}
	}
}

func BenchmarkAtomicIAdd(b *testing.B) {
	e, r := newTestEngine()
	r.add(0, 64)
	a := MustAtomic[uint32](AtomicIAdd, UGM, 16, U32)
	offs := Offsets(16, 0, 4)
	src := slices.Repeat([]uint32{1}, 16)
	for b.Loop() {
		_, _ = AtomicUpdate(e, Surface(UGM, 0), a, offs, nil, src)
	}
}
