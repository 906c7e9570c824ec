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

// This file implements the gather/scatter engine. Lanes are processed
// sequentially, standing in for the parallel hardware lanes.
//
// Data vectors are lane-interleaved: element e of lane l lives at index
// e*lanes + l. Out-of-bounds elements are skipped silently; they are not
// an error and must not be confused with a misaligned offset, which aborts
// the whole operation.

// lanePlan is the per-element traversal shared by loads and stores.
type lanePlan struct {
	lanes    int
	elements int
	memBytes int
	ds       DataSize
}

func planOf[T Element](s Shape[T]) lanePlan {
	return lanePlan{
		lanes:    s.lanes,
		elements: s.vs.Elements(),
		memBytes: s.ds.MemoryBytes(),
		ds:       s.ds,
	}
}

// visit calls fn with the data index and byte position of every active,
// in-bounds element.
func (p lanePlan) visit(r Region, offsets []uint32, pred []bool, fn func(idx int, pos int)) {
	for lane := 0; lane < p.lanes; lane++ {
		if !active(pred, lane) {
			continue
		}
		base := int64(offsets[lane])
		for e := 0; e < p.elements; e++ {
			pos := base + int64(e*p.memBytes)
			if !r.inBounds(pos, p.memBytes) {
				continue
			}
			fn(e*p.lanes+lane, int(pos))
		}
	}
}

// loadBits reads one element and widens it into register bits.
func (p lanePlan) loadBits(mem []byte, pos int) uint64 {
	v := readLE(mem, pos, p.memBytes)
	if p.ds == U16U32H {
		v <<= 16
	}
	return v
}

// storeBits narrows register bits and writes one element.
func (p lanePlan) storeBits(mem []byte, pos int, v uint64) {
	if p.ds == U16U32H {
		v >>= 16
	}
	writeLE(mem, pos, p.memBytes, v)
}

func (e *Engine) checkPlatform(p Platform) error {
	if p != e.platform {
		return fmt.Errorf("%w: shape validated for %v, engine emulates %v", ErrIllegalShape, p, e.platform)
	}
	return nil
}

// Load gathers s.Len() elements. For every active lane, the lane's
// elements are read from consecutive element positions starting at its
// byte offset. Inactive lanes and out-of-bounds elements read as zero.
//
// A nil pred activates every lane.
func Load[T Element](e *Engine, t Target, s Shape[T], offsets []uint32, pred []bool) ([]T, error) {
	if err := e.checkPlatform(s.platform); err != nil {
		return nil, err
	}
	if err := checkLanes(s.lanes, offsets, pred); err != nil {
		return nil, err
	}
	p := planOf(s)
	if err := checkAlignment(offsets, pred, s.mask, p.elements); err != nil {
		return nil, err
	}
	r, err := e.region(t)
	if err != nil {
		return nil, err
	}

	out := make([]T, s.Len())
	p.visit(r, offsets, pred, func(idx, pos int) {
		out[idx] = fromBits[T](p.loadBits(r.Data, pos))
	})
	return out, nil
}

// Store scatters data, laid out as Load returns it. Inactive lanes and
// out-of-bounds elements leave memory untouched.
func Store[T Element](e *Engine, t Target, s Shape[T], offsets []uint32, data []T, pred []bool) error {
	if err := e.checkPlatform(s.platform); err != nil {
		return err
	}
	if err := checkLanes(s.lanes, offsets, pred); err != nil {
		return err
	}
	if len(data) != s.Len() {
		return fmt.Errorf("%w: %d data elements for shape %v", ErrOperandCount, len(data), s)
	}
	p := planOf(s)
	if err := checkAlignment(offsets, pred, s.mask, p.elements); err != nil {
		return err
	}
	r, err := e.region(t)
	if err != nil {
		return err
	}

	p.visit(r, offsets, pred, func(idx, pos int) {
		p.storeBits(r.Data, pos, toBits(data[idx]))
	})
	return nil
}

// Prefetch is a no-op: the emulation has no cache hierarchy to warm. It
// never touches memory and never fails.
func Prefetch[T Element](e *Engine, t Target, s Shape[T], offsets []uint32, pred []bool) {}

// LoadBlock reads s.Len() contiguous elements from offset using a
// single-lane shape.
func LoadBlock[T Element](e *Engine, t Target, s Shape[T], offset uint32) ([]T, error) {
	if s.lanes != 1 {
		return nil, fmt.Errorf("%w: block load needs a single-lane shape, got %v", ErrIllegalShape, s)
	}
	return Load(e, t, s, []uint32{offset}, nil)
}

// StoreBlock writes s.Len() contiguous elements at offset using a
// single-lane shape.
func StoreBlock[T Element](e *Engine, t Target, s Shape[T], offset uint32, data []T) error {
	if s.lanes != 1 {
		return fmt.Errorf("%w: block store needs a single-lane shape, got %v", ErrIllegalShape, s)
	}
	return Store(e, t, s, []uint32{offset}, data, nil)
}
