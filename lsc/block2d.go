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

// Block2D describes a 2-D block transfer against a pitched surface whose
// first byte is the target's base.
type Block2D struct {
	// Width is the surface row width in bytes, Height the number of rows
	// and Pitch the distance between rows in bytes.
	Width, Height, Pitch int

	// X and Y locate the block's top-left element: X in elements, Y in
	// rows. Either may be negative; elements outside the surface read as
	// zero and are not written.
	X, Y int

	// BlockWidth is in elements, BlockHeight in rows. NumBlocks adjacent
	// blocks of the same size are transferred side by side.
	BlockWidth, BlockHeight, NumBlocks int
}

// Len returns the number of elements the transfer moves.
func (b Block2D) Len() int {
	return b.BlockWidth * b.BlockHeight * b.NumBlocks
}

// validate checks the block against the limits of the block message:
// a pitch that is a multiple of 16 bytes and at least the width, at most
// 32 rows, 1, 2 or 4 blocks, and at most 64 bytes across all blocks of
// one row.
func (b Block2D) validate(elemSize int) error {
	switch {
	case b.Width <= 0 || b.Height <= 0:
		return fmt.Errorf("%w: 2d surface %dx%d", ErrIllegalShape, b.Width, b.Height)
	case b.Pitch < b.Width || b.Pitch%16 != 0:
		return fmt.Errorf("%w: 2d pitch %d for width %d", ErrIllegalShape, b.Pitch, b.Width)
	case b.BlockWidth <= 0 || b.BlockHeight <= 0 || b.BlockHeight > 32:
		return fmt.Errorf("%w: 2d block %dx%d", ErrIllegalShape, b.BlockWidth, b.BlockHeight)
	case b.NumBlocks != 1 && b.NumBlocks != 2 && b.NumBlocks != 4:
		return fmt.Errorf("%w: %d 2d blocks", ErrIllegalShape, b.NumBlocks)
	case b.BlockWidth*b.NumBlocks*elemSize > 64:
		return fmt.Errorf("%w: 2d block row of %d bytes", ErrIllegalShape, b.BlockWidth*b.NumBlocks*elemSize)
	}
	return nil
}

// visit calls fn with the data index and byte position of every element
// of the block that lies on the surface. Data is ordered block by block,
// each block row-major.
func (b Block2D) visit(r Region, elemSize int, fn func(idx, pos int)) {
	idx := 0
	for blk := 0; blk < b.NumBlocks; blk++ {
		for row := 0; row < b.BlockHeight; row++ {
			y := b.Y + row
			for col := 0; col < b.BlockWidth; col, idx = col+1, idx+1 {
				x := b.X + blk*b.BlockWidth + col
				if y < 0 || y >= b.Height || x < 0 || (x+1)*elemSize > b.Width {
					continue
				}
				pos := int64(y)*int64(b.Pitch) + int64(x*elemSize)
				if pos+int64(elemSize) > int64(len(r.Data)) {
					continue
				}
				fn(idx, int(pos))
			}
		}
	}
}

func block2DTarget(t Target) error {
	if t.Kind != UGM && t.Kind != UGML {
		return fmt.Errorf("%w: 2d block on %v", ErrUnsupportedTarget, t.Kind)
	}
	return nil
}

// Load2D reads a 2-D block. Elements off the surface read as zero.
func Load2D[T Element](e *Engine, t Target, b Block2D) ([]T, error) {
	size := sizeOf[T]()
	if err := b.validate(size); err != nil {
		return nil, err
	}
	if err := block2DTarget(t); err != nil {
		return nil, err
	}
	r, err := e.region(t)
	if err != nil {
		return nil, err
	}
	out := make([]T, b.Len())
	b.visit(r, size, func(idx, pos int) {
		out[idx] = fromBits[T](readLE(r.Data, pos, size))
	})
	return out, nil
}

// Store2D writes a 2-D block laid out as Load2D returns it. Elements off
// the surface are dropped.
func Store2D[T Element](e *Engine, t Target, b Block2D, data []T) error {
	size := sizeOf[T]()
	if err := b.validate(size); err != nil {
		return err
	}
	if len(data) != b.Len() {
		return fmt.Errorf("%w: %d data elements for a %d-element 2d block", ErrOperandCount, len(data), b.Len())
	}
	if err := block2DTarget(t); err != nil {
		return err
	}
	r, err := e.region(t)
	if err != nil {
		return err
	}
	b.visit(r, size, func(idx, pos int) {
		writeLE(r.Data, pos, size, toBits(data[idx]))
	})
	return nil
}
