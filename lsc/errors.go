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
	"fmt"
)

var (
	// ErrMisaligned is matched by every *AlignmentError.
	ErrMisaligned = errors.New("lsc: misaligned offset")

	// ErrIllegalShape reports a (type, vector size, data size, lanes, target)
	// combination the hardware does not support.
	ErrIllegalShape = errors.New("lsc: illegal shape")

	// ErrUnsupportedTarget reports a storage target the operation cannot address.
	ErrUnsupportedTarget = errors.New("lsc: unsupported target")

	// ErrUnsupportedOp reports an operation code the engine does not implement.
	ErrUnsupportedOp = errors.New("lsc: unsupported operation")

	// ErrOperandCount reports a data or source operand of the wrong length,
	// or the wrong number of source operands for an atomic operation.
	ErrOperandCount = errors.New("lsc: wrong operand count")

	// ErrLaneCount reports offset or predicate vectors whose length differs
	// from the shape's lane count.
	ErrLaneCount = errors.New("lsc: lane count mismatch")

	// ErrNoScratch is returned by resolvers that have no local scratch bound.
	ErrNoScratch = errors.New("lsc: no local scratch bound")

	// ErrUnknownHandle is returned by resolvers for handles that name no buffer.
	ErrUnknownHandle = errors.New("lsc: unknown buffer handle")
)

// AlignmentError reports an active lane whose offset violates the alignment
// the operation's shape requires. It aborts the whole operation.
type AlignmentError struct {
	Lane     int
	Offset   uint32
	Elements int
	Mask     uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("lsc: lane %d offset %#x not aligned to %d bytes (%d elements per lane)",
		e.Lane, e.Offset, e.Mask+1, e.Elements)
}

// Is makes errors.Is(err, ErrMisaligned) hold for alignment errors.
func (e *AlignmentError) Is(target error) bool {
	return target == ErrMisaligned
}
