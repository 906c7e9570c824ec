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
	"sync"

	"golang.org/x/sys/cpu"
)

// Region is a resolved memory target: the working bytes of a buffer from its
// base, and its extent. Width is the byte width that bounds gathers and
// scatters; Height and Depth describe surfaces with more than one row.
//
// The engine borrows Data for the duration of one call only, because buffers
// may be moved or destroyed between calls.
type Region struct {
	Data   []byte
	Width  int
	Height int
	Depth  int
}

// Resolver maps storage targets to memory. It is implemented by the surface
// manager that owns buffer memory.
type Resolver interface {
	// Resolve returns the region of the general-memory buffer with the
	// given handle.
	Resolve(handle uint8) (Region, error)

	// ResolveScratch returns the invocation's local scratch memory.
	ResolveScratch() (Region, error)
}

// AddressResolver is implemented by resolvers that expose a flat virtual
// address space. ResolveAddress returns the region from addr to the end of
// the buffer that contains it.
type AddressResolver interface {
	ResolveAddress(addr uint64) (Region, error)
}

// Flusher is implemented by resolvers whose buffers keep a working view
// separate from their canonical view. FlushAll copies every working view
// onto its canonical view.
type Flusher interface {
	FlushAll() error
}

// Target names the memory an operation addresses.
type Target struct {
	Kind MemKind

	// Handle names a buffer for UGM, UGML and TGM. Only its low byte is
	// significant.
	Handle uint32

	// Addr is a flat base address, used when Flat is set. For SLM it is
	// an offset into local scratch.
	Addr uint64
	Flat bool
}

// Surface returns the target for the buffer with the given handle.
func Surface(kind MemKind, handle uint32) Target {
	return Target{Kind: kind, Handle: handle}
}

// Scratch returns the target for the invocation's local scratch memory.
func Scratch() Target {
	return Target{Kind: SLM}
}

// FlatAddress returns the target whose base is the flat address addr.
func FlatAddress(kind MemKind, addr uint64) Target {
	return Target{Kind: kind, Addr: addr, Flat: true}
}

func (t Target) String() string {
	switch {
	case t.Flat:
		return fmt.Sprintf("%v@%#x", t.Kind, t.Addr)
	case t.Kind == SLM:
		return "slm"
	default:
		return fmt.Sprintf("%v[%d]", t.Kind, uint8(t.Handle))
	}
}

// Serializer is the lock that makes every atomic call one indivisible
// critical section across all invocations sharing it.
type Serializer struct {
	_  cpu.CacheLinePad
	mu sync.Mutex
	_  cpu.CacheLinePad
}

// NewSerializer returns a new, unlocked Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Engine executes LSC operations against the memory of a Resolver.
//
// An Engine is safe for concurrent use. Invocations that run concurrently
// and need their own local scratch share one Engine through Bind, which
// keeps the platform and the Serializer.
type Engine struct {
	resolver Resolver
	serial   *Serializer
	platform Platform
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlatform selects the emulated platform. The default is
// DefaultPlatform().
func WithPlatform(p Platform) Option {
	return func(e *Engine) {
		e.platform = p
	}
}

// WithSerializer makes the engine serialize its atomics on s, so that
// engines created separately still never interleave atomic calls.
func WithSerializer(s *Serializer) Option {
	return func(e *Engine) {
		if s != nil {
			e.serial = s
		}
	}
}

// New creates an Engine over resolver.
func New(resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		serial:   NewSerializer(),
		platform: DefaultPlatform(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bind returns an engine over resolver that shares e's platform and
// Serializer.
func (e *Engine) Bind(resolver Resolver) *Engine {
	return &Engine{resolver: resolver, serial: e.serial, platform: e.platform}
}

// Platform returns the emulated platform.
func (e *Engine) Platform() Platform {
	return e.platform
}

// Serializer returns the lock that serializes e's atomics.
func (e *Engine) Serializer() *Serializer {
	return e.serial
}

// region resolves t through the engine's resolver.
func (e *Engine) region(t Target) (Region, error) {
	if e.resolver == nil {
		return Region{}, fmt.Errorf("%w: no resolver", ErrUnsupportedTarget)
	}
	switch t.Kind {
	case SLM:
		r, err := e.resolver.ResolveScratch()
		if err != nil {
			return Region{}, err
		}
		if t.Flat {
			if t.Addr > uint64(len(r.Data)) {
				return Region{}, nil
			}
			r.Data = r.Data[t.Addr:]
			r.Width = len(r.Data)
		}
		return r, nil
	case UGM, UGML, TGM:
		if t.Flat {
			ar, ok := e.resolver.(AddressResolver)
			if !ok {
				return Region{}, fmt.Errorf("%w: resolver has no flat address space", ErrUnsupportedTarget)
			}
			return ar.ResolveAddress(t.Addr)
		}
		return e.resolver.Resolve(uint8(t.Handle))
	default:
		return Region{}, fmt.Errorf("%w: %v", ErrUnsupportedTarget, t.Kind)
	}
}

// checkLanes verifies the offset and predicate vectors against lanes.
// A nil predicate activates every lane.
func checkLanes(lanes int, offsets []uint32, pred []bool) error {
	if len(offsets) != lanes {
		return fmt.Errorf("%w: %d offsets for %d lanes", ErrLaneCount, len(offsets), lanes)
	}
	if pred != nil && len(pred) != lanes {
		return fmt.Errorf("%w: %d predicates for %d lanes", ErrLaneCount, len(pred), lanes)
	}
	return nil
}

func active(pred []bool, lane int) bool {
	return pred == nil || pred[lane]
}

// checkAlignment returns an *AlignmentError for the first active lane whose
// offset violates mask. It runs before any lane is transferred, so a
// misaligned operation has no effect at all.
func checkAlignment(offsets []uint32, pred []bool, mask uint32, elements int) error {
	if mask == 0 {
		return nil
	}
	for lane, off := range offsets {
		if active(pred, lane) && off&mask != 0 {
			return &AlignmentError{Lane: lane, Offset: off, Elements: elements, Mask: mask}
		}
	}
	return nil
}

// inBounds reports whether an element of n bytes at pos lies within r.
func (r Region) inBounds(pos int64, n int) bool {
	end := pos + int64(n)
	return pos >= 0 && end <= int64(r.Width) && end <= int64(len(r.Data))
}
