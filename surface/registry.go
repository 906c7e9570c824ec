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

// Package surface is an in-process buffer manager for the lsc engine.
//
// A Registry owns buffer memory and hands out small integer handles. Every
// buffer has a working view, which kernels read and write through the
// engine, and a canonical view, which the host observes. A fence on general
// memory copies working views onto canonical views. Buffers also receive a
// flat virtual address so raw-send messages can address them directly.
package surface

import (
	"fmt"
	"sync"

	"github.com/ajroetker/go-lsc/lsc"
)

// Handle names a buffer. Handles fit in the low byte of a 32-bit surface
// index.
type Handle uint8

// MaxBuffers is the number of buffers a Registry can hold at once.
const MaxBuffers = 256

const (
	// addressBase is the flat address of the first buffer. Address zero
	// is never mapped.
	addressBase = 0x1_0000

	// addressAlign aligns every buffer's flat address; a guard gap of the
	// same size separates consecutive buffers.
	addressAlign = 4096
)

type buffer struct {
	handle    Handle
	addr      uint64
	width     int
	height    int
	depth     int
	pitch     int
	working   []byte
	canonical []byte
}

// Registry implements lsc.Resolver, lsc.AddressResolver and lsc.Flusher.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	buffers  [MaxBuffers]*buffer
	nextAddr uint64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{nextAddr: addressBase}
}

// CreateBuffer registers a zeroed linear buffer of size bytes.
func (r *Registry) CreateBuffer(size int) (Handle, error) {
	if size <= 0 {
		return 0, fmt.Errorf("surface: buffer size %d", size)
	}
	return r.add(size, 1, 1, size, nil)
}

// CreateBufferFrom registers a linear buffer initialized with a copy of data.
func (r *Registry) CreateBufferFrom(data []byte) (Handle, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("surface: empty buffer")
	}
	return r.add(len(data), 1, 1, len(data), data)
}

// CreateSurface2D registers a zeroed pitched surface of height rows of
// width bytes, pitch bytes apart.
func (r *Registry) CreateSurface2D(width, height, pitch int) (Handle, error) {
	if width <= 0 || height <= 0 || pitch < width {
		return 0, fmt.Errorf("surface: 2d surface %dx%d with pitch %d", width, height, pitch)
	}
	return r.add(width, height, 1, pitch, nil)
}

func (r *Registry) add(width, height, depth, pitch int, init []byte) (Handle, error) {
	size := pitch * height * depth
	b := &buffer{
		width:     width,
		height:    height,
		depth:     depth,
		pitch:     pitch,
		working:   make([]byte, size),
		canonical: make([]byte, size),
	}
	copy(b.working, init)
	copy(b.canonical, init)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, slot := range r.buffers {
		if slot == nil {
			b.handle = Handle(i)
			b.addr = r.nextAddr
			r.nextAddr = alignUp(b.addr+uint64(size), addressAlign) + addressAlign
			r.buffers[i] = b
			return b.handle, nil
		}
	}
	return 0, fmt.Errorf("surface: all %d buffer handles in use", MaxBuffers)
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

// Destroy unregisters a buffer. Its flat address range is not reused.
func (r *Registry) Destroy(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buffers[h] == nil {
		return fmt.Errorf("%w: %d", lsc.ErrUnknownHandle, h)
	}
	r.buffers[h] = nil
	return nil
}

func (r *Registry) lookup(h Handle) (*buffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.buffers[h]
	if b == nil {
		return nil, fmt.Errorf("%w: %d", lsc.ErrUnknownHandle, h)
	}
	return b, nil
}

// Address returns the flat address of a buffer's first byte.
func (r *Registry) Address(h Handle) (uint64, error) {
	b, err := r.lookup(h)
	if err != nil {
		return 0, err
	}
	return b.addr, nil
}

// Read returns a copy of a buffer's canonical view.
func (r *Registry) Read(h Handle) ([]byte, error) {
	b, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]byte(nil), b.canonical...), nil
}

// Write copies data into both views of a buffer at byte offset off.
func (r *Registry) Write(h Handle, off int, data []byte) error {
	b, err := r.lookup(h)
	if err != nil {
		return err
	}
	if off < 0 || off+len(data) > len(b.working) {
		return fmt.Errorf("surface: write of %d bytes at %d overflows %d-byte buffer %d", len(data), off, len(b.working), h)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copy(b.working[off:], data)
	copy(b.canonical[off:], data)
	return nil
}

// Resolve implements lsc.Resolver. The region covers the working view;
// its Width is the row width in bytes.
func (r *Registry) Resolve(handle uint8) (lsc.Region, error) {
	b, err := r.lookup(Handle(handle))
	if err != nil {
		return lsc.Region{}, err
	}
	return lsc.Region{Data: b.working, Width: b.width, Height: b.height, Depth: b.depth}, nil
}

// ResolveScratch implements lsc.Resolver. A bare Registry has no local
// scratch; see Group.
func (r *Registry) ResolveScratch() (lsc.Region, error) {
	return lsc.Region{}, lsc.ErrNoScratch
}

// ResolveAddress implements lsc.AddressResolver. The region runs from addr
// to the end of the containing buffer's working view.
func (r *Registry) ResolveAddress(addr uint64) (lsc.Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.buffers {
		if b == nil || addr < b.addr || addr >= b.addr+uint64(len(b.working)) {
			continue
		}
		data := b.working[addr-b.addr:]
		return lsc.Region{Data: data, Width: len(data), Height: 1, Depth: 1}, nil
	}
	return lsc.Region{}, fmt.Errorf("%w: no buffer at flat address %#x", lsc.ErrUnknownHandle, addr)
}

// FlushAll implements lsc.Flusher: every working view is copied onto its
// canonical view.
func (r *Registry) FlushAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.buffers {
		if b != nil {
			copy(b.canonical, b.working)
		}
	}
	return nil
}

// Handles returns the handles of all registered buffers in ascending order.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var hs []Handle
	for _, b := range r.buffers {
		if b != nil {
			hs = append(hs, b.handle)
		}
	}
	return hs
}
