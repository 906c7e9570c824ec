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

package rawsend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/ajroetker/go-lsc/lsc"
)

// Request is one raw-send message: a descriptor plus register payloads.
//
// Payloads are little-endian. Data and response payloads are
// lane-interleaved like lsc data vectors, each element packed at the
// register element size of its data size (1, 2, 4 or 8 bytes; 4 for the
// promoting sizes).
type Request struct {
	// Desc is the message descriptor.
	Desc uint32

	// ExDesc is the extended descriptor. For BTI addressing, bits [31:24]
	// hold the buffer handle.
	ExDesc uint32

	// SFID selects the storage target the message is sent to.
	SFID lsc.MemKind

	// ExecSize is the SIMT width of the message.
	ExecSize int

	// Pred is the per-lane predicate; nil activates every lane.
	Pred []bool

	// Addr is the address payload: per-lane addresses, a single base
	// address for transposed messages, or a 2-D block header.
	Addr []byte

	// Data is the store data payload.
	Data []byte

	// Resp receives the load response payload.
	Resp []byte
}

// Dispatch decodes req.Desc and performs the message on e. Only the vector
// and 2-D block load and store families are implemented; every other
// operation code fails with lsc.ErrUnsupportedOp.
func Dispatch(e *lsc.Engine, req Request) error {
	m := Decode(req.Desc)
	switch m.Op {
	case OpLoad, OpStore:
		return dispatchVector(e, m, req)
	case OpLoadBlock2D, OpStoreBlock2D:
		return dispatchBlock2D(e, m, req)
	}
	return fmt.Errorf("%w: message op %v", lsc.ErrUnsupportedOp, m.Op)
}

// addressing is the engine-level form of a message's addresses.
type addressing struct {
	target  lsc.Target
	lanes   int
	offsets []uint32
	pred    []bool

	// idle is set when no lane is active: there is no base to resolve.
	idle bool
}

func readAddr(p []byte, off, width int) uint64 {
	switch width {
	case 2:
		return uint64(binary.LittleEndian.Uint16(p[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(p[off:]))
	default:
		return binary.LittleEndian.Uint64(p[off:])
	}
}

// resolveAddresses turns the address payload into a target and per-lane
// offsets. Flat per-lane addresses are normalized against the lowest
// active address, which becomes the target's base.
func resolveAddresses(m Message, req Request) (addressing, error) {
	width := m.AddrSize.Bytes()
	if width == 0 {
		return addressing{}, fmt.Errorf("%w: reserved address size %d", lsc.ErrIllegalShape, m.AddrSize)
	}
	if m.AddrType != Flat && m.AddrType != BTI {
		return addressing{}, fmt.Errorf("%w: %v addressing", lsc.ErrUnsupportedTarget, m.AddrType)
	}

	lanes, pred := req.ExecSize, req.Pred
	if m.Transpose {
		lanes = 1
		if pred != nil {
			pred = pred[:min(1, len(pred))]
		}
	}
	if pred != nil && len(pred) != lanes {
		return addressing{}, fmt.Errorf("%w: %d predicates for %d lanes", lsc.ErrLaneCount, len(pred), lanes)
	}
	if lanes <= 0 {
		return addressing{}, fmt.Errorf("%w: execution size %d", lsc.ErrIllegalShape, lanes)
	}
	if len(req.Addr) < lanes*width {
		return addressing{}, fmt.Errorf("%w: address payload holds %d bytes, need %d", lsc.ErrOperandCount, len(req.Addr), lanes*width)
	}

	addrs := make([]uint64, lanes)
	for i := range addrs {
		addrs[i] = readAddr(req.Addr, i*width, width)
	}
	a := addressing{lanes: lanes, offsets: make([]uint32, lanes), pred: pred}

	if m.AddrType == BTI {
		for i, addr := range addrs {
			if addr > math.MaxUint32 {
				return addressing{}, fmt.Errorf("%w: lane %d offset %#x exceeds 32 bits", lsc.ErrIllegalShape, i, addr)
			}
			a.offsets[i] = uint32(addr)
		}
		a.target = lsc.Surface(req.SFID, req.ExDesc>>24)
		return a, nil
	}

	live := lo.Filter(addrs, func(_ uint64, i int) bool {
		return pred == nil || pred[i]
	})
	if len(live) == 0 {
		a.idle = true
		return a, nil
	}
	base := lo.Min(live)
	for i, addr := range addrs {
		if pred != nil && !pred[i] {
			continue
		}
		if addr-base > math.MaxUint32 {
			return addressing{}, fmt.Errorf("%w: lane %d address %#x is more than 4GiB above base %#x", lsc.ErrIllegalShape, i, addr, base)
		}
		a.offsets[i] = uint32(addr - base)
	}
	a.target = lsc.FlatAddress(req.SFID, base)
	return a, nil
}

func dispatchVector(e *lsc.Engine, m Message, req Request) error {
	a, err := resolveAddresses(m, req)
	if err != nil {
		return err
	}
	switch m.DataSize {
	case lsc.U8:
		return transfer[uint8](e, m, req, a)
	case lsc.U16:
		return transfer[uint16](e, m, req, a)
	case lsc.U32, lsc.U8U32, lsc.U16U32, lsc.U16U32H:
		return transfer[uint32](e, m, req, a)
	case lsc.U64:
		return transfer[uint64](e, m, req, a)
	}
	return fmt.Errorf("%w: reserved data size", lsc.ErrIllegalShape)
}

// transfer runs a vector load or store with register elements of type T.
func transfer[T uint8 | uint16 | uint32 | uint64](e *lsc.Engine, m Message, req Request, a addressing) error {
	shape, err := lsc.NewShape[T](e.Platform(), a.lanes, m.VectorSize, m.DataSize)
	if err != nil {
		return err
	}
	if m.Op == OpLoad {
		data := make([]T, shape.Len())
		if !a.idle {
			if data, err = lsc.Load(e, a.target, shape, a.offsets, a.pred); err != nil {
				return err
			}
		}
		return lsc.EncodePayload(req.Resp, data)
	}

	data, err := lsc.DecodePayload[T](req.Data, shape.Len())
	if err != nil {
		return err
	}
	if a.idle {
		return nil
	}
	return lsc.Store(e, a.target, shape, a.offsets, data, a.pred)
}
