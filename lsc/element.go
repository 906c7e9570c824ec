package lsc

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Device memory and raw-send payloads are little-endian. Register element
// values are held in host order, so every transfer goes through bits.

// toBits returns the storage bits of v, zero-extended to 64 bits.
func toBits[T Element](v T) uint64 {
	b := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	var bits uint64
	for i := range b {
		if cpu.IsBigEndian {
			bits = bits<<8 | uint64(b[i])
		} else {
			bits |= uint64(b[i]) << (8 * i)
		}
	}
	return bits
}

// fromBits returns the element whose storage bits are the low bits of bits.
func fromBits[T Element](bits uint64) T {
	var v T
	b := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	n := len(b)
	for i := range b {
		shift := 8 * i
		if cpu.IsBigEndian {
			shift = 8 * (n - 1 - i)
		}
		b[i] = byte(bits >> shift)
	}
	return v
}

// readLE reads an n-byte little-endian value from mem at off.
func readLE(mem []byte, off, n int) uint64 {
	switch n {
	case 1:
		return uint64(mem[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(mem[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(mem[off:]))
	default:
		return binary.LittleEndian.Uint64(mem[off:])
	}
}

// writeLE writes the low n bytes of bits to mem at off, little-endian.
func writeLE(mem []byte, off, n int, bits uint64) {
	switch n {
	case 1:
		mem[off] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(mem[off:], uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(mem[off:], uint32(bits))
	default:
		binary.LittleEndian.PutUint64(mem[off:], bits)
	}
}

// widthMask returns a mask of the low n bytes.
func widthMask(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*n) - 1
}

// DecodePayload unpacks n little-endian elements of T from a register
// payload.
func DecodePayload[T Element](payload []byte, n int) ([]T, error) {
	size := sizeOf[T]()
	if len(payload) < n*size {
		return nil, fmt.Errorf("%w: payload holds %d bytes, need %d", ErrOperandCount, len(payload), n*size)
	}
	out := make([]T, n)
	for i := range out {
		out[i] = fromBits[T](readLE(payload, i*size, size))
	}
	return out, nil
}

// EncodePayload packs values little-endian into a register payload.
func EncodePayload[T Element](payload []byte, values []T) error {
	size := sizeOf[T]()
	if len(payload) < len(values)*size {
		return fmt.Errorf("%w: payload holds %d bytes, need %d", ErrOperandCount, len(payload), len(values)*size)
	}
	for i, v := range values {
		writeLE(payload, i*size, size, toBits(v))
	}
	return nil
}
