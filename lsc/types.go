// Package lsc emulates the Load/Store/Cache (LSC) memory subsystem of a SIMT
// accelerator on a general-purpose CPU.
//
// Kernels written against the accelerator's memory ISA issue predicated,
// per-lane gathers, scatters and atomics. This package reproduces those
// operations over byte regions supplied by a Resolver, keeping the hardware's
// alignment legality rules and its lane-interleaved payload layout.
//
// Basic usage:
//
//	eng := lsc.New(registry, lsc.WithPlatform(lsc.XeHPC))
//	shape := lsc.MustShape[uint32](lsc.XeHPC, 16, lsc.N4, lsc.U32)
//
//	// Each active lane reads 4 contiguous uint32 values at its offset.
//	data, err := lsc.Load(eng, lsc.Surface(lsc.UGM, handle), shape, offsets, nil)
//
//	// Element e of lane l is data[e*16+l].
package lsc

import (
	"reflect"
	"unsafe"
)

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
// Float16 and BFloat16 satisfy it through their uint16 storage and are
// recognized as floating-point elements at runtime.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Element is a constraint for all types that can occupy one element of an
// LSC data payload.
type Element interface {
	Floats | Integers
}

// elemKind classifies an element type for atomic arithmetic.
type elemKind uint8

const (
	kindUnsigned elemKind = iota
	kindSigned
	kindFloat
	kindHalf
	kindBFloat
)

func (k elemKind) isFloat() bool {
	return k == kindFloat || k == kindHalf || k == kindBFloat
}

// kindOf returns the arithmetic class of T.
func kindOf[T Element]() elemKind {
	var zero T
	switch any(zero).(type) {
	case Float16:
		return kindHalf
	case BFloat16:
		return kindBFloat
	}
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindSigned
	case reflect.Float32, reflect.Float64:
		return kindFloat
	default:
		return kindUnsigned
	}
}

// sizeOf returns the size of T in bytes.
func sizeOf[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
