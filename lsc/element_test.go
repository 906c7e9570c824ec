package lsc

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestElementBits(t *testing.T) {
	if got := toBits(float32(1)); got != 0x3F800000 {
		t.Errorf("toBits(float32(1)) = %#x, want 0x3f800000", got)
	}
	if got := toBits(int8(-1)); got != 0xFF {
		t.Errorf("toBits(int8(-1)) = %#x, want 0xff", got)
	}
	if got := toBits(int64(-2)); got != 0xFFFFFFFFFFFFFFFE {
		t.Errorf("toBits(int64(-2)) = %#x", got)
	}
	if got := fromBits[int16](0xFFFF); got != -1 {
		t.Errorf("fromBits[int16](0xffff) = %d, want -1", got)
	}
	if got := fromBits[uint8](0x1234); got != 0x34 {
		t.Errorf("fromBits[uint8](0x1234) = %#x, want 0x34", got)
	}
	if got := fromBits[float64](math.Float64bits(-3.25)); got != -3.25 {
		t.Errorf("fromBits[float64] = %v, want -3.25", got)
	}
	if got := fromBits[Float16](0x3C00).Float32(); got != 1 {
		t.Errorf("fromBits[Float16](0x3c00) = %v, want 1", got)
	}
}

func TestPayload(t *testing.T) {
	payload := make([]byte, 16)
	in := []int16{-1, 2, -300, 4000}
	if err := EncodePayload(payload, in); err != nil {
		t.Fatal(err)
	}
	if payload[0] != 0xFF || payload[1] != 0xFF || payload[2] != 2 || payload[3] != 0 {
		t.Errorf("payload is not little-endian: % x", payload[:4])
	}
	out, err := DecodePayload[int16](payload, 4)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("decoded payload (-want +got):\n%s", diff)
	}

	if _, err := DecodePayload[uint64](payload, 3); !errors.Is(err, ErrOperandCount) {
		t.Errorf("short decode: got %v, want ErrOperandCount", err)
	}
	if err := EncodePayload(payload, make([]uint32, 5)); !errors.Is(err, ErrOperandCount) {
		t.Errorf("short encode: got %v, want ErrOperandCount", err)
	}
}

func TestWidthMask(t *testing.T) {
	for n, want := range map[int]uint64{1: 0xFF, 2: 0xFFFF, 4: 0xFFFFFFFF, 8: math.MaxUint64} {
		if got := widthMask(n); got != want {
			t.Errorf("widthMask(%d) = %#x, want %#x", n, got, want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		got  elemKind
		want elemKind
	}{
		{"uint32", kindOf[uint32](), kindUnsigned},
		{"int8", kindOf[int8](), kindSigned},
		{"float64", kindOf[float64](), kindFloat},
		{"Float16", kindOf[Float16](), kindHalf},
		{"BFloat16", kindOf[BFloat16](), kindBFloat},
		{"uint16", kindOf[uint16](), kindUnsigned},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("kindOf[%s]() = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}
