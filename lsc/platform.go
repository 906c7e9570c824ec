package lsc

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

// Platform identifies the emulated accelerator generation. It fixes the
// SIMT widths a gather or scatter may use, the register size of raw-send
// payloads and the size of local scratch memory.
type Platform int

const (
	// XeLP supports SIMD8 and SIMD16 with 32-byte registers.
	XeLP Platform = iota

	// XeHPG supports SIMD8 and SIMD16 with 32-byte registers.
	XeHPG

	// XeHPC supports SIMD16 and SIMD32 with 64-byte registers.
	XeHPC
)

// String returns a human-readable name for the platform.
func (p Platform) String() string {
	switch p {
	case XeLP:
		return "xelp"
	case XeHPG:
		return "xehpg"
	case XeHPC:
		return "xehpc"
	default:
		return "unknown"
	}
}

// Widths returns the SIMT lane counts the platform supports for
// per-lane gathers and scatters.
func (p Platform) Widths() []int {
	switch p {
	case XeHPC:
		return []int{16, 32}
	default:
		return []int{8, 16}
	}
}

// SupportsWidth reports whether n lanes is a legal gather/scatter width.
// A single lane is always legal; it is the shape of block transfers.
func (p Platform) SupportsWidth(n int) bool {
	return n == 1 || lo.Contains(p.Widths(), n)
}

// GRFBytes returns the size of one general register in bytes.
func (p Platform) GRFBytes() int {
	if p == XeHPC {
		return 64
	}
	return 32
}

// ScratchBytes returns the size of one invocation's local scratch memory.
func (p Platform) ScratchBytes() int {
	if p == XeHPC {
		return 128 << 10
	}
	return 64 << 10
}

func (p Platform) valid() bool {
	return p >= XeLP && p <= XeHPC
}

// ParsePlatform parses a platform name as produced by String.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xelp", "gen12", "tgl":
		return XeLP, nil
	case "xehpg", "dg2":
		return XeHPG, nil
	case "xehpc", "pvc":
		return XeHPC, nil
	}
	return XeHPC, fmt.Errorf("unknown platform %q", s)
}

// PlatformEnv is the environment variable that selects the default platform.
const PlatformEnv = "LSC_PLATFORM"

// DefaultPlatform returns the platform named by LSC_PLATFORM, or XeHPC when
// the variable is unset or not a known name.
func DefaultPlatform() Platform {
	val := os.Getenv(PlatformEnv)
	if val == "" {
		return XeHPC
	}
	if p, err := ParsePlatform(val); err == nil {
		return p
	}
	return XeHPC
}
