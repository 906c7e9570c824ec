package lsc

import "fmt"

// testResolver is an in-memory Resolver with linear buffers only.
type testResolver struct {
	bufs    map[uint8][]byte
	scratch []byte
	flushed int
}

func newTestResolver() *testResolver {
	return &testResolver{bufs: make(map[uint8][]byte)}
}

func (r *testResolver) add(h uint8, size int) []byte {
	b := make([]byte, size)
	r.bufs[h] = b
	return b
}

func (r *testResolver) Resolve(h uint8) (Region, error) {
	b, ok := r.bufs[h]
	if !ok {
		return Region{}, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return Region{Data: b, Width: len(b), Height: 1, Depth: 1}, nil
}

func (r *testResolver) ResolveScratch() (Region, error) {
	if r.scratch == nil {
		return Region{}, ErrNoScratch
	}
	return Region{Data: r.scratch, Width: len(r.scratch), Height: 1, Depth: 1}, nil
}

func (r *testResolver) FlushAll() error {
	r.flushed++
	return nil
}

// iota32 returns a byte buffer of n little-endian uint32 values 0..n-1.
func iota32(n int) []byte {
	b := make([]byte, 4*n)
	for i := range n {
		writeLE(b, 4*i, 4, uint64(i))
	}
	return b
}
