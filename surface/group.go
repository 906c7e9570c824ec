package surface

import "github.com/ajroetker/go-lsc/lsc"

// Group is the view of a Registry seen by one emulated thread group: the
// shared buffers plus the group's own local scratch memory.
type Group struct {
	*Registry
	scratch []byte
}

// NewGroup returns a Group with a zeroed scratch region of scratchBytes.
func (r *Registry) NewGroup(scratchBytes int) *Group {
	return &Group{Registry: r, scratch: make([]byte, max(0, scratchBytes))}
}

// ResolveScratch implements lsc.Resolver.
func (g *Group) ResolveScratch() (lsc.Region, error) {
	return lsc.Region{Data: g.scratch, Width: len(g.scratch), Height: 1, Depth: 1}, nil
}

// Scratch returns the group's scratch memory.
func (g *Group) Scratch() []byte {
	return g.scratch
}
