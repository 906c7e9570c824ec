package lsc

import "fmt"

// Fence makes writes to the given storage kind visible across the emulated
// memory spaces. For general and typed memory every registered buffer's
// working view is copied onto its canonical view, when the resolver keeps
// the two apart. Local scratch has a single view, so fencing it does
// nothing.
//
// op and scope are validated but do not narrow the flush: every fence
// flushes everything.
func (e *Engine) Fence(kind MemKind, op FenceOp, scope Scope) error {
	if op >= numFenceOps {
		return fmt.Errorf("%w: fence op %d", ErrUnsupportedOp, op)
	}
	if scope >= numScopes {
		return fmt.Errorf("%w: fence scope %d", ErrUnsupportedOp, scope)
	}
	switch kind {
	case SLM:
		return nil
	case UGM, UGML, TGM:
		if f, ok := e.resolver.(Flusher); ok {
			return f.FlushAll()
		}
		return nil
	default:
		return fmt.Errorf("%w: fence on %v", ErrUnsupportedTarget, kind)
	}
}
