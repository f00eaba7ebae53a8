// Package asm emits the small, fixed instruction set the patch engine
// needs: multi-byte no-ops, jumps, calls and a trap. Every encoder is a
// pure function that writes into a caller-owned buffer and reports how
// many bytes it wrote. Nothing is written unless the full encoding fits.
package asm

import "fmt"

// MaxNopLen is the longest single no-op encoding.
const MaxNopLen = 11

// HookTarget is the entry address of injected logic. The code behind it
// must stay resident for as long as any compiled call site can execute.
type HookTarget uintptr

// BufferTooSmallError reports a buffer that cannot hold a full encoding.
type BufferTooSmallError struct {
	Needed    int
	Available int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("asm: buffer too small: need %d bytes, have %d", e.Needed, e.Available)
}

// OffsetError reports a relative operand that does not fit the requested
// encoding form.
type OffsetError struct {
	Rel  int64
	Form string
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("asm: %s cannot reach relative offset %d", e.Form, e.Rel)
}
