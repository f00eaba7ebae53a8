package graft

import (
	"errors"
	"fmt"
)

// ErrEndBeforeStart reports a span whose end offset lands before its
// start offset once both are resolved.
var ErrEndBeforeStart = errors.New("graft: span end offset before start offset")

// RangeError reports an offset beyond the maximum a module or buffer
// can provide.
type RangeError struct {
	Given uintptr
	Max   uintptr
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("graft: offset %d out of range: maximum is %d bytes", e.Given, e.Max)
}

// Span selects a range of byte offsets inside a module, relative to the
// module's start address. Spans are half-open: the start offset is
// included, the end offset is not.
type Span struct {
	start uintptr
	end   uintptr
	open  bool
}

// Between selects the offsets in [start, end).
func Between(start, end uintptr) Span {
	return Span{start: start, end: end}
}

// Length selects n bytes beginning at offset start.
func Length(start, n uintptr) Span {
	return Span{start: start, end: start + n}
}

// From selects every offset from start to the end of whatever module the
// span is resolved against.
func From(start uintptr) Span {
	return Span{start: start, open: true}
}

func (s Span) String() string {
	if s.open {
		return fmt.Sprintf("[0x%x, end)", s.start)
	}
	return fmt.Sprintf("[0x%x, 0x%x)", s.start, s.end)
}
