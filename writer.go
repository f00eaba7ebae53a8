package graft

import (
	"unsafe"

	"github.com/graftlib/graft/asm"
)

// Writer declares one complete patch: the span it covers, the checksum
// of the bytes expected there, and how to build the replacement. Write
// receives a live view of the target range, so implementations may bake
// in values that depend on the final addresses.
type Writer interface {
	Span() Span
	Checksum() Checksum
	Write(mem []byte) error
}

// Bytes replaces the span with an exact-length copy of Data.
type Bytes struct {
	At   Span
	Sum  Checksum
	Data []byte
}

func (w Bytes) Span() Span         { return w.At }
func (w Bytes) Checksum() Checksum { return w.Sum }

func (w Bytes) Write(mem []byte) error {
	if len(w.Data) != len(mem) {
		return &LengthMismatchError{Found: len(w.Data), Expected: len(mem)}
	}
	copy(mem, w.Data)
	return nil
}

// Fill tiles the span with copies of Data. The pattern must divide the
// span exactly.
type Fill struct {
	At   Span
	Sum  Checksum
	Data []byte
}

func (w Fill) Span() Span         { return w.At }
func (w Fill) Checksum() Checksum { return w.Sum }

func (w Fill) Write(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if len(w.Data) == 0 {
		return ErrZeroSized
	}
	if r := len(mem) % len(w.Data); r != 0 {
		return &ResidualError{Right: r}
	}
	for len(mem) > 0 {
		mem = mem[copy(mem, w.Data):]
	}
	return nil
}

// Padded places Data inside the span per Align and fills both sides by
// repeating the Pad element.
type Padded struct {
	At    Span
	Sum   Checksum
	Data  []byte
	Pad   []byte
	Align Alignment
}

func (w Padded) Span() Span         { return w.At }
func (w Padded) Checksum() Checksum { return w.Sum }

func (w Padded) Write(mem []byte) error {
	left, right, err := w.Align.Split(len(mem), len(w.Data), len(w.Pad))
	if err != nil {
		return err
	}

	for i := 0; i < left; i++ {
		copy(mem[i*len(w.Pad):], w.Pad)
	}
	body := mem[left*len(w.Pad):]
	copy(body, w.Data)

	tail := body[len(w.Data):]
	for i := 0; i < right; i++ {
		copy(tail[i*len(w.Pad):], w.Pad)
	}
	return nil
}

// Value writes the in-memory bytes of one fixed-size value. The span
// must match the value's size exactly.
type Value[T any] struct {
	At  Span
	Sum Checksum
	V   T
}

func (w Value[T]) Span() Span         { return w.At }
func (w Value[T]) Checksum() Checksum { return w.Sum }

func (w Value[T]) Write(mem []byte) error {
	size := int(unsafe.Sizeof(w.V))
	if size == 0 {
		return ErrZeroSized
	}
	if size != len(mem) {
		return &LengthMismatchError{Found: size, Expected: len(mem)}
	}
	copy(mem, unsafe.Slice((*byte)(unsafe.Pointer(&w.V)), size))
	return nil
}

// Nops fills the span with no-op instructions.
type Nops struct {
	At  Span
	Sum Checksum
}

func (w Nops) Span() Span         { return w.At }
func (w Nops) Checksum() Checksum { return w.Sum }

func (w Nops) Write(mem []byte) error {
	return asm.FillNops(mem)
}

// Hook compiles a call to Target at the start of the span and makes the
// rest of it inert. The relative offsets are baked against the live
// addresses during the write.
type Hook struct {
	At     Span
	Sum    Checksum
	Target asm.HookTarget
}

func (w Hook) Span() Span         { return w.At }
func (w Hook) Checksum() Checksum { return w.Sum }

func (w Hook) Write(mem []byte) error {
	return asm.FillHook(mem, w.Target)
}

// Code places raw machine code inside the span per Align and fills both
// sides with no-op instructions.
type Code struct {
	At    Span
	Sum   Checksum
	Data  []byte
	Align Alignment
}

func (w Code) Span() Span         { return w.At }
func (w Code) Checksum() Checksum { return w.Sum }

func (w Code) Write(mem []byte) error {
	left, _, err := w.Align.Split(len(mem), len(w.Data), 1)
	if err != nil {
		return err
	}

	if err := asm.FillNops(mem[:left]); err != nil {
		return err
	}
	copy(mem[left:], w.Data)
	return asm.FillNops(mem[left+len(w.Data):])
}
