package asm

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

const (
	opcodeJmpRel8   = 0xeb
	opcodeJmpRel32  = 0xe9
	opcodeCallRel32 = 0xe8
)

// Recommended multi-byte no-op sequences, indexed by length-1.
var nops = [MaxNopLen][]byte{
	{0x90},
	{0x66, 0x90},
	{0x0f, 0x1f, 0x00},
	{0x0f, 0x1f, 0x40, 0x00},
	{0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	{0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x66, 0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// Nop writes a single no-op instruction of exactly size bytes, 1 through
// MaxNopLen.
func Nop(buf []byte, size int) (int, error) {
	if size < 1 || size > MaxNopLen {
		return 0, fmt.Errorf("asm: no %d-byte no-op encoding", size)
	}
	if len(buf) < size {
		return 0, &BufferTooSmallError{Needed: size, Available: len(buf)}
	}
	return copy(buf, nops[size-1]), nil
}

// Ud2 writes the two-byte trap instruction. Executing it raises an
// invalid-opcode fault.
func Ud2(buf []byte) (int, error) {
	const size = 2
	if len(buf) < size {
		return 0, &BufferTooSmallError{Needed: size, Available: len(buf)}
	}
	buf[0] = 0x0f
	buf[1] = 0x0b
	return size, nil
}

// Ret writes a near return.
func Ret(buf []byte) (int, error) {
	if len(buf) < 1 {
		return 0, &BufferTooSmallError{Needed: 1, Available: len(buf)}
	}
	buf[0] = 0xc3
	return 1, nil
}

// JmpRel8 writes a short jump. rel is the raw distance from the first
// byte of the instruction; the pc-relative adjustment happens here.
func JmpRel8(buf []byte, rel int64) (int, error) {
	const size = 2
	if len(buf) < size {
		return 0, &BufferTooSmallError{Needed: size, Available: len(buf)}
	}
	disp := rel - size
	if disp < math.MinInt8 || disp > math.MaxInt8 {
		return 0, &OffsetError{Rel: rel, Form: "jmp rel8"}
	}
	buf[0] = opcodeJmpRel8
	buf[1] = byte(int8(disp))
	return size, nil
}

// JmpRel32 writes a near jump. rel is the raw distance from the first
// byte of the instruction.
func JmpRel32(buf []byte, rel int64) (int, error) {
	const size = 5
	if len(buf) < size {
		return 0, &BufferTooSmallError{Needed: size, Available: len(buf)}
	}
	disp := rel - size
	if disp < math.MinInt32 || disp > math.MaxInt32 {
		return 0, &OffsetError{Rel: rel, Form: "jmp rel32"}
	}
	buf[0] = opcodeJmpRel32
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(disp)))
	return size, nil
}

// JmpAbs writes an absolute jump through a pointer inlined directly after
// the instruction: JMP [RIP+0] followed by the 8-byte target address.
func JmpAbs(buf []byte, target uintptr) (int, error) {
	const size = 14
	if len(buf) < size {
		return 0, &BufferTooSmallError{Needed: size, Available: len(buf)}
	}
	buf[0] = 0xff
	buf[1] = 0x25
	binary.LittleEndian.PutUint32(buf[2:], 0)
	binary.LittleEndian.PutUint64(buf[6:], uint64(target))
	return size, nil
}

// CallRel32 writes a near call. rel is the raw distance from the first
// byte of the instruction.
func CallRel32(buf []byte, rel int64) (int, error) {
	const size = 5
	if len(buf) < size {
		return 0, &BufferTooSmallError{Needed: size, Available: len(buf)}
	}
	disp := rel - size
	if disp < math.MinInt32 || disp > math.MaxInt32 {
		return 0, &OffsetError{Rel: rel, Form: "call rel32"}
	}
	buf[0] = opcodeCallRel32
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(disp)))
	return size, nil
}

// CallAbs writes an absolute call through an inlined pointer:
// CALL [RIP+2], a short jump over the pointer, then the 8-byte address.
// Execution resumes after the full 16 bytes when the callee returns.
func CallAbs(buf []byte, target uintptr) (int, error) {
	const size = 16
	if len(buf) < size {
		return 0, &BufferTooSmallError{Needed: size, Available: len(buf)}
	}
	buf[0] = 0xff
	buf[1] = 0x15
	binary.LittleEndian.PutUint32(buf[2:], 2)
	buf[6] = opcodeJmpRel8
	buf[7] = 0x08
	binary.LittleEndian.PutUint64(buf[8:], uint64(target))
	return size, nil
}

// Jmp writes the smallest jump that can cover rel, measured from the
// first byte of buf: short, then near, then absolute. The absolute form
// reconstructs the target address from buf's own address, so buf must be
// the memory the jump will execute from.
func Jmp(buf []byte, rel int64) (int, error) {
	switch {
	case fitsInt8(rel - 2):
		return JmpRel8(buf, rel)
	case fitsInt32(rel - 5):
		return JmpRel32(buf, rel)
	}
	return JmpAbs(buf, uintptr(int64(bufAddr(buf))+rel))
}

// Call writes the smallest call that can cover rel, measured from the
// first byte of buf. Same addressing contract as Jmp.
func Call(buf []byte, rel int64) (int, error) {
	if fitsInt32(rel - 5) {
		return CallRel32(buf, rel)
	}
	return CallAbs(buf, uintptr(int64(bufAddr(buf))+rel))
}

func fitsInt8(v int64) bool  { return v >= math.MinInt8 && v <= math.MaxInt8 }
func fitsInt32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

func bufAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}
