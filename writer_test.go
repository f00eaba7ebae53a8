package graft

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graftlib/graft/asm"
)

var (
	_ Writer = Bytes{}
	_ Writer = Fill{}
	_ Writer = Padded{}
	_ Writer = Value[int]{}
	_ Writer = Nops{}
	_ Writer = Hook{}
	_ Writer = Code{}
)

func TestWriterCarriesSpanAndChecksum(t *testing.T) {
	w := Bytes{At: Between(1, 5), Sum: 0x1234}
	assert.Equal(t, Between(1, 5), w.Span())
	assert.Equal(t, Checksum(0x1234), w.Checksum())
}

func TestBytesWriter(t *testing.T) {
	out := make([]byte, 4)

	require.NoError(t, Bytes{Data: []byte{1, 2, 3, 4}}.Write(out))
	assert.Equal(t, []byte{1, 2, 3, 4}, out)

	var mismatch *LengthMismatchError
	require.ErrorAs(t, Bytes{Data: []byte{1}}.Write(out), &mismatch)
	assert.Equal(t, 1, mismatch.Found)
	assert.Equal(t, 4, mismatch.Expected)
}

func TestFillWriter(t *testing.T) {
	out := make([]byte, 6)

	require.NoError(t, Fill{Data: []byte{0xab, 0xcd}}.Write(out))
	assert.Equal(t, []byte{0xab, 0xcd, 0xab, 0xcd, 0xab, 0xcd}, out)
}

func TestFillWriter_Residual(t *testing.T) {
	err := Fill{Data: []byte{1, 2, 3, 4}}.Write(make([]byte, 6))

	var residual *ResidualError
	require.ErrorAs(t, err, &residual)
	assert.Equal(t, 2, residual.Right)
}

func TestFillWriter_Empty(t *testing.T) {
	assert.NoError(t, Fill{}.Write(nil))
	assert.ErrorIs(t, Fill{}.Write(make([]byte, 4)), ErrZeroSized)
}

func TestPaddedWriter(t *testing.T) {
	out := make([]byte, 10)
	w := Padded{
		Data: []byte{1, 2, 3, 4},
		Pad:  []byte{0x90},
	}

	require.NoError(t, w.Write(out))
	assert.Equal(t, []byte{0x90, 0x90, 0x90, 1, 2, 3, 4, 0x90, 0x90, 0x90}, out)
}

func TestPaddedWriter_MultiBytePad(t *testing.T) {
	out := make([]byte, 12)
	w := Padded{
		Data:  []byte{1, 2, 3, 4},
		Pad:   []byte{0xaa, 0xbb},
		Align: AlignRight,
	}

	require.NoError(t, w.Write(out))
	assert.Equal(t, []byte{0xaa, 0xbb, 0xaa, 0xbb, 0xaa, 0xbb, 0xaa, 0xbb, 1, 2, 3, 4}, out)
}

func TestPaddedWriter_Residual(t *testing.T) {
	w := Padded{
		Data:  []byte{1},
		Pad:   []byte{0xaa, 0xbb},
		Align: AlignCenterByte,
	}
	err := w.Write(make([]byte, 6))

	var residual *ResidualError
	require.ErrorAs(t, err, &residual)
	assert.Equal(t, 0, residual.Left)
	assert.Equal(t, 1, residual.Right)
}

func TestValueWriter(t *testing.T) {
	out := make([]byte, 4)

	require.NoError(t, Value[uint32]{V: 0x11223344}.Write(out))
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, out)

	var mismatch *LengthMismatchError
	require.ErrorAs(t, Value[uint16]{V: 1}.Write(out), &mismatch)
	assert.Equal(t, 2, mismatch.Found)
	assert.Equal(t, 4, mismatch.Expected)

	assert.ErrorIs(t, Value[struct{}]{}.Write(nil), ErrZeroSized)
}

func TestNopsWriter(t *testing.T) {
	out := make([]byte, 7)

	require.NoError(t, Nops{}.Write(out))

	lens, err := asm.Lengths(out)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, lens)
}

func TestCodeWriter(t *testing.T) {
	out := make([]byte, 10)
	w := Code{Data: []byte{0xcc, 0xcc, 0xcc, 0xcc}}

	require.NoError(t, w.Write(out))
	assert.Equal(t, []byte{0x0f, 0x1f, 0x00, 0xcc, 0xcc, 0xcc, 0xcc, 0x0f, 0x1f, 0x00}, out)
}

func TestCodeWriter_TooLong(t *testing.T) {
	err := Code{Data: make([]byte, 8)}.Write(make([]byte, 4))

	var mismatch *LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 8, mismatch.Found)
	assert.Equal(t, 4, mismatch.Expected)
}

func TestHookWriter(t *testing.T) {
	out := make([]byte, 30)
	target := asm.HookTarget(uintptr(unsafe.Pointer(unsafe.SliceData(out))))

	require.NoError(t, Hook{Target: target}.Write(out))

	// Calling our own first byte is distance zero: a near call, then the
	// escape jump over the trap.
	assert.Equal(t, byte(0xe8), out[0])
	assert.Equal(t, byte(0xeb), out[5])
	assert.Equal(t, []byte{0x0f, 0x0b}, out[7:9])
}
