package graft

import (
	"unsafe"

	"github.com/graftlib/graft/mem"
)

// ReadBytes copies the bytes in s out of the module. The span is opened
// read-only for the duration of the copy.
func (m *Module) ReadBytes(s Span) ([]byte, error) {
	start, end, err := m.resolve(s)
	if err != nil {
		return nil, err
	}

	region, err := mem.Open(start, end, mem.Read)
	if err != nil {
		return nil, err
	}
	defer region.Close()

	out := make([]byte, region.Len())
	copy(out, region.Bytes())
	return out, nil
}

// Read copies one T out of the module at offset off.
func Read[T any](m *Module, off uintptr) (T, error) {
	var v T
	size := unsafe.Sizeof(v)
	if size == 0 {
		return v, ErrZeroSized
	}

	data, err := m.ReadBytes(Length(off, size))
	if err != nil {
		return v, err
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), size), data)
	return v, nil
}

// ReadSlice copies the span s out of the module as a slice of T. The
// span must hold a whole number of elements.
func ReadSlice[T any](m *Module, s Span) ([]T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return nil, ErrZeroSized
	}

	data, err := m.ReadBytes(s)
	if err != nil {
		return nil, err
	}
	if r := len(data) % size; r != 0 {
		return nil, &ResidualError{Right: r}
	}
	if len(data) == 0 {
		return nil, nil
	}

	out := make([]T, len(data)/size)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(out))), len(data)), data)
	return out, nil
}
