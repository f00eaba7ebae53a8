// Package mem temporarily rewrites page protection so callers can write
// into memory that is normally read-only or executable. Opening a range
// records the protection that was there; closing puts it back. The write
// window should be as narrow as the caller can make it.
package mem

import (
	"errors"
	"fmt"
	"unsafe"
)

// Prot is a protection bit set.
type Prot int

const (
	Read Prot = 1 << iota
	Write
	Exec
)

func (p Prot) String() string {
	b := [3]byte{'-', '-', '-'}
	if p&Read != 0 {
		b[0] = 'r'
	}
	if p&Write != 0 {
		b[1] = 'w'
	}
	if p&Exec != 0 {
		b[2] = 'x'
	}
	return string(b[:])
}

var (
	// ErrInvalidRange means the end address is before the start address.
	ErrInvalidRange = errors.New("mem: end address before start address")
	// ErrUnmapped means no mapping covers the requested range.
	ErrUnmapped = errors.New("mem: address range is not mapped")
	// ErrPermission means the OS refused the protection change.
	ErrPermission = errors.New("mem: permission denied")
)

// OpenError reports a failed protection change along with the range that
// caused it.
type OpenError struct {
	Start uintptr
	End   uintptr
	Err   error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("mem: open [0x%x, 0x%x): %v", e.Start, e.End, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Region is an open protection window over [start, end). The protection
// that applied before Open is restored by Close.
//
// Protection changes are page-granular: the OS widens the range to page
// boundaries, and the recorded prior protection is the one found at the
// first page. Ranges that straddle mappings with different protections
// are the caller's problem.
type Region struct {
	start, end uintptr
	prev       Prot
	noop       bool
	closed     bool
}

// Open sets the protection of [start, end) to p.
func Open(start, end uintptr, p Prot) (*Region, error) {
	if end < start {
		return nil, &OpenError{Start: start, End: end, Err: ErrInvalidRange}
	}
	if start == end {
		return &Region{start: start, end: end, noop: true}, nil
	}

	prev, err := protect(start, end, p)
	if err != nil {
		return nil, &OpenError{Start: start, End: end, Err: err}
	}
	return &Region{start: start, end: end, prev: prev}, nil
}

// Bytes is a live view of the open range. It aliases process memory
// directly; it is only valid until Close.
func (r *Region) Bytes() []byte {
	if r.closed {
		panic("mem: Bytes called on a closed region")
	}
	if r.start == r.end {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(r.start)), r.end-r.start)
}

// Len is the number of bytes in the range.
func (r *Region) Len() int { return int(r.end - r.start) }

// Close restores the protection recorded by Open. A region that cannot
// be restored leaves the process with unknowable page state, so failure
// here panics instead of returning. Close is safe to call twice.
func (r *Region) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.noop {
		return
	}
	if _, err := protect(r.start, r.end, r.prev); err != nil {
		panic(fmt.Sprintf("mem: failed to restore protection on [0x%x, 0x%x): %v", r.start, r.end, err))
	}
}
