package graft

import (
	"errors"
	"fmt"
)

// ErrZeroSized reports an element type or pattern with no bytes, which
// cannot tile a range.
var ErrZeroSized = errors.New("graft: zero-sized element")

// ResidualError reports padding that does not divide into whole padding
// elements. Left and Right are the leftover byte counts on each side of
// the inserted data.
type ResidualError struct {
	Left  int
	Right int
}

func (e *ResidualError) Error() string {
	return fmt.Sprintf("graft: residual padding bytes: %d on left, %d on right", e.Left, e.Right)
}

type alignMode int

const (
	alignCenter alignMode = iota
	alignCenterByte
	alignLeft
	alignLeftByte
	alignRight
	alignRightByte
)

// Alignment positions inserted data inside a larger range and splits the
// leftover space into padding elements on each side. The zero value
// centers the data.
type Alignment struct {
	mode alignMode
	off  int
}

var (
	// AlignCenter centers the data, rounding the left padding down to a
	// whole number of elements.
	AlignCenter = Alignment{mode: alignCenter}
	// AlignCenterByte centers the data on a byte boundary, ignoring the
	// element size when choosing the split point.
	AlignCenterByte = Alignment{mode: alignCenterByte}
	// AlignLeft puts the data at the start of the range.
	AlignLeft = Alignment{mode: alignLeft}
	// AlignRight puts the data at the end of the range.
	AlignRight = Alignment{mode: alignRight}
)

// AlignLeftOffset indents the data n padding elements from the start.
func AlignLeftOffset(n int) Alignment {
	return Alignment{mode: alignLeft, off: n}
}

// AlignLeftByteOffset indents the data n bytes from the start.
func AlignLeftByteOffset(n int) Alignment {
	return Alignment{mode: alignLeftByte, off: n}
}

// AlignRightOffset backs the data off n padding elements from the end.
func AlignRightOffset(n int) Alignment {
	return Alignment{mode: alignRight, off: n}
}

// AlignRightByteOffset backs the data off n bytes from the end.
func AlignRightByteOffset(n int) Alignment {
	return Alignment{mode: alignRightByte, off: n}
}

// Split computes how many padding elements go on each side of insertLen
// bytes placed inside bufLen bytes. elemSize is the byte size of one
// padding element. On success the counts satisfy
//
//	left*elemSize + insertLen + right*elemSize == bufLen
//
// A split that leaves a partial element on either side is a
// ResidualError; it is never truncated away.
func (a Alignment) Split(bufLen, insertLen, elemSize int) (left, right int, err error) {
	if elemSize <= 0 {
		return 0, 0, ErrZeroSized
	}
	if insertLen > bufLen {
		return 0, 0, &LengthMismatchError{Found: insertLen, Expected: bufLen}
	}

	pad := bufLen - insertLen

	// lb is the left padding in bytes.
	var lb int
	switch a.mode {
	case alignCenter:
		lb = (pad / 2) / elemSize * elemSize
	case alignCenterByte:
		lb = pad / 2
	case alignLeft, alignLeftByte:
		req := a.off
		if a.mode == alignLeft {
			req *= elemSize
		}
		if req < 0 || req > pad {
			return 0, 0, &RangeError{Given: uintptr(req), Max: uintptr(pad)}
		}
		lb = req
	case alignRight, alignRightByte:
		req := a.off
		if a.mode == alignRight {
			req *= elemSize
		}
		if req < 0 || req > pad {
			return 0, 0, &RangeError{Given: uintptr(req), Max: uintptr(pad)}
		}
		lb = pad - req
	}

	rb := pad - lb
	if lb%elemSize != 0 || rb%elemSize != 0 {
		return 0, 0, &ResidualError{Left: lb % elemSize, Right: rb % elemSize}
	}
	return lb / elemSize, rb / elemSize, nil
}
