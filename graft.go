package graft

import (
	"fmt"

	"github.com/graftlib/graft/process"
)

// Module is a patchable view of one executable image loaded into this
// process. Spans are resolved against its start address.
type Module struct {
	name  string
	start uintptr
	end   uintptr
}

// NewModule wraps a module snapshot for patching.
func NewModule(m *process.Module) *Module {
	return &Module{name: m.Name(), start: m.Start(), end: m.End()}
}

// NewRange makes a module over a raw address range [start, end). Useful
// for memory that is not a loaded image, such as buffers in tests.
func NewRange(name string, start, end uintptr) *Module {
	return &Module{name: name, start: start, end: end}
}

// MainModule is the image of the running executable.
func MainModule() (*Module, error) {
	m, err := process.MainModule()
	if err != nil {
		return nil, err
	}
	return NewModule(m), nil
}

// FindModule looks up a loaded image by file name, ignoring case.
func FindModule(name string) (*Module, error) {
	m, err := process.FindModule(name)
	if err != nil {
		return nil, err
	}
	return NewModule(m), nil
}

// Name is the module's file name.
func (m *Module) Name() string { return m.name }

// Start is the first address of the module.
func (m *Module) Start() uintptr { return m.start }

// End is the address one past the last byte of the module.
func (m *Module) End() uintptr { return m.end }

// Size is the module's length in bytes.
func (m *Module) Size() int { return int(m.end - m.start) }

func (m *Module) String() string {
	return fmt.Sprintf("%s [0x%x, 0x%x)", m.name, m.start, m.end)
}

// resolve turns a module-relative span into an absolute address range.
func (m *Module) resolve(s Span) (start, end uintptr, err error) {
	size := m.end - m.start

	off := s.end
	if s.open {
		off = size
	}
	if off > size {
		return 0, 0, &RangeError{Given: off, Max: size}
	}
	if s.start > off {
		return 0, 0, ErrEndBeforeStart
	}
	return m.start + s.start, m.start + off, nil
}
