// Package process takes read-only snapshots of the current process and
// the executable images loaded into it. Patching code consumes the
// address ranges found here as base addresses for offset resolution.
package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrModuleNotFound means no loaded module matched the requested name.
var ErrModuleNotFound = errors.New("process: module not found")

// Process describes the process we are running inside.
type Process struct {
	pid  int
	name string
}

// Local snapshots the current process.
func Local() (*Process, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("process: resolving executable: %w", err)
	}
	return &Process{pid: os.Getpid(), name: filepath.Base(exe)}, nil
}

func (p *Process) Pid() int { return p.pid }

// Name is the file name of the process executable.
func (p *Process) Name() string { return p.name }

func (p *Process) String() string {
	return fmt.Sprintf("%s[%d]", p.name, p.pid)
}

// Module is one executable image loaded into the process: the main
// binary or a shared library.
type Module struct {
	name  string
	path  string
	start uintptr
	end   uintptr
}

// Name is the image's file name without its directory.
func (m *Module) Name() string { return m.name }

// Path is the full file path the image was loaded from.
func (m *Module) Path() string { return m.path }

// Start is the lowest mapped address of the image.
func (m *Module) Start() uintptr { return m.start }

// End is one past the highest mapped address of the image.
func (m *Module) End() uintptr { return m.end }

// Size is the number of bytes between Start and End.
func (m *Module) Size() int { return int(m.end - m.start) }

func (m *Module) String() string {
	return fmt.Sprintf("%s [0x%x, 0x%x)", m.name, m.start, m.end)
}

// FindModule returns the loaded module whose file name matches name,
// ignoring case.
func FindModule(name string) (*Module, error) {
	mods, err := Modules()
	if err != nil {
		return nil, err
	}
	for _, m := range mods {
		if strings.EqualFold(m.name, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// MainModule returns the module backing the process executable.
func MainModule() (*Module, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("process: resolving executable: %w", err)
	}

	mods, err := Modules()
	if err != nil {
		return nil, err
	}
	for _, m := range mods {
		if m.path == exe {
			return m, nil
		}
	}

	// The mapping may record the path differently (symlinks, deleted
	// files); fall back to the file name.
	return FindModule(filepath.Base(exe))
}
