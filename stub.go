package graft

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/pboyd/malloc"

	"github.com/graftlib/graft/asm"
)

// stubArena hands out blocks of executable memory for runtime-compiled
// stubs. The backing pages are writable only between BeginMutate and
// EndMutate; the rest of the time they stay read-execute.
type stubArena struct {
	*malloc.Arena
	mprotect func(int) error
	mu       sync.Mutex
	initOnce sync.Once
	mutable  bool
}

func (a *stubArena) init(startSize int) error {
	var err error
	a.initOnce.Do(func() {
		be := malloc.MmapBackend(malloc.MmapProt(stubProtExec), malloc.MmapFlags(stubMapFlags))
		if protBE, ok := be.(malloc.ProtectedArenaBackend); ok {
			a.mprotect = protBE.Protect
		} else {
			a.mprotect = func(int) error {
				return nil
			}
		}

		a.Arena = malloc.NewArena(uint64(startSize), malloc.Backend(be))
		if a.Arena == nil {
			err = errors.New("graft: unable to initialize stub arena")
			return
		}
		a.mutable = true
	})
	return err
}

func (a *stubArena) BeginMutate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// BeginMutate can run before the first allocation.

	if a.mprotect == nil || a.mutable {
		return nil
	}

	err := a.mprotect(stubProtRWX)
	if err == nil {
		a.mutable = true
	}
	return err
}

func (a *stubArena) EndMutate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mutable {
		return nil
	}

	err := a.mprotect(stubProtRX)
	if err == nil {
		a.mutable = false
	}
	return err
}

func (a *stubArena) Allocate(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.init(size)
	if err != nil {
		return nil, fmt.Errorf("graft: error initializing stub arena: %w", err)
	}

	if !a.mutable {
		panic("graft: Allocate called in immutable state")
	}

	return malloc.MallocSlice[byte](a.Arena, size)
}

func (a *stubArena) Free(buf []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mutable {
		panic("graft: Free called in immutable state")
	}

	malloc.FreeSlice(a.Arena, buf)
}

var stubs = &stubArena{}

// Stub is a callable block of executable memory compiled at runtime: a
// call to its target, guarded padding, and a final return. Stubs serve
// call sites whose trampoline cannot be generated at build time.
type Stub struct {
	code []byte
}

// NewStub allocates size bytes of executable memory and compiles a stub
// into it that calls target and returns. size must hold at least the
// call encoding plus the return. The target must stay resident for as
// long as the stub can execute.
func NewStub(target asm.HookTarget, size int) (*Stub, error) {
	stubs.BeginMutate()
	defer stubs.EndMutate()

	code, err := stubs.Allocate(size)
	if err != nil {
		return nil, err
	}

	// The last byte is the return; the hook fill's escape jump lands on
	// it.
	if err := compileStub(code, target); err != nil {
		stubs.Free(code)
		return nil, err
	}

	return &Stub{code: code}, nil
}

func compileStub(code []byte, target asm.HookTarget) error {
	if len(code) < 2 {
		return asm.FillHook(code, target)
	}
	if err := asm.FillHook(code[:len(code)-1], target); err != nil {
		return err
	}
	_, err := asm.Ret(code[len(code)-1:])
	return err
}

// Addr is the stub's entry address, usable as the target of another
// hook.
func (s *Stub) Addr() asm.HookTarget {
	return asm.HookTarget(uintptr(unsafe.Pointer(unsafe.SliceData(s.code))))
}

// Bytes is a copy of the stub's machine code.
func (s *Stub) Bytes() []byte {
	out := make([]byte, len(s.code))
	copy(out, s.code)
	return out
}

// Free returns the block to the arena. The stub must not be executing
// and no patched call site may still reach it.
func (s *Stub) Free() {
	if s.code == nil {
		return
	}

	stubs.BeginMutate()
	defer stubs.EndMutate()

	stubs.Free(s.code)
	s.code = nil
}
