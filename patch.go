package graft

import (
	"fmt"

	"github.com/graftlib/graft/mem"
)

// LengthMismatchError reports replacement data whose length does not fit
// the range it was declared for. Found is the length the caller
// supplied; Expected is the length the range provides.
type LengthMismatchError struct {
	Found    int
	Expected int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("graft: length mismatch: found %d bytes, expected %d", e.Found, e.Expected)
}

// Patch owns an overwritten address range and the bytes that were there
// before the write. Exactly one handle exists per successful install.
// Use it through its pointer; copying would hand the restore-once duty
// to two owners.
type Patch struct {
	start, end uintptr
	saved      []byte
	restored   bool
}

func (p *Patch) String() string {
	return fmt.Sprintf("patch [0x%x, 0x%x)", p.start, p.end)
}

// Restore writes the saved bytes back over the patched range. If the
// range cannot be reopened the process state is no longer knowable and
// Restore panics. Calling Restore again does nothing.
func (p *Patch) Restore() {
	if p.restored {
		return
	}
	p.restored = true

	region, err := mem.Open(p.start, p.end, mem.Read|mem.Write)
	if err != nil {
		panic(fmt.Sprintf("graft: failed to restore patched bytes on [0x%x, 0x%x): %v", p.start, p.end, err))
	}
	defer region.Close()

	copy(region.Bytes(), p.saved)
}

// Patch opens the span read-write, verifies sum against the bytes
// already there, snapshots them, and runs mutate over the live view.
// The returned handle restores the snapshot.
//
// The span must not be executing while it is patched, must sit on an
// instruction boundary if it holds code, and must contain what the
// caller thinks it contains. The engine verifies none of that; it
// checks the range, the checksum, and the mechanics of the write. A
// mutate that fails after writing leaves its partial bytes in place.
func (m *Module) Patch(s Span, sum Checksum, mutate func([]byte) error) (*Patch, error) {
	return m.patch(s, &sum, true, mutate)
}

// PatchUnchecked is Patch without the checksum precondition.
func (m *Module) PatchUnchecked(s Span, mutate func([]byte) error) (*Patch, error) {
	return m.patch(s, nil, true, mutate)
}

// PatchBytes overwrites the span with repl, which must match its length
// exactly.
func (m *Module) PatchBytes(s Span, sum Checksum, repl []byte) (*Patch, error) {
	return m.patch(s, &sum, true, copyExact(repl))
}

// PatchBytesUnchecked is PatchBytes without the checksum precondition.
func (m *Module) PatchBytesUnchecked(s Span, repl []byte) (*Patch, error) {
	return m.patch(s, nil, true, copyExact(repl))
}

// Install applies a writer-declared patch: the writer carries the span,
// the expected checksum, and the bytes to build.
func (m *Module) Install(w Writer) (*Patch, error) {
	sum := w.Checksum()
	return m.patch(w.Span(), &sum, true, w.Write)
}

// InstallUnchecked is Install without the checksum precondition.
func (m *Module) InstallUnchecked(w Writer) (*Patch, error) {
	return m.patch(w.Span(), nil, true, w.Write)
}

// Apply writes a writer-declared patch without keeping the overwritten
// bytes. There is no way to restore an applied patch.
func (m *Module) Apply(w Writer) error {
	sum := w.Checksum()
	_, err := m.patch(w.Span(), &sum, false, w.Write)
	return err
}

// ApplyUnchecked is Apply without the checksum precondition.
func (m *Module) ApplyUnchecked(w Writer) error {
	_, err := m.patch(w.Span(), nil, false, w.Write)
	return err
}

// patch is the single write path. A nil sum skips the checksum
// precondition; keep=false skips the snapshot and returns a nil handle.
func (m *Module) patch(s Span, sum *Checksum, keep bool, mutate func([]byte) error) (*Patch, error) {
	start, end, err := m.resolve(s)
	if err != nil {
		return nil, err
	}

	region, err := mem.Open(start, end, mem.Read|mem.Write)
	if err != nil {
		return nil, err
	}
	defer region.Close()

	live := region.Bytes()

	if sum != nil {
		if found := Sum(live); found != *sum {
			return nil, &ChecksumError{Found: found, Expected: *sum}
		}
	}

	var p *Patch
	if keep {
		saved := make([]byte, len(live))
		copy(saved, live)
		p = &Patch{start: start, end: end, saved: saved}
	}

	if err := mutate(live); err != nil {
		return nil, err
	}
	return p, nil
}

func copyExact(repl []byte) func([]byte) error {
	return func(view []byte) error {
		if len(repl) != len(view) {
			return &LengthMismatchError{Found: len(repl), Expected: len(view)}
		}
		copy(view, repl)
		return nil
	}
}
