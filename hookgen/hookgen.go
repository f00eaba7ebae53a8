// Package hookgen generates trampoline plumbing for hook sites declared in
// Go source.
//
// The generator scans a package directory for string constants annotated
// with hookgen directives:
//
//	//graft:hook handler=onDamage name=DamageHook
//	const damageHook = `
//		CALL {target}
//		JMP  {self}
//	`
//
// emits the trampoline as a Go assembly file plus a companion Go file, and
// binds the trampoline entry to an exported asm.HookTarget variable. The
// template is Go assembler text; {self} expands to a reference to the
// trampoline's own symbol and {target} to a generated wrapper that calls the
// handler. The template must end with a control transfer of its own.
//
// A second directive form declares pre-assembled code blocks as hex text:
//
//	//graft:bytes name=NopSled
//	const nopSled = `90 90 90 // three short no-ops`
//
// which becomes an exported []byte variable holding the decoded bytes.
//
// All validation happens at generate time. A broken directive fails the
// generate run with a file:line:col message before any file is written;
// nothing is left to fail at runtime.
package hookgen

import (
	"fmt"
	"go/token"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
)

// Package holds every hook site found in one package directory.
type Package struct {
	Name string // package name as declared in the sources
	Dir  string

	Hooks []*HookSite
	Blobs []*BytesSite
}

// HookSite is one //graft:hook directive.
type HookSite struct {
	Name     string // exported name of the generated HookTarget variable
	Template string // trampoline template with placeholders
	Handler  string // package-level handler the trampoline calls
	Pos      token.Position

	uid     string
	params  []string // wrapper parameter types, in declaration order
	imports []string // import lines the parameter types need
}

// BytesSite is one //graft:bytes directive.
type BytesSite struct {
	Name  string // exported name of the generated []byte variable
	Const string // source constant the bytes were declared on
	Data  []byte
	Pos   token.Position
}

// SiteError is a validation failure tied to a source position.
type SiteError struct {
	Pos token.Position
	Msg string
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func siteErrf(pos token.Position, format string, args ...any) *SiteError {
	return &SiteError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// TrampolineSymbol returns the generated assembly entry symbol.
func (h *HookSite) TrampolineSymbol() string {
	return "__graft_hook_" + h.uid + "_tramp"
}

// TargetSymbol returns the generated wrapper symbol the template's {target}
// placeholder resolves to.
func (h *HookSite) TargetSymbol() string {
	return "__graft_hook_" + h.uid + "_target"
}

// siteUID derives the per-site symbol tag from the template text, its
// position, and the handler. Content plus position keeps two identical
// templates in one package apart.
func siteUID(template string, pos token.Position, handler string, handlerPos token.Position) string {
	h := fnv.New64a()
	io.WriteString(h, template)
	io.WriteString(h, pos.String())
	io.WriteString(h, handler)
	io.WriteString(h, handlerPos.String())
	return fmt.Sprintf("%016X", h.Sum64())
}

// Generate scans the package in dir, validates every directive, and writes
// the generated zz_*.go and zz_*_amd64.s files next to the sources. No file
// is written unless the whole package validates.
func Generate(dir string) error {
	pkg, err := ScanDir(dir)
	if err != nil {
		return err
	}

	for _, f := range pkg.Files() {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// File is one rendered output file.
type File struct {
	Name string
	Data []byte
}
