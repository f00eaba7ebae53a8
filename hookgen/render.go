package hookgen

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

const genHeader = "// Code generated by hookgen. DO NOT EDIT."

// Files renders the generated source for every site: a Go file and an
// assembly file per hook, one Go file per bytes block.
func (p *Package) Files() []File {
	var out []File
	for _, h := range p.Hooks {
		out = append(out,
			File{Name: h.goFileName(), Data: h.renderGo(p.Name)},
			File{Name: h.asmFileName(), Data: h.renderAsm()},
		)
	}
	for _, b := range p.Blobs {
		out = append(out, File{Name: b.goFileName(), Data: b.renderGo(p.Name)})
	}
	return out
}

func (h *HookSite) goFileName() string {
	return "zz_" + strings.ToLower(h.Name) + ".go"
}

func (h *HookSite) asmFileName() string {
	return "zz_" + strings.ToLower(h.Name) + "_amd64.s"
}

func (b *BytesSite) goFileName() string {
	return "zz_" + strings.ToLower(b.Name) + ".go"
}

func (h *HookSite) renderAsm() []byte {
	self := fmt.Sprintf("·%s(SB)", h.TrampolineSymbol())
	target := fmt.Sprintf("·%s(SB)", h.TargetSymbol())

	// The template expanded cleanly during the scan; the placeholder set
	// does not depend on the substituted values.
	body, _ := Expand(h.Template, self, target)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\n", genHeader)
	buf.WriteString("#include \"textflag.h\"\n\n")
	fmt.Fprintf(&buf, "TEXT ·%s(SB), NOSPLIT|NOFRAME, $0-0\n", h.TrampolineSymbol())
	buf.WriteString(indentAsm(body))
	return buf.Bytes()
}

func (h *HookSite) renderGo(pkgName string) []byte {
	lines := []string{
		strconv.Quote("reflect"),
		strconv.Quote("github.com/graftlib/graft/asm"),
	}
	lines = append(lines, h.imports...)
	sort.Strings(lines)
	lines = slices.Compact(lines)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\npackage %s\n\n", genHeader, pkgName)
	buf.WriteString("import (\n")
	for _, imp := range lines {
		fmt.Fprintf(&buf, "\t%s\n", imp)
	}
	buf.WriteString(")\n\n")

	fmt.Fprintf(&buf, "// %s is the entry of the trampoline that calls %s.\n", h.Name, h.Handler)
	fmt.Fprintf(&buf, "var %s = asm.HookTarget(reflect.ValueOf(%s).Pointer())\n\n", h.Name, h.TrampolineSymbol())

	fmt.Fprintf(&buf, "// Implemented in %s.\nfunc %s()\n\n", h.asmFileName(), h.TrampolineSymbol())

	buf.WriteString("//go:nosplit\n")
	fmt.Fprintf(&buf, "func %s(%s) {\n", h.TargetSymbol(), h.paramList())
	fmt.Fprintf(&buf, "\t%s(%s)\n}\n", h.Handler, h.argList())
	return buf.Bytes()
}

func (h *HookSite) paramList() string {
	parts := make([]string, len(h.params))
	for i, t := range h.params {
		parts[i] = fmt.Sprintf("p%d %s", i, t)
	}
	return strings.Join(parts, ", ")
}

func (h *HookSite) argList() string {
	parts := make([]string, len(h.params))
	for i := range h.params {
		parts[i] = fmt.Sprintf("p%d", i)
	}
	return strings.Join(parts, ", ")
}

func (b *BytesSite) renderGo(pkgName string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\npackage %s\n\n", genHeader, pkgName)
	fmt.Fprintf(&buf, "// %s holds the code block assembled from %s.\n", b.Name, b.Const)
	fmt.Fprintf(&buf, "var %s = []byte{\n", b.Name)
	for i := 0; i < len(b.Data); i += 8 {
		end := min(i+8, len(b.Data))
		buf.WriteByte('\t')
		for j := i; j < end; j++ {
			if j > i {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "0x%02x,", b.Data[j])
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// indentAsm reflows the expanded template under the TEXT line: one tab per
// instruction, blank edges trimmed.
func indentAsm(body string) string {
	lines := strings.Split(body, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	var b strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			b.WriteByte('\n')
			continue
		}
		b.WriteByte('\t')
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
