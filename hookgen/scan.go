package hookgen

import (
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// directive is one parsed //graft:... comment.
type directive struct {
	kind string
	args map[string]string
	pos  token.Position
}

// handlerDecl ties a package-level function to the file that declares it,
// for import resolution.
type handlerDecl struct {
	fn   *ast.FuncDecl
	file *ast.File
}

// ScanDir parses the package in dir and collects its hook sites. Generated
// files (zz_*), test files, and files the build ignores (_*, .*) are
// skipped. Every directive is fully validated before ScanDir returns.
func ScanDir(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	pkg := &Package{Dir: dir}

	var files []*ast.File
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || skipFile(name) {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, err
		}
		if pkg.Name == "" {
			pkg.Name = f.Name.Name
		} else if f.Name.Name != pkg.Name {
			return nil, fmt.Errorf("found packages %s and %s in %s", pkg.Name, f.Name.Name, dir)
		}
		files = append(files, f)
	}
	if pkg.Name == "" {
		return nil, fmt.Errorf("no Go source in %s", dir)
	}

	funcs, methods := collectFuncs(files)

	for _, f := range files {
		if err := scanFile(fset, pkg, f, funcs, methods); err != nil {
			return nil, err
		}
	}

	if err := checkCollisions(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func skipFile(name string) bool {
	return strings.HasPrefix(name, "zz_") ||
		strings.HasPrefix(name, "_") ||
		strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "_test.go")
}

func collectFuncs(files []*ast.File) (funcs map[string]handlerDecl, methods map[string]bool) {
	funcs = make(map[string]handlerDecl)
	methods = make(map[string]bool)
	for _, f := range files {
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn.Recv != nil {
				methods[fn.Name.Name] = true
				continue
			}
			funcs[fn.Name.Name] = handlerDecl{fn: fn, file: f}
		}
	}
	return funcs, methods
}

func scanFile(fset *token.FileSet, pkg *Package, f *ast.File, funcs map[string]handlerDecl, methods map[string]bool) error {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}

		if d, err := findDirective(fset, gd.Doc); err != nil {
			return err
		} else if d != nil && len(gd.Specs) > 1 {
			return siteErrf(d.pos, "graft:%s must be attached to a single constant", d.kind)
		}

		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			doc := vs.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			d, err := findDirective(fset, doc)
			if err != nil {
				return err
			}
			if d == nil {
				continue
			}
			if err := addSite(fset, pkg, d, gd, vs, funcs, methods); err != nil {
				return err
			}
		}
	}
	return nil
}

// findDirective returns the first //graft: line in doc, parsed, or nil when
// there is none.
func findDirective(fset *token.FileSet, doc *ast.CommentGroup) (*directive, error) {
	if doc == nil {
		return nil, nil
	}
	for _, c := range doc.List {
		text, ok := strings.CutPrefix(c.Text, "//graft:")
		if !ok {
			continue
		}
		pos := fset.Position(c.Pos())

		fields := strings.Fields(text)
		if len(fields) == 0 {
			return nil, siteErrf(pos, "empty graft directive")
		}
		d := &directive{kind: fields[0], args: make(map[string]string), pos: pos}
		switch d.kind {
		case "hook", "bytes":
		default:
			return nil, siteErrf(pos, "unknown directive graft:%s", d.kind)
		}

		for _, field := range fields[1:] {
			key, value, ok := strings.Cut(field, "=")
			if !ok || value == "" {
				return nil, siteErrf(pos, "malformed directive argument %q", field)
			}
			if _, dup := d.args[key]; dup {
				return nil, siteErrf(pos, "duplicate directive argument %q", key)
			}
			switch {
			case key == "name":
			case key == "handler" && d.kind == "hook":
			default:
				return nil, siteErrf(pos, "unknown graft:%s argument %q", d.kind, key)
			}
			d.args[key] = value
		}
		return d, nil
	}
	return nil, nil
}

func addSite(fset *token.FileSet, pkg *Package, d *directive, gd *ast.GenDecl, vs *ast.ValueSpec, funcs map[string]handlerDecl, methods map[string]bool) error {
	if gd.Tok != token.CONST {
		return siteErrf(d.pos, "graft:%s requires a constant declaration", d.kind)
	}
	if len(vs.Names) != 1 || len(vs.Values) != 1 {
		return siteErrf(d.pos, "graft:%s applies to a single constant", d.kind)
	}
	lit, ok := vs.Values[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return siteErrf(d.pos, "graft:%s requires a string constant", d.kind)
	}
	value, err := strconv.Unquote(lit.Value)
	if err != nil {
		return siteErrf(d.pos, "cannot read constant %s: %v", vs.Names[0].Name, err)
	}

	name := d.args["name"]
	if name == "" {
		name = exportName(vs.Names[0].Name)
	}
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return siteErrf(d.pos, "cannot use %q as a generated name; want an exported identifier", name)
	}
	pos := fset.Position(vs.Pos())

	if d.kind == "bytes" {
		data, err := parseHex(value)
		if err != nil {
			return siteErrf(d.pos, "%v", err)
		}
		pkg.Blobs = append(pkg.Blobs, &BytesSite{
			Name:  name,
			Const: vs.Names[0].Name,
			Data:  data,
			Pos:   pos,
		})
		return nil
	}

	handlerName := d.args["handler"]
	if handlerName == "" {
		return siteErrf(d.pos, "graft:hook requires a handler= argument")
	}
	if _, err := Expand(value, "self", "target"); err != nil {
		return siteErrf(d.pos, "%v", err)
	}

	handler, ok := funcs[handlerName]
	if !ok {
		if methods[handlerName] {
			return siteErrf(d.pos, "handler %s is a method; handlers must be package-level functions", handlerName)
		}
		return siteErrf(d.pos, "handler %s not found in package %s", handlerName, pkg.Name)
	}
	if handler.fn.Type.TypeParams != nil {
		return siteErrf(d.pos, "handler %s must not be generic", handlerName)
	}
	if isVariadic(handler.fn) {
		return siteErrf(d.pos, "handler %s must not be variadic", handlerName)
	}
	if handler.fn.Type.Results != nil && len(handler.fn.Type.Results.List) > 0 {
		return siteErrf(d.pos, "handler %s must not return values", handlerName)
	}

	params := paramTypes(handler.fn)
	site := &HookSite{
		Name:     name,
		Template: value,
		Handler:  handlerName,
		Pos:      pos,
		uid:      siteUID(value, pos, handlerName, fset.Position(handler.fn.Pos())),
		params:   renderTypes(params),
		imports:  neededImports(handler.file, params),
	}
	pkg.Hooks = append(pkg.Hooks, site)
	return nil
}

func exportName(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func isVariadic(fn *ast.FuncDecl) bool {
	p := fn.Type.Params
	if p == nil || len(p.List) == 0 {
		return false
	}
	_, ok := p.List[len(p.List)-1].Type.(*ast.Ellipsis)
	return ok
}

// paramTypes flattens the handler's parameter list into one type expression
// per parameter.
func paramTypes(fn *ast.FuncDecl) []ast.Expr {
	p := fn.Type.Params
	if p == nil {
		return nil
	}
	var out []ast.Expr
	for _, field := range p.List {
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, field.Type)
		}
	}
	return out
}

func renderTypes(exprs []ast.Expr) []string {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		out[i] = types.ExprString(e)
	}
	return out
}

// neededImports returns the import lines of the handler's file that the
// parameter types reference through a package qualifier.
func neededImports(f *ast.File, params []ast.Expr) []string {
	used := make(map[string]bool)
	for _, p := range params {
		ast.Inspect(p, func(n ast.Node) bool {
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := sel.X.(*ast.Ident); ok {
					used[id.Name] = true
				}
			}
			return true
		})
	}
	if len(used) == 0 {
		return nil
	}

	var out []string
	for _, imp := range f.Imports {
		ipath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		local := path.Base(ipath)
		if imp.Name != nil {
			local = imp.Name.Name
		}
		if !used[local] {
			continue
		}
		if imp.Name != nil {
			out = append(out, fmt.Sprintf("%s %q", local, ipath))
		} else {
			out = append(out, strconv.Quote(ipath))
		}
	}
	sort.Strings(out)
	return out
}

// parseHex decodes a bytes blob: hex runs separated by whitespace, with //
// comments running to end of line.
func parseHex(blob string) ([]byte, error) {
	var out []byte
	for _, line := range strings.Split(blob, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		for _, run := range strings.Fields(line) {
			if len(run)%2 != 0 {
				return nil, fmt.Errorf("hex run %q has an odd digit count", run)
			}
			b, err := hex.DecodeString(run)
			if err != nil {
				return nil, fmt.Errorf("bad hex run %q", run)
			}
			out = append(out, b...)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty code block")
	}
	return out, nil
}

// checkCollisions rejects duplicate generated names and, far less likely,
// colliding symbol tags.
func checkCollisions(pkg *Package) error {
	names := make(map[string]token.Position)
	claim := func(name string, pos token.Position) error {
		key := strings.ToLower(name)
		if prev, ok := names[key]; ok {
			return siteErrf(pos, "generated name %s already used at %s", name, prev)
		}
		names[key] = pos
		return nil
	}

	uids := make(map[string]token.Position)
	for _, h := range pkg.Hooks {
		if err := claim(h.Name, h.Pos); err != nil {
			return err
		}
		if prev, ok := uids[h.uid]; ok {
			return siteErrf(h.Pos, "symbol tag collision with the hook at %s; change either template", prev)
		}
		uids[h.uid] = h.Pos
	}
	for _, b := range pkg.Blobs {
		if err := claim(b.Name, b.Pos); err != nil {
			return err
		}
	}
	return nil
}
