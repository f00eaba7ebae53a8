package hookgen

import (
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hookSrc = `package game

//graft:hook handler=onDamage name=DamageHook
const damageHook = ` + "`" + `
	CALL {target}
	JMP  {self}
` + "`" + `

//graft:bytes
const nopSled = "90 90 0F1F00 // wide no-op"

func onDamage(amount int32, crit bool) {
	_ = amount
	_ = crit
}
`

func writePkg(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.go"), []byte(src), 0o644))
	return dir
}

func TestScanDir(t *testing.T) {
	pkg, err := ScanDir(writePkg(t, hookSrc))
	require.NoError(t, err)

	assert.Equal(t, "game", pkg.Name)
	require.Len(t, pkg.Hooks, 1)
	require.Len(t, pkg.Blobs, 1)

	h := pkg.Hooks[0]
	assert.Equal(t, "DamageHook", h.Name)
	assert.Equal(t, "onDamage", h.Handler)
	assert.Regexp(t, `^__graft_hook_[0-9A-F]{16}_tramp$`, h.TrampolineSymbol())
	assert.Regexp(t, `^__graft_hook_[0-9A-F]{16}_target$`, h.TargetSymbol())

	b := pkg.Blobs[0]
	assert.Equal(t, "NopSled", b.Name, "name derived from the constant")
	assert.Equal(t, []byte{0x90, 0x90, 0x0f, 0x1f, 0x00}, b.Data)
}

func TestFiles(t *testing.T) {
	pkg, err := ScanDir(writePkg(t, hookSrc))
	require.NoError(t, err)

	files := pkg.Files()
	require.Len(t, files, 3)

	byName := make(map[string]string)
	for _, f := range files {
		byName[f.Name] = string(f.Data)
	}

	goSrc, ok := byName["zz_damagehook.go"]
	require.True(t, ok)
	assert.Contains(t, goSrc, "// Code generated by hookgen. DO NOT EDIT.")
	assert.Contains(t, goSrc, "package game")
	assert.Contains(t, goSrc, "var DamageHook = asm.HookTarget(reflect.ValueOf(__graft_hook_")
	assert.Contains(t, goSrc, "//go:nosplit")
	assert.Contains(t, goSrc, "p0 int32, p1 bool")
	assert.Contains(t, goSrc, "onDamage(p0, p1)")

	asmSrc, ok := byName["zz_damagehook_amd64.s"]
	require.True(t, ok)
	assert.Contains(t, asmSrc, `#include "textflag.h"`)
	assert.Contains(t, asmSrc, "NOSPLIT|NOFRAME, $0-0")
	assert.Contains(t, asmSrc, "CALL ·__graft_hook_")
	assert.Contains(t, asmSrc, "_target(SB)")
	assert.NotContains(t, asmSrc, "{target}")
	assert.NotContains(t, asmSrc, "{self}")

	blobSrc, ok := byName["zz_nopsled.go"]
	require.True(t, ok)
	assert.Contains(t, blobSrc, "var NopSled = []byte{")
	assert.Contains(t, blobSrc, "0x90, 0x90, 0x0f, 0x1f, 0x00,")
}

func TestGenerate(t *testing.T) {
	dir := writePkg(t, hookSrc)
	require.NoError(t, Generate(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "zz_") {
			names = append(names, e.Name())
		}
	}
	assert.ElementsMatch(t, []string{"zz_damagehook.go", "zz_damagehook_amd64.s", "zz_nopsled.go"}, names)

	// A second run scans past its own output.
	require.NoError(t, Generate(dir))
}

func TestScanDir_SkipsTestFiles(t *testing.T) {
	dir := writePkg(t, "package game\n")
	testSrc := "package game\n\n//graft:bytes\nconst fromTest = \"90\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game_test.go"), []byte(testSrc), 0o644))

	pkg, err := ScanDir(dir)
	require.NoError(t, err)
	assert.Empty(t, pkg.Blobs)
}

func TestScanDir_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			"missing handler",
			"package p\n\n//graft:hook handler=nope\nconst h = \"JMP {self}\"\n",
			"handler nope not found",
		},
		{
			"handler is a method",
			"package p\n\ntype T struct{}\n\nfunc (T) h() {}\n\n//graft:hook handler=h\nconst c = \"JMP {self}\"\n",
			"is a method",
		},
		{
			"variadic handler",
			"package p\n\nfunc h(xs ...int) {}\n\n//graft:hook handler=h\nconst c = \"JMP {self}\"\n",
			"must not be variadic",
		},
		{
			"generic handler",
			"package p\n\nfunc h[T any]() {}\n\n//graft:hook handler=h\nconst c = \"JMP {self}\"\n",
			"must not be generic",
		},
		{
			"handler returns values",
			"package p\n\nfunc h() int { return 0 }\n\n//graft:hook handler=h\nconst c = \"JMP {self}\"\n",
			"must not return values",
		},
		{
			"unknown placeholder",
			"package p\n\nfunc h() {}\n\n//graft:hook handler=h\nconst c = \"JMP {nowhere}\"\n",
			"unknown placeholder",
		},
		{
			"directive on a var",
			"package p\n\n//graft:bytes\nvar c = \"90\"\n",
			"requires a constant",
		},
		{
			"missing handler argument",
			"package p\n\n//graft:hook\nconst c = \"RET\"\n",
			"requires a handler=",
		},
		{
			"unknown directive",
			"package p\n\n//graft:frob\nconst c = \"RET\"\n",
			"unknown directive",
		},
		{
			"argument on wrong directive",
			"package p\n\n//graft:bytes handler=h\nconst c = \"90\"\n",
			"unknown graft:bytes argument",
		},
		{
			"bad hex",
			"package p\n\n//graft:bytes\nconst c = \"9X\"\n",
			"bad hex run",
		},
		{
			"odd hex",
			"package p\n\n//graft:bytes\nconst c = \"905\"\n",
			"odd digit count",
		},
		{
			"duplicate generated names",
			"package p\n\nfunc h() {}\n\n//graft:hook handler=h name=Dup\nconst a = \"RET\"\n\n//graft:bytes name=Dup\nconst b = \"90\"\n",
			"already used",
		},
		{
			"unexported name",
			"package p\n\n//graft:bytes name=lower\nconst c = \"90\"\n",
			"exported identifier",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ScanDir(writePkg(t, tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			var site *SiteError
			if assert.ErrorAs(t, err, &site) {
				assert.Contains(t, site.Pos.Filename, "game.go")
			}
		})
	}
}

func TestSiteUID(t *testing.T) {
	pos := token.Position{Filename: "a.go", Line: 3, Column: 1}
	hpos := token.Position{Filename: "a.go", Line: 9, Column: 1}

	a := siteUID("JMP {self}", pos, "h", hpos)
	assert.Equal(t, a, siteUID("JMP {self}", pos, "h", hpos))
	assert.Len(t, a, 16)

	assert.NotEqual(t, a, siteUID("JMP {self}\nRET", pos, "h", hpos))
	assert.NotEqual(t, a, siteUID("JMP {self}", token.Position{Filename: "a.go", Line: 5, Column: 1}, "h", hpos))
}
