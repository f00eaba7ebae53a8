// Hookgen scans a package for graft hook directives and writes the
// generated trampoline files. It is meant to run under go generate:
//
//	//go:generate go run github.com/graftlib/graft/cmd/hookgen
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/graftlib/graft/hookgen"
)

func main() {
	dir := flag.String("dir", ".", "package directory to scan")
	flag.Parse()

	if err := hookgen.Generate(*dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
