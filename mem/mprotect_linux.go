package mem

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/graftlib/graft/internal/vmmap"
)

func protFlags(p Prot) int {
	flags := unix.PROT_NONE
	if p&Read != 0 {
		flags |= unix.PROT_READ
	}
	if p&Write != 0 {
		flags |= unix.PROT_WRITE
	}
	if p&Exec != 0 {
		flags |= unix.PROT_EXEC
	}
	return flags
}

// permsProt converts the kernel's "rwxp" mapping string.
func permsProt(perms string) Prot {
	var p Prot
	if strings.Contains(perms, "r") {
		p |= Read
	}
	if strings.Contains(perms, "w") {
		p |= Write
	}
	if strings.Contains(perms, "x") {
		p |= Exec
	}
	return p
}

// protect changes the protection of [start, end) and returns the
// protection previously in force. mprotect does not report the old
// flags, so they come from /proc/self/maps before the change.
func protect(start, end uintptr, p Prot) (Prot, error) {
	prev, err := currentProt(start)
	if err != nil {
		return 0, err
	}

	pageSize := unix.Getpagesize()

	// Round address down to page boundary.
	pageStart := start &^ (uintptr(pageSize) - 1)

	// Round up to cover complete pages.
	regionSize := (int(start-pageStart) + int(end-start) + pageSize - 1) &^ (pageSize - 1)

	region := unsafe.Slice((*byte)(unsafe.Pointer(pageStart)), regionSize)
	if err := unix.Mprotect(region, protFlags(p)); err != nil {
		switch err {
		case unix.ENOMEM:
			return 0, ErrUnmapped
		case unix.EACCES, unix.EPERM:
			return 0, ErrPermission
		}
		return 0, err
	}

	return prev, nil
}

func currentProt(addr uintptr) (Prot, error) {
	regions, err := vmmap.Read()
	if err != nil {
		return 0, err
	}
	r, ok := vmmap.Find(regions, addr)
	if !ok {
		return 0, ErrUnmapped
	}
	return permsProt(r.Perms), nil
}
