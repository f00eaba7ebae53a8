package graft

import "golang.org/x/sys/unix"

const (
	stubProtExec = unix.PROT_EXEC
	stubProtRX   = unix.PROT_READ | unix.PROT_EXEC
	stubProtRWX  = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC

	// Map stub blocks into the first 2 GiB so 32-bit relative calls can
	// reach them from low image bases.
	stubMapFlags = unix.MAP_32BIT
)
