package graft

import "golang.org/x/sys/windows"

const (
	stubProtExec = windows.PAGE_EXECUTE
	stubProtRX   = windows.PAGE_EXECUTE_READ
	stubProtRWX  = windows.PAGE_EXECUTE_READWRITE

	stubMapFlags = 0
)
