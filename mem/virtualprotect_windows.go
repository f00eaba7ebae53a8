package mem

import "golang.org/x/sys/windows"

func protFlags(p Prot) uint32 {
	switch {
	case p&Exec != 0 && p&Write != 0:
		return windows.PAGE_EXECUTE_READWRITE
	case p&Exec != 0 && p&Read != 0:
		return windows.PAGE_EXECUTE_READ
	case p&Exec != 0:
		return windows.PAGE_EXECUTE
	case p&Write != 0:
		return windows.PAGE_READWRITE
	case p&Read != 0:
		return windows.PAGE_READONLY
	}
	return windows.PAGE_NOACCESS
}

func flagsProt(f uint32) Prot {
	switch f &^ (windows.PAGE_GUARD | windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE) {
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		return Read | Write | Exec
	case windows.PAGE_EXECUTE_READ:
		return Read | Exec
	case windows.PAGE_EXECUTE:
		return Exec
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		return Read | Write
	case windows.PAGE_READONLY:
		return Read
	}
	return 0
}

// protect changes the protection of [start, end). VirtualProtect hands
// back the old flags of the first page itself.
func protect(start, end uintptr, p Prot) (Prot, error) {
	var old uint32
	err := windows.VirtualProtect(start, end-start, protFlags(p), &old)
	if err != nil {
		switch err {
		case windows.ERROR_INVALID_ADDRESS, windows.ERROR_INVALID_PARAMETER:
			return 0, ErrUnmapped
		case windows.ERROR_NOACCESS, windows.ERROR_ACCESS_DENIED:
			return 0, ErrPermission
		}
		return 0, err
	}
	return flagsProt(old), nil
}
