package process

import (
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Modules lists the executable images loaded into the current process.
func Modules() ([]*Module, error) {
	proc := windows.CurrentProcess()

	var handles [1024]windows.Handle
	var needed uint32
	err := windows.EnumProcessModules(proc, &handles[0], uint32(unsafe.Sizeof(handles[0]))*uint32(len(handles)), &needed)
	if err != nil {
		return nil, err
	}
	count := needed / uint32(unsafe.Sizeof(handles[0]))
	if count > uint32(len(handles)) {
		count = uint32(len(handles))
	}

	mods := make([]*Module, 0, count)
	for i := uint32(0); i < count; i++ {
		var info windows.ModuleInfo
		err := windows.GetModuleInformation(proc, handles[i], &info, uint32(unsafe.Sizeof(info)))
		if err != nil {
			return nil, err
		}

		var name [windows.MAX_PATH]uint16
		err = windows.GetModuleFileNameEx(proc, handles[i], &name[0], windows.MAX_PATH)
		if err != nil {
			return nil, err
		}
		path := windows.UTF16ToString(name[:])

		mods = append(mods, &Module{
			name:  filepath.Base(path),
			path:  path,
			start: info.BaseOfDll,
			end:   info.BaseOfDll + uintptr(info.SizeOfImage),
		})
	}

	return mods, nil
}
