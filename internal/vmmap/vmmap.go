// Package vmmap reads the virtual memory layout of the current process.
package vmmap

import (
	"fmt"
	"strings"
)

// Region is one mapping: an address range, its permission string in the
// kernel's "rwxp" form, and the backing file if any.
type Region struct {
	Start  uintptr
	End    uintptr
	Perms  string
	Offset uint64
	Path   string
}

// Parse decodes the /proc/<pid>/maps format. Malformed lines are skipped
// rather than failing the whole read; the kernel occasionally grows the
// format and old fields are all we need.
func Parse(data []byte) []Region {
	var regions []Region

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		flds := strings.Fields(line)
		if len(flds) < 5 {
			continue
		}

		var start, end uintptr
		if _, err := fmt.Sscanf(flds[0], "%x-%x", &start, &end); err != nil {
			continue
		}

		var offset uint64
		fmt.Sscanf(flds[2], "%x", &offset)

		r := Region{Start: start, End: end, Perms: flds[1], Offset: offset}
		if len(flds) >= 6 {
			r.Path = flds[5]
		}
		regions = append(regions, r)
	}

	return regions
}

// Find returns the mapping containing addr.
func Find(regions []Region, addr uintptr) (Region, bool) {
	for _, r := range regions {
		if addr >= r.Start && addr < r.End {
			return r, true
		}
	}
	return Region{}, false
}
