package process

import (
	"path/filepath"
	"strings"

	"github.com/graftlib/graft/internal/vmmap"
)

// Modules lists the loaded executable images. Mappings are grouped by
// backing file; each module spans from its lowest to its highest mapped
// address.
func Modules() ([]*Module, error) {
	regions, err := vmmap.Read()
	if err != nil {
		return nil, err
	}

	var mods []*Module
	byPath := make(map[string]*Module)

	for _, r := range regions {
		// Skip anonymous mappings and kernel pseudo-files like
		// [heap] and [stack].
		if r.Path == "" || strings.HasPrefix(r.Path, "[") {
			continue
		}

		m, ok := byPath[r.Path]
		if !ok {
			m = &Module{
				name:  filepath.Base(r.Path),
				path:  r.Path,
				start: r.Start,
				end:   r.End,
			}
			byPath[r.Path] = m
			mods = append(mods, m)
			continue
		}

		if r.Start < m.start {
			m.start = r.Start
		}
		if r.End > m.end {
			m.end = r.End
		}
	}

	return mods, nil
}
