package vmmap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `559b3ac96000-559b3ac9a000 r-xp 00002000 fd:01 1837477  /usr/bin/cat
559b3ac9a000-559b3ac9c000 r--p 00006000 fd:01 1837477  /usr/bin/cat
559b3c4f1000-559b3c512000 rw-p 00000000 00:00 0        [heap]
7f20c1446000-7f20c146e000 r-xp 00028000 fd:01 1840104  /usr/lib/x86_64-linux-gnu/libc.so.6
7f20c16a0000-7f20c16a4000 rw-p 00000000 00:00 0
7ffd3a3f2000-7ffd3a413000 rw-p 00000000 00:00 0        [stack]
not a maps line
ffffffffff600000-ffffffffff601000 --xp 00000000 00:00 0 [vsyscall]
`

func TestParse(t *testing.T) {
	regions := Parse([]byte(sampleMaps))
	require.Len(t, regions, 7)

	assert.Equal(t, uintptr(0x559b3ac96000), regions[0].Start)
	assert.Equal(t, uintptr(0x559b3ac9a000), regions[0].End)
	assert.Equal(t, "r-xp", regions[0].Perms)
	assert.Equal(t, uint64(0x2000), regions[0].Offset)
	assert.Equal(t, "/usr/bin/cat", regions[0].Path)

	assert.Equal(t, "[heap]", regions[2].Path)

	// Anonymous mapping has no path.
	assert.Equal(t, "", regions[4].Path)

	assert.Equal(t, "[vsyscall]", regions[6].Path)
}

func TestFind(t *testing.T) {
	regions := Parse([]byte(sampleMaps))

	r, ok := Find(regions, 0x559b3ac97123)
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/cat", r.Path)
	assert.Equal(t, "r-xp", r.Perms)

	// End address is exclusive.
	_, ok = Find(regions, 0x559b3ac9c000)
	assert.False(t, ok)

	_, ok = Find(regions, 0x1000)
	assert.False(t, ok)
}

func TestRead(t *testing.T) {
	regions, err := Read()
	require.NoError(t, err)
	assert.NotEmpty(t, regions)

	// A local variable must be inside some mapping.
	var x int
	_, ok := Find(regions, uintptr(unsafe.Pointer(&x)))
	assert.True(t, ok)
}
