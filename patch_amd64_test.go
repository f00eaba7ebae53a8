package graft

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bumpCount int

//go:noinline
func bump() {
	bumpCount++
}

func TestPatch_LiveFunction(t *testing.T) {
	pc := reflect.ValueOf(bump).Pointer()
	m := NewRange("self", pc, pc+8)

	entry, err := m.ReadBytes(Length(0, 1))
	require.NoError(t, err)

	// A return at the entry turns the function into a no-op.
	p, err := m.PatchBytes(Length(0, 1), Sum(entry), []byte{0xc3})
	require.NoError(t, err)

	before := bumpCount
	bump()
	assert.Equal(t, before, bumpCount)

	p.Restore()
	bump()
	assert.Equal(t, before+1, bumpCount)
}
