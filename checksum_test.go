package graft

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	// The standard CRC-32 check value.
	assert.Equal(t, Checksum(0xcbf43926), Sum([]byte("123456789")))
	assert.Equal(t, Checksum(0), Sum(nil))
}

func TestChecksumMatch(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}

	assert.True(t, Sum(data).Match(data))
	assert.False(t, Sum(data).Match([]byte{0xde, 0xad, 0xbe, 0xee}))
	assert.False(t, Sum(data).Match(nil))
}

func TestChecksumString(t *testing.T) {
	assert.Equal(t, "cbf43926", Sum([]byte("123456789")).String())
	assert.Equal(t, "00000001", Checksum(1).String())
}

func TestChecksumError(t *testing.T) {
	err := &ChecksumError{Found: 1, Expected: 2}
	assert.Contains(t, err.Error(), "00000001")
	assert.Contains(t, err.Error(), "00000002")
}
