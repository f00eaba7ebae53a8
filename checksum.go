package graft

import (
	"fmt"
	"hash/crc32"
)

// Checksum is a CRC-32 of the bytes expected at a patch target. Tool
// authors compute it ahead of time, usually from a ReadBytes dump of the
// build they inspected, and declare it next to the patch; a mismatch at
// patch time means the target binary changed and aborts before anything
// is written.
type Checksum uint32

// Sum computes the checksum of data.
func Sum(data []byte) Checksum {
	return Checksum(crc32.ChecksumIEEE(data))
}

// Match reports whether data still hashes to c.
func (c Checksum) Match(data []byte) bool {
	return Sum(data) == c
}

func (c Checksum) String() string {
	return fmt.Sprintf("%08x", uint32(c))
}

// ChecksumError reports live bytes that no longer match the checksum a
// patch was declared with.
type ChecksumError struct {
	Found    Checksum
	Expected Checksum
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("graft: checksum mismatch: found %s, expected %s", e.Found, e.Expected)
}
