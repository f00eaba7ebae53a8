package asm

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble renders code one instruction per line for debug output.
func Disassemble(code []byte) (string, error) {
	var buf bytes.Buffer

	base := bufAddr(code)

	for i := 0; i < len(code); {
		inst, err := x86asm.Decode(code[i:], 64)
		if err != nil {
			return "", fmt.Errorf("asm: decode error at offset %d: %w", i, err)
		}
		fmt.Fprintf(&buf, "0x%08x\t%-22s\t%s\n", base+uintptr(i), hex.EncodeToString(code[i:i+inst.Len]), inst.String())

		i += inst.Len
	}

	return buf.String(), nil
}

// Lengths decodes code and returns each instruction's size in order.
// Useful for checking that emitted bytes land on clean boundaries.
func Lengths(code []byte) ([]int, error) {
	var lengths []int

	for i := 0; i < len(code); {
		inst, err := x86asm.Decode(code[i:], 64)
		if err != nil {
			return nil, fmt.Errorf("asm: decode error at offset %d: %w", i, err)
		}
		lengths = append(lengths, inst.Len)
		i += inst.Len
	}

	return lengths, nil
}
