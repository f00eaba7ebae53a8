package asm

// hookTailReserve is the longest post-call tail that is cheaper to no-op
// fill than to jump across. Two maximal no-ops cover it.
const hookTailReserve = 2 * MaxNopLen

// FillNops covers buf entirely with no-op instructions, taking the
// largest encoding that fits at every step so the fill disassembles into
// the fewest instructions.
func FillNops(buf []byte) error {
	for len(buf) > 0 {
		n := len(buf)
		if n > MaxNopLen {
			n = MaxNopLen
		}
		w, err := Nop(buf, n)
		if err != nil {
			return err
		}
		buf = buf[w:]
	}
	return nil
}

// FillHook compiles a hook stub over buf: a call to target at the start,
// then either pure no-op padding (short tails) or a jump to the end of
// buf, a trap to catch any stray execution of the gap, and no-ops for
// whatever remains. Relative offsets are computed against buf's current
// address, so the buffer must never be relocated after this call.
//
// Encoder failures surface unchanged. Bytes already written stay written;
// the caller decides whether a half-built stub needs cleanup.
func FillHook(buf []byte, target HookTarget) error {
	rel := int64(uintptr(target)) - int64(bufAddr(buf))
	n, err := Call(buf, rel)
	if err != nil {
		return err
	}

	tail := buf[n:]
	if len(tail) <= hookTailReserve {
		return FillNops(tail)
	}

	j, err := Jmp(tail, int64(len(tail)))
	if err != nil {
		return err
	}
	u, err := Ud2(tail[j:])
	if err != nil {
		return err
	}
	return FillNops(tail[j+u:])
}
