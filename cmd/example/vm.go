package main

import (
	"fmt"
)

// vm is a tiny flat-memory ARMv7-M stand-in for a real emulator core. It
// does not decode or execute Thumb instructions: Step/Continue just walk pc
// forward and check it against the breakpoint set, which is enough to
// exercise the full GDB register/memory/breakpoint/resume surface end to
// end without dragging in a real instruction decoder.
type vm struct {
	ram   []byte
	flash []byte

	// Core registers, ARMv7-M order: r0-r12, sp, lr, pc, xpsr.
	regs [17]uint32

	breakpoints map[uint32]bool
	halted      bool
}

const ramBase = 0x20000000

func newVM(flash []byte, ramSize int) *vm {
	m := &vm{
		ram:         make([]byte, ramSize),
		flash:       flash,
		breakpoints: make(map[uint32]bool),
		halted:      true,
	}
	m.regs[13] = ramBase + uint32(ramSize) // sp
	m.regs[15] = 0                         // pc, reset vector
	return m
}

// translate maps a flat address to the backing flash or RAM slice, or nil
// if addr falls outside both regions.
func (m *vm) translate(addr uint32) (region []byte, base uint32, ok bool) {
	if addr < uint32(len(m.flash)) {
		return m.flash, 0, true
	}
	if addr >= ramBase && addr < ramBase+uint32(len(m.ram)) {
		return m.ram, ramBase, true
	}
	return nil, 0, false
}

func (m *vm) readMem(addr uint32, dst []byte) int {
	n := 0
	for n < len(dst) {
		region, base, ok := m.translate(addr + uint32(n))
		if !ok {
			break
		}
		off := addr + uint32(n) - base
		if int(off) >= len(region) {
			break
		}
		dst[n] = region[off]
		n++
	}
	return n
}

func (m *vm) writeMem(addr uint32, data []byte) error {
	for i, b := range data {
		region, base, ok := m.translate(addr + uint32(i))
		if !ok {
			return fmt.Errorf("vm: write to unmapped address %#x", addr+uint32(i))
		}
		off := addr + uint32(i) - base
		if int(off) >= len(region) {
			return fmt.Errorf("vm: write to unmapped address %#x", addr+uint32(i))
		}
		region[off] = b
	}
	return nil
}

// step advances pc by one 16-bit Thumb halfword. Without a real decoder
// this is a placeholder that lets a debugger single-step through memory
// without the target ever actually computing anything.
func (m *vm) step() {
	m.regs[15] += 2
}

// hitBreakpoint reports whether pc currently sits on a set breakpoint.
func (m *vm) hitBreakpoint() bool {
	return m.breakpoints[m.regs[15]]
}
