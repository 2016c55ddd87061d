// Package x86_64 implements the arch.Registers/arch.RegId pair for the
// org.gnu.gdb.i386.core / org.gnu.gdb.i386.64bit feature set: general
// purpose registers, rip, eflags, and the six segment registers. FPU/SSE
// state is outside this layer's scope (see DESIGN.md).
package x86_64

import (
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/arch"
)

// GPR indices into Registers.Regs, matching GDB's i386:x86-64 register
// order.
const (
	RAX = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

const numGPR = 16
const wireSize = numGPR*8 + 8 /* rip */ + 4 /* eflags */ + 6*4 /* segments */

// Registers holds the x86-64 core register bank.
type Registers struct {
	Regs   [numGPR]uint64
	RIP    uint64
	EFlags uint32
	CS, SS, DS, ES, FS, GS uint32
}

var _ arch.Registers = (*Registers)(nil)

func (*Registers) WireSize() int { return wireSize }

func (r *Registers) WriteWire(dst []byte) {
	i := 0
	put64 := func(v uint64) {
		for b := 0; b < 8; b++ {
			dst[i] = byte(v >> (8 * b))
			i++
		}
	}
	put32 := func(v uint32) {
		for b := 0; b < 4; b++ {
			dst[i] = byte(v >> (8 * b))
			i++
		}
	}
	for _, v := range r.Regs {
		put64(v)
	}
	put64(r.RIP)
	put32(r.EFlags)
	for _, v := range []uint32{r.CS, r.SS, r.DS, r.ES, r.FS, r.GS} {
		put32(v)
	}
}

func (r *Registers) ReadWire(data []byte) error {
	if len(data) != wireSize {
		return fmt.Errorf("x86_64: wire register data is %d bytes, want %d", len(data), wireSize)
	}
	i := 0
	get64 := func() uint64 {
		var v uint64
		for b := 0; b < 8; b++ {
			v |= uint64(data[i]) << (8 * b)
			i++
		}
		return v
	}
	get32 := func() uint32 {
		var v uint32
		for b := 0; b < 4; b++ {
			v |= uint32(data[i]) << (8 * b)
			i++
		}
		return v
	}
	for j := range r.Regs {
		r.Regs[j] = get64()
	}
	r.RIP = get64()
	r.EFlags = get32()
	r.CS = get32()
	r.SS = get32()
	r.DS = get32()
	r.ES = get32()
	r.FS = get32()
	r.GS = get32()
	return nil
}
