// Package riscv32 implements the arch.Registers/arch.RegId pair for the
// RV32I integer register file: x0-x31 plus pc, matching GDB's riscv
// feature XML.
package riscv32

import (
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/arch"
)

const numGPR = 32
const wireSize = (numGPR + 1) * 4

// Registers holds the RV32I register bank. X[0] is wired to zero by
// hardware convention but still occupies a wire slot; callers are
// responsible for keeping it zero.
type Registers struct {
	X  [numGPR]uint32
	PC uint32
}

var _ arch.Registers = (*Registers)(nil)

func (*Registers) WireSize() int { return wireSize }

func (r *Registers) WriteWire(dst []byte) {
	i := 0
	putLE := func(v uint32) {
		dst[i] = byte(v)
		dst[i+1] = byte(v >> 8)
		dst[i+2] = byte(v >> 16)
		dst[i+3] = byte(v >> 24)
		i += 4
	}
	for _, v := range r.X {
		putLE(v)
	}
	putLE(r.PC)
}

func (r *Registers) ReadWire(data []byte) error {
	if len(data) != wireSize {
		return fmt.Errorf("riscv32: wire register data is %d bytes, want %d", len(data), wireSize)
	}
	i := 0
	getLE := func() uint32 {
		v := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		i += 4
		return v
	}
	for j := range r.X {
		r.X[j] = getLE()
	}
	r.PC = getLE()
	return nil
}
