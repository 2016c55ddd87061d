// Package armv7m implements the arch.Registers/arch.RegId pair for
// ARMv7-M (Cortex-M) cores: r0-r12, sp, lr, pc, xPSR, matching the
// org.gnu.gdb.arm.m-profile feature GDB's target.xml expects.
package armv7m

import (
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/arch"
)

const numCoreRegs = 13 // r0-r12
const wireSize = (numCoreRegs + 4) * 4 // + sp, lr, pc, xpsr

// Registers holds the ARMv7-M core register bank.
type Registers struct {
	R    [numCoreRegs]uint32
	SP   uint32
	LR   uint32
	PC   uint32
	XPSR uint32
}

var _ arch.Registers = (*Registers)(nil)

// WireSize implements arch.Registers.
func (*Registers) WireSize() int { return wireSize }

// WriteWire implements arch.Registers. Fields are little-endian per ARM's
// GDB wire convention.
func (r *Registers) WriteWire(dst []byte) {
	i := 0
	putLE := func(v uint32) {
		dst[i] = byte(v)
		dst[i+1] = byte(v >> 8)
		dst[i+2] = byte(v >> 16)
		dst[i+3] = byte(v >> 24)
		i += 4
	}
	for _, v := range r.R {
		putLE(v)
	}
	putLE(r.SP)
	putLE(r.LR)
	putLE(r.PC)
	putLE(r.XPSR)
}

// ReadWire implements arch.Registers.
func (r *Registers) ReadWire(data []byte) error {
	if len(data) != wireSize {
		return fmt.Errorf("armv7m: wire register data is %d bytes, want %d", len(data), wireSize)
	}
	i := 0
	getLE := func() uint32 {
		v := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		i += 4
		return v
	}
	for j := range r.R {
		r.R[j] = getLE()
	}
	r.SP = getLE()
	r.LR = getLE()
	r.PC = getLE()
	r.XPSR = getLE()
	return nil
}
