package riscv32

import "github.com/daniel5151/gdbstub-sub001/arch"

// RegID maps GDB's riscv register indices 0-31 (x0-x31) and 32 (pc) to
// their wire offsets.
type RegID struct{}

var _ arch.RegId = RegID{}

func (RegID) FromRawID(id uint64) (offset int, width arch.RegWidth, ok bool) {
	switch {
	case id < numGPR:
		return int(id) * 4, 4, true
	case id == numGPR: // pc
		return numGPR * 4, 4, true
	default:
		return 0, 0, false
	}
}
