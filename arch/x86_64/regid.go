package x86_64

import "github.com/daniel5151/gdbstub-sub001/arch"

// RegID maps the org.gnu.gdb.i386.64bit GDB register indices (0-15 GPRs,
// 16 rip, 17 eflags, 18-23 segments) to their wire offsets.
type RegID struct{}

var _ arch.RegId = RegID{}

func (RegID) FromRawID(id uint64) (offset int, width arch.RegWidth, ok bool) {
	switch {
	case id < numGPR:
		return int(id) * 8, 8, true
	case id == numGPR: // rip
		return numGPR * 8, 8, true
	case id == numGPR+1: // eflags
		return numGPR*8 + 8, 4, true
	case id >= numGPR+2 && id <= numGPR+7: // cs,ss,ds,es,fs,gs
		seg := int(id - (numGPR + 2))
		return numGPR*8 + 8 + 4 + seg*4, 4, true
	default:
		return 0, 0, false
	}
}
