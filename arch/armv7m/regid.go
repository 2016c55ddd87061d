package armv7m

import "github.com/daniel5151/gdbstub-sub001/arch"

// RegID maps the GDB register indices defined by org.gnu.gdb.arm.m-profile
// to their offset within the Registers wire layout. The m-profile feature
// has no floating point registers, unlike the base AArch32 core.
type RegID struct{}

var _ arch.RegId = RegID{}

// FromRawID implements arch.RegId.
func (RegID) FromRawID(id uint64) (offset int, width arch.RegWidth, ok bool) {
	switch {
	case id <= 12: // r0-r12
		return int(id) * 4, 4, true
	case id == 13: // sp
		return numCoreRegs * 4, 4, true
	case id == 14: // lr
		return (numCoreRegs + 1) * 4, 4, true
	case id == 15: // pc
		return (numCoreRegs + 2) * 4, 4, true
	case id == 16: // xpsr
		return (numCoreRegs + 3) * 4, 4, true
	default:
		return 0, 0, false
	}
}
