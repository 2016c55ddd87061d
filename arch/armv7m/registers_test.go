package armv7m

import (
	"testing"

	"github.com/daniel5151/gdbstub-sub001/arch"
)

func assert(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestRegistersRoundTrip(t *testing.T) {
	var r Registers
	for i := range r.R {
		r.R[i] = uint32(i) * 0x01010101
	}
	r.SP, r.LR, r.PC, r.XPSR = 0x1000, 0x2000, 0x3000, 0x4000

	buf := make([]byte, r.WireSize())
	r.WriteWire(buf)

	var r2 Registers
	err := r2.ReadWire(buf)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, r2 == r, "roundtrip mismatch: got %+v want %+v", r2, r)
}

func TestWireSizeMatchesTargetXML(t *testing.T) {
	var r Registers
	assert(t, r.WireSize() == 17*4, "expected 17 32-bit registers, got %d bytes", r.WireSize())
}

func TestRegIDCoversEveryWireByte(t *testing.T) {
	var id RegID
	covered := make([]bool, wireSize)
	for i := uint64(0); i < 17; i++ {
		off, width, ok := id.FromRawID(i)
		assert(t, ok, "expected reg %d to resolve", i)
		for b := off; b < off+int(width); b++ {
			covered[b] = true
		}
	}
	for i, c := range covered {
		assert(t, c, "byte %d of wire layout not covered by any RegID", i)
	}
	_, _, ok := id.FromRawID(17)
	assert(t, !ok, "expected out-of-range register id to fail")
}

var _ arch.Registers = (*Registers)(nil)
