package x86_64

import "testing"

func assert(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestRegistersRoundTrip(t *testing.T) {
	var r Registers
	for i := range r.Regs {
		r.Regs[i] = uint64(i+1) * 0x1111111111111111
	}
	r.RIP, r.EFlags = 0x400000, 0x246
	r.CS, r.SS, r.DS, r.ES, r.FS, r.GS = 0x33, 0x2b, 0, 0, 0, 0

	buf := make([]byte, r.WireSize())
	r.WriteWire(buf)

	var r2 Registers
	assert(t, r2.ReadWire(buf) == nil, "unexpected error")
	assert(t, r2 == r, "roundtrip mismatch: got %+v want %+v", r2, r)
}

func TestRegIDRangesResolve(t *testing.T) {
	var id RegID
	for _, raw := range []uint64{0, 15, 16, 17, 18, 23} {
		_, _, ok := id.FromRawID(raw)
		assert(t, ok, "expected reg %d to resolve", raw)
	}
	_, _, ok := id.FromRawID(24)
	assert(t, !ok, "expected reg 24 to be out of range")
}
