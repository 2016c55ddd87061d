package gdbstub

import "fmt"

// Sentinel errors for session-level failures. Those a Session's Run loop
// returns are wrapped with fmt.Errorf
// ("%w: ...") so callers can still errors.Is against the sentinel while
// getting a message with the offending detail.
var (
	// ErrConnectionRead is returned when the underlying connection fails
	// while the session is waiting for more client bytes.
	ErrConnectionRead = fmt.Errorf("gdbstub: connection read error")
	// ErrConnectionWrite is returned when writing a reply packet fails.
	ErrConnectionWrite = fmt.Errorf("gdbstub: connection write error")
	// ErrPacketBufferOverflow is returned when an incoming packet exceeds
	// the configured packet buffer.
	ErrPacketBufferOverflow = fmt.Errorf("gdbstub: packet too large for packet buffer")
	// ErrPacketParse names a framed packet whose body could not be decoded
	// into a known command. Run does not return it: such a packet gets an
	// empty reply and the session continues.
	ErrPacketParse = fmt.Errorf("gdbstub: malformed command packet")
	// ErrTargetMismatch names a command whose size does not match what the
	// target's architecture requires. Run never returns it: a 'G' packet is
	// handed to Target.WriteRegisters without a length check.
	ErrTargetMismatch = fmt.Errorf("gdbstub: packet size does not match target architecture")
	// ErrNoActiveThreads names a target that reports no live threads. Run
	// does not check for this condition and never returns it.
	ErrNoActiveThreads = fmt.Errorf("gdbstub: target has no active threads")
	// ErrTargetFatal wraps a target.Error whose Class is ClassFatal.
	ErrTargetFatal = fmt.Errorf("gdbstub: target reported a fatal error")
)
