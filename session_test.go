package gdbstub

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/daniel5151/gdbstub-sub001/protocol"
	"github.com/daniel5151/gdbstub-sub001/target"
)

func assert(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// fakeConn is an in-memory Connection: input is a fixed byte queue, output
// is captured in a buffer.
type fakeConn struct {
	in           []byte
	pos          int
	out          bytes.Buffer
	blockForever bool
}

func (c *fakeConn) ReadByte() (byte, error) {
	if c.pos >= len(c.in) {
		if c.blockForever {
			select {} // simulate a connection with no more data pending
		}
		return 0, fmt.Errorf("fakeConn: out of input")
	}
	b := c.in[c.pos]
	c.pos++
	return b, nil
}

func (c *fakeConn) WriteByte(b byte) error { return c.out.WriteByte(b) }
func (c *fakeConn) Flush() error           { return nil }

func framePacket(body string) []byte {
	cs := protocol.Checksum([]byte(body))
	return []byte(fmt.Sprintf("$%s#%02x", body, cs))
}

// fakeTarget is a minimal single-threaded target.Target for session tests.
type fakeTarget struct {
	regs      [17 * 4]byte
	mem       map[uint64]byte
	resumeHit target.StopReason
}

func (f *fakeTarget) Architecture() target.Arch { return target.ArchARMv7M }

func (f *fakeTarget) ReadRegisters(tid uint64, dst []byte) (int, error) {
	return copy(dst, f.regs[:]), nil
}
func (f *fakeTarget) WriteRegisters(tid uint64, data []byte) error {
	copy(f.regs[:], data)
	return nil
}
func (f *fakeTarget) ReadMemory(addr uint64, dst []byte) (int, error) {
	for i := range dst {
		dst[i] = f.mem[addr+uint64(i)]
	}
	return len(dst), nil
}
func (f *fakeTarget) WriteMemory(addr uint64, data []byte) error {
	if f.mem == nil {
		f.mem = make(map[uint64]byte)
	}
	for i, b := range data {
		f.mem[addr+uint64(i)] = b
	}
	return nil
}
func (f *fakeTarget) Resume(ctx context.Context, actions map[uint64]target.ThreadResumeAction) (target.StopReason, error) {
	select {
	case <-ctx.Done():
		return target.StopReason{Kind: target.StopGdbInterrupt}, nil
	default:
		return f.resumeHit, nil
	}
}

func runOnePacket(t *testing.T, body string, tgt target.Target) string {
	t.Helper()
	conn := &fakeConn{in: framePacket(body)}
	sess := newSession(conn, 4096, true) // noAck=true to keep output free of '+' noise
	for conn.pos < len(conn.in) {
		b, err := conn.ReadByte()
		assert(t, err == nil, "unexpected read error: %v", err)
		_, _, done, err := sess.handleByte(tgt, b)
		assert(t, err == nil, "unexpected dispatch error: %v", err)
		_ = done
	}
	return conn.out.String()
}

func TestSessionQueryStopReason(t *testing.T) {
	// Before the target has run at all, '?' reports SIGTRAP (S05), the same
	// value vAttach/vRun report for a freshly attached/started process.
	out := runOnePacket(t, "?", &fakeTarget{})
	want := "$S05#" + fmt.Sprintf("%02x", protocol.Checksum([]byte("S05")))
	assert(t, out == want, "got %q want %q", out, want)
}

func TestSessionQueryStopReasonTracksLastResume(t *testing.T) {
	conn := &fakeConn{in: framePacket("c"), blockForever: true}
	sess := newSession(conn, 4096, true)
	tgt := &fakeTarget{resumeHit: target.StopReason{Kind: target.StopWatch, Watch: target.WatchWrite, WatchAddr: 0x2000}}
	// The input never ends, so the stop reply is always handled before Run
	// returns at the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := sess.Run(ctx, tgt)
	assert(t, err == context.DeadlineExceeded, "expected deadline exceeded, got %v", err)
	assert(t, sess.lastStop.Kind == target.StopWatch, "Session did not record the last stop reason")

	// Feed a fresh '?' frame through the same session and confirm it now
	// reports the watchpoint hit instead of the startup SIGTRAP default.
	conn.in = framePacket("?")
	conn.pos = 0
	conn.out.Reset()
	for conn.pos < len(conn.in) {
		b, rerr := conn.ReadByte()
		assert(t, rerr == nil, "unexpected read error: %v", rerr)
		_, _, _, herr := sess.handleByte(tgt, b)
		assert(t, herr == nil, "unexpected dispatch error: %v", herr)
	}
	hashIdx := bytes.IndexByte(conn.out.Bytes(), '#')
	assert(t, conn.out.String()[1:hashIdx] == "T05watch:2000;", "got %q", conn.out.String()[1:hashIdx])
}

func TestSessionReadRegisters(t *testing.T) {
	tgt := &fakeTarget{}
	tgt.regs[0] = 0xAB
	out := runOnePacket(t, "g", tgt)
	assert(t, len(out) > 0 && out[0] == '$', "expected a reply, got %q", out)
	assert(t, out[1:3] == "ab", "expected first register byte ab, got %q", out[1:3])
}

func TestSessionReadWriteMemory(t *testing.T) {
	tgt := &fakeTarget{mem: map[uint64]byte{0x1000: 0xde, 0x1001: 0xad}}
	out := runOnePacket(t, "m1000,2", tgt)
	hashIdx := bytes.IndexByte([]byte(out), '#')
	assert(t, out[1:hashIdx] == "dead", "got body %q", out[1:hashIdx])

	out = runOnePacket(t, "M2000,2:cafe", &fakeTarget{})
	assert(t, bytes.HasPrefix([]byte(out), []byte("$OK#")), "expected OK, got %q", out)
}

func TestSessionUnknownCommandGetsEmptyReply(t *testing.T) {
	out := runOnePacket(t, "vNotAThing", &fakeTarget{})
	assert(t, out == "$#00", "expected empty reply, got %q", out)
}

func TestSessionMultiprocessThreadIDFormatting(t *testing.T) {
	tgt := &fakeTarget{}

	// Before negotiation, thread ids are bare.
	out := runOnePacket(t, "qC", tgt)
	hashIdx := bytes.IndexByte([]byte(out), '#')
	assert(t, out[1:hashIdx] == "QC01", "got %q, want bare thread id", out[1:hashIdx])

	// Negotiate multiprocess, then thread ids gain the pPID. prefix.
	conn := &fakeConn{in: framePacket("qSupported:multiprocess+")}
	sess := newSession(conn, 4096, true)
	for conn.pos < len(conn.in) {
		b, err := conn.ReadByte()
		assert(t, err == nil, "unexpected read error: %v", err)
		_, _, _, err = sess.handleByte(tgt, b)
		assert(t, err == nil, "unexpected dispatch error: %v", err)
	}
	assert(t, bytes.Contains(conn.out.Bytes(), []byte("multiprocess+")), "expected multiprocess+ advertised, got %q", conn.out.String())
	assert(t, sess.multiprocess, "expected multiprocess to be negotiated")

	conn.in = framePacket("qC")
	conn.pos = 0
	conn.out.Reset()
	for conn.pos < len(conn.in) {
		b, err := conn.ReadByte()
		assert(t, err == nil, "unexpected read error: %v", err)
		_, _, _, err = sess.handleByte(tgt, b)
		assert(t, err == nil, "unexpected dispatch error: %v", err)
	}
	hashIdx = bytes.IndexByte(conn.out.Bytes(), '#')
	assert(t, conn.out.String()[1:hashIdx] == "QCp01.01", "got %q, want multiprocess-formatted thread id", conn.out.String()[1:hashIdx])
}

func TestSessionRunDetach(t *testing.T) {
	wire := framePacket("D")
	conn := &fakeConn{in: wire}
	sess := newSession(conn, 4096, true)
	reason, err := sess.Run(context.Background(), &fakeTarget{})
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, reason == DisconnectClientRequest, "expected detach reason, got %v", reason)
}

func TestSessionRunContinueThenStop(t *testing.T) {
	conn := &fakeConn{in: framePacket("c"), blockForever: true}
	sess := newSession(conn, 4096, true)
	tgt := &fakeTarget{resumeHit: target.StopReason{Kind: target.StopSwBreak}}

	// After the resume completes, Run transitions back to StateIdle and
	// blocks on the next byte, which never arrives; a short deadline bounds
	// the test instead of waiting on a real disconnect.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := sess.Run(ctx, tgt)
	assert(t, err == context.DeadlineExceeded, "expected deadline exceeded, got %v", err)
	assert(t, bytes.Contains(conn.out.Bytes(), []byte("S05")), "expected a SIGTRAP stop reply, got %q", conn.out.String())
}

// fakeReverseOps backs a fakeExtTarget's SupportsReverseExec.
type fakeReverseOps struct {
	continueHit target.StopReason
	stepHit     target.StopReason
}

func (f *fakeReverseOps) ReverseContinue(ctx context.Context) (target.StopReason, error) {
	return f.continueHit, nil
}
func (f *fakeReverseOps) ReverseStep(ctx context.Context, tid uint64) (target.StopReason, error) {
	return f.stepHit, nil
}

// fakeCatchOps backs a fakeExtTarget's SupportsCatchSyscalls.
type fakeCatchOps struct {
	enabled bool
	numbers []uint64
}

func (f *fakeCatchOps) EnableCatchSyscalls(numbers []uint64) error {
	f.enabled = true
	f.numbers = numbers
	return nil
}
func (f *fakeCatchOps) DisableCatchSyscalls() error {
	f.enabled = false
	f.numbers = nil
	return nil
}

// fakeExtTarget adds the reverse-execution and syscall-catching capability
// groups on top of fakeTarget, for exercising the commands gated behind
// them.
type fakeExtTarget struct {
	fakeTarget
	reverse fakeReverseOps
	catch   fakeCatchOps
}

func (f *fakeExtTarget) SupportsReverseExec() target.ReverseExecOps     { return &f.reverse }
func (f *fakeExtTarget) SupportsCatchSyscalls() target.CatchSyscallOps { return &f.catch }

func TestSessionReverseContinueUnsupported(t *testing.T) {
	out := runOnePacket(t, "bc", &fakeTarget{})
	assert(t, bytes.HasPrefix([]byte(out), []byte("$E")), "expected error reply, got %q", out)
}

func TestSessionReverseContinue(t *testing.T) {
	conn := &fakeConn{in: framePacket("bc"), blockForever: true}
	sess := newSession(conn, 4096, true)
	tgt := &fakeExtTarget{}
	tgt.reverse.continueHit = target.StopReason{Kind: target.StopReplayLog, ReplayPos: target.ReplayBegin}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := sess.Run(ctx, tgt)
	assert(t, err == context.DeadlineExceeded, "expected deadline exceeded, got %v", err)
	assert(t, bytes.Contains(conn.out.Bytes(), []byte("replaylog:begin")), "expected replaylog stop reply, got %q", conn.out.String())
}

func TestSessionReverseStep(t *testing.T) {
	conn := &fakeConn{in: framePacket("bs"), blockForever: true}
	sess := newSession(conn, 4096, true)
	tgt := &fakeExtTarget{}
	tgt.reverse.stepHit = target.StopReason{Kind: target.StopReplayLog, ReplayPos: target.ReplayEnd}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := sess.Run(ctx, tgt)
	assert(t, err == context.DeadlineExceeded, "expected deadline exceeded, got %v", err)
	assert(t, bytes.Contains(conn.out.Bytes(), []byte("replaylog:end")), "expected replaylog stop reply, got %q", conn.out.String())
}

func TestSessionCatchSyscallsUnsupported(t *testing.T) {
	out := runOnePacket(t, "QCatchSyscalls:1", &fakeTarget{})
	assert(t, bytes.HasPrefix([]byte(out), []byte("$E")), "expected error reply, got %q", out)
}

func TestSessionCatchSyscallsEnableList(t *testing.T) {
	tgt := &fakeExtTarget{}
	out := runOnePacket(t, "QCatchSyscalls:1;a;14", tgt)
	assert(t, out == "$OK#"+fmt.Sprintf("%02x", protocol.Checksum([]byte("OK"))), "got %q", out)
	assert(t, tgt.catch.enabled, "expected syscall catching enabled")
	assert(t, len(tgt.catch.numbers) == 2 && tgt.catch.numbers[0] == 0xa && tgt.catch.numbers[1] == 0x14, "got numbers %v", tgt.catch.numbers)
}

func TestSessionCatchSyscallsDisable(t *testing.T) {
	tgt := &fakeExtTarget{}
	tgt.catch.enabled = true
	out := runOnePacket(t, "QCatchSyscalls:0", tgt)
	assert(t, out == "$OK#"+fmt.Sprintf("%02x", protocol.Checksum([]byte("OK"))), "got %q", out)
	assert(t, !tgt.catch.enabled, "expected syscall catching disabled")
}

// fakeSignalTarget adds the optional ResumeSignalTarget capability on top
// of fakeTarget, toggleable per test.
type fakeSignalTarget struct {
	fakeTarget
	supported bool
}

func (f *fakeSignalTarget) SupportsResumeSignal() bool { return f.supported }

func TestSessionContinueWithSignalUnsupported(t *testing.T) {
	out := runOnePacket(t, "C05", &fakeTarget{})
	assert(t, bytes.HasPrefix([]byte(out), []byte("$E")), "expected error reply, got %q", out)
}

func TestSessionContinueWithSignalSupported(t *testing.T) {
	conn := &fakeConn{in: framePacket("C05"), blockForever: true}
	sess := newSession(conn, 4096, true)
	tgt := &fakeSignalTarget{supported: true}
	tgt.resumeHit = target.StopReason{Kind: target.StopSwBreak}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := sess.Run(ctx, tgt)
	assert(t, err == context.DeadlineExceeded, "expected deadline exceeded, got %v", err)
	assert(t, bytes.Contains(conn.out.Bytes(), []byte("S05")), "expected a stop reply, got %q", conn.out.String())
}
