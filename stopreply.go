package gdbstub

import (
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/protocol"
	"github.com/daniel5151/gdbstub-sub001/target"
)

// writeStopReply serializes a target.StopReason as one of GDB's stop-reply
// packets: S/T (stopped on signal), W (exited), X (terminated by signal). It
// is a Session method (rather than a free function) so a StopSignal's
// thread id can be formatted through writeThreadID, honoring whatever
// multiprocess negotiation the session has completed.
func (s *Session) writeStopReply(w *protocol.Writer, sr target.StopReason) error {
	switch sr.Kind {
	case target.StopDoneStep, target.StopSwBreak, target.StopHwBreak, target.StopHalted, target.StopGdbInterrupt:
		return writeSPacket(w, 5 /* SIGTRAP */)
	case target.StopWatch:
		if err := w.WriteByte('T'); err != nil {
			return err
		}
		if err := w.WriteHexByte(5); err != nil {
			return err
		}
		reason := map[target.WatchKind]string{
			target.WatchWrite:  "watch",
			target.WatchRead:   "rwatch",
			target.WatchAccess: "awatch",
		}[sr.Watch]
		if err := w.WriteStr(reason + ":"); err != nil {
			return err
		}
		if err := w.WriteNum(sr.WatchAddr, 8); err != nil {
			return err
		}
		return w.WriteByte(';')
	case target.StopSignal:
		if !sr.HasThread {
			return writeSPacket(w, sr.Signal)
		}
		if err := w.WriteByte('T'); err != nil {
			return err
		}
		if err := w.WriteHexByte(sr.Signal); err != nil {
			return err
		}
		if err := w.WriteStr("thread:"); err != nil {
			return err
		}
		if err := s.writeThreadID(w, sr.ThreadID); err != nil {
			return err
		}
		return w.WriteByte(';')
	case target.StopExited:
		if err := w.WriteByte('W'); err != nil {
			return err
		}
		return w.WriteHexByte(sr.ExitCode)
	case target.StopTerminated:
		if err := w.WriteByte('X'); err != nil {
			return err
		}
		return w.WriteHexByte(sr.Signal)
	case target.StopReplayLog:
		if err := w.WriteStr("T05replaylog:"); err != nil {
			return err
		}
		if sr.ReplayPos == target.ReplayBegin {
			return w.WriteStr("begin;")
		}
		return w.WriteStr("end;")
	case target.StopCatchSyscall:
		if err := w.WriteByte('T'); err != nil {
			return err
		}
		if err := w.WriteHexByte(5); err != nil {
			return err
		}
		tag := "syscall_entry"
		if sr.SyscallPos == target.ReplayEnd {
			tag = "syscall_return"
		}
		if err := w.WriteStr(tag + ":"); err != nil {
			return err
		}
		if sr.HasSyscallNum {
			if err := w.WriteNum(sr.SyscallNum, 8); err != nil {
				return err
			}
		}
		return w.WriteByte(';')
	default:
		return fmt.Errorf("gdbstub: unhandled stop reason kind %v", sr.Kind)
	}
}

// writeSPacket writes the legacy "S signal" stop reply.
func writeSPacket(w *protocol.Writer, signal uint8) error {
	if err := w.WriteByte('S'); err != nil {
		return err
	}
	return w.WriteHexByte(signal)
}
