package gdbstub

import (
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/command"
	"github.com/daniel5151/gdbstub-sub001/protocol"
	"github.com/daniel5151/gdbstub-sub001/target"
)

// defaultThreadID is the thread id passed to every register access and
// reported by qC. Hg/Hc selections are acknowledged but not recorded, so
// they do not change which thread these operations address.
const defaultThreadID = 1

// defaultProcessID is the pid reported alongside a thread id once
// multiprocess formatting has been negotiated. This stub only ever drives
// one target process per session.
const defaultProcessID = 1

// writeThreadID writes tid in the wire form QSupported negotiation
// selected: bare "TID" normally, or "pPID.TID" once the client has
// requested and been granted multiprocess+.
func (s *Session) writeThreadID(w *protocol.Writer, tid uint64) error {
	if !s.multiprocess {
		return w.WriteNum(tid, 8)
	}
	pid := protocol.IDSelector(defaultProcessID)
	return w.WriteThreadID(protocol.ThreadID{PID: &pid, TID: protocol.IDSelector(tid)})
}

func wireSizeForArch(a target.Arch) int {
	switch a {
	case target.ArchARMv7M:
		return 17 * 4
	case target.ArchX86_64:
		return 16*8 + 8 + 4 + 6*4
	case target.ArchRISCV32:
		return 33 * 4
	default:
		return 0
	}
}

func (s *Session) handleReadRegisters(tgt target.Target) error {
	size := wireSizeForArch(tgt.Architecture())
	buf := make([]byte, size)
	n, err := tgt.ReadRegisters(defaultThreadID, buf)
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyWith(func(w *protocol.Writer) error { return w.WriteHexBuf(buf[:n]) })
}

func (s *Session) handleWriteRegisters(tgt target.Target, c command.WriteRegisters) error {
	if err := tgt.WriteRegisters(defaultThreadID, c.Data); err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyOK()
}

func (s *Session) handleReadRegister(tgt target.Target, c command.ReadRegister) error {
	sr, ok := tgt.(target.SingleRegisterTarget)
	if !ok {
		return s.sendEmpty()
	}
	buf := make([]byte, 16)
	n, err := sr.SupportsSingleRegisterAccess().ReadRegister(defaultThreadID, c.RegNum, buf)
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyWith(func(w *protocol.Writer) error { return w.WriteHexBuf(buf[:n]) })
}

func (s *Session) handleWriteRegister(tgt target.Target, c command.WriteRegister) error {
	sr, ok := tgt.(target.SingleRegisterTarget)
	if !ok {
		return s.sendEmpty()
	}
	if err := sr.SupportsSingleRegisterAccess().WriteRegister(defaultThreadID, c.RegNum, c.Value); err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyOK()
}

func (s *Session) handleReadMemory(tgt target.Target, c command.ReadMemory) error {
	buf := make([]byte, c.Len)
	n, err := tgt.ReadMemory(c.Addr, buf)
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyWith(func(w *protocol.Writer) error { return w.WriteHexBuf(buf[:n]) })
}

func (s *Session) handleWriteMemory(tgt target.Target, addr uint64, data []byte) error {
	if err := tgt.WriteMemory(addr, data); err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyOK()
}

func (s *Session) handleBreakpoint(tgt target.Target, kind command.BreakpointKind, addr, size uint64, set bool) error {
	switch kind {
	case command.BreakpointSoftware:
		bp, ok := tgt.(target.BreakpointTarget)
		if !ok {
			return s.sendEmpty()
		}
		ops := bp.SupportsBreakpoints()
		var ok2 bool
		var err error
		if set {
			ok2, err = ops.AddSoftwareBreakpoint(addr, size)
		} else {
			ok2, err = ops.RemoveSoftwareBreakpoint(addr, size)
		}
		return s.replyBreakpointResult(ok2, err)
	case command.BreakpointHardware:
		bp, ok := tgt.(target.HwBreakpointTarget)
		if !ok {
			return s.sendEmpty()
		}
		ops := bp.SupportsHwBreakpoints()
		var ok2 bool
		var err error
		if set {
			ok2, err = ops.AddHardwareBreakpoint(addr, size)
		} else {
			ok2, err = ops.RemoveHardwareBreakpoint(addr, size)
		}
		return s.replyBreakpointResult(ok2, err)
	default:
		wp, ok := tgt.(target.WatchpointTarget)
		if !ok {
			return s.sendEmpty()
		}
		kindMap := map[command.BreakpointKind]target.WatchKind{
			command.WatchpointWrite:  target.WatchWrite,
			command.WatchpointRead:   target.WatchRead,
			command.WatchpointAccess: target.WatchAccess,
		}
		ops := wp.SupportsWatchpoints()
		var ok2 bool
		var err error
		if set {
			ok2, err = ops.AddWatchpoint(addr, size, kindMap[kind])
		} else {
			ok2, err = ops.RemoveWatchpoint(addr, size, kindMap[kind])
		}
		return s.replyBreakpointResult(ok2, err)
	}
}

func (s *Session) replyBreakpointResult(ok bool, err error) error {
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	if !ok {
		return s.replyErr(1)
	}
	return s.replyOK()
}

func (s *Session) handleQXfer(tgt target.Target, c command.QXferRead) error {
	var blob []byte
	var err error
	switch c.Object {
	case "features":
		td, ok := tgt.(target.TargetDescriptionTarget)
		if !ok {
			return s.sendEmpty()
		}
		blob, err = td.SupportsTargetDescription().TargetDescriptionXML()
	case "memory-map":
		mm, ok := tgt.(target.MemoryMapTarget)
		if !ok {
			return s.sendEmpty()
		}
		blob, err = mm.SupportsMemoryMap().MemoryMapXML()
	case "exec-file":
		ef, ok := tgt.(target.ExecFileTarget)
		if !ok {
			return s.sendEmpty()
		}
		blob, err = ef.SupportsExecFile().ExecFilePath(0)
	case "auxv":
		av, ok := tgt.(target.AuxvTarget)
		if !ok {
			return s.sendEmpty()
		}
		blob, err = av.SupportsAuxv().Auxv(0)
	case "libraries", "libraries-svr4":
		lib, ok := tgt.(target.LibrariesTarget)
		if !ok {
			return s.sendEmpty()
		}
		blob, err = lib.SupportsLibraries().LibrariesXML()
	default:
		return s.sendEmpty()
	}
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyWith(func(w *protocol.Writer) error { return writeXferChunk(w, blob, c.Offset, c.Length) })
}

// writeXferChunk implements the qXfer 'm'/'l' more-data-follows convention:
// 'l' (last) when the requested window reaches the end of blob, 'm' (more)
// otherwise.
func writeXferChunk(w *protocol.Writer, blob []byte, offset, length uint64) error {
	if offset > uint64(len(blob)) {
		offset = uint64(len(blob))
	}
	end := offset + length
	last := true
	if end >= uint64(len(blob)) {
		end = uint64(len(blob))
	} else {
		last = false
	}
	marker := byte('l')
	if !last {
		marker = 'm'
	}
	if err := w.WriteByte(marker); err != nil {
		return err
	}
	return w.WriteBytes(blob[offset:end])
}

func (s *Session) handleMonitorCmd(tgt target.Target, c command.QRcmd) error {
	mc, ok := tgt.(target.MonitorCmdTarget)
	if !ok {
		return s.sendEmpty()
	}
	// Each output chunk is streamed as its own 'O<hex>' packet; the final
	// reply is OK or an E-packet.
	var werr error
	err := mc.SupportsMonitorCmd().HandleCommand(c.Cmd, func(chunk []byte) {
		if werr != nil {
			return
		}
		werr = s.replyWith(func(w *protocol.Writer) error {
			if err := w.WriteByte('O'); err != nil {
				return err
			}
			return w.WriteHexBuf(chunk)
		})
	})
	if werr != nil {
		return werr
	}
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyOK()
}

func (s *Session) handleVAttach(tgt target.Target, c command.VAttach) error {
	ext, ok := tgt.(target.ExtendedModeTarget)
	if !ok {
		return s.replyErr(1)
	}
	if err := ext.SupportsExtendedMode().Attach(c.PID); err != nil {
		return s.replyErr(targetErrCode(err))
	}
	s.lastStop = target.StopReason{Kind: target.StopSignal, Signal: 5}
	return s.replyStop(s.lastStop)
}

func (s *Session) handleVRun(tgt target.Target, c command.VRun) error {
	ext, ok := tgt.(target.ExtendedModeTarget)
	if !ok {
		return s.replyErr(1)
	}
	_, err := ext.SupportsExtendedMode().Run(c.Filename, c.Args)
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	s.lastStop = target.StopReason{Kind: target.StopSignal, Signal: 5}
	return s.replyStop(s.lastStop)
}

func (s *Session) handleThreadInfo(tgt target.Target, first bool) error {
	mt, ok := tgt.(target.MultiThreadTarget)
	if !ok {
		if first {
			return s.replyWith(func(w *protocol.Writer) error {
				if err := w.WriteByte('m'); err != nil {
					return err
				}
				return s.writeThreadID(w, defaultThreadID)
			})
		}
		return s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("l") })
	}
	if !first {
		return s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("l") })
	}
	ids, err := mt.SupportsMultiThread().ListThreads(nil)
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyWith(func(w *protocol.Writer) error {
		if len(ids) == 0 {
			return w.WriteStr("l")
		}
		if err := w.WriteByte('m'); err != nil {
			return err
		}
		for i, id := range ids {
			if i > 0 {
				if err := w.WriteByte(','); err != nil {
					return err
				}
			}
			if err := s.writeThreadID(w, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) handleThreadAlive(tgt target.Target, c command.ThreadAlive) error {
	mt, ok := tgt.(target.MultiThreadTarget)
	if !ok {
		return s.replyOK()
	}
	tid := defaultThreadID
	if c.Thread.TID.Kind == protocol.SelectorID {
		tid = int(c.Thread.TID.ID)
	}
	alive, err := mt.SupportsMultiThread().ThreadAlive(uint64(tid))
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	if !alive {
		return s.replyErr(1)
	}
	return s.replyOK()
}

func (s *Session) handleQOffsets(tgt target.Target) error {
	so, ok := tgt.(target.SectionOffsetsTarget)
	if !ok {
		return s.sendEmpty()
	}
	text, data, bss, err := so.SupportsSectionOffsets().SectionOffsets()
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyWith(func(w *protocol.Writer) error {
		return w.WriteStr(fmt.Sprintf("Text=%x;Data=%x;Bss=%x", text, data, bss))
	})
}

func (s *Session) handleThreadExtraInfo(tgt target.Target, c command.QThreadExtraInfo) error {
	te, ok := tgt.(target.ThreadExtraInfoTarget)
	if !ok {
		return s.sendEmpty()
	}
	tid := defaultThreadID
	if c.Thread.TID.Kind == protocol.SelectorID {
		tid = int(c.Thread.TID.ID)
	}
	buf := make([]byte, 256)
	n, err := te.SupportsThreadExtraInfo().ThreadExtraInfo(uint64(tid), buf)
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyWith(func(w *protocol.Writer) error { return w.WriteHexBuf(buf[:n]) })
}

func (s *Session) handleVFile(tgt target.Target, c command.VFile) error {
	hio, ok := tgt.(target.HostIOTarget)
	if !ok {
		return s.replyErr(1)
	}
	ops := hio.SupportsHostIO()
	switch c.Op {
	case command.VFileOpen:
		fd, err := ops.Open(c.Filename, c.Flags, c.Mode)
		if err != nil {
			return s.replyErr(targetErrCode(err))
		}
		return s.replyWith(func(w *protocol.Writer) error { return w.WriteNum(fd, 8) })
	case command.VFileClose:
		if err := ops.Close(c.FD); err != nil {
			return s.replyErr(targetErrCode(err))
		}
		return s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("F0") })
	case command.VFilePread:
		buf := make([]byte, c.Count)
		n, err := ops.Pread(c.FD, c.Count, c.Offset, buf)
		if err != nil {
			return s.replyErr(targetErrCode(err))
		}
		return s.replyWith(func(w *protocol.Writer) error {
			if err := w.WriteStr(fmt.Sprintf("F%x;", n)); err != nil {
				return err
			}
			return w.WriteBinaryEscaped(buf[:n])
		})
	case command.VFilePwrite:
		n, err := ops.Pwrite(c.FD, c.Offset, c.Data)
		if err != nil {
			return s.replyErr(targetErrCode(err))
		}
		return s.replyWith(func(w *protocol.Writer) error { return w.WriteStr(fmt.Sprintf("F%x", n)) })
	case command.VFileReadlink:
		buf := make([]byte, 4096)
		n, err := ops.Readlink(c.Filename, buf)
		if err != nil {
			return s.replyErr(targetErrCode(err))
		}
		return s.replyWith(func(w *protocol.Writer) error {
			if err := w.WriteStr(fmt.Sprintf("F%x;", n)); err != nil {
				return err
			}
			return w.WriteBinaryEscaped(buf[:n])
		})
	case command.VFileUnlink:
		if err := ops.Unlink(c.Filename); err != nil {
			return s.replyErr(targetErrCode(err))
		}
		return s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("F0") })
	case command.VFileSetfs:
		if err := ops.SetFS(c.PID); err != nil {
			return s.replyErr(targetErrCode(err))
		}
		return s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("F0") })
	case command.VFileFstat:
		st, err := ops.Fstat(c.FD)
		if err != nil {
			return s.replyErr(targetErrCode(err))
		}
		blob := encodeHostStat(st)
		return s.replyWith(func(w *protocol.Writer) error {
			if err := w.WriteStr(fmt.Sprintf("F%x;", len(blob))); err != nil {
				return err
			}
			return w.WriteBinaryEscaped(blob)
		})
	default:
		return s.replyErr(1)
	}
}

// encodeHostStat serializes a target.HostStat into the big-endian
// struct stat layout GDB's vFile:fstat reply uses.
func encodeHostStat(st target.HostStat) []byte {
	buf := make([]byte, 64)
	put32 := func(off int, v uint32) { protocol.PutBigEndian(buf[off:off+4], uint64(v), 4) }
	put64 := func(off int, v uint64) { protocol.PutBigEndian(buf[off:off+8], v, 8) }
	put32(0, st.Dev)
	put32(4, st.Ino)
	put32(8, st.Mode)
	put32(12, st.NLink)
	put32(16, st.UID)
	put32(20, st.GID)
	put32(24, st.RDev)
	put64(28, st.Size)
	put64(36, st.BlockSize)
	put64(44, st.Blocks)
	put32(52, uint32(st.ATime))
	put32(56, uint32(st.MTime))
	put32(60, uint32(st.CTime))
	return buf
}

// handleCatchSyscalls services QCatchSyscalls:0 / QCatchSyscalls:1[;sysno;...].
func (s *Session) handleCatchSyscalls(tgt target.Target, c command.QCatchSyscalls) error {
	cs, ok := tgt.(target.CatchSyscallTarget)
	if !ok {
		return s.replyErr(1)
	}
	ops := cs.SupportsCatchSyscalls()
	var err error
	switch c.Mode {
	case command.CatchSyscallDisable:
		err = ops.DisableCatchSyscalls()
	case command.CatchSyscallEnableAll:
		err = ops.EnableCatchSyscalls(nil)
	default:
		err = ops.EnableCatchSyscalls(c.Numbers)
	}
	if err != nil {
		return s.replyErr(targetErrCode(err))
	}
	return s.replyOK()
}
