package gdbstub

import (
	"context"
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/command"
	"github.com/daniel5151/gdbstub-sub001/protocol"
	"github.com/daniel5151/gdbstub-sub001/target"
)

// Session drives the packet-level RSP dialogue with a single connected
// client against a single Target. Construct one with Builder.
type Session struct {
	conn   Connection
	buf    []byte
	framer *protocol.Framer
	writer *protocol.Writer

	noAck        bool
	extendedMode bool
	multiprocess bool
	state        SessionState
	lastStop     target.StopReason

	// pendingReverse is set by dispatchFrame when a 'bc'/'bs' command is
	// decoded, and consumed by Run on the next transition into
	// StateRunning to pick which Target method drives the resume.
	pendingReverse reverseKind
}

func newSession(conn Connection, bufSize int, noAck bool) *Session {
	return &Session{
		conn:   conn,
		buf:    make([]byte, bufSize),
		framer: protocol.NewFramer(bufSize),
		writer: protocol.NewWriter(conn, false),
		noAck:  noAck,
		// Before the target has run at all, '?' reports SIGTRAP, matching
		// the value vAttach/vRun use for a freshly attached process.
		lastStop: target.StopReason{Kind: target.StopSignal, Signal: 5},
	}
}

// State reports the session's current phase.
func (s *Session) State() SessionState { return s.state }

type resumeResult struct {
	reason target.StopReason
	err    error
}

// reverseKind tells Run's StateRunning step which Target method to drive:
// the normal Resume, or one of the reverse-execution operations triggered
// by the legacy 'bc'/'bs' packets.
type reverseKind int

const (
	reverseKindNone reverseKind = iota
	reverseKindContinue
	reverseKindStep
)

// Run drives the session to completion against tgt: reads client bytes,
// dispatches commands, and resumes tgt's execution as instructed, blocking
// until the client detaches, kills the target, or the connection fails.
//
// A background goroutine owns the blocking ReadByte calls so that an
// interrupt byte (0x03) arriving while tgt is running can cancel the
// context passed to Target.Resume without the read and the resume racing
// each other directly.
func (s *Session) Run(ctx context.Context, tgt target.Target) (DisconnectReason, error) {
	bytesCh := make(chan byte)
	readErrCh := make(chan error, 1)
	go func() {
		for {
			b, err := s.conn.ReadByte()
			if err != nil {
				readErrCh <- err
				return
			}
			bytesCh <- b
		}
	}()

	s.state = StateIdle
	defer func() { s.state = StateDisconnected }()
	var pendingActions map[uint64]target.ThreadResumeAction
	var pendingReverse reverseKind

	for {
		switch s.state {
		case StateIdle:
			select {
			case b := <-bytesCh:
				actions, reason, done, err := s.handleByte(tgt, b)
				if err != nil {
					return 0, err
				}
				if done {
					return reason, nil
				}
				if actions != nil {
					pendingActions = actions
					pendingReverse = s.pendingReverse
					s.pendingReverse = reverseKindNone
					s.state = StateRunning
				}
			case err := <-readErrCh:
				return 0, fmt.Errorf("%w: %v", ErrConnectionRead, err)
			case <-ctx.Done():
				return 0, ctx.Err()
			}

		case StateRunning:
			resumeCtx, cancel := context.WithCancel(ctx)
			resultCh := make(chan resumeResult, 1)
			kind := pendingReverse
			go func() {
				var sr target.StopReason
				var err error
				switch kind {
				case reverseKindContinue:
					sr, err = tgt.(target.ReverseExecTarget).SupportsReverseExec().ReverseContinue(resumeCtx)
				case reverseKindStep:
					sr, err = tgt.(target.ReverseExecTarget).SupportsReverseExec().ReverseStep(resumeCtx, defaultThreadID)
				default:
					sr, err = tgt.Resume(resumeCtx, pendingActions)
				}
				resultCh <- resumeResult{sr, err}
			}()

			for s.state == StateRunning || s.state == StateCtrlCInterrupt {
				select {
				case b := <-bytesCh:
					if b == 0x03 {
						s.state = StateCtrlCInterrupt
						cancel()
					}
					// Any other byte arriving mid-resume is not valid RSP
					// (the client is expected to wait for a stop reply) and
					// is dropped.
				case err := <-readErrCh:
					cancel()
					<-resultCh
					return 0, fmt.Errorf("%w: %v", ErrConnectionRead, err)
				case res := <-resultCh:
					cancel()
					if res.err != nil {
						return 0, classifyTargetErr(res.err)
					}
					s.lastStop = res.reason
					if err := s.replyStop(res.reason); err != nil {
						return 0, err
					}
					s.state = StateIdle
				case <-ctx.Done():
					cancel()
					<-resultCh
					return 0, ctx.Err()
				}
			}
		}
	}
}

// classifyTargetErr wraps an error returned from Target.Resume, which may
// only fail fatally or with an I/O error — a target that merely wants to
// report a transient failure should do so via a StopReason, not an error.
func classifyTargetErr(err error) error {
	return fmt.Errorf("%w: %v", ErrTargetFatal, err)
}

// handleByte feeds one transport byte through the framer and, once a full
// frame arrives, dispatches it. actions is non-nil when the command just
// dispatched should transition the session into StateRunning.
func (s *Session) handleByte(tgt target.Target, b byte) (actions map[uint64]target.ThreadResumeAction, reason DisconnectReason, done bool, err error) {
	ev, perr := s.framer.Pump(s.buf, b)
	if perr != nil {
		return nil, 0, false, fmt.Errorf("%w: %v", ErrPacketBufferOverflow, perr)
	}
	switch ev.Kind {
	case protocol.EventNone, protocol.EventAck, protocol.EventNak:
		return nil, 0, false, nil
	case protocol.EventInterrupt:
		// A lone interrupt byte while idle has nothing to interrupt.
		return nil, 0, false, nil
	case protocol.EventChecksumMismatch:
		if !s.noAck {
			if werr := s.conn.WriteByte('-'); werr != nil {
				return nil, 0, false, fmt.Errorf("%w: %v", ErrConnectionWrite, werr)
			}
			if werr := s.conn.Flush(); werr != nil {
				return nil, 0, false, fmt.Errorf("%w: %v", ErrConnectionWrite, werr)
			}
		}
		return nil, 0, false, nil
	case protocol.EventFrame:
		if !s.noAck {
			if werr := s.conn.WriteByte('+'); werr != nil {
				return nil, 0, false, fmt.Errorf("%w: %v", ErrConnectionWrite, werr)
			}
		}
		return s.dispatchFrame(tgt, ev.Body)
	}
	return nil, 0, false, nil
}

// dispatchFrame decodes and executes a single command body, writing the
// reply (if any) before returning. A non-nil actions map tells Run to enter
// StateRunning.
func (s *Session) dispatchFrame(tgt target.Target, body []byte) (actions map[uint64]target.ThreadResumeAction, reason DisconnectReason, done bool, err error) {
	cmd, perr := command.Dispatch(body)
	if perr != nil {
		if werr := s.sendEmpty(); werr != nil {
			return nil, 0, false, werr
		}
		return nil, 0, false, nil
	}

	switch c := cmd.(type) {
	case command.QueryStopReason:
		err = s.replyStop(s.lastStop)
	case command.ExtendedModeEnable:
		s.extendedMode = true
		err = s.replyOK()

	case command.ReadRegisters:
		err = s.handleReadRegisters(tgt)
	case command.WriteRegisters:
		err = s.handleWriteRegisters(tgt, c)
	case command.ReadRegister:
		err = s.handleReadRegister(tgt, c)
	case command.WriteRegister:
		err = s.handleWriteRegister(tgt, c)

	case command.ReadMemory:
		err = s.handleReadMemory(tgt, c)
	case command.WriteMemoryHex:
		err = s.handleWriteMemory(tgt, c.Addr, c.Data)
	case command.WriteMemoryBinary:
		err = s.handleWriteMemory(tgt, c.Addr, c.Data)

	case command.ContinueLegacy:
		actions = allThreadsAction(target.ResumeContinue, 0, false)
	case command.StepLegacy:
		actions = allThreadsAction(target.ResumeStep, 0, false)
	case command.ContinueWithSignal:
		if !resumeSignalSupported(tgt) {
			err = s.replyErr(1)
		} else {
			actions = allThreadsAction(target.ResumeContinue, c.Signal, true)
		}
	case command.StepWithSignal:
		if !resumeSignalSupported(tgt) {
			err = s.replyErr(1)
		} else {
			actions = allThreadsAction(target.ResumeStep, c.Signal, true)
		}
	case command.VContQuery:
		err = s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("vCont;c;C;s;S;t") })
	case command.VCont:
		actions = resumeActionsFromVCont(c)

	case command.BreakpointSet:
		err = s.handleBreakpoint(tgt, c.Kind, c.Addr, c.Size, true)
	case command.BreakpointRemove:
		err = s.handleBreakpoint(tgt, c.Kind, c.Addr, c.Size, false)

	case command.QSupported:
		s.multiprocess = c.Requested[command.FeatureMultiprocess]
		err = s.replyWith(func(w *protocol.Writer) error {
			resp := "PacketSize=" + hexLen(len(s.buf)) +
				";qXfer:features:read+;qXfer:memory-map:read+;QStartNoAckMode+;vContSupported+"
			if s.multiprocess {
				resp += ";multiprocess+"
			}
			return w.WriteStr(resp)
		})
	case command.QStartNoAckMode:
		s.noAck = true
		err = s.replyOK()
	case command.QXferRead:
		err = s.handleQXfer(tgt, c)
	case command.QRcmd:
		err = s.handleMonitorCmd(tgt, c)

	case command.SetThread:
		err = s.replyOK()
	case command.Detach:
		if werr := s.replyOK(); werr != nil {
			return nil, 0, false, werr
		}
		return nil, DisconnectClientRequest, true, nil
	case command.KillLegacy:
		return nil, DisconnectKill, true, nil
	case command.VKill:
		if ext, ok := tgt.(target.ExtendedModeTarget); ok {
			_ = ext.SupportsExtendedMode().Kill(c.PID)
		}
		if werr := s.replyOK(); werr != nil {
			return nil, 0, false, werr
		}
		return nil, DisconnectKill, true, nil
	case command.VAttach:
		err = s.handleVAttach(tgt, c)
	case command.VRun:
		err = s.handleVRun(tgt, c)

	case command.QC:
		err = s.replyWith(func(w *protocol.Writer) error {
			if err := w.WriteStr("QC"); err != nil {
				return err
			}
			return s.writeThreadID(w, defaultThreadID)
		})
	case command.QFirstThreadInfo:
		err = s.handleThreadInfo(tgt, true)
	case command.QSubsequentThreadInfo:
		err = s.handleThreadInfo(tgt, false)
	case command.ThreadAlive:
		err = s.handleThreadAlive(tgt, c)
	case command.QOffsets:
		err = s.handleQOffsets(tgt)
	case command.QAttached:
		err = s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("1") })
	case command.QSymbol:
		err = s.replyOK()
	case command.QThreadExtraInfo:
		err = s.handleThreadExtraInfo(tgt, c)
	case command.VFile:
		err = s.handleVFile(tgt, c)

	case command.ReverseContinue:
		if _, ok := tgt.(target.ReverseExecTarget); !ok {
			err = s.replyErr(1)
		} else {
			s.pendingReverse = reverseKindContinue
			actions = map[uint64]target.ThreadResumeAction{}
		}
	case command.ReverseStep:
		if _, ok := tgt.(target.ReverseExecTarget); !ok {
			err = s.replyErr(1)
		} else {
			s.pendingReverse = reverseKindStep
			actions = map[uint64]target.ThreadResumeAction{}
		}
	case command.QCatchSyscalls:
		err = s.handleCatchSyscalls(tgt, c)

	default:
		err = s.sendEmpty()
	}
	return actions, 0, false, err
}

// resumeSignalSupported reports whether tgt opts into delivering an
// explicit signal on resume via the optional ResumeSignalTarget capability.
func resumeSignalSupported(tgt target.Target) bool {
	rs, ok := tgt.(target.ResumeSignalTarget)
	return ok && rs.SupportsResumeSignal()
}

// allThreadsAction builds a resume-action map using only the wildcard
// thread entry, the map shape Target.Resume uses for "do this to every
// thread" (the legacy c/s/C/S packets carry no thread selector).
func allThreadsAction(op target.ThreadResumeOp, sig uint8, hasSig bool) map[uint64]target.ThreadResumeAction {
	return map[uint64]target.ThreadResumeAction{
		0: {Op: op, Signal: sig, HasSignal: hasSig},
	}
}

func resumeActionsFromVCont(c command.VCont) map[uint64]target.ThreadResumeAction {
	actions := make(map[uint64]target.ThreadResumeAction, len(c.Entries))
	for _, e := range c.Entries {
		var tid uint64 // 0 == wildcard
		if e.Thread != nil && e.Thread.TID.Kind == protocol.SelectorID {
			tid = e.Thread.TID.ID
		}
		var op target.ThreadResumeOp
		var sig uint8
		var hasSig bool
		switch e.Kind {
		case command.ResumeContinue:
			op = target.ResumeContinue
		case command.ResumeContinueSignal:
			op = target.ResumeContinue
			sig, hasSig = e.Signal, true
		case command.ResumeStep:
			op = target.ResumeStep
		case command.ResumeStepSignal:
			op = target.ResumeStep
			sig, hasSig = e.Signal, true
		case command.ResumeStepRange:
			op = target.ResumeStepRange
		case command.ResumeStop:
			continue
		}
		actions[tid] = target.ThreadResumeAction{Op: op, Signal: sig, HasSignal: hasSig, RangeStart: e.RangeStart, RangeEnd: e.RangeEnd}
	}
	return actions
}

func hexLen(n int) string {
	return fmt.Sprintf("%x", n)
}

func (s *Session) replyOK() error {
	return s.replyWith(func(w *protocol.Writer) error { return w.WriteStr("OK") })
}

func (s *Session) sendEmpty() error {
	return s.replyWith(func(w *protocol.Writer) error { return nil })
}

func (s *Session) replyErr(code uint8) error {
	return s.replyWith(func(w *protocol.Writer) error {
		if err := w.WriteByte('E'); err != nil {
			return err
		}
		return w.WriteHexByte(code)
	})
}

func (s *Session) replyWith(fn func(w *protocol.Writer) error) error {
	if err := s.writer.Begin(); err != nil {
		return err
	}
	if err := fn(s.writer); err != nil {
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionWrite, err)
	}
	return nil
}

func (s *Session) replyStop(sr target.StopReason) error {
	return s.replyWith(func(w *protocol.Writer) error { return s.writeStopReply(w, sr) })
}

func targetErrCode(err error) uint8 {
	if te, ok := err.(*target.Error); ok {
		return te.Code
	}
	return 1
}
