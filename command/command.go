// Package command decodes a validated RSP packet body into one of a closed
// set of typed command variants. Decoding is zero-copy: byte-slice fields
// borrow from (and, for hex fields, are decoded in place over) the caller's
// packet buffer, so a Command must not outlive the buffer it was parsed
// from.
package command

import "github.com/daniel5151/gdbstub-sub001/protocol"

// Command is implemented by every decoded command variant. The marker
// method keeps the set closed to this package.
type Command interface {
	command()
}

type base struct{}

func (base) command() {}

// QueryStopReason is '?': report why execution last stopped.
type QueryStopReason struct{ base }

// ExtendedModeEnable is '!': enable extended ('multi-process') mode.
type ExtendedModeEnable struct{ base }

// ReadRegisters is 'g': read the whole register bank.
type ReadRegisters struct{ base }

// WriteRegisters is 'G': write the whole register bank. Data has already
// been hex-decoded in place.
type WriteRegisters struct {
	base
	Data []byte
}

// ReadRegister is 'p': read a single register by GDB register index.
type ReadRegister struct {
	base
	RegNum uint64
}

// WriteRegister is 'P': write a single register by GDB register index.
type WriteRegister struct {
	base
	RegNum uint64
	Value  []byte
}

// ReadMemory is 'm addr,len'.
type ReadMemory struct {
	base
	Addr uint64
	Len  uint64
}

// WriteMemoryHex is 'M addr,len:data' (hex-encoded payload).
type WriteMemoryHex struct {
	base
	Addr uint64
	Len  uint64
	Data []byte
}

// WriteMemoryBinary is 'X addr,len:data' (binary-escaped payload).
type WriteMemoryBinary struct {
	base
	Addr uint64
	Len  uint64
	Data []byte
}

// ContinueLegacy is 'c [addr]'.
type ContinueLegacy struct {
	base
	Addr    uint64
	HasAddr bool
}

// StepLegacy is 's [addr]'.
type StepLegacy struct {
	base
	Addr    uint64
	HasAddr bool
}

// ContinueWithSignal is 'C sig[;addr]'.
type ContinueWithSignal struct {
	base
	Signal  uint8
	Addr    uint64
	HasAddr bool
}

// StepWithSignal is 'S sig[;addr]'.
type StepWithSignal struct {
	base
	Signal  uint8
	Addr    uint64
	HasAddr bool
}

// VContQuery is 'vCont?': ask which resume actions the stub supports.
type VContQuery struct{ base }

// ResumeKind enumerates the action half of a vCont entry.
type ResumeKind int

const (
	ResumeContinue ResumeKind = iota
	ResumeContinueSignal
	ResumeStep
	ResumeStepSignal
	ResumeStepRange
	ResumeStop
)

// ResumeEntry is one ';action[:thread-id]' clause of a vCont command.
type ResumeEntry struct {
	Kind       ResumeKind
	Signal     uint8
	RangeStart uint64
	RangeEnd   uint64
	Thread     *protocol.ThreadID // nil means "applies to all threads not otherwise addressed"
}

// VCont is 'vCont;entry;entry;...'.
type VCont struct {
	base
	Entries []ResumeEntry
}

// BreakpointKind distinguishes the five Z/z sub-types.
type BreakpointKind int

const (
	BreakpointSoftware BreakpointKind = iota
	BreakpointHardware
	WatchpointWrite
	WatchpointRead
	WatchpointAccess
)

// BreakpointSet is 'Z type,addr,kind'.
type BreakpointSet struct {
	base
	Kind BreakpointKind
	Addr uint64
	Size uint64
}

// BreakpointRemove is 'z type,addr,kind'.
type BreakpointRemove struct {
	base
	Kind BreakpointKind
	Addr uint64
	Size uint64
}

// Feature is a client-advertised qSupported flag this stub understands.
type Feature int

const (
	FeatureMultiprocess Feature = iota
)

// QSupported is 'qSupported:feat1;feat2;...'.
type QSupported struct {
	base
	Requested map[Feature]bool
}

// QStartNoAckMode is 'QStartNoAckMode'.
type QStartNoAckMode struct{ base }

// QXferRead is 'qXfer:object:read:annex:offset,length'.
type QXferRead struct {
	base
	Object string
	Annex  []byte
	Offset uint64
	Length uint64
}

// QRcmd is 'qRcmd,hex-encoded-command' (decoded in place).
type QRcmd struct {
	base
	Cmd []byte
}

// HOp distinguishes Hc (resume-thread) from Hg (memory-thread) selections.
type HOp int

const (
	HOpResumeThread HOp = iota
	HOpMemoryThread
)

// SetThread is 'Hc thread-id' / 'Hg thread-id'.
type SetThread struct {
	base
	Op     HOp
	Thread protocol.Selector
}

// Detach is 'D' or 'D;pid'.
type Detach struct {
	base
	PID    uint64
	HasPID bool
}

// KillLegacy is 'k'.
type KillLegacy struct{ base }

// VKill is 'vKill;pid'.
type VKill struct {
	base
	PID uint64
}

// VAttach is 'vAttach;pid'.
type VAttach struct {
	base
	PID uint64
}

// VRun is 'vRun;filename;arg1;arg2;...' (filename/args hex-decoded).
type VRun struct {
	base
	Filename []byte
	HasName  bool
	Args     [][]byte
}

// QC is 'qC': report the current thread id.
type QC struct{ base }

// QFirstThreadInfo is 'qfThreadInfo'.
type QFirstThreadInfo struct{ base }

// QSubsequentThreadInfo is 'qsThreadInfo'.
type QSubsequentThreadInfo struct{ base }

// ThreadAlive is 'T thread-id'.
type ThreadAlive struct {
	base
	Thread protocol.ThreadID
}

// QOffsets is 'qOffsets'.
type QOffsets struct{ base }

// QAttached is 'qAttached' or 'qAttached:pid'.
type QAttached struct {
	base
	PID    uint64
	HasPID bool
}

// QSymbol is 'qSymbol::' or 'qSymbol:value:name' — the stub always replies
// "OK" (it never requests symbol lookups), so only the keyword is decoded.
type QSymbol struct{ base }

// QThreadExtraInfo is 'qThreadExtraInfo,thread-id'.
type QThreadExtraInfo struct {
	base
	Thread protocol.ThreadID
}

// VFileOp distinguishes the vFile:* Host I/O sub-commands.
type VFileOp int

const (
	VFileOpen VFileOp = iota
	VFileClose
	VFilePread
	VFilePwrite
	VFileReadlink
	VFileUnlink
	VFileSetfs
	VFileFstat
)

// VFile is any 'vFile:<op>:...' Host I/O command; field meaning depends on
// Op.
type VFile struct {
	base
	Op       VFileOp
	Filename []byte
	Flags    uint64
	Mode     uint64
	FD       uint64
	Offset   uint64
	Count    uint64
	Data     []byte
	PID      uint64
}

// ReverseContinue is 'bc', the legacy reverse-continue request.
type ReverseContinue struct{ base }

// ReverseStep is 'bs', the legacy reverse-step request.
type ReverseStep struct{ base }

// CatchSyscallMode distinguishes the three QCatchSyscalls forms.
type CatchSyscallMode int

const (
	CatchSyscallDisable CatchSyscallMode = iota
	CatchSyscallEnableAll
	CatchSyscallEnable
)

// QCatchSyscalls is 'QCatchSyscalls:0', 'QCatchSyscalls:1', or
// 'QCatchSyscalls:1;sysno;sysno;...'.
type QCatchSyscalls struct {
	base
	Mode    CatchSyscallMode
	Numbers []uint64
}
