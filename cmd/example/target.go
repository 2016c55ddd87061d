package main

import (
	"context"
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/arch/armv7m"
	"github.com/daniel5151/gdbstub-sub001/hostio"
	"github.com/daniel5151/gdbstub-sub001/target"
)

// exampleTarget adapts vm to target.Target and the optional capability
// interfaces the demo wires up: single-register access, breakpoints, the
// memory map and target description XML, a monitor command, and host file
// I/O via hostio.Host.
type exampleTarget struct {
	vm       *vm
	host     *hostio.Host
	flashLen int
	pageSize int
}

func newExampleTarget(m *vm, flashLen, pageSize int) *exampleTarget {
	return &exampleTarget{vm: m, host: hostio.NewHost(), flashLen: flashLen, pageSize: pageSize}
}

var _ target.Target = (*exampleTarget)(nil)

func (t *exampleTarget) Architecture() target.Arch { return target.ArchARMv7M }

func (t *exampleTarget) regBank() *armv7m.Registers {
	r := t.vm.regs
	return &armv7m.Registers{
		R:    [13]uint32{r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7], r[8], r[9], r[10], r[11], r[12]},
		SP:   r[13],
		LR:   r[14],
		PC:   r[15],
		XPSR: r[16],
	}
}

func (t *exampleTarget) ReadRegisters(tid uint64, dst []byte) (int, error) {
	regs := t.regBank()
	if len(dst) < regs.WireSize() {
		return 0, fmt.Errorf("example: register buffer too small")
	}
	regs.WriteWire(dst[:regs.WireSize()])
	return regs.WireSize(), nil
}

func (t *exampleTarget) WriteRegisters(tid uint64, data []byte) error {
	var regs armv7m.Registers
	if err := regs.ReadWire(data); err != nil {
		return err
	}
	copy(t.vm.regs[0:13], regs.R[:])
	t.vm.regs[13] = regs.SP
	t.vm.regs[14] = regs.LR
	t.vm.regs[15] = regs.PC
	t.vm.regs[16] = regs.XPSR
	return nil
}

func (t *exampleTarget) ReadMemory(addr uint64, dst []byte) (int, error) {
	return t.vm.readMem(uint32(addr), dst), nil
}

func (t *exampleTarget) WriteMemory(addr uint64, data []byte) error {
	return t.vm.writeMem(uint32(addr), data)
}

// Resume services both 'c'/'s' (legacy) and vCont. It uses the
// wildcard-keyed action when present, and otherwise any one entry (a vCont
// that names a thread keys its action by that thread id).
func (t *exampleTarget) Resume(ctx context.Context, actions map[uint64]target.ThreadResumeAction) (target.StopReason, error) {
	action, ok := actions[0]
	if !ok {
		for _, a := range actions {
			action = a
			break
		}
	}

	if action.Op == target.ResumeStep {
		t.vm.step()
		return target.StopReason{Kind: target.StopDoneStep}, nil
	}

	for {
		select {
		case <-ctx.Done():
			return target.StopReason{Kind: target.StopGdbInterrupt}, nil
		default:
		}
		t.vm.step()
		if t.vm.hitBreakpoint() {
			return target.StopReason{Kind: target.StopSwBreak}, nil
		}
		if int(t.vm.regs[15]) >= t.flashLen {
			return target.StopReason{Kind: target.StopExited, ExitCode: 0}, nil
		}
	}
}

// SingleRegisterOps

var _ target.SingleRegisterTarget = (*exampleTarget)(nil)

func (t *exampleTarget) SupportsSingleRegisterAccess() target.SingleRegisterOps { return t }

func (t *exampleTarget) ReadRegister(tid uint64, regID uint64, dst []byte) (int, error) {
	offset, width, ok := armv7m.RegID{}.FromRawID(regID)
	if !ok {
		return 0, target.ErrUnsupported
	}
	regs := t.regBank()
	buf := make([]byte, regs.WireSize())
	regs.WriteWire(buf)
	return copy(dst, buf[offset:offset+int(width)]), nil
}

func (t *exampleTarget) WriteRegister(tid uint64, regID uint64, data []byte) error {
	offset, width, ok := armv7m.RegID{}.FromRawID(regID)
	if !ok {
		return target.ErrUnsupported
	}
	buf := make([]byte, t.regBank().WireSize())
	regs := t.regBank()
	regs.WriteWire(buf)
	copy(buf[offset:offset+int(width)], data)
	if err := regs.ReadWire(buf); err != nil {
		return err
	}
	return t.WriteRegisters(tid, buf)
}

// BreakpointOps

var _ target.BreakpointTarget = (*exampleTarget)(nil)

func (t *exampleTarget) SupportsBreakpoints() target.BreakpointOps { return t }

func (t *exampleTarget) AddSoftwareBreakpoint(addr uint64, kind uint64) (bool, error) {
	t.vm.breakpoints[uint32(addr)] = true
	return true, nil
}

func (t *exampleTarget) RemoveSoftwareBreakpoint(addr uint64, kind uint64) (bool, error) {
	delete(t.vm.breakpoints, uint32(addr))
	return true, nil
}

// MemoryMapOps, grounded on the teacher's gdbAnnexMemoryMap template.

var _ target.MemoryMapTarget = (*exampleTarget)(nil)

func (t *exampleTarget) SupportsMemoryMap() target.MemoryMapOps { return t }

func (t *exampleTarget) MemoryMapXML() ([]byte, error) {
	xml := fmt.Sprintf(`<memory-map>
<memory type="flash" start="0x0" length="0x%x">
<property name="blocksize">0x%x</property>
</memory>
<memory type="ram" start="0x20000000" length="0x%x"/>
</memory-map>
`, t.flashLen, t.pageSize, len(t.vm.ram))
	return []byte(xml), nil
}

// TargetDescriptionOps, grounded on the teacher's gdbAnnexTarget template.

var _ target.TargetDescriptionTarget = (*exampleTarget)(nil)

func (t *exampleTarget) SupportsTargetDescription() target.TargetDescriptionOps { return t }

func (t *exampleTarget) TargetDescriptionXML() ([]byte, error) {
	return []byte(armv7mTargetXML), nil
}

const armv7mTargetXML = `<?xml version="1.0"?>
<!DOCTYPE target SYSTEM "gdb-target.dtd">
<target version="1.0">
<feature name="org.gnu.gdb.arm.m-profile">
<reg name="r0" bitsize="32" regnum="0" save-restore="yes" type="int" group="general"/>
<reg name="r1" bitsize="32" regnum="1" save-restore="yes" type="int" group="general"/>
<reg name="r2" bitsize="32" regnum="2" save-restore="yes" type="int" group="general"/>
<reg name="r3" bitsize="32" regnum="3" save-restore="yes" type="int" group="general"/>
<reg name="r4" bitsize="32" regnum="4" save-restore="yes" type="int" group="general"/>
<reg name="r5" bitsize="32" regnum="5" save-restore="yes" type="int" group="general"/>
<reg name="r6" bitsize="32" regnum="6" save-restore="yes" type="int" group="general"/>
<reg name="r7" bitsize="32" regnum="7" save-restore="yes" type="int" group="general"/>
<reg name="r8" bitsize="32" regnum="8" save-restore="yes" type="int" group="general"/>
<reg name="r9" bitsize="32" regnum="9" save-restore="yes" type="int" group="general"/>
<reg name="r10" bitsize="32" regnum="10" save-restore="yes" type="int" group="general"/>
<reg name="r11" bitsize="32" regnum="11" save-restore="yes" type="int" group="general"/>
<reg name="r12" bitsize="32" regnum="12" save-restore="yes" type="int" group="general"/>
<reg name="sp" bitsize="32" regnum="13" save-restore="yes" type="data_ptr" group="general"/>
<reg name="lr" bitsize="32" regnum="14" save-restore="yes" type="int" group="general"/>
<reg name="pc" bitsize="32" regnum="15" save-restore="yes" type="code_ptr" group="general"/>
<reg name="xPSR" bitsize="32" regnum="16" save-restore="yes" type="int" group="general"/>
</feature>
</target>
`

// MonitorCmdOps: a trivial console that reports vm state, in the spirit of
// the kind of target-specific diagnostics real monitor commands expose.

var _ target.MonitorCmdTarget = (*exampleTarget)(nil)

func (t *exampleTarget) SupportsMonitorCmd() target.MonitorCmdOps { return t }

func (t *exampleTarget) HandleCommand(cmd []byte, out func([]byte)) error {
	switch string(cmd) {
	case "status":
		out([]byte(fmt.Sprintf("pc=%#x sp=%#x halted=%v\n", t.vm.regs[15], t.vm.regs[13], t.vm.halted)))
	default:
		out([]byte("unknown monitor command\n"))
	}
	return nil
}

// HostIOOps delegates straight to hostio.Host, the generic vFile:* implementation.

var _ target.HostIOTarget = (*exampleTarget)(nil)

func (t *exampleTarget) SupportsHostIO() target.HostIOOps { return t.host }
