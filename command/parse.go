package command

import (
	"bytes"
	"fmt"

	"github.com/daniel5151/gdbstub-sub001/protocol"
)

// ErrMalformedCommand is wrapped by every command-specific parse failure.
var ErrMalformedCommand = fmt.Errorf("malformed command")

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedCommand, fmt.Sprintf(format, args...))
}

// splitOn finds the first occurrence of sep in buf and returns the pieces on
// either side of it. ok is false if sep does not occur.
func splitOn(buf []byte, sep byte) (head, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, sep)
	if i < 0 {
		return buf, nil, false
	}
	return buf[:i], buf[i+1:], true
}

func parseHexU64(buf []byte) (uint64, error) {
	v, err := protocol.DecodeHexU64(buf)
	if err != nil {
		return 0, malformed("bad hex integer %q", buf)
	}
	return v, nil
}

// parseAddrLen parses the common "addr,len" prefix shared by m/M/X/Z/z.
func parseAddrLen(buf []byte) (addr, length uint64, rest []byte, err error) {
	addrField, rest, ok := splitOn(buf, ',')
	if !ok {
		return 0, 0, nil, malformed("missing ',' in %q", buf)
	}
	addr, err = parseHexU64(addrField)
	if err != nil {
		return 0, 0, nil, err
	}
	lenField, tail, hasColon := splitOn(rest, ':')
	if !hasColon {
		lenField = rest
		tail = nil
	}
	length, err = parseHexU64(lenField)
	if err != nil {
		return 0, 0, nil, err
	}
	return addr, length, tail, nil
}

func parseBreakpointKind(typeByte byte) (BreakpointKind, error) {
	switch typeByte {
	case '0':
		return BreakpointSoftware, nil
	case '1':
		return BreakpointHardware, nil
	case '2':
		return WatchpointWrite, nil
	case '3':
		return WatchpointRead, nil
	case '4':
		return WatchpointAccess, nil
	default:
		return 0, malformed("unknown breakpoint type %q", typeByte)
	}
}

func parseZPacket(buf []byte, remove bool) (Command, error) {
	if len(buf) < 2 || buf[1] != ',' {
		return nil, malformed("malformed Z/z packet %q", buf)
	}
	kind, err := parseBreakpointKind(buf[0])
	if err != nil {
		return nil, err
	}
	addr, size, _, err := parseAddrLen(buf[2:])
	if err != nil {
		return nil, err
	}
	if remove {
		return BreakpointRemove{Kind: kind, Addr: addr, Size: size}, nil
	}
	return BreakpointSet{Kind: kind, Addr: addr, Size: size}, nil
}

// parseOptAddr parses the optional trailing hex address on legacy c/s
// packets: "" or "<hexaddr>".
func parseOptAddr(buf []byte) (addr uint64, has bool, err error) {
	if len(buf) == 0 {
		return 0, false, nil
	}
	addr, err = parseHexU64(buf)
	if err != nil {
		return 0, false, err
	}
	return addr, true, nil
}

// parseSignalAndAddr parses "sig" or "sig;addr" for C/S packets. sig is two
// hex digits.
func parseSignalAndAddr(buf []byte) (sig uint8, addr uint64, has bool, err error) {
	if len(buf) < 2 {
		return 0, 0, false, malformed("missing signal in %q", buf)
	}
	s, err := parseHexU64(buf[:2])
	if err != nil {
		return 0, 0, false, err
	}
	rest := buf[2:]
	if len(rest) == 0 {
		return uint8(s), 0, false, nil
	}
	if rest[0] != ';' {
		return 0, 0, false, malformed("expected ';' before address in %q", buf)
	}
	addr, err = parseHexU64(rest[1:])
	if err != nil {
		return 0, 0, false, err
	}
	return uint8(s), addr, true, nil
}

func parseResumeKind(action []byte) (ResumeEntry, []byte, error) {
	if len(action) == 0 {
		return ResumeEntry{}, nil, malformed("empty vCont action")
	}
	switch action[0] {
	case 'c':
		return ResumeEntry{Kind: ResumeContinue}, action[1:], nil
	case 's':
		return ResumeEntry{Kind: ResumeStep}, action[1:], nil
	case 't':
		return ResumeEntry{Kind: ResumeStop}, action[1:], nil
	case 'C':
		sig, err := parseHexU64(action[1:3])
		if err != nil {
			return ResumeEntry{}, nil, err
		}
		return ResumeEntry{Kind: ResumeContinueSignal, Signal: uint8(sig)}, action[3:], nil
	case 'S':
		sig, err := parseHexU64(action[1:3])
		if err != nil {
			return ResumeEntry{}, nil, err
		}
		return ResumeEntry{Kind: ResumeStepSignal, Signal: uint8(sig)}, action[3:], nil
	case 'r':
		rangeField, remainder, _ := splitOn(action[1:], ':')
		start, end, ok := splitOn(rangeField, ',')
		if !ok {
			return ResumeEntry{}, nil, malformed("malformed range in vCont action %q", action)
		}
		startAddr, err := parseHexU64(start)
		if err != nil {
			return ResumeEntry{}, nil, err
		}
		endAddr, err := parseHexU64(end)
		if err != nil {
			return ResumeEntry{}, nil, err
		}
		return ResumeEntry{Kind: ResumeStepRange, RangeStart: startAddr, RangeEnd: endAddr}, remainder, nil
	default:
		return ResumeEntry{}, nil, malformed("unknown vCont action %q", action)
	}
}

func parseVCont(buf []byte) (Command, error) {
	var entries []ResumeEntry
	for len(buf) > 0 {
		if buf[0] != ';' {
			return nil, malformed("expected ';' in vCont body %q", buf)
		}
		buf = buf[1:]
		clause, rest, hasMore := splitOn(buf, ';')
		if !hasMore {
			clause = buf
			rest = nil
		} else {
			rest = append([]byte{';'}, rest...)
		}
		entry, tail, err := parseResumeKind(clause)
		if err != nil {
			return nil, err
		}
		if len(tail) > 0 {
			if tail[0] != ':' {
				return nil, malformed("expected ':' before thread-id in %q", clause)
			}
			tid, err := protocol.ParseThreadID(tail[1:])
			if err != nil {
				return nil, err
			}
			entry.Thread = &tid
		}
		entries = append(entries, entry)
		buf = rest
	}
	return VCont{Entries: entries}, nil
}

func parseQSupported(buf []byte) (Command, error) {
	req := make(map[Feature]bool)
	if len(buf) == 0 {
		return QSupported{Requested: req}, nil
	}
	for _, field := range bytes.Split(buf, []byte{';'}) {
		if bytes.Equal(field, []byte("multiprocess+")) {
			req[FeatureMultiprocess] = true
		}
	}
	return QSupported{Requested: req}, nil
}

func parseQXfer(buf []byte) (Command, error) {
	// qXfer:object:read:annex:offset,length
	object, rest, ok := splitOn(buf, ':')
	if !ok {
		return nil, malformed("malformed qXfer %q", buf)
	}
	op, rest, ok := splitOn(rest, ':')
	if !ok || string(op) != "read" {
		return nil, malformed("unsupported qXfer operation in %q", buf)
	}
	annex, rest, ok := splitOn(rest, ':')
	if !ok {
		return nil, malformed("malformed qXfer %q", buf)
	}
	offField, lenField, ok := splitOn(rest, ',')
	if !ok {
		return nil, malformed("malformed qXfer offset,length in %q", rest)
	}
	offset, err := parseHexU64(offField)
	if err != nil {
		return nil, err
	}
	length, err := parseHexU64(lenField)
	if err != nil {
		return nil, err
	}
	return QXferRead{Object: string(object), Annex: annex, Offset: offset, Length: length}, nil
}

func parseHPacket(buf []byte) (Command, error) {
	if len(buf) == 0 {
		return nil, malformed("empty H packet")
	}
	var op HOp
	switch buf[0] {
	case 'c':
		op = HOpResumeThread
	case 'g':
		op = HOpMemoryThread
	default:
		return nil, malformed("unknown H sub-op %q", buf[0])
	}
	sel, err := protocol.ParseSelector(buf[1:])
	if err != nil {
		return nil, err
	}
	return SetThread{Op: op, Thread: sel}, nil
}

func parseDetach(buf []byte) (Command, error) {
	if len(buf) == 0 {
		return Detach{}, nil
	}
	if buf[0] != ';' {
		return nil, malformed("malformed D packet %q", buf)
	}
	pid, err := parseHexU64(buf[1:])
	if err != nil {
		return nil, err
	}
	return Detach{PID: pid, HasPID: true}, nil
}

func parseVKill(buf []byte) (Command, error) {
	_, pidField, ok := splitOn(buf, ';')
	if !ok {
		return nil, malformed("malformed vKill %q", buf)
	}
	pid, err := parseHexU64(pidField)
	if err != nil {
		return nil, err
	}
	return VKill{PID: pid}, nil
}

func parseVAttach(buf []byte) (Command, error) {
	_, pidField, ok := splitOn(buf, ';')
	if !ok {
		return nil, malformed("malformed vAttach %q", buf)
	}
	pid, err := parseHexU64(pidField)
	if err != nil {
		return nil, err
	}
	return VAttach{PID: pid}, nil
}

func parseVRun(buf []byte) (Command, error) {
	// vRun;filename;arg1;arg2  (filename/args are hex-encoded, possibly empty)
	_, rest, ok := splitOn(buf, ';')
	if !ok {
		return VRun{}, nil
	}
	fields := bytes.Split(rest, []byte{';'})
	v := VRun{}
	if len(fields[0]) > 0 {
		name, err := protocol.DecodeHexInPlace(fields[0])
		if err != nil {
			return nil, err
		}
		v.Filename = name
		v.HasName = true
	}
	for _, f := range fields[1:] {
		arg, err := protocol.DecodeHexInPlace(f)
		if err != nil {
			return nil, err
		}
		v.Args = append(v.Args, arg)
	}
	return v, nil
}

func parseQAttached(buf []byte) (Command, error) {
	if len(buf) == 0 {
		return QAttached{}, nil
	}
	if buf[0] != ':' {
		return nil, malformed("malformed qAttached %q", buf)
	}
	pid, err := parseHexU64(buf[1:])
	if err != nil {
		return nil, err
	}
	return QAttached{PID: pid, HasPID: true}, nil
}

func parseVFile(buf []byte) (Command, error) {
	op, rest, ok := splitOn(buf, ':')
	if !ok {
		return nil, malformed("malformed vFile %q", buf)
	}
	switch string(op) {
	case "open":
		nameField, rest, ok := splitOn(rest, ',')
		if !ok {
			return nil, malformed("malformed vFile:open %q", rest)
		}
		name, err := protocol.DecodeHexInPlace(nameField)
		if err != nil {
			return nil, err
		}
		flagsField, modeField, ok := splitOn(rest, ',')
		if !ok {
			return nil, malformed("malformed vFile:open flags,mode %q", rest)
		}
		flags, err := parseHexU64(flagsField)
		if err != nil {
			return nil, err
		}
		mode, err := parseHexU64(modeField)
		if err != nil {
			return nil, err
		}
		return VFile{Op: VFileOpen, Filename: name, Flags: flags, Mode: mode}, nil
	case "close":
		fd, err := parseHexU64(rest)
		if err != nil {
			return nil, err
		}
		return VFile{Op: VFileClose, FD: fd}, nil
	case "pread":
		fdField, rest, ok := splitOn(rest, ',')
		if !ok {
			return nil, malformed("malformed vFile:pread %q", rest)
		}
		fd, err := parseHexU64(fdField)
		if err != nil {
			return nil, err
		}
		countField, offField, ok := splitOn(rest, ',')
		if !ok {
			return nil, malformed("malformed vFile:pread count,offset %q", rest)
		}
		count, err := parseHexU64(countField)
		if err != nil {
			return nil, err
		}
		offset, err := parseHexU64(offField)
		if err != nil {
			return nil, err
		}
		return VFile{Op: VFilePread, FD: fd, Count: count, Offset: offset}, nil
	case "pwrite":
		fdField, rest, ok := splitOn(rest, ',')
		if !ok {
			return nil, malformed("malformed vFile:pwrite %q", rest)
		}
		fd, err := parseHexU64(fdField)
		if err != nil {
			return nil, err
		}
		offField, dataField, ok := splitOn(rest, ',')
		if !ok {
			return nil, malformed("malformed vFile:pwrite offset,data %q", rest)
		}
		offset, err := parseHexU64(offField)
		if err != nil {
			return nil, err
		}
		data := protocol.DecodeBinaryInPlace(dataField)
		return VFile{Op: VFilePwrite, FD: fd, Offset: offset, Data: data}, nil
	case "readlink":
		name, err := protocol.DecodeHexInPlace(rest)
		if err != nil {
			return nil, err
		}
		return VFile{Op: VFileReadlink, Filename: name}, nil
	case "unlink":
		name, err := protocol.DecodeHexInPlace(rest)
		if err != nil {
			return nil, err
		}
		return VFile{Op: VFileUnlink, Filename: name}, nil
	case "setfs":
		pid, err := parseHexU64(rest)
		if err != nil {
			return nil, err
		}
		return VFile{Op: VFileSetfs, PID: pid}, nil
	case "fstat":
		fd, err := parseHexU64(rest)
		if err != nil {
			return nil, err
		}
		return VFile{Op: VFileFstat, FD: fd}, nil
	default:
		return nil, malformed("unknown vFile op %q", op)
	}
}

// parseQCatchSyscalls parses the body after "QCatchSyscalls:": "0" to
// disable, "1" to enable all syscalls, or "1;sysno;sysno;..." to enable a
// specific set.
func parseQCatchSyscalls(buf []byte) (Command, error) {
	if len(buf) == 0 {
		return nil, malformed("empty QCatchSyscalls")
	}
	switch buf[0] {
	case '0':
		return QCatchSyscalls{Mode: CatchSyscallDisable}, nil
	case '1':
		rest := buf[1:]
		if len(rest) == 0 {
			return QCatchSyscalls{Mode: CatchSyscallEnableAll}, nil
		}
		if rest[0] != ';' {
			return nil, malformed("malformed QCatchSyscalls %q", buf)
		}
		rest = rest[1:]
		var numbers []uint64
		for len(rest) > 0 {
			field, tail, hasMore := splitOn(rest, ';')
			if !hasMore {
				field = rest
				tail = nil
			}
			n, err := parseHexU64(field)
			if err != nil {
				return nil, err
			}
			numbers = append(numbers, n)
			rest = tail
		}
		return QCatchSyscalls{Mode: CatchSyscallEnable, Numbers: numbers}, nil
	default:
		return nil, malformed("malformed QCatchSyscalls %q", buf)
	}
}
