package command

import (
	"bytes"

	"github.com/daniel5151/gdbstub-sub001/protocol"
)

// Dispatch decodes a single packet body into a Command. body must be the
// raw packet payload (post-framing, pre-RLE-expanded — RLE only ever
// appears in replies the stub itself writes, never in client commands).
//
// body is consumed destructively: hex and binary-escaped fields are decoded
// in place, so any byte slices referenced by the returned Command alias it.
func Dispatch(body []byte) (Command, error) {
	if len(body) == 0 {
		return nil, malformed("empty command")
	}

	switch body[0] {
	case '?':
		return QueryStopReason{}, nil
	case '!':
		return ExtendedModeEnable{}, nil
	case 'g':
		return ReadRegisters{}, nil
	case 'G':
		data, err := protocol.DecodeHexInPlace(body[1:])
		if err != nil {
			return nil, err
		}
		return WriteRegisters{Data: data}, nil
	case 'p':
		n, err := parseHexU64(body[1:])
		if err != nil {
			return nil, err
		}
		return ReadRegister{RegNum: n}, nil
	case 'P':
		numField, valField, ok := splitOn(body[1:], '=')
		if !ok {
			return nil, malformed("malformed P packet %q", body)
		}
		n, err := parseHexU64(numField)
		if err != nil {
			return nil, err
		}
		val, err := protocol.DecodeHexInPlace(valField)
		if err != nil {
			return nil, err
		}
		return WriteRegister{RegNum: n, Value: val}, nil
	case 'm':
		addr, length, _, err := parseAddrLen(body[1:])
		if err != nil {
			return nil, err
		}
		return ReadMemory{Addr: addr, Len: length}, nil
	case 'M':
		addr, length, data, err := parseAddrLen(body[1:])
		if err != nil {
			return nil, err
		}
		decoded, err := protocol.DecodeHexInPlace(data)
		if err != nil {
			return nil, err
		}
		return WriteMemoryHex{Addr: addr, Len: length, Data: decoded}, nil
	case 'X':
		addr, length, data, err := parseAddrLen(body[1:])
		if err != nil {
			return nil, err
		}
		return WriteMemoryBinary{Addr: addr, Len: length, Data: protocol.DecodeBinaryInPlace(data)}, nil
	case 'c':
		addr, has, err := parseOptAddr(body[1:])
		if err != nil {
			return nil, err
		}
		return ContinueLegacy{Addr: addr, HasAddr: has}, nil
	case 's':
		addr, has, err := parseOptAddr(body[1:])
		if err != nil {
			return nil, err
		}
		return StepLegacy{Addr: addr, HasAddr: has}, nil
	case 'C':
		sig, addr, has, err := parseSignalAndAddr(body[1:])
		if err != nil {
			return nil, err
		}
		return ContinueWithSignal{Signal: sig, Addr: addr, HasAddr: has}, nil
	case 'S':
		sig, addr, has, err := parseSignalAndAddr(body[1:])
		if err != nil {
			return nil, err
		}
		return StepWithSignal{Signal: sig, Addr: addr, HasAddr: has}, nil
	case 'z':
		return parseZPacket(body[1:], true)
	case 'Z':
		return parseZPacket(body[1:], false)
	case 'H':
		return parseHPacket(body[1:])
	case 'D':
		return parseDetach(body[1:])
	case 'k':
		return KillLegacy{}, nil
	case 'T':
		tid, err := protocol.ParseThreadID(body[1:])
		if err != nil {
			return nil, err
		}
		return ThreadAlive{Thread: tid}, nil
	}

	switch {
	case bytes.Equal(body, []byte("vCont?")):
		return VContQuery{}, nil
	case bytes.HasPrefix(body, []byte("vCont")):
		return parseVCont(body[len("vCont"):])
	case bytes.HasPrefix(body, []byte("vKill")):
		return parseVKill(body[len("vKill"):])
	case bytes.HasPrefix(body, []byte("vAttach")):
		return parseVAttach(body[len("vAttach"):])
	case bytes.HasPrefix(body, []byte("vRun")):
		return parseVRun(body[len("vRun"):])
	case bytes.HasPrefix(body, []byte("vFile:")):
		return parseVFile(body[len("vFile:"):])
	case bytes.HasPrefix(body, []byte("qSupported")):
		rest := body[len("qSupported"):]
		if len(rest) > 0 && rest[0] == ':' {
			rest = rest[1:]
		}
		return parseQSupported(rest)
	case bytes.Equal(body, []byte("QStartNoAckMode")):
		return QStartNoAckMode{}, nil
	case bytes.HasPrefix(body, []byte("qXfer:")):
		return parseQXfer(body[len("qXfer:"):])
	case bytes.HasPrefix(body, []byte("qRcmd,")):
		cmd, err := protocol.DecodeHexInPlace(body[len("qRcmd,"):])
		if err != nil {
			return nil, err
		}
		return QRcmd{Cmd: cmd}, nil
	case bytes.Equal(body, []byte("qC")):
		return QC{}, nil
	case bytes.Equal(body, []byte("qfThreadInfo")):
		return QFirstThreadInfo{}, nil
	case bytes.Equal(body, []byte("qsThreadInfo")):
		return QSubsequentThreadInfo{}, nil
	case bytes.Equal(body, []byte("qOffsets")):
		return QOffsets{}, nil
	case bytes.HasPrefix(body, []byte("qAttached")):
		return parseQAttached(body[len("qAttached"):])
	case bytes.HasPrefix(body, []byte("qSymbol")):
		return QSymbol{}, nil
	case bytes.HasPrefix(body, []byte("qThreadExtraInfo,")):
		tid, err := protocol.ParseThreadID(body[len("qThreadExtraInfo,"):])
		if err != nil {
			return nil, err
		}
		return QThreadExtraInfo{Thread: tid}, nil
	case bytes.Equal(body, []byte("bc")):
		return ReverseContinue{}, nil
	case bytes.Equal(body, []byte("bs")):
		return ReverseStep{}, nil
	case bytes.HasPrefix(body, []byte("QCatchSyscalls:")):
		return parseQCatchSyscalls(body[len("QCatchSyscalls:"):])
	}

	return nil, malformed("unrecognized command %q", body)
}
