package protocol

import "fmt"

// ErrOverflow is returned by Framer.Pump when a packet body exceeds the
// capacity of the buffer the framer was given. The transport is considered
// out of sync at that point; the session should end rather than try to
// resynchronize.
var ErrOverflow = fmt.Errorf("packet exceeds buffer capacity")

// EventKind identifies what Framer.Pump produced for a given input byte.
type EventKind int

const (
	// EventNone means the byte was consumed with no event to report yet
	// (still accumulating, or a stray byte was discarded in Ready state).
	EventNone EventKind = iota
	// EventAck is a bare '+' seen in Ready state.
	EventAck
	// EventNak is a bare '-' seen in Ready state.
	EventNak
	// EventInterrupt is the out-of-band 0x03 byte.
	EventInterrupt
	// EventFrame is a complete, checksum-verified $BODY#CC frame. Event.Body
	// points into the caller-supplied buffer and is valid only until the
	// next call to Pump.
	EventFrame
	// EventChecksumMismatch is a complete frame whose checksum didn't match.
	EventChecksumMismatch
)

// Event is the result of feeding one byte to the Framer.
type Event struct {
	Kind EventKind
	Body []byte
}

type framerState int

const (
	stateReady framerState = iota
	stateBody
	stateChecksum1
	stateChecksum2
)

// Framer accumulates transport bytes into complete RSP frames. It owns no
// storage of its own: the caller supplies the backing buffer to Pump and is
// responsible for sizing it (spec: the packet buffer is allocated once and
// reused for the life of the session).
type Framer struct {
	state   framerState
	n       int
	cs1     byte
	bufCap  int
	gotCs1  bool
}

// NewFramer returns a Framer ready to accumulate into a buffer of the given
// capacity (the body-only capacity; checksum bytes are not stored).
func NewFramer(bufCap int) *Framer {
	return &Framer{bufCap: bufCap}
}

// Reset returns the Framer to its initial Ready state, discarding any
// partially-accumulated body.
func (f *Framer) Reset() {
	f.state = stateReady
	f.n = 0
	f.gotCs1 = false
}

// Pump feeds one transport byte to the framer. buf must have capacity at
// least the bufCap passed to NewFramer; Pump writes body bytes into buf[0:]
// as they arrive.
func (f *Framer) Pump(buf []byte, b byte) (Event, error) {
	switch f.state {
	case stateReady:
		switch b {
		case '$':
			f.state = stateBody
			f.n = 0
		case '+':
			return Event{Kind: EventAck}, nil
		case '-':
			return Event{Kind: EventNak}, nil
		case 0x03:
			return Event{Kind: EventInterrupt}, nil
		}
		return Event{Kind: EventNone}, nil

	case stateBody:
		if b == '#' {
			f.state = stateChecksum1
			return Event{Kind: EventNone}, nil
		}
		if f.n >= f.bufCap {
			f.Reset()
			return Event{}, ErrOverflow
		}
		buf[f.n] = b
		f.n++
		return Event{Kind: EventNone}, nil

	case stateChecksum1:
		f.cs1 = b
		f.gotCs1 = true
		f.state = stateChecksum2
		return Event{Kind: EventNone}, nil

	case stateChecksum2:
		cs2 := b
		f.state = stateReady
		want, err := DecodeHexU64([]byte{f.cs1, cs2})
		body := buf[:f.n]
		f.n = 0
		f.gotCs1 = false
		if err != nil || byte(want) != Checksum(body) {
			return Event{Kind: EventChecksumMismatch, Body: body}, nil
		}
		return Event{Kind: EventFrame, Body: body}, nil

	default:
		// unreachable
		f.state = stateReady
		return Event{Kind: EventNone}, nil
	}
}
