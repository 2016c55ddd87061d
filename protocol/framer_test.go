package protocol

import (
	"bytes"
	"fmt"
	"testing"
)

func frame(body []byte) []byte {
	cs := Checksum(body)
	var out bytes.Buffer
	out.WriteByte('$')
	out.Write(body)
	out.WriteByte('#')
	fmt.Fprintf(&out, "%02x", cs)
	return out.Bytes()
}

func TestFramerRoundTrip(t *testing.T) {
	bodies := [][]byte{
		[]byte(""),
		[]byte("g"),
		[]byte("qSupported:multiprocess+"),
		bytes.Repeat([]byte("x"), 200),
	}
	for _, body := range bodies {
		f := NewFramer(4096)
		buf := make([]byte, 4096)
		wire := frame(body)

		var events []Event
		for _, b := range wire {
			ev, err := f.Pump(buf, b)
			assert(t, err == nil, "pump error: %v", err)
			if ev.Kind != EventNone {
				events = append(events, ev)
			}
		}
		assert(t, len(events) == 1, "expected exactly one event, got %d", len(events))
		assert(t, events[0].Kind == EventFrame, "expected EventFrame, got %v", events[0].Kind)
		assert(t, bytes.Equal(events[0].Body, body), "body mismatch: got %q want %q", events[0].Body, body)
	}
}

func TestFramerChecksumMismatch(t *testing.T) {
	f := NewFramer(64)
	buf := make([]byte, 64)
	wire := []byte("$g#00") // wrong checksum for "g" (should be 67)
	var last Event
	for _, b := range wire {
		ev, err := f.Pump(buf, b)
		assert(t, err == nil, "pump error: %v", err)
		if ev.Kind != EventNone {
			last = ev
		}
	}
	assert(t, last.Kind == EventChecksumMismatch, "expected checksum mismatch, got %v", last.Kind)
}

func TestFramerAckNakInterrupt(t *testing.T) {
	f := NewFramer(64)
	buf := make([]byte, 64)

	ev, _ := f.Pump(buf, '+')
	assert(t, ev.Kind == EventAck, "expected ack")

	ev, _ = f.Pump(buf, '-')
	assert(t, ev.Kind == EventNak, "expected nak")

	ev, _ = f.Pump(buf, 0x03)
	assert(t, ev.Kind == EventInterrupt, "expected interrupt")
}

func TestFramerOverflow(t *testing.T) {
	f := NewFramer(4)
	buf := make([]byte, 4)
	_, err := f.Pump(buf, '$')
	assert(t, err == nil, "unexpected error")
	for i := 0; i < 5; i++ {
		_, err = f.Pump(buf, 'a')
		if err != nil {
			break
		}
	}
	assert(t, err == ErrOverflow, "expected overflow error, got %v", err)
}
