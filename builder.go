package gdbstub

import "fmt"

const defaultPacketBufferSize = 4096

// ErrPacketBufferTooSmall is returned by Builder.Build when
// WithPacketBufferSize was given a size too small to ever hold a minimal
// packet.
var ErrPacketBufferTooSmall = fmt.Errorf("gdbstub: packet buffer size too small")

// Builder constructs a Session with explicit, chainable configuration,
// mirroring how the teacher's machine/connection setup is assembled before
// the accept loop starts.
type Builder struct {
	conn       Connection
	bufferSize int
	noAckMode  bool
}

// NewBuilder starts building a Session around conn. A default 4096-byte
// packet buffer and acknowledgement mode are used unless overridden.
func NewBuilder(conn Connection) *Builder {
	return &Builder{conn: conn, bufferSize: defaultPacketBufferSize}
}

// WithPacketBufferSize overrides the default packet buffer size.
func (b *Builder) WithPacketBufferSize(n int) *Builder {
	b.bufferSize = n
	return b
}

// WithNoAckModeDefault pre-enables no-ack mode, skipping the usual
// QStartNoAckMode handshake. Only useful for transports that are already
// known to be reliable (e.g. in-process pipes in tests).
func (b *Builder) WithNoAckModeDefault() *Builder {
	b.noAckMode = true
	return b
}

// Build validates the configuration and returns a ready-to-run Session.
func (b *Builder) Build() (*Session, error) {
	if b.bufferSize < 64 {
		return nil, ErrPacketBufferTooSmall
	}
	return newSession(b.conn, b.bufferSize, b.noAckMode), nil
}
