// Package arch defines the per-architecture register format layer: how a
// register bank serializes to and from the byte layout GDB's 'g'/'G'
// packets use, and how a GDB register index maps to one of those
// registers.
package arch

// Registers is implemented once per supported architecture. It knows
// nothing about a running target; it is purely a format converter between
// an architecture-specific register struct and the flat byte layout GDB's
// wire protocol expects.
type Registers interface {
	// WireSize is the exact number of bytes WriteWire always writes.
	WireSize() int
	// WriteWire serializes the register bank into dst (len(dst) ==
	// WireSize()) in the order target.xml declares.
	WriteWire(dst []byte)
	// ReadWire deserializes data (len(data) == WireSize()) into the
	// register bank.
	ReadWire(data []byte) error
}

// RegWidth is the storage width of a single register, in bytes.
type RegWidth int

// RegId maps a GDB register index (as used by 'p'/'P' packets) to a
// register's byte offset and width within the wire layout WriteWire
// produces, so SingleRegisterOps can be implemented generically by slicing
// into the same buffer ReadWire/WriteWire use.
type RegId interface {
	// FromRawID resolves a GDB register index to its (offset, width)
	// within the wire layout, or ok=false if the index is out of range.
	FromRawID(id uint64) (offset int, width RegWidth, ok bool)
}
