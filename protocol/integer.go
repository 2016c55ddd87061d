package protocol

import "fmt"

// ErrIntegerOverflow is returned by the BE/LE decoders when the input is
// wider than the target and the surplus leading/trailing bytes are nonzero.
var ErrIntegerOverflow = fmt.Errorf("integer wider than target width")

// PutBigEndian writes the low width bytes of v into buf (len(buf) must be
// >= width) in big-endian order.
func PutBigEndian(buf []byte, v uint64, width int) {
	for i := 0; i < width; i++ {
		shift := uint((width - 1 - i) * 8)
		buf[i] = byte(v >> shift)
	}
}

// PutLittleEndian writes the low width bytes of v into buf in little-endian
// order.
func PutLittleEndian(buf []byte, v uint64, width int) {
	for i := 0; i < width; i++ {
		buf[i] = byte(v >> uint(i*8))
	}
}

// BigEndianToUint64 decodes buf as a big-endian integer no wider than
// width bytes. Shorter inputs are zero-extended; longer inputs are accepted
// only if the leading len(buf)-width bytes are all zero.
func BigEndianToUint64(buf []byte, width int) (uint64, error) {
	if len(buf) > width {
		surplus := len(buf) - width
		for _, b := range buf[:surplus] {
			if b != 0 {
				return 0, ErrIntegerOverflow
			}
		}
		buf = buf[surplus:]
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// LittleEndianToUint64 decodes buf as a little-endian integer no wider than
// width bytes, with the same zero-extend / zero-surplus rule as
// BigEndianToUint64 but trailing instead of leading.
func LittleEndianToUint64(buf []byte, width int) (uint64, error) {
	if len(buf) > width {
		surplus := buf[width:]
		for _, b := range surplus {
			if b != 0 {
				return 0, ErrIntegerOverflow
			}
		}
		buf = buf[:width]
	}
	var v uint64
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

// TrimmedBEHex writes v as a big-endian hex string to dst with leading
// zero bytes trimmed, the format WriteNum uses for numeric reply fields.
func TrimmedBEHex(dst []byte, v uint64, width int) []byte {
	buf := make([]byte, width)
	PutBigEndian(buf, v, width)
	i := 0
	for i < len(buf)-1 && buf[i] == 0 {
		i++
	}
	return EncodeHex(dst, buf[i:])
}
