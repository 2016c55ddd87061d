// Package hostio implements target.HostIOOps against the filesystem of the
// host gdbstub itself runs on, servicing the vFile:* family independently
// of whatever the debuggee process is.
package hostio

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/daniel5151/gdbstub-sub001/target"
)

// ErrBadFD is returned when a vFile:* command names a file descriptor this
// Host has not opened.
var ErrBadFD = fmt.Errorf("hostio: unknown file descriptor")

// Host implements target.HostIOOps backed by *os.File handles keyed by a
// GDB-visible fd that has no relation to the OS's own fd numbering.
type Host struct {
	mu      sync.Mutex
	files   map[uint64]*os.File
	nextFD  uint64
}

// NewHost constructs an empty Host.
func NewHost() *Host {
	return &Host{files: make(map[uint64]*os.File)}
}

var _ target.HostIOOps = (*Host)(nil)

// Open implements target.HostIOOps.
func (h *Host) Open(filename []byte, flags, mode uint64) (uint64, error) {
	f, err := os.OpenFile(string(filename), translateOpenFlags(flags), os.FileMode(mode&0o777))
	if err != nil {
		return 0, translateErr(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextFD++
	fd := h.nextFD
	h.files[fd] = f
	return fd, nil
}

// Close implements target.HostIOOps.
func (h *Host) Close(fd uint64) error {
	h.mu.Lock()
	f, ok := h.files[fd]
	if ok {
		delete(h.files, fd)
	}
	h.mu.Unlock()
	if !ok {
		return ErrBadFD
	}
	return translateErr(f.Close())
}

func (h *Host) lookup(fd uint64) (*os.File, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[fd]
	if !ok {
		return nil, ErrBadFD
	}
	return f, nil
}

// Pread implements target.HostIOOps.
func (h *Host) Pread(fd uint64, count, offset uint64, dst []byte) (int, error) {
	f, err := h.lookup(fd)
	if err != nil {
		return 0, err
	}
	if uint64(len(dst)) > count {
		dst = dst[:count]
	}
	n, err := f.ReadAt(dst, int64(offset))
	if err != nil && err != io.EOF {
		return n, translateErr(err)
	}
	return n, nil
}

// Pwrite implements target.HostIOOps.
func (h *Host) Pwrite(fd uint64, offset uint64, data []byte) (int, error) {
	f, err := h.lookup(fd)
	if err != nil {
		return 0, err
	}
	n, err := f.WriteAt(data, int64(offset))
	if err != nil {
		return n, translateErr(err)
	}
	return n, nil
}

// Readlink implements target.HostIOOps.
func (h *Host) Readlink(filename []byte, dst []byte) (int, error) {
	target, err := os.Readlink(string(filename))
	if err != nil {
		return 0, translateErr(err)
	}
	return copy(dst, target), nil
}

// Unlink implements target.HostIOOps.
func (h *Host) Unlink(filename []byte) error {
	return translateErr(os.Remove(string(filename)))
}

// Fstat implements target.HostIOOps.
func (h *Host) Fstat(fd uint64) (target.HostStat, error) {
	f, err := h.lookup(fd)
	if err != nil {
		return target.HostStat{}, err
	}
	info, err := f.Stat()
	if err != nil {
		return target.HostStat{}, translateErr(err)
	}
	return statFromFileInfo(info), nil
}

// SetFS implements target.HostIOOps. A single-filesystem Host has nothing
// to switch, so this always succeeds.
func (h *Host) SetFS(pid uint64) error { return nil }

const (
	flagReadOnly  = 0x0
	flagWriteOnly = 0x1
	flagReadWrite = 0x2
	flagAppend    = 0x8
	flagCreate    = 0x200
	flagTruncate  = 0x400
	flagExclusive = 0x800
)

// translateOpenFlags converts the GDB vFile:open flag bits (the protocol's
// own fixed File-I/O values above, not the host's native open(2) values) to
// Go's os.OpenFile flags.
func translateOpenFlags(flags uint64) int {
	var goFlags int
	switch {
	case flags&flagReadWrite != 0:
		goFlags |= os.O_RDWR
	case flags&flagWriteOnly != 0:
		goFlags |= os.O_WRONLY
	default:
		goFlags |= os.O_RDONLY
	}
	if flags&flagAppend != 0 {
		goFlags |= os.O_APPEND
	}
	if flags&flagCreate != 0 {
		goFlags |= os.O_CREATE
	}
	if flags&flagTruncate != 0 {
		goFlags |= os.O_TRUNC
	}
	if flags&flagExclusive != 0 {
		goFlags |= os.O_EXCL
	}
	return goFlags
}
