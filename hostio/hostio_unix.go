//go:build !windows

package hostio

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/daniel5151/gdbstub-sub001/target"
)

// translateErr maps a Go stdlib I/O error to a GDB vFile errno-equivalent,
// using the *os.PathError wrapping the stdlib applies around a
// syscall.Errno, or a bare syscall.Errno. Anything else maps to EIO.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if pe, ok := err.(*os.PathError); ok {
		if e, ok := pe.Err.(syscall.Errno); ok {
			errno = e
		}
	} else if e, ok := err.(syscall.Errno); ok {
		errno = e
	}
	if errno == 0 {
		return target.NonFatal(uint8(unix.EIO), err)
	}
	return target.NonFatal(uint8(errno), err)
}

func statFromFileInfo(info os.FileInfo) target.HostStat {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return target.HostStat{Size: uint64(info.Size())}
	}
	return target.HostStat{
		Dev:       uint32(st.Dev),
		Ino:       uint32(st.Ino),
		Mode:      uint32(st.Mode),
		NLink:     uint32(st.Nlink),
		UID:       st.Uid,
		GID:       st.Gid,
		RDev:      uint32(st.Rdev),
		Size:      uint64(st.Size),
		BlockSize: uint64(st.Blksize),
		Blocks:    uint64(st.Blocks),
		ATime:     uint64(st.Atim.Sec),
		MTime:     uint64(st.Mtim.Sec),
		CTime:     uint64(st.Ctim.Sec),
	}
}
