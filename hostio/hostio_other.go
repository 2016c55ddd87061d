//go:build windows

package hostio

import (
	"os"

	"github.com/daniel5151/gdbstub-sub001/target"
)

// translateErr on non-Unix hosts has no syscall.Errno to forward, so it
// reports every failure as a generic I/O error.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	return target.NonFatal(5 /* EIO */, err)
}

func statFromFileInfo(info os.FileInfo) target.HostStat {
	return target.HostStat{Size: uint64(info.Size()), Mode: uint32(info.Mode())}
}
