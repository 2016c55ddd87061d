// Command example is a minimal GDB stub target: a flat flash+RAM ARMv7-M
// "machine" that never executes real code, wired up purely to exercise
// every gdbstub capability (registers, memory, breakpoints, the memory map
// and target description XML, a monitor command, and host file I/O) end to
// end over a TCP connection.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/daniel5151/gdbstub-sub001"
)

var (
	flagRAMSize       int
	flagFlashSize     int
	flagFlashPageSize int
	flagGdbServer     string
)

func isPowerOfTwo(n int) bool {
	return n >= 0 && (n&(n-1)) == 0
}

func main() {
	flag.IntVar(&flagRAMSize, "ram", 32, "RAM size in kB")
	flag.IntVar(&flagFlashSize, "flash", 256, "flash size in kB")
	flag.IntVar(&flagFlashPageSize, "pagesize", 1024, "flash page size in bytes")
	flag.StringVar(&flagGdbServer, "gdb", "localhost:7333", "GDB target port")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: provide a firmware image")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if !isPowerOfTwo(flagFlashPageSize) {
		fmt.Fprintln(os.Stderr, "error: pagesize must be a power of two")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open firmware image:", err)
		os.Exit(1)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot stat firmware image:", err)
		os.Exit(1)
	}
	flashBytes := flagFlashSize * 1024
	if st.Size() > int64(flashBytes) {
		fmt.Fprintln(os.Stderr, "firmware does not fit in flash")
		os.Exit(1)
	}
	flash := make([]byte, flashBytes)
	if _, err := io.ReadFull(f, flash[:st.Size()]); err != nil {
		fmt.Fprintln(os.Stderr, "cannot read firmware image:", err)
		os.Exit(1)
	}

	if err := serve(flash, flagRAMSize*1024, flagGdbServer); err != nil {
		fmt.Fprintln(os.Stderr, "gdb server error:", err)
		os.Exit(1)
	}
}

// serve listens for a GDB connection and handles each one in turn. Like the
// teacher's gdbServer, connections are handled sequentially rather than in
// goroutines: only one debugger session at a time makes sense here.
func serve(flash []byte, ramSize int, addr string) error {
	sock, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "listening on", addr)

	for {
		conn, err := sock.Accept()
		if err != nil {
			return err
		}
		if err := handle(conn, flash, ramSize); err != nil {
			fmt.Fprintln(os.Stderr, "gdb handler error:", err)
		}
	}
}

func handle(netConn net.Conn, flash []byte, ramSize int) error {
	defer netConn.Close()

	conn := bufio.NewReadWriter(bufio.NewReader(netConn), bufio.NewWriter(netConn))

	sess, err := gdbstub.NewBuilder(conn).Build()
	if err != nil {
		return err
	}

	m := newVM(flash, ramSize)
	tgt := newExampleTarget(m, len(flash), flagFlashPageSize)

	reason, err := sess.Run(context.Background(), tgt)
	fmt.Fprintln(os.Stderr, "session ended:", reason)
	return err
}
