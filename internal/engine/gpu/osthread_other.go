//go:build !linux && !windows

package gpu

import (
	"bytes"
	"runtime"
	"strconv"
)

// osThreadID falls back to the goroutine id. Run locks its goroutine to
// the OS thread, so the goroutine identifies the thread for its duration.
func osThreadID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}
