// Package affinity pins the calling OS thread to a specific CPU core and
// provides a portable spin-wait relaxation hint, mirroring the teacher's
// ring24 setAffinity/cpuRelax split but collapsed into one package
// shared by every pinned stage instead of being duplicated per ring
// variant.
//
// Per spec, pinning failures are never fatal: Pin degrades to unpinned
// operation and reports false so the caller can log a one-shot warning.
package affinity

import (
	"net"
	"sync"
)

var warnAccelerateOnce sync.Once

// Accelerate attempts to move conn's socket onto an accelerated kernel-
// bypass stack (Onload-style, per original_source's onload_move_fd)
// before the first read, per spec's "if NIC acceleration is in effect,
// RX moves the accepted socket into its own accelerated stack" rule.
//
// No Go ecosystem binding for Onload or an equivalent kernel-bypass
// stack exists in this retrieval pack or the wider ecosystem, so this
// always reports false, logging once via warn, and the caller is
// expected to continue on the unaccelerated kernel socket exactly as
// spec's "if the move fails, RX continues with the kernel socket"
// fallback requires.
func Accelerate(conn net.Conn, warn func()) bool {
	warnAccelerateOnce.Do(func() {
		if warn != nil {
			warn()
		}
	})
	return false
}

// Pin attempts to bind the calling OS thread to cpu. The caller must
// already hold the OS thread via runtime.LockOSThread; Pin does not lock
// it itself, since the sleeper, RX and TX goroutines each have slightly
// different lifecycle requirements around when the lock is taken.
func Pin(cpu int) bool {
	if cpu < 0 {
		return false
	}
	return setAffinity(cpu)
}

// Relax yields the current spin iteration to the CPU's hyperthread
// sibling (PAUSE on amd64, YIELD on arm64) or is a no-op where no such
// hint exists. It never blocks and never calls into the scheduler.
//
//go:nosplit
//go:inline
func Relax() {
	cpuRelax()
}
