//go:build linux

package affinity

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const cpuSetSize = int(unsafe.Sizeof(unix.CPUSet{})) * 8

// setAffinity pins the calling thread to cpu via sched_setaffinity(2),
// using x/sys/unix's CPUSet instead of the teacher's hand-maintained
// bitmask table so the valid core range tracks the kernel's own ABI
// rather than a hard-coded 0-63 table.
func setAffinity(cpu int) bool {
	if cpu >= cpuSetSize {
		return false
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return false
	}
	return true
}
