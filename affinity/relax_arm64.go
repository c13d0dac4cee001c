//go:build arm64

package affinity

// cpuRelax is implemented in relax_arm64.s as a bare YIELD instruction.
//
//go:noescape
func cpuRelax()
