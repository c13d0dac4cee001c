//go:build !amd64 && !arm64

package affinity

// cpuRelax is a no-op on architectures without a dedicated spin-wait
// hint instruction.
func cpuRelax() {}
