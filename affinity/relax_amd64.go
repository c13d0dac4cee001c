//go:build amd64

package affinity

// cpuRelax is implemented in relax_amd64.s as a bare PAUSE instruction,
// avoiding the teacher's cgo dependency for something this small.
//
//go:noescape
func cpuRelax()
