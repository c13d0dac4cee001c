// Package pipeline wires frame/ring/session/translate/wire into the
// per-connection RX→ring→TX splice. Each exported Run* function is
// meant to be launched on its own pinned goroutine by session_runner.go;
// none of them return on the happy path, mirroring the teacher's
// pinned_consumer loop shape (ring.PinnedConsumer) generalized from a
// single hot/cold spin consumer to this engine's read→push producer and
// pop→write consumer pair.
package pipeline

import (
	"net"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/affinity"
	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/metrics"
	"github.com/latticefi/fixrelay/ring"
)

// spinBudget is how many consecutive failed pushes RX busy-waits through
// before logging a warning and starting a fresh budget; RX keeps
// retrying the same frame until the push succeeds.
const spinBudget = 1000

// yieldEvery controls how often within the spin budget RX calls
// affinity.Relax rather than spinning flat out, so a congested ring
// doesn't starve the TX thread sharing a physical core.
const yieldEvery = 16

// RunRX pins the calling goroutine, waits for ready (TX's downstream
// dial/handshake outcome, never reading a client byte before it
// arrives), then loops: read a frame from conn, timestamp it, push it
// to r. It returns when the client socket is closed or errors, leaving
// TX to drain the ring and exit on its own. log receives one Warn per
// exhausted spin budget, not one per failed push, so a congested ring
// doesn't flood the log on the hot path. ready may be nil, in which
// case RX starts reading immediately.
func RunRX(conn net.Conn, r *ring.Ring[frame.Frame], cpu int, m *metrics.Registry, log *zap.Logger, ready <-chan error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	affinity.Pin(cpu)

	if ready != nil {
		if err := <-ready; err != nil {
			return err
		}
	}

	affinity.Accelerate(conn, func() {
		if log != nil {
			log.Warn("no accelerated NIC stack available, continuing on kernel socket")
		}
	})

	for {
		var f frame.Frame
		f.RecvStartNs = time.Now().UnixNano()
		n, err := conn.Read(f.Data[:])
		if n <= 0 {
			return err
		}
		f.Length = n
		f.RecvEndNs = time.Now().UnixNano()

		pushed := r.Push(&f)
		for spins := 0; !pushed; spins++ {
			if m != nil {
				m.RingPushFailures.Inc()
			}
			if spins >= spinBudget {
				if log != nil {
					log.Warn("ring full, still retrying")
				}
				spins = 0
			}
			if spins%yieldEvery == yieldEvery-1 {
				affinity.Relax()
			}
			pushed = r.Push(&f)
		}
	}
}
