package pipeline

import (
	"net"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/affinity"
	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/metrics"
	"github.com/latticefi/fixrelay/ring"
	"github.com/latticefi/fixrelay/session"
)

// RunRelayTX pins the calling goroutine, dials sess's downstream
// target itself and disables Nagle's algorithm on it — the TX stage
// owns the downstream socket end to end, never a socket handed to it
// by the orchestrator — then reports the dial outcome on ready before
// looping: pop a frame from r, write its payload downstream in full
// before popping the next one. It returns when a downstream write
// fails, or when closed reports the ring is both empty and the session
// has been torn down upstream. ready may be nil.
func RunRelayTX(sess *session.Session, r *ring.Ring[frame.Frame], cpu int, closed func() bool, m *metrics.Registry, log *zap.Logger, ready chan<- error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	affinity.Pin(cpu)

	conn, err := net.Dial("tcp", net.JoinHostPort(sess.Profile.DownstreamIP, strconv.Itoa(sess.Profile.DownstreamPort)))
	if err != nil {
		if log != nil {
			log.Warn("downstream connect failed", zap.Error(err))
		}
		if ready != nil {
			ready <- err
		}
		return err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}
	defer conn.Close()
	sess.SetState(session.Active)
	if m != nil {
		m.SessionsActive.Inc()
		defer m.SessionsActive.Dec()
	}
	if ready != nil {
		ready <- nil
	}

	spins := 0
	for {
		f := r.Pop()
		if f == nil {
			if closed() {
				return nil
			}
			spins++
			if spins%yieldEvery == yieldEvery-1 {
				affinity.Relax()
			}
			continue
		}
		spins = 0

		f.SendStartNs = time.Now().UnixNano()
		if err := writeFull(conn, f.Payload()); err != nil {
			if log != nil {
				log.Debug("downstream write failed", zap.Error(err))
			}
			return err
		}
		f.SendEndNs = time.Now().UnixNano()
		if m != nil {
			m.FramesRelayed.Inc()
		}
	}
}

// writeFull completes a possibly-partial write before returning, per
// spec §4.4's "a partial short-write must be completed before the next
// Frame" rule.
func writeFull(conn net.Conn, b []byte) error {
	for len(b) > 0 {
		n, err := conn.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
