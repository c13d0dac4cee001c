package pipeline

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/affinity"
	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/metrics"
	"github.com/latticefi/fixrelay/ring"
	"github.com/latticefi/fixrelay/session"
	"github.com/latticefi/fixrelay/translate"
	"github.com/latticefi/fixrelay/wire/binish"
	"github.com/latticefi/fixrelay/wire/fixish"
)

// RunTranslateTX pins the calling goroutine, then dials sess's
// downstream target and runs its login handshake itself via Handshake
// — the TX stage owns the downstream socket end to end, never a socket
// handed to it by the orchestrator — reporting the outcome on ready
// before looping: pop a frame, split its payload into candidate FIXish
// messages, translate every NewOrderSingle into this session's BINish
// profile and write it downstream. Non-NewOrderSingle messages are
// dropped per spec §4.5. logRing may be nil, in which case no latency
// records are produced. ready may be nil.
func RunTranslateTX(
	sess *session.Session,
	r *ring.Ring[frame.Frame],
	logRing *ring.Ring[frame.LogRecord],
	defaults translate.Defaults,
	cpu int,
	closed func() bool,
	m *metrics.Registry,
	log *zap.Logger,
	ready chan<- error,
) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	affinity.Pin(cpu)

	conn, err := Handshake(sess, log)
	if err != nil {
		if m != nil {
			m.SessionsRejected.Inc()
		}
		if ready != nil {
			ready <- err
		}
		return err
	}
	defer conn.Close()
	if m != nil {
		m.SessionsActive.Inc()
		defer m.SessionsActive.Dec()
	}
	if ready != nil {
		ready <- nil
	}

	var fullBuf [binish.NewOrderSize]byte
	var liteBuf [binish.LiteOrderSize]byte

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

		sendStart := time.Now().UnixNano()
		f.SendStartNs = sendStart

		for _, msg := range fixish.SplitMessages(f.Payload()) {
			order, ok := translate.Message(msg, sess, defaults)
			if !ok {
				if m != nil {
					m.OrdersDropped.Inc()
				}
				if log != nil {
					log.Debug("dropped non-translatable message", zap.Int("bytes", len(msg)))
				}
				continue
			}

			var wire []byte
			switch {
			case order.Full != nil:
				wire = order.Full.Encode(fullBuf[:])
			case order.Lite != nil:
				wire = order.Lite.Encode(liteBuf[:])
			default:
				continue
			}
			if err := writeFull(conn, wire); err != nil {
				return err
			}
			if m != nil {
				m.OrdersTranslated.Inc()
			}

			sendEnd := time.Now().UnixNano()
			f.SendEndNs = sendEnd
			if logRing != nil {
				rec := buildLogRecord(f.RecvStartNs, f.RecvEndNs, sendStart, sendEnd, order.ClientOrderID)
				if !logRing.Push(&rec) {
					if m != nil {
						m.LogRingDropped.Inc()
					}
					if log != nil {
						log.Debug("log ring full, dropping latency record")
					}
				}
			}
		}
	}
}

func buildLogRecord(recvStartNs, recvEndNs, sendStartNs, sendEndNs int64, clientOrderID []byte) frame.LogRecord {
	var rec frame.LogRecord
	rec.RecvEndNs = recvEndNs
	rec.RecvDurationNs = recvEndNs - recvStartNs
	rec.QueueWaitNs = sendStartNs - recvEndNs
	rec.SendDurationNs = sendEndNs - sendStartNs
	rec.TotalNs = rec.QueueWaitNs + rec.SendDurationNs
	rec.SetClientOrderID(clientOrderID)
	return rec
}
