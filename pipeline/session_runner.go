package pipeline

import (
	"net"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/logging"
	"github.com/latticefi/fixrelay/metrics"
	"github.com/latticefi/fixrelay/ring"
	"github.com/latticefi/fixrelay/session"
	"github.com/latticefi/fixrelay/translate"
)

// CPUSet names the two cores an operator assigns to one splice, per
// spec §5's "RX and TX threads must each be pinnable to an
// operator-specified CPU core id."
type CPUSet struct {
	RX int
	TX int
}

// RunSession owns one accepted client connection end to end. The
// downstream socket — including, for translation profiles, the login
// handshake — is created and driven entirely by the TX goroutine, per
// spec §9's "the TX socket is created inside the TX stage" note; RX
// waits on a ready handoff before its first read so no client byte is
// ever read ahead of the downstream acknowledgement. client is already
// accepted and otherwise untouched, per spec §4.1's "acceptor must not
// perform I/O on the accepted socket beyond handing it off."
func RunSession(
	client net.Conn,
	sess *session.Session,
	cpus CPUSet,
	defaults translate.Defaults,
	logRing *ring.Ring[frame.LogRecord],
	m *metrics.Registry,
	log *zap.Logger,
) {
	defer client.Close()

	r := ring.New[frame.Frame](ring.Capacity)
	ready := make(chan error, 1)

	rxDone := make(chan struct{})
	txDone := make(chan struct{})
	var closedFlag atomicBool

	go func() {
		defer close(txDone)
		var err error
		if sess.Profile.IsTranslate() {
			err = RunTranslateTX(sess, r, logRing, defaults, cpus.TX, closedFlag.get, m, logging.Named(log, "tx"), ready)
		} else {
			err = RunRelayTX(sess, r, cpus.TX, closedFlag.get, m, logging.Named(log, "tx"), ready)
		}
		if err != nil {
			log.Debug("tx stage ended", zap.String("session", sess.ID), zap.Error(err))
		}
	}()

	go func() {
		defer close(rxDone)
		if err := RunRX(client, r, cpus.RX, m, logging.Named(log, "rx"), ready); err != nil {
			log.Debug("rx stage ended", zap.String("session", sess.ID), zap.Error(err))
		}
		closedFlag.set(true)
	}()

	<-rxDone
	<-txDone
	sess.SetState(session.Closed)
}

// atomicBool is the tiny close-signalling flag RX sets and TX polls
// when its pop comes back empty, standing in for the ring's lack of an
// explicit "producer is done" primitive.
type atomicBool struct {
	v atomic.Int32
}

func (b *atomicBool) set(val bool) {
	if val {
		b.v.Store(1)
	} else {
		b.v.Store(0)
	}
}

func (b *atomicBool) get() bool {
	return b.v.Load() != 0
}
