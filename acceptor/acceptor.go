// Package acceptor implements the engine's single listening endpoint:
// bind, listen, and per-connection hand-off into the pipeline package,
// per spec §4.1.
package acceptor

import (
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/metrics"
	"github.com/latticefi/fixrelay/pipeline"
	"github.com/latticefi/fixrelay/ring"
	"github.com/latticefi/fixrelay/session"
	"github.com/latticefi/fixrelay/translate"
)

// Options carries everything RunSession needs per accepted connection,
// shared across every connection this acceptor hands off.
type Options struct {
	Profile  session.Profile
	CPUs     pipeline.CPUSet
	Defaults translate.Defaults
	LogRing  *ring.Ring[frame.LogRecord]
	Metrics  *metrics.Registry
	Log      *zap.Logger
}

// Serve binds listenAddr and accepts connections forever. It returns
// only when the bind/listen step fails; once listening it never
// returns. Bind/listen failures are returned to
// the caller, who is expected to treat them as fatal (exit 1); accept
// errors are logged and the loop continues without delay.
func Serve(listenAddr string, opts Options) error {
	lc := net.ListenConfig{}
	ln, err := listenReusable(lc, listenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()

	opts.Log.Info("listening", zap.String("addr", listenAddr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			opts.Log.Warn("accept failed, retrying", zap.Error(err))
			continue
		}

		sess := session.New(opts.Profile)
		if opts.Metrics != nil {
			opts.Metrics.SessionsAccepted.Inc()
		}
		opts.Log.Info("accepted connection", zap.String("session", sess.ID), zap.String("remote", conn.RemoteAddr().String()))

		go pipeline.RunSession(conn, sess, opts.CPUs, opts.Defaults, opts.LogRing, opts.Metrics, opts.Log)
	}
}

// listenReusable binds with SO_REUSEADDR, matching the teacher's raw
// TCP setup discipline (main.go's socket-option block) — Go's net
// package applies SO_REUSEADDR on *nix listeners by default, so this
// is a plain lc.Listen that exists to keep that intent visible.
func listenReusable(lc net.ListenConfig, addr string) (net.Listener, error) {
	return lc.Listen(context.Background(), "tcp", addr)
}
