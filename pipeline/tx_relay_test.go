package pipeline

import (
	"io"
	"net"
	"sync/atomic"
	"testing"

	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/ring"
	"github.com/latticefi/fixrelay/session"
)

func TestRunRelayTXDialsAndWritesInOrder(t *testing.T) {
	ln := listenLoopback(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	sess := downstreamProfile(t, ln, session.ProfileRelay)
	r := ring.New[frame.Frame](ring.Capacity)

	var f1, f2 frame.Frame
	f1.Length = copy(f1.Data[:], "alpha")
	f2.Length = copy(f2.Data[:], "beta")
	r.Push(&f1)
	r.Push(&f2)

	var closed atomic.Bool
	closed.Store(true) // ring already holds everything TX will ever see
	ready := make(chan error, 1)

	done := make(chan error, 1)
	go func() { done <- RunRelayTX(sess, r, -1, closed.Load, nil, nil, ready) }()

	if err := <-ready; err != nil {
		t.Fatalf("ready reported dial failure: %v", err)
	}

	server := <-accepted
	defer server.Close()

	buf := make([]byte, 9)
	n, err := io.ReadFull(server, buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "alphabeta" {
		t.Fatalf("got %q, want %q", buf[:n], "alphabeta")
	}

	server.Close()
	<-done
}

func TestRunRelayTXReportsDialFailure(t *testing.T) {
	sess := session.New(session.Profile{
		Kind:           session.ProfileRelay,
		DownstreamIP:   "127.0.0.1",
		DownstreamPort: 1, // nothing listens on port 1
	})
	r := ring.New[frame.Frame](ring.Capacity)
	var closed atomic.Bool
	closed.Store(true)
	ready := make(chan error, 1)

	err := RunRelayTX(sess, r, -1, closed.Load, nil, nil, ready)
	if err == nil {
		t.Fatal("expected dial error")
	}
	if readyErr := <-ready; readyErr == nil {
		t.Fatal("expected ready to report the dial failure")
	}
}
