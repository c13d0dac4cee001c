package pipeline

import (
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/ring"
	"github.com/latticefi/fixrelay/session"
	"github.com/latticefi/fixrelay/translate"
	"github.com/latticefi/fixrelay/wire/binish"
)

func pastDeadline() time.Time {
	return time.Now().Add(-time.Second)
}

const s2Message = "8=FIX.4.2\x019=65\x0135=D\x0134=1\x0149=SENDER\x0156=TARGET\x0111=ORD1\x0121=1\x0140=1\x0154=1\x0138=100\x0155=TEST\x0110=000\x01"

// acceptOuchLogin accepts one connection on ln, serves an accepted
// OUCH login ack, and hands the live connection to the caller over
// downstream so the same socket can be read for the orders that
// follow the handshake.
func acceptOuchLogin(ln net.Listener, downstream chan<- net.Conn) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	var login [binish.LoginRequestSize]byte
	readFull(conn, login[:])
	ack := binish.Accepted{MessageType: 'A', SessionID: [6]byte{'S', 'E', 'S', '0', '0', '1'}}
	var buf [binish.AcceptedSize]byte
	buf[0] = ack.MessageType
	copy(buf[1:], ack.SessionID[:])
	conn.Write(buf[:])
	downstream <- conn
}

func TestRunTranslateTXEmitsOuchRecord(t *testing.T) {
	ln := listenLoopback(t)
	downstream := make(chan net.Conn, 1)
	go acceptOuchLogin(ln, downstream)

	sess := downstreamProfile(t, ln, session.ProfileTranslateOuch)
	r := ring.New[frame.Frame](ring.Capacity)

	var f frame.Frame
	f.Length = copy(f.Data[:], s2Message)
	r.Push(&f)

	var closed atomic.Bool
	closed.Store(true)
	ready := make(chan error, 1)

	defaults := translate.Defaults{PriceTicks: 1000000, TIFSeconds: 3600, Firm: [4]byte{'F', 'I', 'R', 'M'}}

	done := make(chan error, 1)
	go func() { done <- RunTranslateTX(sess, r, nil, defaults, -1, closed.Load, nil, nil, ready) }()

	if err := <-ready; err != nil {
		t.Fatalf("ready reported handshake failure: %v", err)
	}

	conn := <-downstream
	defer conn.Close()

	buf := make([]byte, binish.NewOrderSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	conn.Close()
	<-done

	if buf[0] != 'O' {
		t.Fatalf("message type = %q, want 'O'", buf[0])
	}
	if string(buf[1:15]) != "ORD0000000001 " {
		t.Fatalf("token = %q", buf[1:15])
	}
	if buf[15] != 'B' {
		t.Fatalf("side = %q, want 'B'", buf[15])
	}
	if string(buf[20:28]) != "TEST    " {
		t.Fatalf("stock = %q", buf[20:28])
	}
	if buf[48] != 'R' {
		t.Fatalf("customer = %q, want 'R'", buf[48])
	}
}

func TestRunTranslateTXRecordsKernelReadDuration(t *testing.T) {
	ln := listenLoopback(t)
	downstream := make(chan net.Conn, 1)
	go acceptOuchLogin(ln, downstream)

	sess := downstreamProfile(t, ln, session.ProfileTranslateOuch)
	r := ring.New[frame.Frame](ring.Capacity)
	logRing := ring.New[frame.LogRecord](8)

	var f frame.Frame
	f.Length = copy(f.Data[:], s2Message)
	f.RecvStartNs = 1000
	f.RecvEndNs = 1120
	r.Push(&f)

	var closed atomic.Bool
	closed.Store(true)
	ready := make(chan error, 1)

	defaults := translate.Defaults{PriceTicks: 1000000, TIFSeconds: 3600, Firm: [4]byte{'F', 'I', 'R', 'M'}}

	done := make(chan error, 1)
	go func() { done <- RunTranslateTX(sess, r, logRing, defaults, -1, closed.Load, nil, nil, ready) }()

	if err := <-ready; err != nil {
		t.Fatalf("ready reported handshake failure: %v", err)
	}

	conn := <-downstream
	defer conn.Close()

	buf := make([]byte, binish.NewOrderSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	conn.Close()
	<-done

	rec := logRing.Pop()
	if rec == nil {
		t.Fatal("expected a latency record to have been pushed")
	}
	if rec.RecvDurationNs != 120 {
		t.Fatalf("RecvDurationNs = %d, want 120", rec.RecvDurationNs)
	}
}

func TestRunTranslateTXDropsHeartbeat(t *testing.T) {
	ln := listenLoopback(t)
	downstream := make(chan net.Conn, 1)
	go acceptOuchLogin(ln, downstream)

	sess := downstreamProfile(t, ln, session.ProfileTranslateOuch)
	r := ring.New[frame.Frame](ring.Capacity)

	var f frame.Frame
	f.Length = copy(f.Data[:], "8=FIX.4.2\x0135=0\x01")
	r.Push(&f)

	var closed atomic.Bool
	closed.Store(true)
	ready := make(chan error, 1)

	done := make(chan error, 1)
	go func() {
		done <- RunTranslateTX(sess, r, nil, translate.Defaults{}, -1, closed.Load, nil, nil, ready)
	}()

	if err := <-ready; err != nil {
		t.Fatalf("ready reported handshake failure: %v", err)
	}

	conn := <-downstream
	defer conn.Close()

	<-done // TX must exit on its own without ever writing an order
	conn.SetReadDeadline(pastDeadline())
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected no bytes to have been written downstream")
	}
}

func TestRunTranslateTXReportsHandshakeRejection(t *testing.T) {
	ln := listenLoopback(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var login [binish.LoginRequestSize]byte
		readFull(conn, login[:])
		conn.Write([]byte{'R', 0, 0, 0, 0, 0, 0})
	}()

	sess := downstreamProfile(t, ln, session.ProfileTranslateOuch)
	r := ring.New[frame.Frame](ring.Capacity)
	var closed atomic.Bool
	closed.Store(true)
	ready := make(chan error, 1)

	err := RunTranslateTX(sess, r, nil, translate.Defaults{}, -1, closed.Load, nil, nil, ready)
	if err == nil {
		t.Fatal("expected handshake rejection error")
	}
	if readyErr := <-ready; readyErr == nil {
		t.Fatal("expected ready to report the handshake rejection")
	}
	if sess.State() != session.Rejected {
		t.Fatalf("state = %v, want rejected", sess.State())
	}
}
