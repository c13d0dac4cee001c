package pipeline

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/session"
	"github.com/latticefi/fixrelay/wire/binish"
)

// Handshake dials the session's downstream target, disables Nagle's
// algorithm, sends the profile's login record and blocks for the
// acknowledgement, per spec §4.2. It never reads from the client
// socket — the caller must not launch RX until this returns a live
// conn and sess.State() == session.Active. log may be nil.
func Handshake(sess *session.Session, log *zap.Logger) (net.Conn, error) {
	sess.SetState(session.AwaitingAck)

	addr := net.JoinHostPort(sess.Profile.DownstreamIP, fmt.Sprint(sess.Profile.DownstreamPort))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		sess.SetState(session.Rejected)
		if log != nil {
			log.Warn("downstream dial failed", zap.Error(err))
		}
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}

	switch sess.Profile.Kind {
	case session.ProfileTranslateLite:
		return handshakeLite(conn, sess, log)
	default: // ProfileTranslateOuch
		return handshakeOuch(conn, sess, log)
	}
}

func handshakeOuch(conn net.Conn, sess *session.Session, log *zap.Logger) (net.Conn, error) {
	login := binish.LoginRequest{
		Username: sess.Profile.Credentials.Username,
		Password: sess.Profile.Credentials.Password,
	}
	if login.Username == "" {
		login.Username = binish.DefaultUsername
	}
	if login.Password == "" {
		login.Password = binish.DefaultPassword
	}

	var buf [binish.LoginRequestSize]byte
	if err := writeFull(conn, login.Encode(buf[:])); err != nil {
		sess.SetState(session.Rejected)
		conn.Close()
		return nil, err
	}

	var ack [binish.AcceptedSize]byte
	n, err := readFull(conn, ack[:])
	if err != nil || n < binish.AcceptedSize {
		sess.SetState(session.Rejected)
		conn.Close()
		if log != nil {
			log.Warn("ouch login ack short or failed", zap.Error(err))
		}
		return nil, fmt.Errorf("handshake: short or failed ack read: %w", err)
	}
	parsed, ok := binish.DecodeAccepted(ack[:])
	if !ok {
		sess.SetState(session.Rejected)
		conn.Close()
		if log != nil {
			log.Warn("ouch login rejected", zap.Uint8("code", ack[0]))
		}
		return nil, fmt.Errorf("handshake: rejected, first byte %q", ack[0])
	}

	sess.SetWireSessionID(parsed.SessionID)
	sess.SetState(session.Active)
	return conn, nil
}

func handshakeLite(conn net.Conn, sess *session.Session, log *zap.Logger) (net.Conn, error) {
	login := binish.LiteLoginRequest{
		Username: sess.Profile.Credentials.Username,
		Password: sess.Profile.Credentials.Password,
	}
	if login.Username == "" {
		login.Username = binish.DefaultUsername
	}

	var buf [binish.LiteLoginRequestSize]byte
	if err := writeFull(conn, login.Encode(buf[:])); err != nil {
		sess.SetState(session.Rejected)
		conn.Close()
		return nil, err
	}

	var ack [binish.LiteAcceptedSize]byte
	n, err := readFull(conn, ack[:])
	if err != nil && n == 0 {
		sess.SetState(session.Rejected)
		conn.Close()
		if log != nil {
			log.Warn("lite login ack failed", zap.Error(err))
		}
		return nil, fmt.Errorf("handshake: failed ack read: %w", err)
	}

	kind, sessionID := binish.DecodeLiteAck(ack[:n])
	if kind != binish.LiteAckAccepted {
		sess.SetState(session.Rejected)
		conn.Close()
		if log != nil {
			log.Warn("lite login rejected", zap.Int("kind", int(kind)))
		}
		return nil, fmt.Errorf("handshake: rejected")
	}

	sess.SetWireSessionID(sessionID)
	sess.SetState(session.Active)
	return conn, nil
}

// readFull reads until buf is full, EOF, or an error, returning
// whatever prefix it managed together with the read error (io.EOF on
// a short read at EOF). handshakeLite classifies any non-empty prefix
// despite that error, so the single-byte 'N' reject shares this helper
// with the 7-byte accept.
func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
