// Package binish implements the fixed-layout binary order protocol the
// engine speaks downstream, in both the full OUCH-5-like profile and
// the lightweight variant used by the BINish test listener (spec §6,
// §9's note that the two profiles are mutually incompatible and are
// therefore kept side by side rather than unified).
//
// Every record is encoded/decoded through explicit byte-slice helpers —
// no struct is cast onto the wire — per the Design Notes' requirement
// that packed records not depend on a language's in-memory layout.
package binish

import "encoding/binary"

// Full profile field widths, per spec §6.
const (
	LoginRequestSize = 1 + 6 + 20 + 4 + 20 // 51
	AcceptedSize     = 1 + 6               // 7
	NewOrderSize     = 49
)

// Lightweight profile field widths.
const (
	LiteLoginRequestSize = 1 + 6 + 10 // 17
	LiteAcceptedSize     = 1 + 6      // 7
	LiteRejectedSize     = 1
	LiteOrderSize        = 1 + 1 + 4 + 8 // 14
)

// DefaultUsername and DefaultPassword are the demo credentials the
// handshake fills in when the session's credentials are empty
// (DefaultPassword on the full profile only), matching fix-gw.cpp's literal username/password and
// spec §6's 20-byte-padded password field.
const (
	DefaultUsername = "USER01"
	DefaultPassword = "PASSWORD1234567890  "
)

func padRight(dst []byte, s string) {
	n := copy(dst, s)
	for ; n < len(dst); n++ {
		dst[n] = ' '
	}
}

// LoginRequest is the full OUCH-5-like login record the translation
// profile sends on connect.
type LoginRequest struct {
	Username string
	Password string
}

// Encode writes the 51-byte login request into buf, which must be at
// least LoginRequestSize bytes.
func (r LoginRequest) Encode(buf []byte) []byte {
	buf = buf[:LoginRequestSize]
	buf[0] = 'U'
	padRight(buf[1:7], r.Username)
	padRight(buf[7:27], r.Password)
	padRight(buf[27:31], "")
	seq := buf[31:51]
	seq[0] = '0'
	for i := 1; i < len(seq); i++ {
		seq[i] = ' '
	}
	return buf
}

// Accepted is the 7-byte login acknowledgement.
type Accepted struct {
	MessageType byte
	SessionID   [6]byte
}

// DecodeAccepted parses an AcceptedSize buffer. ok is false if buf is
// short or the message type is not 'A'.
func DecodeAccepted(buf []byte) (Accepted, bool) {
	if len(buf) < AcceptedSize {
		return Accepted{}, false
	}
	var a Accepted
	a.MessageType = buf[0]
	copy(a.SessionID[:], buf[1:7])
	return a, a.MessageType == 'A'
}

// NewOrder is the 49-byte order record emitted per translated
// NewOrderSingle.
type NewOrder struct {
	Token    [14]byte
	Side     byte
	Shares   uint32
	Stock    [8]byte
	Price    uint32
	TIF      uint32
	Firm     [4]byte
	Display  byte
	Capacity byte
	ISO      byte
	MinQty   uint32
	Cross    byte
	Customer byte
}

// Encode writes the 49-byte record into buf.
func (o NewOrder) Encode(buf []byte) []byte {
	buf = buf[:NewOrderSize]
	buf[0] = 'O'
	copy(buf[1:15], o.Token[:])
	buf[15] = o.Side
	binary.BigEndian.PutUint32(buf[16:20], o.Shares)
	copy(buf[20:28], o.Stock[:])
	binary.BigEndian.PutUint32(buf[28:32], o.Price)
	binary.BigEndian.PutUint32(buf[32:36], o.TIF)
	copy(buf[36:40], o.Firm[:])
	buf[40] = o.Display
	buf[41] = o.Capacity
	buf[42] = o.ISO
	binary.BigEndian.PutUint32(buf[43:47], o.MinQty)
	buf[47] = o.Cross
	buf[48] = o.Customer
	return buf
}

// --- lightweight test profile ---

// LiteLoginRequest is the 17-byte login record of the lightweight
// BINish variant used by the stand-alone test listener.
type LiteLoginRequest struct {
	Username string
	Password string
}

// Encode writes the 17-byte lightweight login request into buf.
func (r LiteLoginRequest) Encode(buf []byte) []byte {
	buf = buf[:LiteLoginRequestSize]
	buf[0] = 'L'
	padRight(buf[1:7], r.Username)
	padRight(buf[7:17], r.Password)
	return buf
}

// LiteAckKind distinguishes the three possible lightweight responses.
type LiteAckKind int

const (
	LiteAckShort LiteAckKind = iota
	LiteAckAccepted
	LiteAckRejected
)

// DecodeLiteAck classifies a lightweight acknowledgement: an empty
// buffer is LiteAckShort, a 7-byte 'A'+session_id is an accept, a
// single 'N' byte is a reject, and anything else (including an 'A'
// shorter than 7 bytes) is LiteAckRejected. The handshake treats every
// kind other than LiteAckAccepted as a rejection.
func DecodeLiteAck(buf []byte) (kind LiteAckKind, sessionID [6]byte) {
	if len(buf) == 0 {
		return LiteAckShort, sessionID
	}
	switch {
	case buf[0] == 'A' && len(buf) >= LiteAcceptedSize:
		copy(sessionID[:], buf[1:7])
		return LiteAckAccepted, sessionID
	case buf[0] == 'N':
		return LiteAckRejected, sessionID
	default:
		return LiteAckRejected, sessionID
	}
}

// LiteOrder is the 14-byte order record of the lightweight profile.
type LiteOrder struct {
	Side   byte
	Shares uint32
	Symbol [8]byte
}

// Encode writes the 14-byte lightweight order record into buf.
func (o LiteOrder) Encode(buf []byte) []byte {
	buf = buf[:LiteOrderSize]
	buf[0] = 'O'
	buf[1] = o.Side
	binary.BigEndian.PutUint32(buf[2:6], o.Shares)
	copy(buf[6:14], o.Symbol[:])
	return buf
}
