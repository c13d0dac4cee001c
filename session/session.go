// Package session models the per-connection splice lifecycle: its
// state machine, its selected Profile, and the monotonic order-token
// counter the translation profile stamps onto every emitted BINish
// order.
package session

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is one node of the session state machine from spec §4.8.
type State int32

const (
	Connecting State = iota
	AwaitingAck
	Active
	Rejected
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case AwaitingAck:
		return "awaiting_ack"
	case Active:
		return "active"
	case Rejected:
		return "rejected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// ProfileKind selects the per-connection behaviour spec §3 calls
// Profile's tagged variant.
type ProfileKind int

const (
	ProfileRelay ProfileKind = iota
	ProfileTranslateOuch
	ProfileTranslateLite
)

// Credentials carries the login fields a translation profile sends
// downstream. Username/Password fill the full OUCH-5-like login; the
// lightweight profile uses the same fields with its own field widths.
type Credentials struct {
	Username string
	Password string
}

// Profile is the tagged variant from spec §3: raw relay, or
// translate-with-downstream-target for one of the two BINish layouts.
type Profile struct {
	Kind           ProfileKind
	DownstreamIP   string
	DownstreamPort int
	Credentials    Credentials
}

func (p Profile) IsTranslate() bool {
	return p.Kind != ProfileRelay
}

// Session is created at accept time, advanced through the handshake
// state machine (translation profiles only — relay sessions go
// straight to Active), and destroyed on either side's disconnect.
type Session struct {
	ID          string // process-local correlation id for logging, distinct from the wire session_id
	Profile     Profile
	state       atomic.Int32
	wireSession [6]byte
	tokenSeq    uint32
}

// New constructs a Session bound to profile, starting in Connecting.
func New(profile Profile) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		Profile: profile,
	}
	s.state.Store(int32(Connecting))
	return s
}

// State returns the session's current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// SetState transitions the session. Callers are responsible for only
// making transitions legal under spec §4.8; Session itself does not
// reject illegal transitions since the pipeline is the only caller and
// its control flow already encodes the state machine's edges.
func (s *Session) SetState(next State) {
	s.state.Store(int32(next))
}

// SetWireSessionID records the 6-byte session identifier returned by a
// positive downstream acknowledgement.
func (s *Session) SetWireSessionID(id [6]byte) {
	s.wireSession = id
}

// WireSessionID returns the downstream-assigned session identifier.
func (s *Session) WireSessionID() [6]byte {
	return s.wireSession
}

// NextOrderToken returns the next 14-byte order token in this
// session's monotonically increasing sequence: "ORD" + a 10-digit
// zero-padded counter starting at 1, space-padded to 14 bytes, per
// spec §3/§4.5. It is only ever called from the TX goroutine, so no
// synchronization beyond the plain increment is needed.
func (s *Session) NextOrderToken() [14]byte {
	s.tokenSeq++
	var tok [14]byte
	text := fmt.Sprintf("ORD%010d", s.tokenSeq)
	copy(tok[:], text)
	for i := len(text); i < len(tok); i++ {
		tok[i] = ' '
	}
	return tok
}
