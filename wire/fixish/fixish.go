// Package fixish implements the inbound wire format: ASCII tag-value
// pairs delimited by 0x01 (SOH), as described in spec §6. The engine
// only ever needs to recognise NewOrderSingle (35=D) and pull four
// tags out of it; everything else on the wire is opaque and ignored,
// matching the teacher's general style of scanning a byte slice for a
// handful of fixed tags rather than building a full parse tree
// (parser.go's tag-probe loop, generalized from JSON keys to FIX tags).
package fixish

import "bytes"

// Delim is the FIX SOH field separator.
const Delim = 0x01

// NewOrderSingleType is the MsgType (tag 35) value that triggers
// translation; every other value is dropped by the translation profile.
const NewOrderSingleType = 'D'

// MaxQuantity bounds tag 38 (OrderQty) to the wire format's unsigned
// 32-bit range with one bit of headroom, matching spec's "≤ 2^31-1".
const MaxQuantity = 1<<31 - 1

// Side mirrors spec's two-way 54 mapping: '1' is buy, everything else
// (including a missing tag) is sell.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

// NewOrder holds the four tags the translation profile extracts from a
// NewOrderSingle, already defaulted per spec's "missing tags default
// to" rule.
type NewOrder struct {
	ClientOrderID []byte // tag 11, trimmed/truncated to 14 bytes
	Side          Side   // tag 54
	Quantity      uint32 // tag 38
	Symbol        []byte // tag 55, up to 8 bytes
}

// SplitMessages breaks a frame's payload into candidate FIX messages.
// Every standard FIX message opens with tag 8 (BeginString), so a
// frame containing several back-to-back messages is split on "8="
// boundaries; a frame with none is treated as a single message, which
// covers the common case of one NewOrderSingle per read (the shape
// every prototype in original_source/ assumes).
func SplitMessages(payload []byte) [][]byte {
	const marker = "8="
	var starts []int
	for i := 0; i+len(marker) <= len(payload); i++ {
		if i > 0 && payload[i-1] != Delim {
			continue
		}
		if string(payload[i:i+len(marker)]) == marker {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return [][]byte{payload}
	}
	msgs := make([][]byte, 0, len(starts))
	for i, s := range starts {
		e := len(payload)
		if i+1 < len(starts) {
			e = starts[i+1]
		}
		msgs = append(msgs, payload[s:e])
	}
	return msgs
}

// IsNewOrderSingle reports whether msg's tag 35 value is "D", per
// spec's "contains the substring 35=D terminated by 0x01 or
// end-of-input" rule.
func IsNewOrderSingle(msg []byte) bool {
	val, ok := tagValue(msg, "35=")
	return ok && len(val) == 1 && val[0] == NewOrderSingleType
}

// ParseNewOrder extracts tags 11, 38, 54 and 55 from a message already
// known to be a NewOrderSingle. ok is false only when tag 38 is present
// but fails to parse as a base-10 unsigned integer within range —
// spec's "malformed message, skip" case; every other combination of
// missing tags is filled in with spec's defaults.
func ParseNewOrder(msg []byte) (NewOrder, bool) {
	var order NewOrder

	if id, ok := tagValue(msg, "11="); ok {
		if len(id) > 14 {
			id = id[:14]
		}
		order.ClientOrderID = id
	}

	order.Side = SideSell
	if side, ok := tagValue(msg, "54="); ok && len(side) == 1 && side[0] == '1' {
		order.Side = SideBuy
	}

	if sym, ok := tagValue(msg, "55="); ok {
		if len(sym) > 8 {
			sym = sym[:8]
		}
		order.Symbol = sym
	}

	if qty, ok := tagValue(msg, "38="); ok {
		n, ok := parseUint32(qty)
		if !ok {
			return NewOrder{}, false
		}
		order.Quantity = n
	}

	return order, true
}

// tagValue scans msg for "<prefix>" (e.g. "11=") and returns the bytes
// up to the next Delim or end of msg. The first match wins, matching
// the original's std::string::find-based extraction.
func tagValue(msg []byte, prefix string) ([]byte, bool) {
	idx := bytes.Index(msg, []byte(prefix))
	if idx < 0 {
		return nil, false
	}
	start := idx + len(prefix)
	end := bytes.IndexByte(msg[start:], Delim)
	if end < 0 {
		return msg[start:], true
	}
	return msg[start : start+end], true
}

// parseUint32 parses an unqualified base-10 unsigned integer, rejecting
// anything that would overflow MaxQuantity or contains a non-digit.
func parseUint32(b []byte) (uint32, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
		if v > MaxQuantity {
			return 0, false
		}
	}
	return uint32(v), true
}
