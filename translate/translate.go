// Package translate bridges wire/fixish and wire/binish: it turns a
// recognised NewOrderSingle into the BINish order record for whichever
// profile the session negotiated, filling in the business fields the
// inbound FIX message never carries (price, TIF, firm, flags) with the
// session's configured defaults. Everything that isn't a
// NewOrderSingle — or fails to parse as one — is silently dropped, per
// spec §4.5's "no downstream write, no error" rule; the TX stage only
// counts it in OrdersDropped and logs it at debug level.
package translate

import (
	"github.com/latticefi/fixrelay/session"
	"github.com/latticefi/fixrelay/wire/binish"
	"github.com/latticefi/fixrelay/wire/fixish"
)

// Defaults carries the business fields a NewOrderSingle never supplies
// and that spec §9 leaves as operator-configured constants rather than
// protocol fields.
type Defaults struct {
	PriceTicks uint32
	TIFSeconds uint32
	Firm       [4]byte
}

// Order is the outcome of translating one FIXish message: exactly one
// of Full or Lite is populated, matching the session's ProfileKind.
type Order struct {
	ClientOrderID []byte
	Full          *binish.NewOrder
	Lite          *binish.LiteOrder
}

// Message attempts to translate a single FIXish message. ok is false
// when msg is not a NewOrderSingle, or is one but fails to parse —
// both are silent-drop cases upstream.
func Message(msg []byte, sess *session.Session, d Defaults) (Order, bool) {
	if !fixish.IsNewOrderSingle(msg) {
		return Order{}, false
	}
	parsed, ok := fixish.ParseNewOrder(msg)
	if !ok {
		return Order{}, false
	}

	side := sideToWire(parsed.Side)
	var symbol [8]byte
	for i := range symbol {
		symbol[i] = ' '
	}
	copy(symbol[:], parsed.Symbol)

	switch sess.Profile.Kind {
	case session.ProfileTranslateLite:
		order := &binish.LiteOrder{
			Side:   side,
			Shares: parsed.Quantity,
			Symbol: symbol,
		}
		return Order{ClientOrderID: parsed.ClientOrderID, Lite: order}, true
	default: // ProfileTranslateOuch
		token := sess.NextOrderToken()
		order := &binish.NewOrder{
			Token:    token,
			Side:     side,
			Shares:   parsed.Quantity,
			Stock:    symbol,
			Price:    d.PriceTicks,
			TIF:      d.TIFSeconds,
			Firm:     d.Firm,
			Display:  'Y',
			Capacity: 'A',
			ISO:      'N',
			MinQty:   0,
			Cross:    'N',
			Customer: 'R',
		}
		return Order{ClientOrderID: parsed.ClientOrderID, Full: order}, true
	}
}

func sideToWire(s fixish.Side) byte {
	if s == fixish.SideBuy {
		return 'B'
	}
	return 'S'
}
