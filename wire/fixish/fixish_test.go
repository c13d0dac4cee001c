package fixish

import "testing"

func soh(parts ...string) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
		out = append(out, Delim)
	}
	return out
}

func TestIsNewOrderSingle(t *testing.T) {
	msg := soh("8=FIX.4.2", "35=D", "11=ORD1")
	if !IsNewOrderSingle(msg) {
		t.Fatal("expected 35=D to be recognised")
	}
	heartbeat := soh("8=FIX.4.2", "35=0")
	if IsNewOrderSingle(heartbeat) {
		t.Fatal("heartbeat must not be recognised as NewOrderSingle")
	}
}

func TestParseNewOrderDefaults(t *testing.T) {
	msg := soh("8=FIX.4.2", "35=D")
	order, ok := ParseNewOrder(msg)
	if !ok {
		t.Fatal("parse should succeed with all tags missing")
	}
	if order.Side != SideSell {
		t.Fatalf("missing side should default to sell, got %v", order.Side)
	}
	if order.Quantity != 0 {
		t.Fatalf("missing quantity should default to 0, got %d", order.Quantity)
	}
	if len(order.ClientOrderID) != 0 {
		t.Fatalf("missing client order id should default to blank, got %q", order.ClientOrderID)
	}
}

func TestParseNewOrderExplicitFields(t *testing.T) {
	msg := soh("8=FIX.4.2", "35=D", "11=ORD1", "54=1", "38=100", "55=TEST")
	order, ok := ParseNewOrder(msg)
	if !ok {
		t.Fatal("parse should succeed")
	}
	if string(order.ClientOrderID) != "ORD1" {
		t.Fatalf("client order id = %q", order.ClientOrderID)
	}
	if order.Side != SideBuy {
		t.Fatalf("side = %v, want buy", order.Side)
	}
	if order.Quantity != 100 {
		t.Fatalf("quantity = %d, want 100", order.Quantity)
	}
	if string(order.Symbol) != "TEST" {
		t.Fatalf("symbol = %q", order.Symbol)
	}
}

func TestParseNewOrderSellSide(t *testing.T) {
	msg := soh("35=D", "54=2")
	order, ok := ParseNewOrder(msg)
	if !ok || order.Side != SideSell {
		t.Fatalf("side=2 should map to sell, got %v ok=%v", order.Side, ok)
	}
}

func TestParseNewOrderQuantityOverflow(t *testing.T) {
	msg := soh("35=D", "38=99999999999999999999")
	if _, ok := ParseNewOrder(msg); ok {
		t.Fatal("overflowing quantity should be rejected as malformed")
	}
}

func TestParseNewOrderQuantityNonNumeric(t *testing.T) {
	msg := soh("35=D", "38=12a4")
	if _, ok := ParseNewOrder(msg); ok {
		t.Fatal("non-numeric quantity should be rejected as malformed")
	}
}

func TestClientOrderIDTruncatedTo14(t *testing.T) {
	msg := soh("35=D", "11=012345678901234567")
	order, ok := ParseNewOrder(msg)
	if !ok {
		t.Fatal("parse should succeed")
	}
	if len(order.ClientOrderID) != 14 {
		t.Fatalf("client order id length = %d, want 14", len(order.ClientOrderID))
	}
}

func TestSplitMessagesSingle(t *testing.T) {
	msg := soh("8=FIX.4.2", "35=D")
	msgs := SplitMessages(msg)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
}

func TestSplitMessagesMultiple(t *testing.T) {
	a := soh("8=FIX.4.2", "35=D", "11=A")
	b := soh("8=FIX.4.2", "35=0")
	c := soh("8=FIX.4.2", "35=D", "11=B")
	combined := append(append(append([]byte{}, a...), b...), c...)

	msgs := SplitMessages(combined)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if !IsNewOrderSingle(msgs[0]) || IsNewOrderSingle(msgs[1]) || !IsNewOrderSingle(msgs[2]) {
		t.Fatal("message classification mismatch after split")
	}
}
