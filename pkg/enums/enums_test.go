package enums

import "testing"

func TestOrderStatusCanCancel(t *testing.T) {
	cancellable := map[OrderStatus]bool{
		OrderStatusCreated:   true,
		OrderStatusConfirmed: true,
		OrderStatusPreparing: false,
		OrderStatusOnTheWay:  false,
		OrderStatusDelivered: false,
		OrderStatusCancelled: false,
	}
	for status, want := range cancellable {
		if got := status.CanCancel(); got != want {
			t.Errorf("CanCancel(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("confirmed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusConfirmed {
		t.Fatalf("got %s", status)
	}

	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseOrderType(t *testing.T) {
	typ, err := ParseOrderType("pickup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != OrderTypePickup {
		t.Fatalf("got %s", typ)
	}

	if _, err := ParseOrderType("drone"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("cash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != PaymentMethodCash {
		t.Fatalf("got %s", method)
	}

	if _, err := ParsePaymentMethod("barter"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestParseCurrency(t *testing.T) {
	if _, err := ParseCurrency("MXN"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseCurrency("EUR"); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
}

func TestParseOutboxEventType(t *testing.T) {
	event, err := ParseOutboxEventType("order.delivery.created")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != EventOrderDeliveryCreated {
		t.Fatalf("got %s", event)
	}
	if !OutboxStatusPending.IsValid() {
		t.Fatal("pending should be valid")
	}
}
