package domain

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusProcessing},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusRefunded},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusProcessing, OrderStatusRefunded},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusReturned},
		{OrderStatusDelivered, OrderStatusCompleted},
		{OrderStatusDelivered, OrderStatusReturned},
		{OrderStatusCompleted, OrderStatusReturned},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	rejected := []struct{ from, to OrderStatus }{
		{OrderStatusCompleted, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusPaid},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusRefunded, OrderStatusPaid},
		{OrderStatusReturned, OrderStatusCompleted},
		{OrderStatusPending, OrderStatusPending},
	}
	for _, tr := range rejected {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be rejected", tr.from, tr.to)
		}
	}
}

func TestValidOrderStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []OrderStatus{
		OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded, OrderStatusReturned,
	} {
		if !ValidOrderStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if ValidOrderStatus("SHIPPING") {
		t.Errorf("expected unknown status to be invalid")
	}
}

func TestReservationStatus_Terminal(t *testing.T) {
	t.Parallel()

	if ReservationStatusActive.Terminal() {
		t.Errorf("ACTIVE must not be terminal")
	}
	for _, s := range []ReservationStatus{
		ReservationStatusConverted, ReservationStatusExpired, ReservationStatusCancelled,
	} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
}
