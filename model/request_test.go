package model

import (
	"testing"
	"time"
)

func TestFulfillPartialDerivesStatus(t *testing.T) {
	req := NewRequest(1, 1, 2, "Water", 100, 9, TypeDemand, time.Now())
	if req.Status != StatusPending {
		t.Fatalf("new request should be PENDING, got %v", req.Status)
	}

	req.FulfillPartial(40)
	if req.Status != StatusPartiallyFulfilled || req.FulfilledQuantity != 40 {
		t.Fatalf("expected PARTIAL/40, got %v/%d", req.Status, req.FulfilledQuantity)
	}

	// Overshoot clamps at the required quantity and completes.
	req.FulfillPartial(500)
	if req.Status != StatusFulfilled || req.FulfilledQuantity != 100 {
		t.Fatalf("expected FULFILLED/100, got %v/%d", req.Status, req.FulfilledQuantity)
	}

	// Non-positive credits are ignored.
	req.FulfilledQuantity = 10
	req.Status = StatusPartiallyFulfilled
	req.FulfillPartial(0)
	req.FulfillPartial(-5)
	if req.FulfilledQuantity != 10 {
		t.Fatalf("non-positive fulfill must be a no-op, got %d", req.FulfilledQuantity)
	}
}

func TestAddNoteAccumulates(t *testing.T) {
	req := NewRequest(1, 1, 2, "Water", 100, 9, TypeDemand, time.Now())

	req.AddNote("")
	if req.Notes != "" {
		t.Fatalf("empty note must be ignored, got %q", req.Notes)
	}
	req.AddNote("first")
	req.AddNote("second")
	if req.Notes != "first; second" {
		t.Fatalf("expected %q, got %q", "first; second", req.Notes)
	}
}

func TestStatusAndTypeStrings(t *testing.T) {
	statuses := map[RequestStatus]string{
		StatusPending:            "PENDING",
		StatusFulfilled:          "FULFILLED",
		StatusPartiallyFulfilled: "PARTIAL",
		StatusInvalid:            "INVALID",
		StatusCancelled:          "CANCELLED",
		RequestStatus(99):        "UNKNOWN",
	}
	for status, want := range statuses {
		if got := status.String(); got != want {
			t.Fatalf("status %d String() = %q, want %q", status, got, want)
		}
	}

	types := map[RequestType]string{
		TypeSupply:      "SUPPLY",
		TypeDemand:      "DEMAND",
		TypeTransfer:    "TRANSFER",
		RequestType(99): "UNKNOWN",
	}
	for typ, want := range types {
		if got := typ.String(); got != want {
			t.Fatalf("type %d String() = %q, want %q", typ, got, want)
		}
	}
}
