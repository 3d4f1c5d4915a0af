package core

import (
	"errors"
	"testing"
	"time"

	"github.com/reliefworks/allocation-simulator/model"
)

func queuedRequest(id, priority int) *model.Request {
	return model.NewRequest(id, 1, 2, "Water", 100, priority, model.TypeDemand, time.Now())
}

func mustInsert(t *testing.T, q *RequestQueue, req *model.Request) {
	t.Helper()
	if err := q.Insert(req); err != nil {
		t.Fatalf("Insert(%d) failed: %v", req.ID, err)
	}
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after Insert(%d): %v", req.ID, err)
	}
}

// Three requests with priorities 5, 9, 7: the pop order must be 9, 7, 5
// regardless of insertion order, and the index map must stay exact
// after every mutation.
func TestQueuePopOrderByPriority(t *testing.T) {
	q := NewRequestQueue()
	mustInsert(t, q, queuedRequest(1, 5))
	mustInsert(t, q, queuedRequest(2, 9))
	mustInsert(t, q, queuedRequest(3, 7))

	top, err := q.PeekTop()
	if err != nil {
		t.Fatalf("PeekTop failed: %v", err)
	}
	if top.ID != 2 {
		t.Fatalf("expected request 2 on top, got %d", top.ID)
	}

	popped, err := q.PopTop()
	if err != nil {
		t.Fatalf("PopTop failed: %v", err)
	}
	if popped.ID != 2 {
		t.Fatalf("expected to pop request 2, got %d", popped.ID)
	}
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after PopTop: %v", err)
	}

	// The next peek must surface request 3 (priority 7), not 1.
	top, err = q.PeekTop()
	if err != nil {
		t.Fatalf("PeekTop after pop failed: %v", err)
	}
	if top.ID != 3 {
		t.Fatalf("expected request 3 on top after pop, got %d", top.ID)
	}

	for _, want := range []int{3, 1} {
		popped, err = q.PopTop()
		if err != nil {
			t.Fatalf("PopTop failed: %v", err)
		}
		if popped.ID != want {
			t.Fatalf("expected to pop request %d, got %d", want, popped.ID)
		}
		if err := q.checkInvariants(); err != nil {
			t.Fatalf("invariants broken after PopTop: %v", err)
		}
	}

	if !q.IsEmpty() {
		t.Fatalf("queue should be empty, Len=%d", q.Len())
	}
}

func TestQueueEmptyOperationsReturnSentinel(t *testing.T) {
	q := NewRequestQueue()

	if _, err := q.PeekTop(); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("PeekTop on empty queue: expected ErrEmptyQueue, got %v", err)
	}
	if _, err := q.PopTop(); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("PopTop on empty queue: expected ErrEmptyQueue, got %v", err)
	}
}

func TestQueueRejectsDuplicateIDs(t *testing.T) {
	q := NewRequestQueue()
	mustInsert(t, q, queuedRequest(7, 4))

	err := q.Insert(queuedRequest(7, 8))
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("duplicate insert must not grow the queue, Len=%d", q.Len())
	}
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after rejected insert: %v", err)
	}
}

// Escalating a low-priority request must move it to the top; demoting
// the old top must push it below its siblings. Both reorders go through
// the index map.
func TestQueueUpdatePriorityReorders(t *testing.T) {
	q := NewRequestQueue()
	mustInsert(t, q, queuedRequest(1, 5))
	mustInsert(t, q, queuedRequest(2, 9))
	mustInsert(t, q, queuedRequest(3, 7))

	q.UpdatePriority(1, 10)
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after priority increase: %v", err)
	}
	top, err := q.PeekTop()
	if err != nil {
		t.Fatalf("PeekTop failed: %v", err)
	}
	if top.ID != 1 {
		t.Fatalf("expected escalated request 1 on top, got %d", top.ID)
	}

	q.UpdatePriority(1, 2)
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after priority decrease: %v", err)
	}
	top, err = q.PeekTop()
	if err != nil {
		t.Fatalf("PeekTop failed: %v", err)
	}
	if top.ID != 2 {
		t.Fatalf("expected request 2 back on top after demotion, got %d", top.ID)
	}

	// Unknown IDs are a harmless no-op.
	q.UpdatePriority(999, 50)
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after no-op update: %v", err)
	}
}

func TestQueueFindByID(t *testing.T) {
	q := NewRequestQueue()
	mustInsert(t, q, queuedRequest(1, 5))
	mustInsert(t, q, queuedRequest(2, 9))

	req, ok := q.FindByID(1)
	if !ok || req.ID != 1 {
		t.Fatalf("FindByID(1) = %v, %v; want request 1", req, ok)
	}
	if _, ok := q.FindByID(404); ok {
		t.Fatalf("FindByID(404) should miss")
	}
}

// Cancel flips status without disturbing heap structure; the entry
// stays queued and surfaces on pop with the cancelled flag so drains
// can skip it.
func TestQueueCancelIsAStatusFlag(t *testing.T) {
	q := NewRequestQueue()
	mustInsert(t, q, queuedRequest(1, 5))
	mustInsert(t, q, queuedRequest(2, 9))

	q.Cancel(2)
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after Cancel: %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("cancel must not remove the entry, Len=%d", q.Len())
	}

	popped, err := q.PopTop()
	if err != nil {
		t.Fatalf("PopTop failed: %v", err)
	}
	if popped.ID != 2 || popped.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled request 2 first, got %d status %v", popped.ID, popped.Status)
	}

	// Cancelling an unknown ID is a no-op.
	q.Cancel(999)
	if err := q.checkInvariants(); err != nil {
		t.Fatalf("invariants broken after no-op cancel: %v", err)
	}
}

// Larger churn: interleaved inserts, pops and priority updates must
// keep the heap and index mirrored at every step.
func TestQueueInvariantsUnderChurn(t *testing.T) {
	q := NewRequestQueue()

	for i := 1; i <= 20; i++ {
		mustInsert(t, q, queuedRequest(i, (i*7)%13))
	}
	for i := 1; i <= 20; i += 3 {
		q.UpdatePriority(i, (i*11)%17)
		if err := q.checkInvariants(); err != nil {
			t.Fatalf("invariants broken after UpdatePriority(%d): %v", i, err)
		}
	}

	prev := int(^uint(0) >> 1)
	for !q.IsEmpty() {
		req, err := q.PopTop()
		if err != nil {
			t.Fatalf("PopTop failed: %v", err)
		}
		if req.Priority > prev {
			t.Fatalf("pop order not monotonic: %d after %d", req.Priority, prev)
		}
		prev = req.Priority
		if err := q.checkInvariants(); err != nil {
			t.Fatalf("invariants broken after PopTop: %v", err)
		}
	}
}
