package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/reliefworks/allocation-simulator/model"
)

var (
	ErrEmptyQueue       = errors.New("request queue is empty")
	ErrDuplicateRequest = errors.New("request ID already queued")
)

// RequestQueue is an indexed binary max-heap over pending requests,
// ordered by priority. The id->slot index map makes priority updates
// O(log n) and lookups O(1); it mirrors the heap exactly after every
// mutation, because a stale index would silently corrupt later
// priority updates.
//
// Cancellation is a status flag, not a structural delete: cancelled
// requests stay in the heap and callers skip them when draining.
type RequestQueue struct {
	mu    sync.Mutex
	heap  []*model.Request
	index map[int]int
}

// NewRequestQueue creates an empty queue.
func NewRequestQueue() *RequestQueue {
	return &RequestQueue{
		index: make(map[int]int),
	}
}

// Insert adds a request in O(log n). Duplicate IDs are rejected.
func (q *RequestQueue) Insert(req *model.Request) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrDuplicateRequest)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.index[req.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateRequest, req.ID)
	}
	q.heap = append(q.heap, req)
	q.index[req.ID] = len(q.heap) - 1
	q.siftUp(len(q.heap) - 1)
	return nil
}

// PeekTop returns the maximum-priority request without removing it.
// Callers must check IsEmpty first; ErrEmptyQueue signals a caller bug.
func (q *RequestQueue) PeekTop() (*model.Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return nil, ErrEmptyQueue
	}
	return q.heap[0], nil
}

// PopTop removes and returns the maximum-priority request. The last
// heap element relocates into the vacated root and sifts down; the
// index map is updated for every element whose position changes.
func (q *RequestQueue) PopTop() (*model.Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return nil, ErrEmptyQueue
	}

	top := q.heap[0]
	delete(q.index, top.ID)

	last := len(q.heap) - 1
	if last == 0 {
		q.heap = q.heap[:0]
		return top, nil
	}

	q.heap[0] = q.heap[last]
	q.heap = q.heap[:last]
	q.index[q.heap[0].ID] = 0
	q.siftDown(0)
	return top, nil
}

// UpdatePriority changes a queued request's priority in O(log n),
// sifting up on increase and down on decrease. Unknown IDs are a
// no-op.
func (q *RequestQueue) UpdatePriority(requestID, newPriority int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i, ok := q.index[requestID]
	if !ok {
		return
	}
	old := q.heap[i].Priority
	q.heap[i].Priority = newPriority

	switch {
	case newPriority > old:
		q.siftUp(i)
	case newPriority < old:
		q.siftDown(i)
	}
}

// FindByID returns the queued request in O(1) via the index map.
func (q *RequestQueue) FindByID(requestID int) (*model.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i, ok := q.index[requestID]
	if !ok {
		return nil, false
	}
	return q.heap[i], true
}

// Cancel marks a queued request CANCELLED in place. The entry stays in
// the heap; drains skip it.
func (q *RequestQueue) Cancel(requestID int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i, ok := q.index[requestID]; ok {
		q.heap[i].SetStatus(model.StatusCancelled)
	}
}

// Len returns the number of queued entries, including cancelled ones.
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// IsEmpty reports whether the queue holds no entries.
func (q *RequestQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Pending returns copies of all queued requests in heap order, for
// display and reporting.
func (q *RequestQueue) Pending() []model.Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]model.Request, 0, len(q.heap))
	for _, req := range q.heap {
		out = append(out, *req)
	}
	return out
}

// siftUp restores heap order above slot i. Callers hold q.mu.
func (q *RequestQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.heap[parent].Priority >= q.heap[i].Priority {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// siftDown restores heap order below slot i. Callers hold q.mu.
func (q *RequestQueue) siftDown(i int) {
	n := len(q.heap)
	for {
		largest := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && q.heap[left].Priority > q.heap[largest].Priority {
			largest = left
		}
		if right < n && q.heap[right].Priority > q.heap[largest].Priority {
			largest = right
		}
		if largest == i {
			return
		}
		q.swap(i, largest)
		i = largest
	}
}

// swap exchanges two heap slots and refreshes both index entries.
func (q *RequestQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.index[q.heap[i].ID] = i
	q.index[q.heap[j].ID] = j
}

// checkInvariants verifies the max-heap ordering and the exactness of
// the index map. It exists for tests, which run it after every
// mutation; a failure here is an internal-consistency bug.
func (q *RequestQueue) checkInvariants() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.index) != len(q.heap) {
		return fmt.Errorf("index size %d != heap size %d", len(q.index), len(q.heap))
	}
	for i, req := range q.heap {
		if got, ok := q.index[req.ID]; !ok || got != i {
			return fmt.Errorf("index for request %d is %d, heap slot is %d", req.ID, got, i)
		}
		left := 2*i + 1
		right := 2*i + 2
		if left < len(q.heap) && q.heap[i].Priority < q.heap[left].Priority {
			return fmt.Errorf("heap order violated at slot %d (left child)", i)
		}
		if right < len(q.heap) && q.heap[i].Priority < q.heap[right].Priority {
			return fmt.Errorf("heap order violated at slot %d (right child)", i)
		}
	}
	return nil
}
