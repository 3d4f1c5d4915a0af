package model

import "time"

// RequestStatus is the lifecycle state of a relief request. Every
// request ends its life with a terminal status and a human-readable
// note explaining the first failing precondition; no request is ever
// silently dropped.
type RequestStatus int

const (
	StatusPending RequestStatus = iota
	StatusFulfilled
	StatusPartiallyFulfilled
	StatusInvalid
	StatusCancelled
)

func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusFulfilled:
		return "FULFILLED"
	case StatusPartiallyFulfilled:
		return "PARTIAL"
	case StatusInvalid:
		return "INVALID"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// RequestType distinguishes where the moved quantity comes from:
// SUPPLY and DEMAND draw from the central ledger, TRANSFER moves stock
// directly between two location inventories.
type RequestType int

const (
	TypeSupply RequestType = iota
	TypeDemand
	TypeTransfer
)

func (t RequestType) String() string {
	switch t {
	case TypeSupply:
		return "SUPPLY"
	case TypeDemand:
		return "DEMAND"
	case TypeTransfer:
		return "TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// Request asks for RequiredQuantity units of a resource type to be
// moved from a source location to a target location. Requests compete
// for both ledger stock and route capacity; the allocation engine
// resolves them in priority order (higher = more urgent).
type Request struct {
	ID               int
	SourceLocationID int
	TargetLocationID int
	ResourceType     string
	RequiredQuantity int

	// FulfilledQuantity tracks progress, 0 <= Fulfilled <= Required.
	FulfilledQuantity int

	Priority int
	Status   RequestStatus
	Type     RequestType

	CreatedAt time.Time
	Notes     string
}

// NewRequest creates a pending request of the given type.
func NewRequest(id, sourceID, targetID int, resourceType string, qty, priority int, reqType RequestType, createdAt time.Time) *Request {
	return &Request{
		ID:               id,
		SourceLocationID: sourceID,
		TargetLocationID: targetID,
		ResourceType:     resourceType,
		RequiredQuantity: qty,
		Priority:         priority,
		Status:           StatusPending,
		Type:             reqType,
		CreatedAt:        createdAt,
	}
}

// SetStatus moves the request to a new lifecycle state.
func (r *Request) SetStatus(status RequestStatus) {
	r.Status = status
}

// FulfillPartial credits qty toward the required quantity, clamping at
// RequiredQuantity, and derives the status: FULFILLED once the full
// quantity is reached, PARTIALLY_FULFILLED for anything in between.
func (r *Request) FulfillPartial(qty int) {
	if qty <= 0 {
		return
	}
	r.FulfilledQuantity += qty
	if r.FulfilledQuantity >= r.RequiredQuantity {
		r.FulfilledQuantity = r.RequiredQuantity
		r.Status = StatusFulfilled
		return
	}
	r.Status = StatusPartiallyFulfilled
}

// AddNote appends traceability text, separating entries with "; ".
func (r *Request) AddNote(note string) {
	if note == "" {
		return
	}
	if r.Notes != "" {
		r.Notes += "; "
	}
	r.Notes += note
}
