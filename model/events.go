package model

import "time"

// AllocationEvent records one committed movement of stock. The engine
// emits these as structured data so collaborators can choose their own
// rendering (console line, log record, file).
type AllocationEvent struct {
	// ID is a unique identifier for the record, assigned at commit time.
	ID string

	SourceLocationID int
	TargetLocationID int
	ResourceType     string
	Quantity         int
	RequestID        int
	Timestamp        time.Time
}

// NetworkChangeEvent records a route between two locations opening or
// closing. Both directional edges between the endpoints change
// together when this event is emitted.
type NetworkChangeEvent struct {
	FromLocationID int
	ToLocationID   int
	IsOperational  bool
	Timestamp      time.Time
}
