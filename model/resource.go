package model

import "github.com/shopspring/decimal"

// Resource is one centrally stocked resource type. The ledger keeps a
// total/allocated split: Available() is what remains free to reserve.
// The struct is mutated only through the methods below, which keep
// 0 <= AllocatedQuantity <= TotalQuantity at all times.
type Resource struct {
	Type              string
	TotalQuantity     int
	AllocatedQuantity int

	// ExpiryDays is informational: days until the stock expires, zero
	// meaning no expiry.
	ExpiryDays int

	// UnitCost is the procurement cost per unit, used for inventory
	// valuation in reports.
	UnitCost decimal.Decimal

	// UnitWeight is the per-unit transport weight. Transfer load on a
	// route is ceil(quantity * UnitWeight).
	UnitWeight decimal.Decimal

	// CriticalLevel is the available-quantity threshold below which
	// the resource triggers a shortage warning. It is a warning
	// threshold, never a hard allocation block.
	CriticalLevel int
}

// Available returns the quantity free to reserve.
func (r *Resource) Available() int {
	return r.TotalQuantity - r.AllocatedQuantity
}

// Allocate reserves qty units. It succeeds only if the full quantity is
// available; the reservation is all-or-nothing.
func (r *Resource) Allocate(qty int) bool {
	if qty <= 0 {
		return false
	}
	if r.Available() < qty {
		return false
	}
	r.AllocatedQuantity += qty
	return true
}

// Release returns qty previously reserved units to the free pool,
// clamped so the allocated count never goes negative.
func (r *Resource) Release(qty int) {
	if qty <= 0 {
		return
	}
	r.AllocatedQuantity -= qty
	if r.AllocatedQuantity < 0 {
		r.AllocatedQuantity = 0
	}
}

// Consume removes qty units from both the allocated and total counts,
// each clamped at zero. This models shrinkage or shortage, as opposed
// to Allocate followed by Release which leaves the total untouched.
func (r *Resource) Consume(qty int) {
	if qty <= 0 {
		return
	}
	r.AllocatedQuantity -= qty
	if r.AllocatedQuantity < 0 {
		r.AllocatedQuantity = 0
	}
	r.TotalQuantity -= qty
	if r.TotalQuantity < 0 {
		r.TotalQuantity = 0
	}
}

// AddStock credits resupply to the total.
func (r *Resource) AddStock(qty int) {
	if qty <= 0 {
		return
	}
	r.TotalQuantity += qty
}

// IsBelowCritical reports whether the available quantity has dropped
// under the critical threshold.
func (r *Resource) IsBelowCritical() bool {
	return r.Available() < r.CriticalLevel
}

// TransportLoad converts a requested quantity into route load units:
// ceil(qty * UnitWeight), never negative.
func (r *Resource) TransportLoad(qty int) int {
	if qty <= 0 {
		return 0
	}
	load := r.UnitWeight.Mul(decimal.NewFromInt(int64(qty))).Ceil()
	return int(load.IntPart())
}
