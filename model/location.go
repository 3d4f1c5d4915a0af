package model

// Location is a node in the relief network: a warehouse, hospital,
// shelter or distribution hub. Locations are created at scenario load
// time and never destroyed; only their operational flag, occupancy and
// local inventory change over a simulation.
type Location struct {
	ID   int
	Name string

	// Latitude and Longitude are informational only; routing is
	// driven entirely by edge costs, never by geometry.
	Latitude  float64
	Longitude float64

	IsOperational bool

	// MaxCapacity bounds CurrentOccupancy: 0 <= CurrentOccupancy <= MaxCapacity.
	MaxCapacity      int
	CurrentOccupancy int

	// Inventory maps resource type name to the non-negative quantity
	// held locally at this location.
	Inventory map[string]int
}

// NewLocation constructs an operational location with an empty inventory.
func NewLocation(id int, name string, lat, lon float64, maxCapacity int) *Location {
	return &Location{
		ID:            id,
		Name:          name,
		Latitude:      lat,
		Longitude:     lon,
		IsOperational: true,
		MaxCapacity:   maxCapacity,
		Inventory:     make(map[string]int),
	}
}

// SetOperational flips the operational flag, e.g. when a disaster takes
// the location offline.
func (l *Location) SetOperational(operational bool) {
	l.IsOperational = operational
}

// AllocateSpace reserves occupancy at the location. It refuses
// non-positive quantities and anything that would exceed MaxCapacity.
func (l *Location) AllocateSpace(quantity int) bool {
	if quantity <= 0 {
		return false
	}
	if l.CurrentOccupancy+quantity > l.MaxCapacity {
		return false
	}
	l.CurrentOccupancy += quantity
	return true
}

// ReleaseSpace frees previously reserved occupancy, clamped at zero.
func (l *Location) ReleaseSpace(quantity int) {
	if quantity <= 0 {
		return
	}
	l.CurrentOccupancy -= quantity
	if l.CurrentOccupancy < 0 {
		l.CurrentOccupancy = 0
	}
}

// AddInventory credits quantity units of a resource type to the local
// inventory. Non-positive quantities are ignored.
func (l *Location) AddInventory(resourceType string, quantity int) {
	if quantity <= 0 {
		return
	}
	if l.Inventory == nil {
		l.Inventory = make(map[string]int)
	}
	l.Inventory[resourceType] += quantity
}

// UseInventory debits quantity units of a resource type. It succeeds
// only if the full quantity is held locally; partial debits are never
// performed.
func (l *Location) UseInventory(resourceType string, quantity int) bool {
	if quantity <= 0 {
		return false
	}
	if l.Inventory[resourceType] < quantity {
		return false
	}
	l.Inventory[resourceType] -= quantity
	return true
}

// InventoryQuantity reports how many units of a resource type the
// location currently holds. Unknown types read as zero.
func (l *Location) InventoryQuantity(resourceType string) int {
	return l.Inventory[resourceType]
}
