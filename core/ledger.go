package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/reliefworks/allocation-simulator/model"
)

var (
	ErrResourceExists    = errors.New("resource type already exists")
	ErrResourceNotFound  = errors.New("resource type not found")
	ErrInsufficientStock = errors.New("insufficient available stock")
)

// ResourceLedger tracks central stock per resource type with an
// allocated/available split. The ledger deliberately knows nothing
// about locations; crediting a destination's local inventory after a
// successful allocation is the caller's responsibility, keeping the
// two concerns separated.
//
// An unknown resource type is always reported as not found, never
// silently treated as a zero-quantity success.
type ResourceLedger struct {
	mu        sync.RWMutex
	resources map[string]*model.Resource
}

// NewResourceLedger creates an empty ledger.
func NewResourceLedger() *ResourceLedger {
	return &ResourceLedger{
		resources: make(map[string]*model.Resource),
	}
}

// AddResource registers a resource type. Types are unique.
func (l *ResourceLedger) AddResource(res *model.Resource) error {
	if res == nil || res.Type == "" {
		return fmt.Errorf("%w: nil or unnamed resource", ErrResourceNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.resources[res.Type]; exists {
		return fmt.Errorf("%w: %q", ErrResourceExists, res.Type)
	}
	l.resources[res.Type] = res
	return nil
}

// Allocate reserves qty units of a resource type. The reservation is
// all-or-nothing: it fails with ErrInsufficientStock unless the full
// quantity is available. On success the caller is expected to record
// an allocation event and credit the destination's local inventory.
func (l *ResourceLedger) Allocate(resourceType string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	if !res.Allocate(qty) {
		return fmt.Errorf("%w: %q need %d, available %d", ErrInsufficientStock, resourceType, qty, res.Available())
	}
	return nil
}

// Release returns qty reserved units to the free pool, floored at zero.
func (l *ResourceLedger) Release(resourceType string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	res.Release(qty)
	return nil
}

// Consume removes qty units from both allocated and total counts, each
// floored at zero. This models shrinkage, distinct from Allocate
// followed by Release.
func (l *ResourceLedger) Consume(resourceType string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	res.Consume(qty)
	return nil
}

// AddStock credits resupply to a resource type's total.
func (l *ResourceLedger) AddStock(resourceType string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	res.AddStock(qty)
	return nil
}

// HasAvailable is a pure query: does the resource type exist with at
// least qty units free to reserve?
func (l *ResourceLedger) HasAvailable(resourceType string, qty int) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	return res.Available() >= qty, nil
}

// Available returns the free quantity of a resource type.
func (l *ResourceLedger) Available(resourceType string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	return res.Available(), nil
}

// IsBelowCritical reports whether a resource type's available quantity
// has dropped under its critical threshold.
func (l *ResourceLedger) IsBelowCritical(resourceType string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	return res.IsBelowCritical(), nil
}

// Resource returns a copy of the named resource record.
func (l *ResourceLedger) Resource(resourceType string) (model.Resource, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res, ok := l.resources[resourceType]
	if !ok {
		return model.Resource{}, fmt.Errorf("%w: %q", ErrResourceNotFound, resourceType)
	}
	return *res, nil
}

// Types returns all registered resource type names in ascending order.
func (l *ResourceLedger) Types() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	types := make([]string, 0, len(l.resources))
	for t := range l.resources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// CriticalTypes returns the resource types currently below their
// critical level, in ascending order.
func (l *ResourceLedger) CriticalTypes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var critical []string
	for t, res := range l.resources {
		if res.IsBelowCritical() {
			critical = append(critical, t)
		}
	}
	sort.Strings(critical)
	return critical
}

// Snapshot returns copies of every resource record, sorted by type.
func (l *ResourceLedger) Snapshot() []model.Resource {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Resource, 0, len(l.resources))
	for _, res := range l.resources {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
