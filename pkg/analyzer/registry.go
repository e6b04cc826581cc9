// Package analyzer provides the per-dimension risk calculators and the
// registry/engine that runs them over a metadata snapshot.
package analyzer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Calculator scores one risk dimension from a metadata snapshot.
// Implementations are pure: the same snapshot always yields the same result.
type Calculator interface {
	// Dimension returns the dimension this calculator scores.
	Dimension() interfaces.Dimension

	// Calculate returns a score in [0,10] and the concerns behind it.
	Calculate(s *interfaces.MetadataSnapshot) interfaces.DimensionResult
}

// Registry manages a collection of calculators and tracks which are enabled.
type Registry struct {
	mu          sync.RWMutex
	calculators map[interfaces.Dimension]Calculator
	enabled     map[interfaces.Dimension]bool
}

// NewRegistry creates an empty calculator registry.
func NewRegistry() *Registry {
	return &Registry{
		calculators: make(map[interfaces.Dimension]Calculator),
		enabled:     make(map[interfaces.Dimension]bool),
	}
}

// NewDefaultRegistry returns a registry holding the four standard calculators.
func NewDefaultRegistry(opts ...Option) *Registry {
	o := newOptions(opts)
	r := NewRegistry()
	for _, c := range []Calculator{
		NewSecurity(),
		NewOperational(opts...),
		NewCompliance(o.licenses),
		NewSupplyChain(o.catalog),
	} {
		// Dimensions are distinct so Register cannot fail here.
		_ = r.Register(c)
	}
	return r
}

// Register adds a calculator to the registry. It is enabled by default.
// Returns an error if a calculator for the same dimension is already registered.
func (r *Registry) Register(c Calculator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := c.Dimension()
	if _, exists := r.calculators[d]; exists {
		return fmt.Errorf("analyzer: %q is already registered", d)
	}

	r.calculators[d] = c
	r.enabled[d] = true
	return nil
}

// Get returns the calculator for a dimension. Returns nil if not found.
func (r *Registry) Get(d interfaces.Dimension) Calculator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calculators[d]
}

// List returns the registered dimensions in canonical order.
func (r *Registry) List() []interfaces.Dimension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orderedLocked(func(interfaces.Dimension) bool { return true })
}

// SetEnabled enables or disables a calculator by dimension.
// Returns an error if the dimension is not registered.
func (r *Registry) SetEnabled(d interfaces.Dimension, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calculators[d]; !exists {
		return fmt.Errorf("analyzer: %q is not registered", d)
	}
	r.enabled[d] = enabled
	return nil
}

// IsEnabled reports whether the calculator for a dimension is enabled.
func (r *Registry) IsEnabled(d interfaces.Dimension) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[d]
}

// EnabledCalculators returns the enabled calculators in canonical dimension order.
func (r *Registry) EnabledCalculators() []Calculator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dims := r.orderedLocked(func(d interfaces.Dimension) bool { return r.enabled[d] })
	result := make([]Calculator, 0, len(dims))
	for _, d := range dims {
		result = append(result, r.calculators[d])
	}
	return result
}

// orderedLocked returns matching dimensions: canonical ones first, then any
// custom dimensions sorted by name. Callers hold r.mu.
func (r *Registry) orderedLocked(keep func(interfaces.Dimension) bool) []interfaces.Dimension {
	var dims, extra []interfaces.Dimension
	for _, d := range interfaces.Dimensions {
		if _, ok := r.calculators[d]; ok && keep(d) {
			dims = append(dims, d)
		}
	}
	for d := range r.calculators {
		if !slices.Contains(interfaces.Dimensions, d) && keep(d) {
			extra = append(extra, d)
		}
	}
	slices.Sort(extra)
	return append(dims, extra...)
}
