/*
component.go - Salary component registration and lookup

PURPOSE:
  Provides a registry for domain packages to register the salary components
  they write into payslips. A payslip line is keyed by component name; the
  registry tells the payslip which collection (earnings or deductions) the
  name belongs to.

HOW IT WORKS:
  1. Domain packages define their components
  2. Domain packages register them on init()
  3. payslip.Aggregate.Upsert looks the kind up when routing a line

USAGE:
  // In violations/deduction.go
  func init() {
      generic.RegisterComponent(ComponentAbsent)
  }

  c, ok := generic.LookupComponent("Absent Deduction")

SEE ALSO:
  - violations/deduction.go: the four attendance deduction components
  - overtime/aggregate.go: the overtime earning component
  - payslip/aggregate.go: consumer of the registry
*/
package generic

import (
	"fmt"
	"sort"
	"sync"
)

// SalaryComponent is a named earning or deduction.
type SalaryComponent struct {
	Name        string
	Kind        ComponentKind
	Description string
}

// =============================================================================
// COMPONENT REGISTRY
// =============================================================================

var (
	componentRegistry = make(map[string]SalaryComponent)
	registryMu        sync.RWMutex
)

// RegisterComponent adds a component to the global registry.
// Call this from domain package init() functions.
func RegisterComponent(c SalaryComponent) {
	if c.Name == "" || !c.Kind.Valid() {
		panic(fmt.Sprintf("invalid salary component: %+v", c))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	componentRegistry[c.Name] = c
}

// LookupComponent finds a registered component by name.
func LookupComponent(name string) (SalaryComponent, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := componentRegistry[name]
	return c, ok
}

// MustLookupComponent finds a registered component or panics.
// Use in tests or when you're certain the component exists.
func MustLookupComponent(name string) SalaryComponent {
	c, ok := LookupComponent(name)
	if !ok {
		panic(fmt.Sprintf("salary component not registered: %s", name))
	}
	return c
}

// ListComponents returns all registered components sorted by kind, then name.
func ListComponents() []SalaryComponent {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SalaryComponent, 0, len(componentRegistry))
	for _, c := range componentRegistry {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind == KindEarning
		}
		return result[i].Name < result[j].Name
	})
	return result
}
