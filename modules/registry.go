package modules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tokenstake/deployments/ignition"
)

var ErrModuleNotFound = errors.New("module not found")

// Constructor builds a module from its ambient dependencies.
type Constructor func(deps Deps) (*ignition.Module, error)

// Registry maps module IDs to their constructors.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Default returns a Registry with every module of this package.
func Default() *Registry {
	r := NewRegistry()
	r.Register(TokenAModuleID, func(Deps) (*ignition.Module, error) { return TokenA() })
	r.Register(StakingModuleID, Staking)

	return r
}

// Register adds or replaces the constructor for id.
func (r *Registry) Register(id string, ctor Constructor) {
	r.ctors[id] = ctor
}

// Names returns the registered module IDs in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// Build evaluates the module registered under id.
func (r *Registry) Build(id string, deps Deps) (*ignition.Module, error) {
	ctor, ok := r.ctors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}

	return ctor(deps)
}
