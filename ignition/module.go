// Package ignition declares deployment modules: named units of deployment configuration which
// register contract instantiations and their constructor arguments.
//
// A module is built once by BuildModule. Nothing is sent to a chain while building; the
// resulting Module is executed by the deployer package.
package ignition

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

var (
	ErrInvalidModuleID   = errors.New("invalid module id")
	ErrInvalidFutureID   = errors.New("invalid future id")
	ErrDuplicateFutureID = errors.New("duplicate future id")
	ErrForeignFuture     = errors.New("future belongs to another module")
	ErrNilBuilder        = errors.New("module builder callback is nil")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// BuilderFunc registers the contracts of a module and returns the futures the module exposes,
// keyed by result name.
type BuilderFunc func(m *ModuleBuilder) map[string]*ContractFuture

// Module is a built deployment module.
type Module struct {
	id      string
	futures []*ContractFuture
	results map[string]*ContractFuture
}

// BuildModule constructs a module named id by running fn exactly once.
func BuildModule(id string, fn BuilderFunc) (*Module, error) {
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModuleID, id)
	}
	if fn == nil {
		return nil, fmt.Errorf("module %s: %w", id, ErrNilBuilder)
	}

	m := &ModuleBuilder{moduleID: id, seen: make(map[string]*ContractFuture)}
	results := fn(m)

	if len(m.errs) > 0 {
		return nil, fmt.Errorf("module %s: %w", id, errors.Join(m.errs...))
	}

	mod := &Module{
		id:      id,
		futures: m.futures,
		results: make(map[string]*ContractFuture, len(results)),
	}
	for name, f := range results {
		if !m.owns(f) {
			return nil, fmt.Errorf("module %s result %q: %w", id, name, ErrForeignFuture)
		}
		mod.results[name] = f
	}

	return mod, nil
}

// ID returns the module ID.
func (m *Module) ID() string { return m.id }

// Futures returns the futures in registration order. Every future is registered after the
// futures it depends on.
func (m *Module) Futures() []*ContractFuture {
	return slices.Clone(m.futures)
}

// Future returns the future with the given ID.
func (m *Module) Future(id string) (*ContractFuture, bool) {
	for _, f := range m.futures {
		if f.id == id {
			return f, true
		}
	}

	return nil, false
}

// Results returns a copy of the futures returned by the builder callback.
func (m *Module) Results() map[string]*ContractFuture {
	out := make(map[string]*ContractFuture, len(m.results))
	for k, v := range m.results {
		out[k] = v
	}

	return out
}

// ResultNames returns the result names in sorted order.
func (m *Module) ResultNames() []string {
	names := make([]string, 0, len(m.results))
	for k := range m.results {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// ModuleBuilder is handed to the BuilderFunc and collects contract registrations.
type ModuleBuilder struct {
	moduleID string
	futures  []*ContractFuture
	seen     map[string]*ContractFuture
	errs     []error
}

// ModuleID returns the ID of the module being built.
func (m *ModuleBuilder) ModuleID() string { return m.moduleID }

// Contract registers the deployment of contractName with the given constructor arguments and
// returns a handle to it. contractName may be a fully qualified artifact name. Arguments are
// kept as given; a *ContractFuture argument resolves to the address of that contract when the
// module is executed.
func (m *ModuleBuilder) Contract(contractName string, args []any, opts ...ContractOption) *ContractFuture {
	f := &ContractFuture{
		moduleID:     m.moduleID,
		contractName: contractName,
		args:         slices.Clone(args),
	}
	if f.args == nil {
		f.args = []any{}
	}
	for _, opt := range opts {
		opt(f)
	}

	// "contracts/Foo.sol:Foo" is identified by its contract name
	localID := contractName[strings.LastIndex(contractName, ":")+1:]
	if f.localID != "" {
		localID = f.localID
	}
	f.id = m.moduleID + "#" + localID

	if !idPattern.MatchString(localID) {
		m.errs = append(m.errs, fmt.Errorf("%w: %q", ErrInvalidFutureID, f.id))
	}
	if _, ok := m.seen[f.id]; ok {
		m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrDuplicateFutureID, f.id))
	} else {
		m.seen[f.id] = f
	}

	for i, arg := range f.args {
		dep, ok := arg.(*ContractFuture)
		if !ok {
			continue
		}
		if !m.owns(dep) {
			m.errs = append(m.errs, fmt.Errorf("%s argument %d: %w", f.id, i, ErrForeignFuture))
			continue
		}
		f.dependencies = append(f.dependencies, dep)
	}

	m.futures = append(m.futures, f)

	return f
}

// owns reports whether f was registered by this builder. A future of another module with the
// same ID is not owned.
func (m *ModuleBuilder) owns(f *ContractFuture) bool {
	return f != nil && m.seen[f.id] == f
}
