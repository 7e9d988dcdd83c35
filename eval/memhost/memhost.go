// Package memhost is an in-memory Host: a tree of members built from Go
// closures. Tests and embedders use it to evaluate generated programs
// without a real library build.
package memhost

import (
	"context"
	"fmt"
	"strings"

	"github.com/rix0rrr/cdk-reflect/eval"
)

// Member is a node in the member tree. It may be callable, hold a static
// value, contain further members, or any combination.
type Member struct {
	call     func(args []any) (any, error)
	value    any
	hasValue bool
	members  map[string]*Member
}

// Call invokes the member as a constructor or static method.
func (m *Member) Call(args []any) (any, error) {
	if m.call == nil {
		return nil, fmt.Errorf("member is not callable")
	}
	return m.call(args)
}

// Member returns a child member.
func (m *Member) Member(name string) (eval.Callable, error) {
	child, ok := m.members[name]
	if !ok {
		return nil, fmt.Errorf("no member %q", name)
	}
	return child, nil
}

// Value reads the member as a static property.
func (m *Member) Value() (any, error) {
	if !m.hasValue {
		return nil, fmt.Errorf("member has no value")
	}
	return m.value, nil
}

// Host is an in-memory module tree.
type Host struct {
	modules map[string]*Member
	root    func(ctx context.Context) (any, error)
}

// New creates a host whose ScopeValue root is produced by root. A nil root
// yields an opaque default object.
func New(root func(ctx context.Context) (any, error)) *Host {
	if root == nil {
		root = func(context.Context) (any, error) {
			return map[string]any{"$root": true}, nil
		}
	}
	return &Host{modules: make(map[string]*Member), root: root}
}

// Root implements eval.Host.
func (h *Host) Root(ctx context.Context) (any, error) {
	return h.root(ctx)
}

// Module implements eval.Host.
func (h *Host) Module(name string) (eval.Callable, error) {
	m, ok := h.modules[name]
	if !ok {
		return nil, fmt.Errorf("no module %q", name)
	}
	return m, nil
}

// AddCallable registers a constructor or static method under fqn.
func (h *Host) AddCallable(fqn string, fn func(args []any) (any, error)) {
	h.ensure(fqn).call = fn
}

// AddValue registers a static property value under fqn (e.g. an enum
// member "M.E.A").
func (h *Host) AddValue(fqn string, v any) {
	m := h.ensure(fqn)
	m.value = v
	m.hasValue = true
}

func (h *Host) ensure(fqn string) *Member {
	parts := strings.Split(fqn, ".")
	m, ok := h.modules[parts[0]]
	if !ok {
		m = &Member{members: make(map[string]*Member)}
		h.modules[parts[0]] = m
	}
	for _, part := range parts[1:] {
		child, ok := m.members[part]
		if !ok {
			child = &Member{members: make(map[string]*Member)}
			m.members[part] = child
		}
		m = child
	}
	return m
}
