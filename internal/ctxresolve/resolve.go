// Package ctxresolve substitutes context placeholders in a query tree with
// caller-supplied values.
//
// A placeholder such as current_user() names a context type. The caller
// provides a Pool of typed values; Resolve binds each placeholder to the
// first pool entry of that type, provided the receiving parameter accepts
// context. Lookup is by name only.
package ctxresolve

import (
	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/queryir"
	"github.com/roach88/iql/internal/signature"
)

// Context is one pool member: a value tagged with the context type name
// placeholders refer to.
type Context struct {
	Type  string
	Value any
}

// Pool is an ordered set of context values. When two entries share a type
// the first one wins.
type Pool []Context

// Index builds the type-to-value lookup used during resolution.
func (p Pool) Index() map[string]any {
	m := make(map[string]any, len(p))
	for _, c := range p {
		if _, seen := m[c.Type]; !seen {
			m[c.Type] = c.Value
		}
	}
	return m
}

// Lookup returns the first value of the given type.
func (p Pool) Lookup(typ string) (any, bool) {
	for _, c := range p {
		if c.Type == typ {
			return c.Value, true
		}
	}
	return nil, false
}

// Resolve returns a copy of t where every placeholder argument is replaced
// by an ir.Bound carrying the pool value. t itself is left untouched.
//
// Calls are resolved in pre-order and the first failure is returned:
// HallucinatedOperationError when a call with placeholders has no
// signature, ContextualisationNotAllowedError when the parameter does not
// accept context, ContextNotAvailableError when the pool has no entry of
// the placeholder's type. Calls without placeholders are copied as is,
// registered or not.
func Resolve(t *queryir.Tree, reg *signature.Registry, pool Pool) (*queryir.Tree, error) {
	index := pool.Index()
	return queryir.MapCalls(t, func(leaf int, call *queryir.Call) (*queryir.Call, error) {
		placeholders := call.Placeholders()
		if len(placeholders) == 0 {
			return call, nil
		}

		sig, ok := reg.Lookup(call.Name)
		if !ok {
			return nil, &queryir.HallucinatedOperationError{Name: call.Name, Leaf: leaf}
		}

		args := make([]ir.Value, len(call.Args))
		copy(args, call.Args)
		for _, ph := range placeholders {
			var param signature.Param
			if ph.Index < len(sig.Params) {
				param = sig.Params[ph.Index]
			}
			if param.Type == nil || !signature.AllowsContext(param.Type) {
				return nil, &queryir.ContextualisationNotAllowedError{
					Call:    call.Name,
					Param:   param.Name,
					Context: ph.Name,
				}
			}

			value, ok := index[ph.Name]
			if !ok {
				return nil, &queryir.ContextNotAvailableError{
					Call:    call.Name,
					Param:   param.Name,
					Context: ph.Name,
				}
			}
			args[ph.Index] = ir.Bound{Context: ph.Name, Value: value}
		}
		return call.WithArgs(args), nil
	})
}

// Unresolved lists the distinct context types a tree still needs, in order
// of first appearance.
func Unresolved(t *queryir.Tree) []string {
	var names []string
	seen := make(map[string]bool)
	for _, call := range queryir.Calls(t) {
		for _, ph := range call.Placeholders() {
			if !seen[ph.Name] {
				seen[ph.Name] = true
				names = append(names, ph.Name)
			}
		}
	}
	return names
}
