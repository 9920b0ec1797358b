package signature

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/iql/internal/lexer"
)

// Param is one named, typed parameter.
type Param struct {
	Name string
	Type Type
}

// Signature describes one operation a view exposes.
type Signature struct {
	Name        string
	Params      []Param
	Description string
}

// Arity returns the number of declared parameters.
func (s Signature) Arity() int {
	return len(s.Params)
}

// String renders the signature as `name(param: type, ...)`.
func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(typeString(p.Type))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Entry is a name/description pair, as listed for prompt display.
type Entry struct {
	Name        string
	Description string
}

// Registry maps operation names to signatures.
//
// Register is not safe for concurrent use. Once construction is done the
// registry is read-only and any number of goroutines may call Lookup, List
// and Len without coordination.
type Registry struct {
	byName map[string]Signature
	order  []string
}

// NewRegistry builds a registry from sigs in order.
func NewRegistry(sigs ...Signature) (*Registry, error) {
	r := &Registry{byName: make(map[string]Signature, len(sigs))}
	for _, sig := range sigs {
		if err := r.Register(sig); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a signature. Names must be unique identifiers and every
// parameter needs a unique name and a type.
func (r *Registry) Register(sig Signature) error {
	if r.byName == nil {
		r.byName = make(map[string]Signature)
	}
	if err := checkName(sig.Name); err != nil {
		return fmt.Errorf("register operation: %w", err)
	}
	if _, dup := r.byName[sig.Name]; dup {
		return fmt.Errorf("register operation: %s already registered", sig.Name)
	}

	seen := make(map[string]bool, len(sig.Params))
	for i, p := range sig.Params {
		if err := checkName(p.Name); err != nil {
			return fmt.Errorf("register operation %s: parameter %d: %w", sig.Name, i, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("register operation %s: duplicate parameter %s", sig.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Type == nil {
			return fmt.Errorf("register operation %s: parameter %s has no type", sig.Name, p.Name)
		}
	}

	// Copy so later changes to the caller's slice cannot reach the registry.
	params := make([]Param, len(sig.Params))
	copy(params, sig.Params)
	sig.Params = params

	r.byName[sig.Name] = sig
	r.order = append(r.order, sig.Name)
	return nil
}

// Lookup returns the signature registered under name.
func (r *Registry) Lookup(name string) (Signature, bool) {
	if r == nil {
		return Signature{}, false
	}
	sig, ok := r.byName[name]
	return sig, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// List returns name/description pairs in registration order.
func (r *Registry) List() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.order))
	for i, name := range r.order {
		out[i] = Entry{Name: name, Description: r.byName[name].Description}
	}
	return out
}

// Signatures returns every signature in registration order.
func (r *Registry) Signatures() []Signature {
	if r == nil {
		return nil
	}
	out := make([]Signature, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if lexer.IsKeyword(name) {
		return fmt.Errorf("%q is a reserved word", name)
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("%q is not an identifier", name)
	}
	return nil
}
