// Package queryir defines the IQL query tree handed from the parser to the
// validator, the context resolver and external executors.
//
// A tree is a boolean combination of operation calls:
//
//	not (a() and b() and c())  =>  Not(And[Call(a), Call(b), Call(c)])
//
// SEALED INTERFACES:
//
// Node is a sealed interface using the marker method pattern. Only *Call,
// *And, *Or and *Not implement it, so type switches over nodes are
// exhaustive:
//
//	switch n := node.(type) {
//	case *Call:
//	case *And:
//	case *Or:
//	case *Not:
//	}
//
// IMMUTABILITY:
//
// Trees are never mutated after construction. Stages that change argument
// values (coercion, context resolution) return new trees and leave their
// input untouched, so one parsed tree can be validated any number of times
// and shared across goroutines.
//
// ERRORS:
//
// The package also owns the IQL error taxonomy. Every engine failure is one
// of six typed errors, each carrying a stable ErrorCode; see CodeOf.
package queryir
