// Package ir provides the argument value model for IQL.
//
// This package contains value definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the value model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is sealed; exhaustive type switches are safe in every stage
//   - Int and Float stay distinct so coercion is an explicit validator decision
//   - Placeholder marks a context slot; Bound is its resolved form and is only
//     produced by context resolution
//   - Canonical JSON (MarshalCanonical) is the only encoding used for hashing
package ir
