package validate

import (
	"errors"

	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/queryir"
	"github.com/roach88/iql/internal/signature"
)

// LeafReport holds the findings for one call leaf.
type LeafReport struct {
	// Index is the pre-order position of the call in the tree.
	Index int
	Call  *queryir.Call

	// Signature is nil when the call is hallucinated.
	Signature *signature.Signature

	Hallucinated bool

	// ArityErr is set when the argument count differs from the signature.
	ArityErr *queryir.ArgumentValidationError

	// Args has one result per supplied argument. Arguments beyond the
	// declared arity are marked invalid with an empty Param.
	Args []ArgResult
}

// Valid reports whether the leaf has no findings.
func (l LeafReport) Valid() bool {
	if l.Hallucinated || l.ArityErr != nil {
		return false
	}
	for _, a := range l.Args {
		if !a.Valid {
			return false
		}
	}
	return true
}

// ArgumentErrors returns the arity error, if any, followed by one error
// per invalid argument.
func (l LeafReport) ArgumentErrors() []error {
	var errs []error
	if l.ArityErr != nil {
		errs = append(errs, l.ArityErr)
	}
	for i, a := range l.Args {
		if a.Valid || a.Param == "" {
			continue
		}
		errs = append(errs, queryir.NewArgumentTypeError(l.Call.Name, l.Index, i, a.Param, a.Reason))
	}
	return errs
}

// Err returns the leaf's findings as one error, or nil.
func (l LeafReport) Err() error {
	if l.Hallucinated {
		return &queryir.HallucinatedOperationError{Name: l.Call.Name, Leaf: l.Index}
	}
	return errors.Join(l.ArgumentErrors()...)
}

// Report is the result of validating a tree.
type Report struct {
	Tree   *queryir.Tree
	Leaves []LeafReport
}

// Valid reports whether every leaf is registered and correctly typed.
func (r *Report) Valid() bool {
	for _, l := range r.Leaves {
		if !l.Valid() {
			return false
		}
	}
	return true
}

// Calls returns the number of call leaves.
func (r *Report) Calls() int {
	return len(r.Leaves)
}

// HallucinatedCount returns the number of calls to unregistered operations.
func (r *Report) HallucinatedCount() int {
	n := 0
	for _, l := range r.Leaves {
		if l.Hallucinated {
			n++
		}
	}
	return n
}

// HallucinationRatio returns hallucinated calls over all calls, or 0 for a
// tree without calls.
func (r *Report) HallucinationRatio() float64 {
	if len(r.Leaves) == 0 {
		return 0
	}
	return float64(r.HallucinatedCount()) / float64(len(r.Leaves))
}

// InvalidCount returns the number of argument validation errors, counting
// an arity mismatch once.
func (r *Report) InvalidCount() int {
	n := 0
	for _, l := range r.Leaves {
		n += len(l.ArgumentErrors())
	}
	return n
}

// Errors lists every finding in tree order: a HallucinatedOperationError
// for unregistered calls, ArgumentValidationErrors otherwise.
func (r *Report) Errors() []error {
	var errs []error
	for _, l := range r.Leaves {
		if l.Hallucinated {
			errs = append(errs, &queryir.HallucinatedOperationError{Name: l.Call.Name, Leaf: l.Index})
			continue
		}
		errs = append(errs, l.ArgumentErrors()...)
	}
	return errs
}

// Coerced returns the coerced arguments of leaf index, or nil when the
// index is out of range.
func (r *Report) Coerced(index int) []ir.Value {
	if index < 0 || index >= len(r.Leaves) {
		return nil
	}
	args := r.Leaves[index].Args
	out := make([]ir.Value, len(args))
	for i, a := range args {
		out[i] = a.Coerced
	}
	return out
}

// CoercedTree returns a copy of the tree with every argument replaced by
// its coerced value. It fails when the report is not valid.
func (r *Report) CoercedTree() (*queryir.Tree, error) {
	if err := errors.Join(r.Errors()...); err != nil {
		return nil, err
	}
	return queryir.MapCalls(r.Tree, func(i int, c *queryir.Call) (*queryir.Call, error) {
		return c.WithArgs(r.Coerced(i)), nil
	})
}

// Enforce returns the findings the policy escalates, joined, or nil.
func (r *Report) Enforce(p Policy) error {
	var errs []error
	for _, l := range r.Leaves {
		if l.Hallucinated {
			if p.FailOnHallucination {
				errs = append(errs, &queryir.HallucinatedOperationError{Name: l.Call.Name, Leaf: l.Index})
			}
			continue
		}
		if p.FailOnInvalidArgument {
			errs = append(errs, l.ArgumentErrors()...)
		}
	}
	return errors.Join(errs...)
}
