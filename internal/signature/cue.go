package signature

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// cueSchema constrains operation declarations written in CUE:
//
//	operation: filter_by_name: {
//		description: "Filter people by name"
//		params: [{name: "name", type: "str"}]
//	}
const cueSchema = `
#Param: {
	name: string & != ""
	type: string & != ""
}
#Operation: {
	description?: string
	params: [...#Param] | *[]
}
operation?: [string]: #Operation
`

// DeclarationError is a CUE declaration failure with source position.
type DeclarationError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DeclarationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseCUE compiles CUE source and extracts its operation declarations in
// source order.
func ParseCUE(src []byte, filename string) ([]Declaration, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(cueSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileOperations(v.LookupPath(cue.ParsePath("operation")))
}

// CompileOperations reads declarations from a CUE struct whose fields are
// operation names.
func CompileOperations(v cue.Value) ([]Declaration, error) {
	if !v.Exists() {
		return nil, nil
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []Declaration
	for iter.Next() {
		decl, err := compileOperation(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func compileOperation(name string, v cue.Value) (Declaration, error) {
	decl := Declaration{Name: name}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return decl, formatCUEError(err)
		}
		decl.Description = desc
	}

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return decl, nil
	}

	iter, err := paramsVal.List()
	if err != nil {
		return decl, formatCUEError(err)
	}
	for iter.Next() {
		p := iter.Value()
		paramName, err := p.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return decl, formatCUEError(err)
		}
		typeExpr, err := p.LookupPath(cue.ParsePath("type")).String()
		if err != nil {
			return decl, formatCUEError(err)
		}
		if _, err := ParseType(typeExpr); err != nil {
			return decl, &DeclarationError{
				Field:   fmt.Sprintf("operation.%s.params.%s.type", name, paramName),
				Message: err.Error(),
				Pos:     p.Pos(),
			}
		}
		decl.Params = append(decl.Params, ParamDecl{Name: paramName, Type: typeExpr})
	}
	return decl, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &DeclarationError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
