package queryir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeSyntax indicates a construct outside the IQL grammar.
	ErrCodeSyntax ErrorCode = "SYNTAX_ERROR"

	// ErrCodeArgumentParsing indicates an argument that is not a literal,
	// list of literals, or zero-argument call.
	ErrCodeArgumentParsing ErrorCode = "ARGUMENT_PARSING_ERROR"

	// ErrCodeHallucinatedOperation indicates a call to an unregistered operation.
	ErrCodeHallucinatedOperation ErrorCode = "HALLUCINATED_OPERATION"

	// ErrCodeArgumentValidation indicates an arity or type mismatch.
	ErrCodeArgumentValidation ErrorCode = "ARGUMENT_VALIDATION_ERROR"

	// ErrCodeContextNotAvailable indicates no pool member matches a placeholder.
	ErrCodeContextNotAvailable ErrorCode = "CONTEXT_NOT_AVAILABLE"

	// ErrCodeContextualisationNotAllowed indicates a placeholder passed to a
	// parameter without the context capability.
	ErrCodeContextualisationNotAllowed ErrorCode = "CONTEXTUALISATION_NOT_ALLOWED"
)

// SyntaxError reports a construct outside the grammar. Parsing aborts.
type SyntaxError struct {
	// Text is the offending substring with normalized spacing.
	Text string

	// Position is the byte offset of Text in the source.
	Position int

	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s: `%s`", e.Position, e.Reason, e.Text)
}

// Code returns ErrCodeSyntax.
func (e *SyntaxError) Code() ErrorCode { return ErrCodeSyntax }

// ArgumentParsingError reports an argument expression that is not a literal,
// a list of literals, or a zero-argument call. Parsing aborts.
type ArgumentParsingError struct {
	// Call is the operation whose argument failed.
	Call string

	// Text is the offending argument with normalized spacing.
	Text string

	Position int
	Reason   string
}

func (e *ArgumentParsingError) Error() string {
	return fmt.Sprintf("argument parsing error in %s() at offset %d: %s: `%s`", e.Call, e.Position, e.Reason, e.Text)
}

// Code returns ErrCodeArgumentParsing.
func (e *ArgumentParsingError) Code() ErrorCode { return ErrCodeArgumentParsing }

// HallucinatedOperationError reports a call whose name is not registered.
type HallucinatedOperationError struct {
	Name string

	// Leaf is the pre-order index of the call in its tree.
	Leaf int
}

func (e *HallucinatedOperationError) Error() string {
	return fmt.Sprintf("hallucinated operation %q at leaf %d", e.Name, e.Leaf)
}

// Code returns ErrCodeHallucinatedOperation.
func (e *HallucinatedOperationError) Code() ErrorCode { return ErrCodeHallucinatedOperation }

// ArgumentValidationError reports an arity mismatch (Arg < 0) or an argument
// rejected by its parameter type.
type ArgumentValidationError struct {
	Call string
	Leaf int

	// Arg is the argument index, or -1 for arity mismatches.
	Arg   int
	Param string

	// Expected and Actual are argument counts for arity mismatches.
	Expected int
	Actual   int

	Reason string
}

// NewArityError builds an ArgumentValidationError for a count mismatch.
func NewArityError(call string, leaf, expected, actual int) *ArgumentValidationError {
	return &ArgumentValidationError{
		Call:     call,
		Leaf:     leaf,
		Arg:      -1,
		Expected: expected,
		Actual:   actual,
		Reason:   fmt.Sprintf("expected %d arguments, got %d", expected, actual),
	}
}

// NewArgumentTypeError builds an ArgumentValidationError for one argument.
func NewArgumentTypeError(call string, leaf, arg int, param, reason string) *ArgumentValidationError {
	return &ArgumentValidationError{
		Call:   call,
		Leaf:   leaf,
		Arg:    arg,
		Param:  param,
		Reason: reason,
	}
}

// IsArity reports whether the error is a count mismatch.
func (e *ArgumentValidationError) IsArity() bool { return e.Arg < 0 }

func (e *ArgumentValidationError) Error() string {
	if e.IsArity() {
		return fmt.Sprintf("argument validation error in %s(): %s", e.Call, e.Reason)
	}
	return fmt.Sprintf("argument validation error in %s() argument %d (%s): %s", e.Call, e.Arg, e.Param, e.Reason)
}

// Code returns ErrCodeArgumentValidation.
func (e *ArgumentValidationError) Code() ErrorCode { return ErrCodeArgumentValidation }

// ContextNotAvailableError reports a placeholder with no matching pool member.
type ContextNotAvailableError struct {
	Call    string
	Param   string
	Context string
}

func (e *ContextNotAvailableError) Error() string {
	return fmt.Sprintf("context %q not available for parameter %s of %s()", e.Context, e.Param, e.Call)
}

// Code returns ErrCodeContextNotAvailable.
func (e *ContextNotAvailableError) Code() ErrorCode { return ErrCodeContextNotAvailable }

// ContextualisationNotAllowedError reports a placeholder passed to a
// parameter whose type does not carry the context capability.
type ContextualisationNotAllowedError struct {
	Call    string
	Param   string
	Context string
}

func (e *ContextualisationNotAllowedError) Error() string {
	param := e.Param
	if param == "" {
		param = "<extra>"
	}
	return fmt.Sprintf("parameter %s of %s() does not accept context %q", param, e.Call, e.Context)
}

// Code returns ErrCodeContextualisationNotAllowed.
func (e *ContextualisationNotAllowedError) Code() ErrorCode { return ErrCodeContextualisationNotAllowed }

// coded is implemented by every engine error.
type coded interface {
	error
	Code() ErrorCode
}

// CodeOf returns the code of the first engine error in err's chain, or ""
// when there is none.
func CodeOf(err error) ErrorCode {
	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// IsSyntaxError returns true if err wraps a SyntaxError.
func IsSyntaxError(err error) bool {
	var e *SyntaxError
	return errors.As(err, &e)
}

// IsArgumentParsingError returns true if err wraps an ArgumentParsingError.
func IsArgumentParsingError(err error) bool {
	var e *ArgumentParsingError
	return errors.As(err, &e)
}

// IsParseError returns true for either parse-aborting error.
func IsParseError(err error) bool {
	return IsSyntaxError(err) || IsArgumentParsingError(err)
}

// IsHallucinatedOperationError returns true if err wraps a HallucinatedOperationError.
func IsHallucinatedOperationError(err error) bool {
	var e *HallucinatedOperationError
	return errors.As(err, &e)
}

// IsArgumentValidationError returns true if err wraps an ArgumentValidationError.
func IsArgumentValidationError(err error) bool {
	var e *ArgumentValidationError
	return errors.As(err, &e)
}

// IsContextNotAvailableError returns true if err wraps a ContextNotAvailableError.
func IsContextNotAvailableError(err error) bool {
	var e *ContextNotAvailableError
	return errors.As(err, &e)
}

// IsContextualisationNotAllowedError returns true if err wraps a
// ContextualisationNotAllowedError.
func IsContextualisationNotAllowedError(err error) bool {
	var e *ContextualisationNotAllowedError
	return errors.As(err, &e)
}
