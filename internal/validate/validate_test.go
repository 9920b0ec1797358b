package validate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/parser"
	"github.com/roach88/iql/internal/queryir"
	"github.com/roach88/iql/internal/signature"
)

func peopleRegistry(t *testing.T) *signature.Registry {
	t.Helper()
	reg, err := signature.NewRegistry(
		signature.Signature{Name: "filter_by_name", Params: []signature.Param{{Name: "name", Type: signature.Str}}},
		signature.Signature{Name: "filter_by_age", Params: []signature.Param{{Name: "age", Type: signature.Int}}},
		signature.Signature{Name: "filter_by_active", Params: []signature.Param{{Name: "active", Type: signature.Bool}}},
		signature.Signature{Name: "filter_by_owner", Params: []signature.Param{{Name: "owner", Type: signature.Contextual{Base: signature.Str}}}},
		signature.Signature{Name: "between", Params: []signature.Param{
			{Name: "low", Type: signature.Float},
			{Name: "high", Type: signature.Float},
		}},
	)
	require.NoError(t, err)
	return reg
}

func mustParse(t *testing.T, src string) *queryir.Tree {
	t.Helper()
	tree, err := parser.Parse(src)
	require.NoError(t, err)
	return tree
}

func TestValidate_HallucinationRatio(t *testing.T) {
	reg, err := signature.NewRegistry(signature.Signature{
		Name:   "filter_by_name",
		Params: []signature.Param{{Name: "name", Type: signature.Str}},
	})
	require.NoError(t, err)

	report := Validate(mustParse(t, "filter_by_name('Cody') and filter_by_age(10)"), reg)

	assert.Equal(t, 2, report.Calls())
	assert.Equal(t, 1, report.HallucinatedCount())
	assert.InDelta(t, 0.5, report.HallucinationRatio(), 1e-9)
	assert.False(t, report.Valid())
	assert.True(t, report.Leaves[0].Valid())
	assert.True(t, report.Leaves[1].Hallucinated)
	assert.Nil(t, report.Leaves[1].Signature)

	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, queryir.ErrCodeHallucinatedOperation, queryir.CodeOf(errs[0]))
	assert.Equal(t, `hallucinated operation "filter_by_age" at leaf 1`, errs[0].Error())
}

func TestValidate_EmptyTree(t *testing.T) {
	report := Validate(mustParse(t, "   "), peopleRegistry(t))
	assert.True(t, report.Valid())
	assert.Zero(t, report.Calls())
	assert.Zero(t, report.HallucinationRatio())
	assert.Empty(t, report.Errors())
}

func TestValidate_Coercion(t *testing.T) {
	report := Validate(mustParse(t, "filter_by_age(6.0) and filter_by_active(1) and between(1, 2.5)"), peopleRegistry(t))
	require.True(t, report.Valid(), "%v", report.Errors())

	assert.Equal(t, []ir.Value{ir.Int(6)}, report.Coerced(0))
	assert.Equal(t, []ir.Value{ir.Bool(true)}, report.Coerced(1))
	assert.Equal(t, []ir.Value{ir.Float(1), ir.Float(2.5)}, report.Coerced(2))
	assert.Nil(t, report.Coerced(3))
	assert.Nil(t, report.Coerced(-1))

	coerced, err := report.CoercedTree()
	require.NoError(t, err)
	assert.Equal(t, "filter_by_age(6) and filter_by_active(True) and between(1.0, 2.5)", coerced.String())

	// The original tree keeps its literals.
	assert.Equal(t, "filter_by_age(6.0) and filter_by_active(1) and between(1, 2.5)", report.Tree.String())
}

func TestValidate_InvalidArguments(t *testing.T) {
	report := Validate(mustParse(t, "filter_by_age(6.7) or not filter_by_active(2)"), peopleRegistry(t))

	assert.False(t, report.Valid())
	assert.Equal(t, 2, report.InvalidCount())
	assert.Zero(t, report.HallucinatedCount())

	errs := report.Errors()
	require.Len(t, errs, 2)

	var ave *queryir.ArgumentValidationError
	require.ErrorAs(t, errs[0], &ave)
	assert.Equal(t, "filter_by_age", ave.Call)
	assert.Equal(t, 0, ave.Leaf)
	assert.Equal(t, "age", ave.Param)
	assert.Equal(t, "expected int, got float 6.7", ave.Reason)

	require.ErrorAs(t, errs[1], &ave)
	assert.Equal(t, 1, ave.Leaf)
	assert.Equal(t, "argument validation error in filter_by_active() argument 0 (active): expected bool, got int 2", ave.Error())

	_, err := report.CoercedTree()
	assert.Error(t, err)
}

func TestValidate_Arity(t *testing.T) {
	tests := []struct {
		src      string
		expected int
		actual   int
		args     int
	}{
		{"between(1)", 2, 1, 1},
		{"filter_by_name()", 1, 0, 0},
		{"filter_by_name('a', 'b')", 1, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			report := Validate(mustParse(t, tt.src), peopleRegistry(t))
			leaf := report.Leaves[0]
			require.NotNil(t, leaf.ArityErr)
			assert.True(t, leaf.ArityErr.IsArity())
			assert.Equal(t, tt.expected, leaf.ArityErr.Expected)
			assert.Equal(t, tt.actual, leaf.ArityErr.Actual)
			assert.Len(t, leaf.Args, tt.args)
			assert.Equal(t, 1, report.InvalidCount())
		})
	}
}

func TestValidate_ExtraArgumentMarked(t *testing.T) {
	report := Validate(mustParse(t, "filter_by_name('a', 3)"), peopleRegistry(t))
	args := report.Leaves[0].Args
	require.Len(t, args, 2)
	assert.True(t, args[0].Valid)
	assert.False(t, args[1].Valid)
	assert.Empty(t, args[1].Param)
	assert.Equal(t, "unexpected argument", args[1].Reason)
	assert.Equal(t, "argument validation error in filter_by_name(): expected 1 arguments, got 2", report.Errors()[0].Error())
}

func TestValidate_Placeholders(t *testing.T) {
	report := Validate(mustParse(t, "filter_by_owner(current_user()) and filter_by_name(current_user())"), peopleRegistry(t))

	assert.True(t, report.Leaves[0].Valid())
	assert.Equal(t, []ir.Value{ir.Placeholder{Name: "current_user"}}, report.Coerced(0))

	assert.False(t, report.Leaves[1].Valid())
	assert.Equal(t, "str does not accept context current_user()", report.Leaves[1].Args[0].Reason)
}

func TestValidate_Idempotent(t *testing.T) {
	tree := mustParse(t, "filter_by_age(6.0) or filter_by_height(3)")
	before := tree.String()
	reg := peopleRegistry(t)

	first := Validate(tree, reg)
	second := Validate(tree, reg)
	assert.Equal(t, first.Leaves, second.Leaves)
	assert.Equal(t, before, tree.String())
}

func TestEnforce(t *testing.T) {
	tree := mustParse(t, "filter_by_age('x') and filter_by_height(3)")
	reg := peopleRegistry(t)

	tests := []struct {
		name   string
		policy Policy
		codes  []queryir.ErrorCode
	}{
		{"strict", Strict, []queryir.ErrorCode{queryir.ErrCodeArgumentValidation, queryir.ErrCodeHallucinatedOperation}},
		{"lenient", Lenient, nil},
		{"hallucination only", Policy{FailOnHallucination: true}, []queryir.ErrorCode{queryir.ErrCodeHallucinatedOperation}},
		{"arguments only", Policy{FailOnInvalidArgument: true}, []queryir.ErrorCode{queryir.ErrCodeArgumentValidation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Check(tree, reg, tt.policy)
			require.NotNil(t, report)
			if tt.codes == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			joined, ok := err.(interface{ Unwrap() []error })
			require.True(t, ok)
			var codes []queryir.ErrorCode
			for _, e := range joined.Unwrap() {
				codes = append(codes, queryir.CodeOf(e))
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestEnforce_ErrorsAs(t *testing.T) {
	_, err := Check(mustParse(t, "filter_by_height(3)"), peopleRegistry(t), Strict)
	assert.True(t, queryir.IsHallucinatedOperationError(err))
	assert.False(t, queryir.IsArgumentValidationError(err))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Strict")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)
	assert.Equal(t, "strict", p.String())

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Lenient, p)
	assert.Equal(t, "lenient", p.String())

	_, err = ParsePolicy("paranoid")
	assert.ErrorContains(t, err, `unknown policy "paranoid"`)

	assert.Contains(t, Policy{FailOnHallucination: true}.String(), "FailOnHallucination:true")
}

func TestValidate_ConcurrentSharedRegistry(t *testing.T) {
	reg := peopleRegistry(t)
	sources := []string{
		"filter_by_name('a')",
		"filter_by_age(6.0) and not filter_by_active(0)",
		"filter_by_height(1) or between(1, 2)",
	}

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			tree, err := parser.Parse(src)
			if !assert.NoError(t, err) {
				return
			}
			report := Validate(tree, reg)
			assert.Equal(t, len(queryir.Calls(tree)), report.Calls())
		}(sources[i%len(sources)])
	}
	wg.Wait()
}
