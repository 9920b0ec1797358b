package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysByUTF16(t *testing.T) {
	// U+1F600 (surrogate pair D83D) sorts before U+FF5E in UTF-16 but after it in UTF-8.
	got, err := MarshalCanonical(map[string]any{
		"\uFF5E":     1,
		"\U0001F600": 2,
		"a":          3,
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":3,\"\U0001F600\":2,\"\uFF5E\":1}", string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(Str("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(got))
}

func TestMarshalCanonical_NFCNormalizes(t *testing.T) {
	decomposed := "e\u0301"
	got, err := MarshalCanonical(Str(decomposed))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_LineSeparatorsStayLiteral(t *testing.T) {
	got, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	// A literal backslash followed by "u2028" text stays escaped.
	got, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got))
}

func TestMarshalCanonical_NumbersKeepTheirKind(t *testing.T) {
	i, err := MarshalCanonical(Int(6))
	require.NoError(t, err)
	f, err := MarshalCanonical(Float(6))
	require.NoError(t, err)

	assert.Equal(t, "6", string(i))
	assert.Equal(t, "6.0", string(f))
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Float(math.Inf(1)))
	assert.Error(t, err)

	_, err = MarshalCanonical(List{Float(math.NaN())})
	assert.Error(t, err)
}

func TestMarshalCanonical_Values(t *testing.T) {
	got, err := MarshalCanonical(List{None{}, Bool(true), Placeholder{Name: "C"}, Bound{Context: "C", Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, `[null,true,{"context":"C"},{"bound":true,"context":"C"}]`, string(got))
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestHashWithDomain_SeparatesDomains(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, HashWithDomain("one", data), HashWithDomain("two", data))
	assert.Len(t, HashWithDomain(DomainTree, data), 64)
}
