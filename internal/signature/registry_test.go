package signature

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleSignatures() []Signature {
	return []Signature{
		{Name: "filter_by_name", Description: "Keep people whose name matches.", Params: []Param{{Name: "name", Type: Str}}},
		{Name: "filter_by_age", Description: "Keep people of exactly this age.", Params: []Param{{Name: "age", Type: Int}}},
		{Name: "filter_by_status", Params: []Param{{Name: "status", Type: MustParseType("Literal['active', 'inactive']")}}},
		{Name: "filter_by_owner", Description: "Keep records owned by a user.", Params: []Param{{Name: "owner", Type: Contextual{Base: Str}}}},
	}
}

func TestRegistry_LookupAndList(t *testing.T) {
	reg, err := NewRegistry(peopleSignatures()...)
	require.NoError(t, err)

	assert.Equal(t, 4, reg.Len())

	sig, ok := reg.Lookup("filter_by_age")
	require.True(t, ok)
	assert.Equal(t, 1, sig.Arity())
	assert.Equal(t, "filter_by_age(age: int)", sig.String())

	_, ok = reg.Lookup("filter_by_height")
	assert.False(t, ok)
	assert.False(t, reg.Has("filter_by_height"))

	assert.Equal(t, []Entry{
		{Name: "filter_by_name", Description: "Keep people whose name matches."},
		{Name: "filter_by_age", Description: "Keep people of exactly this age."},
		{Name: "filter_by_status"},
		{Name: "filter_by_owner", Description: "Keep records owned by a user."},
	}, reg.List())
}

func TestRegistry_RejectsBadSignatures(t *testing.T) {
	tests := []struct {
		name string
		sig  Signature
		msg  string
	}{
		{"empty name", Signature{}, "empty name"},
		{"keyword", Signature{Name: "and"}, "reserved word"},
		{"not identifier", Signature{Name: "filter-by"}, "not an identifier"},
		{"duplicate", Signature{Name: "filter_by_name"}, "already registered"},
		{"duplicate param", Signature{Name: "f", Params: []Param{{Name: "a", Type: Int}, {Name: "a", Type: Str}}}, "duplicate parameter a"},
		{"untyped param", Signature{Name: "f", Params: []Param{{Name: "a"}}}, "has no type"},
		{"bad param name", Signature{Name: "f", Params: []Param{{Name: "1a", Type: Int}}}, "not an identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(peopleSignatures()[0])
			require.NoError(t, err)

			err = reg.Register(tt.sig)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Equal(t, 1, reg.Len())
		})
	}
}

func TestRegistry_CopiesParams(t *testing.T) {
	params := []Param{{Name: "name", Type: Str}}
	reg, err := NewRegistry(Signature{Name: "f", Params: params})
	require.NoError(t, err)

	params[0].Type = Int
	sig, _ := reg.Lookup("f")
	assert.Equal(t, Str, sig.Params[0].Type)
}

func TestRegistry_ZeroValueAndNil(t *testing.T) {
	var zero Registry
	require.NoError(t, zero.Register(Signature{Name: "a"}))
	assert.Equal(t, 1, zero.Len())

	var nilReg *Registry
	assert.Equal(t, 0, nilReg.Len())
	assert.Nil(t, nilReg.List())
	_, ok := nilReg.Lookup("a")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	reg, err := NewRegistry(peopleSignatures()...)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, e := range reg.List() {
				_, ok := reg.Lookup(e.Name)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}

func TestParseYAML(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "people.yaml"))
	require.NoError(t, err)

	decls, err := ParseYAML(data)
	require.NoError(t, err)
	require.Len(t, decls, 4)
	assert.Equal(t, "filter_by_status", decls[2].Name)
	assert.Equal(t, "Literal['active', 'inactive']", decls[2].Params[0].Type)

	reg, err := Compile(decls)
	require.NoError(t, err)
	want, err := NewRegistry(peopleSignatures()...)
	require.NoError(t, err)
	assert.Equal(t, want.Signatures(), reg.Signatures())
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML([]byte("operations:\n  - name: a\n    parameters: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameters")
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	reg, err := NewRegistry(peopleSignatures()...)
	require.NoError(t, err)

	data, err := MarshalYAML(reg)
	require.NoError(t, err)

	decls, err := ParseYAML(data)
	require.NoError(t, err)
	again, err := Compile(decls)
	require.NoError(t, err)
	assert.Equal(t, reg.Signatures(), again.Signatures())
}

func TestCompile_BadType(t *testing.T) {
	_, err := Compile([]Declaration{{Name: "f", Params: []ParamDecl{{Name: "a", Type: "integer"}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation f parameter a")

	var te *TypeExprError
	assert.ErrorAs(t, err, &te)
}

func TestParseCUE(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "people.cue"))
	require.NoError(t, err)

	decls, err := ParseCUE(data, "people.cue")
	require.NoError(t, err)

	yamlData, err := os.ReadFile(filepath.Join("testdata", "people.yaml"))
	require.NoError(t, err)
	yamlDecls, err := ParseYAML(yamlData)
	require.NoError(t, err)

	assert.Equal(t, yamlDecls, decls)
}

func TestParseCUE_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"syntax", `operation: {`, "people.cue"},
		{"missing type", `operation: f: params: [{name: "a"}]`, "type"},
		{"bad type expression", `operation: f: params: [{name: "a", type: "integer"}]`, `unknown type "integer"`},
		{"wrong field type", `operation: f: description: 3`, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE([]byte(tt.src), "people.cue")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseCUE_NoOperations(t *testing.T) {
	decls, err := ParseCUE([]byte(`other: 1`), "empty.cue")
	require.NoError(t, err)
	assert.Empty(t, decls)
}

func TestLoadFile(t *testing.T) {
	for _, name := range []string{"people.yaml", "people.cue"} {
		t.Run(name, func(t *testing.T) {
			reg, err := LoadFile(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, 4, reg.Len())
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read signatures")

	txt := filepath.Join(dir, "sigs.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = LoadFile(txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported signature file extension")

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("operations:\n  - name: a\n  - name: a\n"), 0o644))
	_, err = LoadFile(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}
