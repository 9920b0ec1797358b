package signature

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Declaration is the serialized form of a Signature. Parameter types are
// type expressions parsed by ParseType.
type Declaration struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Params      []ParamDecl `yaml:"params,omitempty"`
}

// ParamDecl is one declared parameter.
type ParamDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// declarationFile is the YAML document layout:
//
//	operations:
//	  - name: filter_by_name
//	    description: Filter people by name
//	    params:
//	      - name: name
//	        type: str
type declarationFile struct {
	Operations []Declaration `yaml:"operations"`
}

// Signature converts the declaration, parsing every type expression.
func (d Declaration) Signature() (Signature, error) {
	sig := Signature{Name: d.Name, Description: d.Description}
	for _, p := range d.Params {
		t, err := ParseType(p.Type)
		if err != nil {
			return Signature{}, fmt.Errorf("operation %s parameter %s: %w", d.Name, p.Name, err)
		}
		sig.Params = append(sig.Params, Param{Name: p.Name, Type: t})
	}
	return sig, nil
}

// Declare converts a Signature back to its serialized form.
func Declare(sig Signature) Declaration {
	d := Declaration{Name: sig.Name, Description: sig.Description}
	for _, p := range sig.Params {
		d.Params = append(d.Params, ParamDecl{Name: p.Name, Type: typeString(p.Type)})
	}
	return d
}

// Compile builds a registry from declarations in order.
func Compile(decls []Declaration) (*Registry, error) {
	r := &Registry{}
	for _, d := range decls {
		sig, err := d.Signature()
		if err != nil {
			return nil, err
		}
		if err := r.Register(sig); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ParseYAML decodes declarations from a YAML document. Unknown fields are
// rejected so typos in parameter keys surface early.
func ParseYAML(data []byte) ([]Declaration, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file declarationFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode declarations: %w", err)
	}
	return file.Operations, nil
}

// MarshalYAML encodes a registry in the ParseYAML layout.
func MarshalYAML(r *Registry) ([]byte, error) {
	file := declarationFile{}
	for _, sig := range r.Signatures() {
		file.Operations = append(file.Operations, Declare(sig))
	}
	return yaml.Marshal(file)
}

// LoadFile reads a declaration file and compiles it. The format follows the
// extension: .yaml/.yml or .cue.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "read signatures %s", path),
			"pass --signatures or set signatures in iql.yaml")
	}

	var decls []Declaration
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decls, err = ParseYAML(data)
	case ".cue":
		decls, err = ParseCUE(data, path)
	default:
		return nil, errors.WithHintf(
			errors.Newf("unsupported signature file extension %q", ext),
			"use .yaml, .yml or .cue")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load signatures %s", path)
	}

	reg, err := Compile(decls)
	if err != nil {
		return nil, errors.Wrapf(err, "compile signatures %s", path)
	}
	return reg, nil
}
