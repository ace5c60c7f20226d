package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tabq/internal/ir"
)

// headerSchema constrains CUE header files. A column maps either to a bare
// type name or to a declaration object.
const headerSchema = `
#Decl: string | {
	type:         string
	isUnique?:    bool
	isGroupable?: bool
	isHidden?:    bool
	isEditable?:  bool
}
#Headers: [string]: #Decl
`

// LoadHeaders reads a header declaration file. The format is chosen by
// extension: .yaml/.yml, .json or .cue. CUE files may either declare the
// columns at top level or under a "headers" field.
func LoadHeaders(path string) (ir.HeaderDecls, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	decls, err := ParseHeaders(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decls, nil
}

// ParseHeaders decodes header declarations in the format named by ext.
func ParseHeaders(data []byte, ext string) (ir.HeaderDecls, error) {
	var decls ir.HeaderDecls
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &decls); err != nil {
			return nil, fmt.Errorf("parse yaml headers: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &decls); err != nil {
			return nil, fmt.Errorf("parse json headers: %w", err)
		}
	case ".cue":
		return parseCUEHeaders(data)
	default:
		return nil, fmt.Errorf("unsupported header file type %q", ext)
	}
	if err := checkTypes(decls); err != nil {
		return nil, err
	}
	return decls, nil
}

func parseCUEHeaders(data []byte) (ir.HeaderDecls, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(headerSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile header schema: %w", err)
	}

	value := ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile cue headers: %w", err)
	}
	if nested := value.LookupPath(cue.ParsePath("headers")); nested.Exists() {
		value = nested
	}

	value = value.Unify(schema.LookupPath(cue.ParsePath("#Headers")))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate cue headers: %w", err)
	}

	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode cue headers: %w", err)
	}
	decls, err := ir.DeclsFromMap(raw)
	if err != nil {
		return nil, err
	}
	if err := checkTypes(decls); err != nil {
		return nil, err
	}
	return decls, nil
}

func checkTypes(decls ir.HeaderDecls) error {
	for name, d := range decls {
		if strings.TrimSpace(d.Type) == "" {
			return fmt.Errorf("column %q: missing type", name)
		}
	}
	return nil
}
