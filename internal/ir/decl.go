package ir

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// HeaderDecls maps column names to their declarations.
//
// Accepted forms (JSON shown, YAML and CUE are equivalent):
//
//	{"age": "number", "name": {"type": "string", "isUnique": true}}
type HeaderDecls map[string]HeaderDecl

// HeaderDecl declares a column's plugin type and flags. Flags left unset
// take their defaults: groupable and editable are on, unique and hidden off.
type HeaderDecl struct {
	Type        string `json:"type" yaml:"type"`
	IsUnique    *bool  `json:"isUnique,omitempty" yaml:"isUnique,omitempty"`
	IsGroupable *bool  `json:"isGroupable,omitempty" yaml:"isGroupable,omitempty"`
	IsHidden    *bool  `json:"isHidden,omitempty" yaml:"isHidden,omitempty"`
	IsEditable  *bool  `json:"isEditable,omitempty" yaml:"isEditable,omitempty"`
}

// Header resolves the declaration into a Header for column name at pos.
func (d HeaderDecl) Header(name string, pos int) Header {
	return Header{
		Name:        name,
		Type:        d.Type,
		IsUnique:    boolOr(d.IsUnique, false),
		IsGroupable: boolOr(d.IsGroupable, true),
		IsHidden:    boolOr(d.IsHidden, false),
		IsEditable:  boolOr(d.IsEditable, true),
		Position:    pos,
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// declObject avoids recursion into the custom unmarshalers.
type declObject HeaderDecl

// UnmarshalJSON accepts either a bare type string or a declaration object.
func (d *HeaderDecl) UnmarshalJSON(data []byte) error {
	var typeName string
	if err := json.Unmarshal(data, &typeName); err == nil {
		*d = HeaderDecl{Type: typeName}
		return nil
	}
	var obj declObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("header declaration: %w", err)
	}
	if obj.Type == "" {
		return fmt.Errorf("header declaration: missing type")
	}
	*d = HeaderDecl(obj)
	return nil
}

// UnmarshalYAML accepts either a scalar type name or a mapping.
func (d *HeaderDecl) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*d = HeaderDecl{Type: node.Value}
		return nil
	case yaml.MappingNode:
		var obj declObject
		if err := node.Decode(&obj); err != nil {
			return fmt.Errorf("header declaration line %d: %w", node.Line, err)
		}
		if obj.Type == "" {
			return fmt.Errorf("header declaration line %d: missing type", node.Line)
		}
		*d = HeaderDecl(obj)
		return nil
	default:
		return fmt.Errorf("header declaration line %d: expected type name or mapping", node.Line)
	}
}

// DeclsFromMap converts a generic decoded document (e.g. from CUE) into
// HeaderDecls.
func DeclsFromMap(m map[string]any) (HeaderDecls, error) {
	decls := make(HeaderDecls, len(m))
	for name, raw := range m {
		switch val := raw.(type) {
		case string:
			decls[name] = HeaderDecl{Type: val}
		case map[string]any:
			decl, err := declFromObject(val)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			decls[name] = decl
		default:
			return nil, fmt.Errorf("column %q: expected type name or object, got %T", name, raw)
		}
	}
	return decls, nil
}

func declFromObject(obj map[string]any) (HeaderDecl, error) {
	var decl HeaderDecl
	typeName, ok := obj["type"].(string)
	if !ok || typeName == "" {
		return decl, fmt.Errorf("missing type")
	}
	decl.Type = typeName

	flags := map[string]**bool{
		"isUnique":    &decl.IsUnique,
		"isGroupable": &decl.IsGroupable,
		"isHidden":    &decl.IsHidden,
		"isEditable":  &decl.IsEditable,
	}
	for key, target := range flags {
		raw, present := obj[key]
		if !present {
			continue
		}
		b, ok := raw.(bool)
		if !ok {
			return decl, fmt.Errorf("%s: expected bool, got %T", key, raw)
		}
		*target = &b
	}
	return decl, nil
}
