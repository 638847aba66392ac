// ABOUTME: Tool schema types and reflection-based derivation from typed argument structs
// ABOUTME: json tags name parameters, desc tags document them; derived once at registration

package tool

import (
	"fmt"
	"reflect"
	"strings"
)

// Schema describes one tool to the model.
type Schema struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  ParametersSchema `json:"parameters"`
}

// ParametersSchema is the JSON-Schema-shaped parameter object.
type ParametersSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema describes a single parameter.
type PropertySchema struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Items       *PropertySchema `json:"items,omitempty"`
}

// SchemaDerivationError reports why a callable could not be turned into a
// schema at registration time.
type SchemaDerivationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *SchemaDerivationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tool %s: schema derivation failed: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("tool %s: field %s: %s", e.Tool, e.Field, e.Reason)
}

// deriveSchema builds a ParametersSchema from the argument struct type.
// Every exported field with a json tag becomes a parameter; its desc tag is
// the documentation the model sees. A parameter is required unless the field
// is a pointer or its json tag carries omitempty.
func deriveSchema(toolName string, argType reflect.Type) (ParametersSchema, error) {
	params := ParametersSchema{
		Type:       "object",
		Properties: map[string]PropertySchema{},
	}

	if argType.Kind() != reflect.Struct {
		return params, &SchemaDerivationError{
			Tool:   toolName,
			Reason: fmt.Sprintf("argument type must be a struct, got %s", argType.Kind()),
		}
	}

	for i := 0; i < argType.NumField(); i++ {
		field := argType.Field(i)
		name, opts := parseJSONTag(field)
		if name == "" {
			continue
		}
		if !field.IsExported() {
			return params, &SchemaDerivationError{
				Tool:   toolName,
				Field:  field.Name,
				Reason: "json-tagged field is unexported",
			}
		}

		desc := field.Tag.Get("desc")
		if desc == "" {
			return params, &SchemaDerivationError{
				Tool:   toolName,
				Field:  field.Name,
				Reason: "missing desc tag: every parameter needs documentation",
			}
		}

		ft := field.Type
		optional := opts["omitempty"]
		if ft.Kind() == reflect.Pointer {
			optional = true
			ft = ft.Elem()
		}

		prop, err := propertyFor(toolName, field.Name, ft)
		if err != nil {
			return params, err
		}
		prop.Description = desc
		params.Properties[name] = prop

		if !optional {
			params.Required = append(params.Required, name)
		}
	}

	return params, nil
}

// propertyFor maps a Go type onto a JSON-schema property.
func propertyFor(toolName, fieldName string, t reflect.Type) (PropertySchema, error) {
	switch t.Kind() {
	case reflect.String:
		return PropertySchema{Type: "string"}, nil
	case reflect.Bool:
		return PropertySchema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return PropertySchema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return PropertySchema{Type: "number"}, nil
	case reflect.Slice, reflect.Array:
		item, err := propertyFor(toolName, fieldName, t.Elem())
		if err != nil {
			return PropertySchema{}, err
		}
		return PropertySchema{Type: "array", Items: &item}, nil
	case reflect.Map, reflect.Struct:
		return PropertySchema{Type: "object"}, nil
	default:
		return PropertySchema{}, &SchemaDerivationError{
			Tool:   toolName,
			Field:  fieldName,
			Reason: fmt.Sprintf("unsupported parameter type %s", t.Kind()),
		}
	}
}

// parseJSONTag returns the parameter name and tag options for a field.
// Fields without a json tag fall back to the lower-cased Go name; a "-" tag
// excludes the field.
func parseJSONTag(field reflect.StructField) (string, map[string]bool) {
	tag := field.Tag.Get("json")
	opts := map[string]bool{}
	if tag == "" {
		return strings.ToLower(field.Name), opts
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	for _, o := range parts[1:] {
		opts[o] = true
	}
	if name == "-" {
		return "", opts
	}
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name, opts
}
