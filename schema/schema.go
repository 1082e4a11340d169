// Package schema generates JSON schemas for contract method arguments.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Reflect builds the schema of v's type. Struct definitions are expanded
// inline so a method's arguments read as one document. Other types get the
// plain schema of their kind.
func Reflect(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct: isStruct(v),
		DoNotReference: true,
	}
	return reflector.Reflect(v)
}

// Generate returns the indented JSON encoding of Reflect(v).
func Generate(v any) ([]byte, error) {
	out, err := json.MarshalIndent(Reflect(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
