package dispatch

import (
	"github.com/invopop/jsonschema"

	"github.com/austinabell/nesdie/schema"
)

// MethodInfo describes one method of a Table.
type MethodInfo struct {
	Name        string             `json:"name"`
	Kind        Kind               `json:"kind"`
	Payable     bool               `json:"payable,omitempty"`
	Private     bool               `json:"private,omitempty"`
	ReadOnly    bool               `json:"read_only,omitempty"`
	Description string             `json:"description,omitempty"`
	Args        *jsonschema.Schema `json:"args,omitempty"`
}

// Manifest lists a Table's methods in name order.
type Manifest struct {
	Methods []MethodInfo `json:"methods"`
}

// Manifest describes the table. Argument schemas come from JSON and String
// codecs or from ArgsSchema.
func (t *Table) Manifest() Manifest {
	m := Manifest{Methods: make([]MethodInfo, 0, len(t.names))}
	for _, name := range t.names {
		e := t.methods[name]
		info := MethodInfo{
			Name:        name,
			Kind:        e.kind,
			Payable:     e.payable,
			Private:     e.private,
			ReadOnly:    e.readOnly,
			Description: e.description,
		}
		if e.args != nil {
			info.Args = schema.Reflect(e.args)
		}
		m.Methods = append(m.Methods, info)
	}
	return m
}
