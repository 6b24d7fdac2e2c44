// Package schema describes the entities exposed by the remote indexing service.
// The definitions drive two things: the selection sets a query projects, and
// how a Go value is encoded when it is compared against a given field.
package schema

// LogicalOperator for combining conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and" // All conditions must be true
	LogicalOr  LogicalOperator = "or"  // At least one condition must be true
	LogicalNot LogicalOperator = "not" // Negates a condition or group of conditions
)

// FieldType represents the wire type of a field on the indexing service.
type FieldType string

const (
	FieldTypeID        FieldType = "id"        // Opaque identifier, always sent as a string
	FieldTypeString    FieldType = "string"    // Text data
	FieldTypeBigNumber FieldType = "bignumber" // Chain amounts; numeric in Go, string on the wire
	FieldTypeInteger   FieldType = "integer"   // Numeric data
	FieldTypeBoolean   FieldType = "boolean"   // True/false values
	FieldTypeFlag      FieldType = "flag"      // Boolean stored as an integer (0/1)
	FieldTypeDatetime  FieldType = "datetime"  // Timestamps, sent as strings
	FieldTypeList      FieldType = "list"      // List of scalars
	FieldTypeObject    FieldType = "object"    // Nested record, projected through Fields
)

// FieldDefinition defines a field of a remote entity.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Fields is the nested selection for object fields.
	Fields []FieldDefinition `json:"fields,omitempty"`
	// Hidden fields can be filtered on but are never projected.
	Hidden bool `json:"hidden,omitempty"`
}

// EntityDefinition describes one entity type of the indexing service.
type EntityDefinition struct {
	// Name is the entity type name, e.g. "NftEntity".
	Name string `json:"name"`
	// Fields are the entity's fields in projection order.
	Fields []FieldDefinition `json:"fields"`
}

// Field returns the definition of the named field.
func (e *EntityDefinition) Field(name string) (FieldDefinition, bool) {
	if e == nil {
		return FieldDefinition{}, false
	}
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Projection returns the projectable fields, in order.
func (e *EntityDefinition) Projection() []FieldDefinition {
	if e == nil {
		return nil
	}
	fields := make([]FieldDefinition, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !f.Hidden {
			fields = append(fields, f)
		}
	}
	return fields
}

// Select returns the named fields in the order given. Unknown names are kept
// as string fields.
func (e *EntityDefinition) Select(names ...string) []FieldDefinition {
	fields := make([]FieldDefinition, 0, len(names))
	for _, name := range names {
		f, ok := e.Field(name)
		if !ok {
			f = FieldDefinition{Name: name, Type: FieldTypeString}
		}
		fields = append(fields, f)
	}
	return fields
}
