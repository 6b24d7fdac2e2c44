// Package query defines the Domain-Specific Language (DSL) for constructing
// indexer queries. A QueryDSL is a structured description of a single
// connection query: which connection to read, the filter predicates, the
// pagination window, the ordering tokens and the selection set. It carries no
// text; rendering into a concrete document is the job of a QueryGenerator.
package query

import (
	"regexp"

	"github.com/nftmarket/indexer-query/core/schema"
)

// Logical operators for combining filter conditions.
const (
	LogicalOperatorAnd schema.LogicalOperator = schema.LogicalAnd
	LogicalOperatorOr  schema.LogicalOperator = schema.LogicalOr
	LogicalOperatorNot schema.LogicalOperator = schema.LogicalNot
)

// ComparisonOperator is a filter operator in the indexing service's vocabulary.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEqualTo              ComparisonOperator = "equalTo"
	ComparisonOperatorNotEqualTo           ComparisonOperator = "notEqualTo"
	ComparisonOperatorIn                   ComparisonOperator = "in"
	ComparisonOperatorNotIn                ComparisonOperator = "notIn"
	ComparisonOperatorIsNull               ComparisonOperator = "isNull"
	ComparisonOperatorIsEqual              ComparisonOperator = "isEqual"
	ComparisonOperatorGreaterThan          ComparisonOperator = "greaterThan"
	ComparisonOperatorGreaterThanOrEqualTo ComparisonOperator = "greaterThanOrEqualTo"
	ComparisonOperatorLessThan             ComparisonOperator = "lessThan"
	ComparisonOperatorLessThanOrEqualTo    ComparisonOperator = "lessThanOrEqualTo"
)

// FilterValue represents the value used in a filter condition.
type FilterValue any

// FilterCondition defines a single predicate on one field.
type FilterCondition struct {
	Field    string             // The field to apply the filter on.
	Operator ComparisonOperator // The comparison operator to use.
	Value    FilterValue        // The value to compare against.
}

// FilterGroup combines multiple filter conditions using a logical operator.
type FilterGroup struct {
	Operator   schema.LogicalOperator // The logical operator (AND, OR, etc.) to combine the conditions.
	Conditions []QueryFilter          // The list of conditions or nested groups.
}

// QueryFilter is a union type that can represent either a single filter condition
// or a group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"` // A single filter condition.
	Group     *FilterGroup     `json:",omitempty"` // A group of filter conditions.
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string        `json:"field" yaml:"field"`         // The field to sort by.
	Direction SortDirection `json:"direction" yaml:"direction"` // The direction of the sort.
}

// PaginationOptions is the caller's page request. Page is 1-based.
type PaginationOptions struct {
	Page  *int `json:"page,omitempty" yaml:"page,omitempty"`
	Limit *int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// Window is the (first, offset) pair sent to the indexing service.
type Window struct {
	First  int
	Offset int
}

// Argument is a top-level connection argument outside the filter object,
// e.g. the owner parameter of a server-side function connection.
type Argument struct {
	Name  string
	Value FilterValue
	// Field names the entity field whose type governs encoding of Value.
	Field string
}

// ProjectionField is one entry of a selection set.
type ProjectionField struct {
	Name   string
	Nested []ProjectionField `json:",omitempty"`
}

// Selection is what a connection query returns.
type Selection struct {
	TotalCount bool              // Request the aggregate total.
	PageInfo   bool              // Request hasNextPage/hasPreviousPage.
	Nodes      []ProjectionField // Node fields; empty means no nodes block.
}

// QueryDSL is the top-level structure that represents a complete connection query.
type QueryDSL struct {
	Connection string                   // Connection field on the root query, e.g. "nftEntities".
	Entity     *schema.EntityDefinition `json:"-"`
	Window     *Window                  `json:",omitempty"`
	Filters    *QueryFilter             `json:",omitempty"`
	Arguments  []Argument               `json:",omitempty"`
	OrderBy    []string                 `json:",omitempty"`
	Selection  Selection
}

// standardComparisonOperators is a set of all the operators the indexing
// service is known to accept.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEqualTo:              {},
	ComparisonOperatorNotEqualTo:           {},
	ComparisonOperatorIn:                   {},
	ComparisonOperatorNotIn:                {},
	ComparisonOperatorIsNull:               {},
	ComparisonOperatorIsEqual:              {},
	ComparisonOperatorGreaterThan:          {},
	ComparisonOperatorGreaterThanOrEqualTo: {},
	ComparisonOperatorLessThan:             {},
	ComparisonOperatorLessThanOrEqualTo:    {},
}

var graphqlName = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// IsStandard checks if a comparison operator is one of the known operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// IsValidName reports whether the operator can be written as an object key
// without breaking the document. Unknown but well-formed operators are passed
// through to the indexing service untouched.
func (c ComparisonOperator) IsValidName() bool {
	return graphqlName.MatchString(string(c))
}

// GetStandardComparisonOperators returns a map of all standard comparison operators.
func GetStandardComparisonOperators() map[ComparisonOperator]struct{} {
	return standardComparisonOperators
}

// IsValidName reports whether s is a valid GraphQL name.
func IsValidName(s string) bool {
	return graphqlName.MatchString(s)
}

// ProjectionOf converts entity field definitions into a selection list.
func ProjectionOf(fields []schema.FieldDefinition) []ProjectionField {
	out := make([]ProjectionField, 0, len(fields))
	for _, f := range fields {
		pf := ProjectionField{Name: f.Name}
		if len(f.Fields) > 0 {
			pf.Nested = ProjectionOf(f.Fields)
		}
		out = append(out, pf)
	}
	return out
}
