package query

import (
	"fmt"
	"strings"

	"github.com/nftmarket/indexer-query/core/schema"
)

// QueryBuilder provides a fluent API for building QueryDSL structures.
type QueryBuilder struct {
	query QueryDSL
}

// NewQueryBuilder creates a builder for a query against the given connection.
func NewQueryBuilder(connection string, entity *schema.EntityDefinition) *QueryBuilder {
	return &QueryBuilder{
		query: QueryDSL{Connection: connection, Entity: entity},
	}
}

// Build returns the constructed QueryDSL object.
func (qb *QueryBuilder) Build() QueryDSL {
	return qb.query
}

// Window sets the pagination window.
func (qb *QueryBuilder) Window(w Window) *QueryBuilder {
	qb.query.Window = &w
	return qb
}

// WindowIf sets the pagination window when ok is true.
func (qb *QueryBuilder) WindowIf(w Window, ok bool) *QueryBuilder {
	if ok {
		return qb.Window(w)
	}
	return qb
}

// Filter sets the filter of the query.
func (qb *QueryBuilder) Filter(filter QueryFilter) *QueryBuilder {
	qb.query.Filters = &filter
	return qb
}

// Argument adds a top-level connection argument. The value is encoded using
// the type of the entity field with the same name.
func (qb *QueryBuilder) Argument(name string, value FilterValue) *QueryBuilder {
	qb.query.Arguments = append(qb.query.Arguments, Argument{Name: name, Value: value, Field: name})
	return qb
}

// OrderBy appends ordering tokens.
func (qb *QueryBuilder) OrderBy(tokens ...string) *QueryBuilder {
	qb.query.OrderBy = append(qb.query.OrderBy, tokens...)
	return qb
}

// WithTotalCount requests the aggregate total.
func (qb *QueryBuilder) WithTotalCount() *QueryBuilder {
	qb.query.Selection.TotalCount = true
	return qb
}

// WithPageInfo requests the pagination metadata.
func (qb *QueryBuilder) WithPageInfo() *QueryBuilder {
	qb.query.Selection.PageInfo = true
	return qb
}

// Paginated requests both the total and the page info.
func (qb *QueryBuilder) Paginated() *QueryBuilder {
	return qb.WithTotalCount().WithPageInfo()
}

// Select sets the node selection from entity field names.
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	qb.query.Selection.Nodes = ProjectionOf(qb.query.Entity.Select(fields...))
	return qb
}

// SelectAll selects every projectable field of the entity.
func (qb *QueryBuilder) SelectAll() *QueryBuilder {
	qb.query.Selection.Nodes = ProjectionOf(qb.query.Entity.Projection())
	return qb
}

// FilterGroupBuilder is used to build a group of filter conditions.
type FilterGroupBuilder struct {
	operator   schema.LogicalOperator
	conditions []QueryFilter
}

// NewFilterGroup begins a group of filters combined with operator.
func NewFilterGroup(operator schema.LogicalOperator) *FilterGroupBuilder {
	return &FilterGroupBuilder{operator: operator, conditions: []QueryFilter{}}
}

// Where adds a new condition to the current filter group.
func (fgb *FilterGroupBuilder) Where(field string) *FilterConditionBuilderInGroup {
	return &FilterConditionBuilderInGroup{
		groupBuilder: fgb,
		field:        field,
	}
}

// Add appends already built filters to the group.
func (fgb *FilterGroupBuilder) Add(filters ...QueryFilter) *FilterGroupBuilder {
	fgb.conditions = append(fgb.conditions, filters...)
	return fgb
}

// Len returns the number of conditions in the group.
func (fgb *FilterGroupBuilder) Len() int {
	return len(fgb.conditions)
}

// End finalizes the group.
func (fgb *FilterGroupBuilder) End() QueryFilter {
	return CreateFilterGroup(fgb.operator, fgb.conditions...)
}

// FilterConditionBuilderInGroup is used to build a filter condition within a group.
type FilterConditionBuilderInGroup struct {
	groupBuilder *FilterGroupBuilder
	field        string
}

// EqualTo adds an equality condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) EqualTo(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorEqualTo, value)
}

// NotEqualTo adds a not-equal condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) NotEqualTo(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorNotEqualTo, value)
}

// In adds a set-membership condition. values is expected to be a slice.
func (fcbg *FilterConditionBuilderInGroup) In(values FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorIn, values)
}

// NotIn adds a set-exclusion condition. values is expected to be a slice.
func (fcbg *FilterConditionBuilderInGroup) NotIn(values FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorNotIn, values)
}

// IsNull adds a null check.
func (fcbg *FilterConditionBuilderInGroup) IsNull(null bool) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorIsNull, null)
}

// Compare adds a condition with an arbitrary operator.
func (fcbg *FilterConditionBuilderInGroup) Compare(operator ComparisonOperator, value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(operator, value)
}

func (fcbg *FilterConditionBuilderInGroup) addConditionToGroup(operator ComparisonOperator, value FilterValue) *FilterGroupBuilder {
	fcbg.groupBuilder.conditions = append(fcbg.groupBuilder.conditions, CreateSimpleFilter(fcbg.field, operator, value))
	return fcbg.groupBuilder
}

// String returns a human-readable summary of the built query.
func (qb *QueryBuilder) String() string {
	parts := []string{"CONNECTION: " + qb.query.Connection}

	if qb.query.Filters != nil {
		parts = append(parts, fmt.Sprintf("FILTERS: %d", countConditions(qb.query.Filters)))
	}
	if len(qb.query.Arguments) > 0 {
		names := make([]string, len(qb.query.Arguments))
		for i, a := range qb.query.Arguments {
			names[i] = a.Name
		}
		parts = append(parts, "ARGS: "+strings.Join(names, ", "))
	}
	if len(qb.query.OrderBy) > 0 {
		parts = append(parts, "ORDER BY: "+strings.Join(qb.query.OrderBy, ", "))
	}
	if qb.query.Window != nil {
		parts = append(parts, fmt.Sprintf("FIRST: %d", qb.query.Window.First))
		parts = append(parts, fmt.Sprintf("OFFSET: %d", qb.query.Window.Offset))
	}
	return strings.Join(parts, " | ")
}

func countConditions(filter *QueryFilter) int {
	if filter.Condition != nil {
		return 1
	}
	if filter.Group == nil {
		return 0
	}
	n := 0
	for i := range filter.Group.Conditions {
		n += countConditions(&filter.Group.Conditions[i])
	}
	return n
}

// CreateSimpleFilter is a helper function to create a simple filter condition.
func CreateSimpleFilter(field string, operator ComparisonOperator, value FilterValue) QueryFilter {
	return QueryFilter{
		Condition: &FilterCondition{
			Field:    field,
			Operator: operator,
			Value:    value,
		},
	}
}

// CreateFilterGroup is a helper function to create a filter group.
func CreateFilterGroup(operator schema.LogicalOperator, conditions ...QueryFilter) QueryFilter {
	return QueryFilter{
		Group: &FilterGroup{
			Operator:   operator,
			Conditions: conditions,
		},
	}
}
