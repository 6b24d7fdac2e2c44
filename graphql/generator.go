// Package graphql renders the abstract QueryDSL into GraphQL documents for the
// indexing service. It is the only place where document text is produced:
// every value goes through a single encoding step, so caller-controlled strings
// can never break out of their literal.
package graphql

import (
	"fmt"
	"strings"

	"github.com/nftmarket/indexer-query/core/query"
	"github.com/nftmarket/indexer-query/core/schema"
)

const indentUnit = "  "

// Generator implements query.QueryGenerator for the indexing service.
type Generator struct{}

// Ensure Generator implements the query.QueryGenerator interface.
var _ query.QueryGenerator = (*Generator)(nil)

// NewGenerator creates a new GraphQL document generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate validates the names used by the DSL and renders it. Values are
// never validated; only identifiers that would otherwise corrupt the document
// are rejected.
func (g *Generator) Generate(dsl *query.QueryDSL) (string, error) {
	if dsl == nil {
		return "", fmt.Errorf("QueryDSL cannot be nil")
	}
	if !query.IsValidName(dsl.Connection) {
		return "", fmt.Errorf("invalid connection name %q", dsl.Connection)
	}
	if !dsl.Selection.TotalCount && !dsl.Selection.PageInfo && len(dsl.Selection.Nodes) == 0 {
		return "", fmt.Errorf("query on %s selects nothing", dsl.Connection)
	}
	if dsl.Filters != nil {
		if err := validateFilter(dsl.Filters); err != nil {
			return "", fmt.Errorf("invalid filter: %w", err)
		}
	}
	for _, arg := range dsl.Arguments {
		if !query.IsValidName(arg.Name) {
			return "", fmt.Errorf("invalid argument name %q", arg.Name)
		}
	}
	for _, token := range dsl.OrderBy {
		if !query.IsValidName(token) {
			return "", fmt.Errorf("invalid ordering token %q", token)
		}
	}
	if err := validateProjection(dsl.Selection.Nodes); err != nil {
		return "", err
	}
	return Render(dsl), nil
}

func validateFilter(filter *query.QueryFilter) error {
	if filter.Condition != nil {
		if !query.IsValidName(filter.Condition.Field) {
			return fmt.Errorf("invalid field name %q", filter.Condition.Field)
		}
		if !filter.Condition.Operator.IsValidName() {
			return fmt.Errorf("invalid operator %q on field %s", filter.Condition.Operator, filter.Condition.Field)
		}
		return nil
	}
	if filter.Group != nil {
		if !query.IsValidName(string(filter.Group.Operator)) {
			return fmt.Errorf("invalid logical operator %q", filter.Group.Operator)
		}
		for i := range filter.Group.Conditions {
			if err := validateFilter(&filter.Group.Conditions[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("invalid filter structure: neither Condition nor Group is set")
}

func validateProjection(fields []query.ProjectionField) error {
	for _, f := range fields {
		if !query.IsValidName(f.Name) {
			return fmt.Errorf("invalid projected field %q", f.Name)
		}
		if err := validateProjection(f.Nested); err != nil {
			return err
		}
	}
	return nil
}

// Render writes the document for dsl. It never fails; use Generate when the
// DSL was not produced by the catalog and its identifiers need checking.
func Render(dsl *query.QueryDSL) string {
	if dsl == nil {
		return ""
	}
	w := &writer{}
	w.line(0, "{")

	args := renderArguments(dsl)
	if len(args) == 0 {
		w.line(1, dsl.Connection+" {")
	} else {
		w.line(1, dsl.Connection+"(")
		for _, arg := range args {
			w.block(2, arg)
		}
		w.line(1, ") {")
	}

	renderSelection(w, 2, dsl.Selection)
	w.line(1, "}")
	w.line(0, "}")
	return w.String()
}

// renderArguments returns each connection argument as a list of lines
// relative to the argument indentation. Order: first, offset, filter,
// function arguments, orderBy.
func renderArguments(dsl *query.QueryDSL) [][]string {
	var args [][]string

	if dsl.Window != nil {
		args = append(args,
			[]string{fmt.Sprintf("first: %d", dsl.Window.First)},
			[]string{fmt.Sprintf("offset: %d", dsl.Window.Offset)},
		)
	}

	if dsl.Filters != nil {
		if lines := renderFilterArgument(dsl.Entity, dsl.Filters); lines != nil {
			args = append(args, lines)
		}
	}

	for _, arg := range dsl.Arguments {
		fieldType := fieldTypeOf(dsl.Entity, arg.Field)
		args = append(args, []string{arg.Name + ": " + encodeValue(fieldType, "", arg.Value)})
	}

	if len(dsl.OrderBy) > 0 {
		args = append(args, []string{"orderBy: [" + strings.Join(dsl.OrderBy, ", ") + "]"})
	}
	return args
}

// renderFilterArgument renders the top-level filter. A group is laid out one
// predicate per line; a bare condition stays on one line. An empty group is
// dropped so no no-op filter is ever sent.
func renderFilterArgument(entity *schema.EntityDefinition, filter *query.QueryFilter) []string {
	if filter.Condition != nil {
		return []string{"filter: " + renderInline(entity, filter)}
	}
	if filter.Group == nil || len(filter.Group.Conditions) == 0 {
		return nil
	}
	lines := []string{
		"filter: {",
		indentUnit + string(filter.Group.Operator) + ": [",
	}
	for i := range filter.Group.Conditions {
		lines = append(lines, indentUnit+indentUnit+renderInline(entity, &filter.Group.Conditions[i]))
	}
	return append(lines, indentUnit+"]", "}")
}

// renderInline renders a filter on a single line:
// { field: { operator: value } } or { and: [{ … } { … }] }.
func renderInline(entity *schema.EntityDefinition, filter *query.QueryFilter) string {
	if c := filter.Condition; c != nil {
		value := encodeValue(fieldTypeOf(entity, c.Field), c.Operator, c.Value)
		return "{ " + c.Field + ": { " + string(c.Operator) + ": " + value + " } }"
	}
	if g := filter.Group; g != nil {
		parts := make([]string, len(g.Conditions))
		for i := range g.Conditions {
			parts[i] = renderInline(entity, &g.Conditions[i])
		}
		return "{ " + string(g.Operator) + ": [" + strings.Join(parts, " ") + "] }"
	}
	return "{}"
}

func renderSelection(w *writer, level int, sel query.Selection) {
	if sel.TotalCount {
		w.line(level, "totalCount")
	}
	if sel.PageInfo {
		w.line(level, "pageInfo {")
		w.line(level+1, "hasNextPage")
		w.line(level+1, "hasPreviousPage")
		w.line(level, "}")
	}
	if len(sel.Nodes) > 0 {
		w.line(level, "nodes {")
		renderFields(w, level+1, sel.Nodes)
		w.line(level, "}")
	}
}

func renderFields(w *writer, level int, fields []query.ProjectionField) {
	for _, f := range fields {
		if len(f.Nested) == 0 {
			w.line(level, f.Name)
			continue
		}
		w.line(level, f.Name+" {")
		renderFields(w, level+1, f.Nested)
		w.line(level, "}")
	}
}

func fieldTypeOf(entity *schema.EntityDefinition, field string) schema.FieldType {
	if f, ok := entity.Field(field); ok {
		return f.Type
	}
	return ""
}

// writer accumulates indented lines.
type writer struct {
	sb strings.Builder
}

func (w *writer) line(level int, s string) {
	w.sb.WriteString(strings.Repeat(indentUnit, level))
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

func (w *writer) block(level int, lines []string) {
	for _, l := range lines {
		w.line(level, l)
	}
}

func (w *writer) String() string {
	return w.sb.String()
}
