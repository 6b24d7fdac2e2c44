package catalog

import (
	"reflect"

	"github.com/nftmarket/indexer-query/core/query"
	"github.com/nftmarket/indexer-query/core/schema"
)

// Presence decides when an optional input produces a predicate.
type Presence int

const (
	// PresenceDefined includes the field whenever it is set: a non-nil
	// pointer or slice, or a non-empty string. false and 0 are included.
	PresenceDefined Presence = iota
	// PresenceTruthy additionally drops zero values (0, false).
	PresenceTruthy
	// PresenceAlways includes the field unconditionally.
	PresenceAlways
)

// Target is where an assembled clause goes.
type Target int

const (
	// TargetFilter adds a predicate to the filter group.
	TargetFilter Target = iota
	// TargetArgument adds a top-level connection argument.
	TargetArgument
)

// FieldRule describes how one input becomes a clause.
type FieldRule struct {
	Key   string // input key
	Field string // remote field
	// Operator is the fixed operator. When empty the query type's default
	// operator for Field is used, then equalTo.
	Operator query.ComparisonOperator
	// Overridable lets the caller choose the operator.
	Overridable bool
	Presence    Presence
	Target      Target
}

// Input is a caller-supplied value for a rule.
type Input struct {
	Value    any
	Operator query.ComparisonOperator
}

// Clauses is the output of Assemble, in rule order.
type Clauses struct {
	Filters   []query.QueryFilter
	Arguments []query.Argument
}

// Assemble applies rules to inputs. Rules without an input, or whose input is
// absent under the rule's presence test, produce nothing.
func Assemble(rules []FieldRule, inputs map[string]Input, operators map[string]query.ComparisonOperator) Clauses {
	var out Clauses
	filters := query.NewFilterGroup(query.LogicalOperatorAnd)
	for _, rule := range rules {
		in, ok := inputs[rule.Key]
		if !ok || !isPresent(in.Value, rule.Presence) {
			continue
		}
		value := deref(in.Value)
		if rule.Target == TargetArgument {
			out.Arguments = append(out.Arguments, query.Argument{Name: rule.Field, Value: value, Field: rule.Field})
			continue
		}
		filters.Where(rule.Field).Compare(resolveOperator(rule, in.Operator, operators), value)
	}
	if filters.Len() > 0 {
		out.Filters = filters.End().Group.Conditions
	}
	return out
}

func resolveOperator(rule FieldRule, requested query.ComparisonOperator, operators map[string]query.ComparisonOperator) query.ComparisonOperator {
	if rule.Overridable && requested != "" && requested.IsValidName() {
		return requested
	}
	if rule.Operator != "" {
		return rule.Operator
	}
	if op, ok := operators[rule.Field]; ok {
		return op
	}
	return query.ComparisonOperatorEqualTo
}

// BurnGuard is the predicate excluding burned NFTs.
func BurnGuard() query.QueryFilter {
	return query.CreateSimpleFilter(schema.FieldTimestampBurn, query.ComparisonOperatorIsNull, true)
}

func isPresent(v any, p Presence) bool {
	if p == PresenceAlways {
		return true
	}
	if rv := reflect.ValueOf(v); v != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) {
		return !rv.IsNil()
	}
	v = deref(v)
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.Len() > 0
	}
	if p == PresenceTruthy {
		return !rv.IsZero()
	}
	return true
}

func deref(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return v
}

// Rule tables. Rule order is predicate order.
var (
	nftsRules = []FieldRule{
		{Key: "ids", Field: schema.FieldID, Operator: query.ComparisonOperatorIn},
		{Key: "idsToExclude", Field: schema.FieldID, Operator: query.ComparisonOperatorNotIn},
		{Key: "idsCategories", Field: schema.FieldID, Operator: query.ComparisonOperatorIn},
		{Key: "idsToExcludeCategories", Field: schema.FieldID, Operator: query.ComparisonOperatorNotIn},
		{Key: "series", Field: schema.FieldSerieID, Operator: query.ComparisonOperatorIn},
		{Key: "seriesToExclude", Field: schema.FieldSerieID, Operator: query.ComparisonOperatorNotIn},
		{Key: "creator", Field: schema.FieldCreator, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy},
		{Key: "isCapsule", Field: schema.FieldIsCapsule},
		{Key: "price", Field: schema.FieldPrice, Overridable: true},
		{Key: "owner", Field: schema.FieldOwner, Presence: PresenceTruthy, Target: TargetArgument},
		{Key: "marketplaceId", Field: schema.FieldMarketplaceID, Target: TargetArgument},
		{Key: "listed", Field: schema.FieldListed, Target: TargetArgument},
	}

	nftsForSeriesRules = []FieldRule{
		{Key: "seriesIds", Field: schema.FieldSerieID, Operator: query.ComparisonOperatorIn, Presence: PresenceAlways},
		{Key: "owner", Field: schema.FieldOwner, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy},
	}

	historyRules = []FieldRule{
		{Key: "nftId", Field: schema.FieldNftID, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy},
		{Key: "seriesId", Field: schema.FieldSeriesID, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy},
		{Key: "from", Field: schema.FieldFrom, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy},
		{Key: "to", Field: schema.FieldTo, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy},
		{Key: "typeOfTransaction", Field: schema.FieldTypeOfTransaction, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy},
		{Key: "timestamp", Field: schema.FieldTimestamp, Overridable: true, Presence: PresenceTruthy},
		{Key: "amount", Field: schema.FieldAmount, Overridable: true},
	}
)

// Fixed-shape rules shared by the count entries. Keys equal field names.
func required(field string) FieldRule {
	return FieldRule{Key: field, Field: field, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceAlways}
}

func optional(field string) FieldRule {
	return FieldRule{Key: field, Field: field, Operator: query.ComparisonOperatorEqualTo, Presence: PresenceTruthy}
}
