package query

import (
	"strings"

	"github.com/nftmarket/indexer-query/utils"
)

// Token renders the sort entry as an ordering token, e.g. PRICE_DESC. The
// direction is read like ParseSortDirection, so "DESC" and "descending" sort
// descending too. An entry whose field cannot form a valid enum name renders
// as "".
func (s SortConfiguration) Token() string {
	field := utils.UpperSnake(s.Field)
	if field == "" || !IsValidName(field) {
		return ""
	}
	if ParseSortDirection(string(s.Direction)) == SortDirectionDesc {
		return field + "_DESC"
	}
	return field + "_ASC"
}

// TranslateSort turns sort entries into ordering tokens, primary key first.
// When sort is empty the default tokens are returned as given; with no
// defaults the result is nil and the ordering clause is omitted.
func TranslateSort(sort []SortConfiguration, defaults ...string) []string {
	var tokens []string
	for _, s := range sort {
		if token := s.Token(); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) > 0 {
		return tokens
	}
	if len(defaults) == 0 {
		return nil
	}
	return append([]string(nil), defaults...)
}

// ParseSortDirection accepts asc/desc in any case, and the long forms.
// Anything else is ascending.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return SortDirectionDesc
	default:
		return SortDirectionAsc
	}
}

// ParseSort parses "field:direction" pairs separated by commas, e.g.
// "price:desc,serieId:asc". A missing direction means ascending.
func ParseSort(s string) []SortConfiguration {
	var out []SortConfiguration
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		out = append(out, SortConfiguration{Field: field, Direction: ParseSortDirection(dir)})
	}
	return out
}
