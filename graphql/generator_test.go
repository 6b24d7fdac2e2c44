package graphql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftmarket/indexer-query/core/query"
	"github.com/nftmarket/indexer-query/core/schema"
)

func TestRender_GroupFilterAndWindow(t *testing.T) {
	dsl := query.NewQueryBuilder("nftEntities", schema.NFT).
		Window(query.Window{First: 10, Offset: 20}).
		Filter(query.NewFilterGroup(query.LogicalOperatorAnd).
			Where(schema.FieldTimestampBurn).IsNull(true).
			Where(schema.FieldSerieID).In([]string{"s1", "s2"}).
			End()).
		OrderBy("IS_CAPSULE_ASC", "LISTED_DESC").
		Paginated().
		Select(schema.FieldID, schema.FieldOwner).
		Build()

	want := `{
  nftEntities(
    first: 10
    offset: 20
    filter: {
      and: [
        { timestampBurn: { isNull: true } }
        { serieId: { in: ["s1", "s2"] } }
      ]
    }
    orderBy: [IS_CAPSULE_ASC, LISTED_DESC]
  ) {
    totalCount
    pageInfo {
      hasNextPage
      hasPreviousPage
    }
    nodes {
      id
      owner
    }
  }
}
`
	assert.Equal(t, want, Render(&dsl))
}

func TestRender_SingleConditionAndNoArguments(t *testing.T) {
	dsl := query.NewQueryBuilder("accountEntities", schema.Account).
		Filter(query.CreateSimpleFilter(schema.FieldID, query.ComparisonOperatorEqualTo, "acc")).
		Select(schema.FieldCapsAmount).
		Build()

	assert.Equal(t, `{
  accountEntities(
    filter: { id: { equalTo: "acc" } }
  ) {
    nodes {
      capsAmount
    }
  }
}
`, Render(&dsl))

	bare := query.NewQueryBuilder("serieEntities", schema.Series).WithTotalCount().Build()
	assert.Equal(t, "{\n  serieEntities {\n    totalCount\n  }\n}\n", Render(&bare))
}

func TestRender_EmptyGroupIsDropped(t *testing.T) {
	dsl := query.NewQueryBuilder("nftTransferEntities", schema.Transfer).
		Filter(query.NewFilterGroup(query.LogicalOperatorAnd).End()).
		WithTotalCount().
		Build()
	assert.Equal(t, "{\n  nftTransferEntities {\n    totalCount\n  }\n}\n", Render(&dsl))
}

func TestRender_NestedSelectionAndGroups(t *testing.T) {
	inner := query.NewFilterGroup(query.LogicalOperatorOr).
		Where(schema.FieldFrom).EqualTo("a").
		Where(schema.FieldTo).EqualTo("a").
		End()
	dsl := query.NewQueryBuilder("nftTransferEntities", schema.Transfer).
		Filter(query.NewFilterGroup(query.LogicalOperatorAnd).Add(inner).End()).
		Select(schema.FieldID, schema.FieldExtrinsic).
		Build()

	assert.Equal(t, `{
  nftTransferEntities(
    filter: {
      and: [
        { or: [{ from: { equalTo: "a" } } { to: { equalTo: "a" } }] }
      ]
    }
  ) {
    nodes {
      id
      extrinsic {
        id
      }
    }
  }
}
`, Render(&dsl))
}

func TestRender_Arguments(t *testing.T) {
	dsl := query.NewQueryBuilder("distinctSerieNfts", schema.NFT).
		Argument(schema.FieldOwner, "alice").
		Argument(schema.FieldMarketplaceID, int64(7)).
		Argument(schema.FieldListed, true).
		Select(schema.FieldID).
		Build()

	out := Render(&dsl)
	assert.Contains(t, out, "    owner: \"alice\"\n")
	assert.Contains(t, out, "    marketplaceId: \"7\"\n")
	assert.Contains(t, out, "    listed: 1\n")
}

func TestRender_Nil(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}

func TestEncodeValue(t *testing.T) {
	price := 12.5
	listed := false
	var missing *string
	tests := []struct {
		name      string
		fieldType schema.FieldType
		op        query.ComparisonOperator
		value     any
		want      string
	}{
		{"string is quoted", schema.FieldTypeID, query.ComparisonOperatorEqualTo, "abc", `"abc"`},
		{"quotes are escaped", schema.FieldTypeID, query.ComparisonOperatorEqualTo, `a" } }`, `"a\" } }"`},
		{"html is not escaped", schema.FieldTypeString, query.ComparisonOperatorEqualTo, "<b>&", `"<b>&"`},
		{"flag true", schema.FieldTypeFlag, query.ComparisonOperatorEqualTo, true, "1"},
		{"flag false pointer", schema.FieldTypeFlag, query.ComparisonOperatorEqualTo, &listed, "0"},
		{"boolean", schema.FieldTypeBoolean, query.ComparisonOperatorEqualTo, true, "true"},
		{"isNull on datetime", schema.FieldTypeDatetime, query.ComparisonOperatorIsNull, true, "true"},
		{"isNull on flag stays boolean", schema.FieldTypeFlag, query.ComparisonOperatorIsNull, false, "false"},
		{"bignumber float", schema.FieldTypeBigNumber, query.ComparisonOperatorIsEqual, &price, `"12.5"`},
		{"bignumber whole float", schema.FieldTypeBigNumber, query.ComparisonOperatorIsEqual, 100.0, `"100"`},
		{"integer raw", schema.FieldTypeInteger, query.ComparisonOperatorGreaterThan, 42, "42"},
		{"unknown field raw number", "", query.ComparisonOperatorEqualTo, int64(3), "3"},
		{"id integer quoted", schema.FieldTypeID, query.ComparisonOperatorEqualTo, int64(3), `"3"`},
		{"string slice", schema.FieldTypeID, query.ComparisonOperatorIn, []string{"1", "2"}, `["1", "2"]`},
		{"nil slice", schema.FieldTypeID, query.ComparisonOperatorIn, []string(nil), "[]"},
		{"empty slice", schema.FieldTypeID, query.ComparisonOperatorIn, []string{}, "[]"},
		{"int slice on id", schema.FieldTypeID, query.ComparisonOperatorIn, []int{1, 2}, `["1", "2"]`},
		{"nil", schema.FieldTypeID, query.ComparisonOperatorEqualTo, nil, "null"},
		{"nil pointer", schema.FieldTypeID, query.ComparisonOperatorEqualTo, missing, "null"},
		{"time", schema.FieldTypeDatetime, query.ComparisonOperatorGreaterThanOrEqualTo,
			time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), `"2024-01-02T03:04:05Z"`},
		{"named string type", schema.FieldTypeString, query.ComparisonOperatorEqualTo, query.SortDirectionAsc, `"asc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeValue(tt.fieldType, tt.op, tt.value))
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator()

	dsl := query.NewQueryBuilder("nftEntities", schema.NFT).
		Filter(query.CreateSimpleFilter(schema.FieldID, query.ComparisonOperatorEqualTo, "1")).
		SelectAll().
		Build()
	out, err := g.Generate(&dsl)
	require.NoError(t, err)
	assert.Equal(t, Render(&dsl), out)

	t.Run("nil dsl", func(t *testing.T) {
		_, err := g.Generate(nil)
		assert.Error(t, err)
	})

	t.Run("invalid connection", func(t *testing.T) {
		bad := query.NewQueryBuilder("nft entities", schema.NFT).SelectAll().Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "invalid connection name")
	})

	t.Run("empty selection", func(t *testing.T) {
		bad := query.NewQueryBuilder("nftEntities", schema.NFT).Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "selects nothing")
	})

	t.Run("invalid operator", func(t *testing.T) {
		bad := query.NewQueryBuilder("nftEntities", schema.NFT).
			Filter(query.CreateSimpleFilter("id", "equalTo: 1 } }", "1")).
			SelectAll().
			Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "invalid operator")
	})

	t.Run("invalid field in group", func(t *testing.T) {
		bad := query.NewQueryBuilder("nftEntities", schema.NFT).
			Filter(query.NewFilterGroup(query.LogicalOperatorAnd).Where("id{").EqualTo("1").End()).
			SelectAll().
			Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "invalid field name")
	})

	t.Run("malformed filter", func(t *testing.T) {
		bad := query.NewQueryBuilder("nftEntities", schema.NFT).Filter(query.QueryFilter{}).SelectAll().Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "neither Condition nor Group")
	})

	t.Run("invalid ordering token", func(t *testing.T) {
		bad := query.NewQueryBuilder("nftEntities", schema.NFT).OrderBy("PRICE DESC").SelectAll().Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "invalid ordering token")
	})

	t.Run("invalid argument", func(t *testing.T) {
		bad := query.NewQueryBuilder("nftEntities", schema.NFT).Argument("own er", "x").SelectAll().Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "invalid argument name")
	})

	t.Run("invalid projection", func(t *testing.T) {
		bad := query.NewQueryBuilder("nftEntities", schema.NFT).Select("id", "a b").Build()
		_, err := g.Generate(&bad)
		assert.ErrorContains(t, err, "invalid projected field")
	})
}
