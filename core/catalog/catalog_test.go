package catalog

import (
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nftmarket/indexer-query/core/query"
	"github.com/nftmarket/indexer-query/core/schema"
)

const guardLine = "{ timestampBurn: { isNull: true } }"

func TestCatalog_Golden(t *testing.T) {
	c := New(Config{})

	tests := []struct {
		name string
		doc  Document
	}{
		{"nfts_default", c.NFTs(NFTsQuery{})},
		{"nfts_full", c.NFTs(NFTsQuery{
			Filter: &NFTsFilter{
				IDs:           []string{"1", "2"},
				IsCapsule:     query.BoolPtr(false),
				Price:         query.Float64Ptr(100),
				PriceFilter:   query.ComparisonOperatorGreaterThan,
				Owner:         "alice",
				MarketplaceID: query.Int64Ptr(7),
				Listed:        query.BoolPtr(false),
			},
			Sort:       []query.SortConfiguration{{Field: "price", Direction: query.SortDirectionDesc}},
			Pagination: query.NewPagination(3, 20),
		})},
		{"nft_by_id", c.NFTByID(NFTQuery{ID: "42"})},
		{"nfts_for_series", c.NFTsForSeries(NFTBySeriesQuery{
			SeriesIDs:  []string{"s1", "s2"},
			Filter:     &NFTBySeriesFilter{Owner: "bob"},
			Pagination: query.NewPagination(2, 10),
		})},
		{"count_owner_owned_listed", c.CountOwnerOwnedListed(StatNFTsUserQuery{
			ID:     "alice",
			Filter: &StatNFTsUserFilter{MarketplaceID: query.Int64Ptr(3)},
		})},
		{"count_smallest_price", c.CountSmallestPrice("s1", nil)},
		{"count_smallest_price_marketplace", c.CountSmallestPrice("s1", query.Int64Ptr(5))},
		{"series", c.Series(SeriesStatusQuery{SeriesID: "s1"})},
		{"history_default", c.History(HistoryQuery{Filter: &HistoryFilter{SeriesID: "s1"}})},
		{"history_full", c.History(HistoryQuery{
			Filter: &HistoryFilter{
				OnlyNftID:         true,
				NftID:             "n1",
				SeriesID:          "ignored",
				From:              "a",
				To:                "b",
				TypeOfTransaction: "sale",
				Timestamp:         "2024-01-01",
				Amount:            query.Float64Ptr(5),
				AmountFilter:      query.ComparisonOperatorLessThan,
			},
			Sort:       []query.SortConfiguration{{Field: "amount", Direction: query.SortDirectionAsc}},
			Pagination: query.NewPagination(1, 5),
		})},
		{"balance", c.Balance(BalanceQuery{AccountID: "acc"})},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(tt.doc.String()))
		})
	}
}

func TestCatalog_PaginationWindow(t *testing.T) {
	c := New(Config{})

	doc := c.NFTs(NFTsQuery{Pagination: query.NewPagination(3, 20)})
	assert.Equal(t, &query.Window{First: 20, Offset: 40}, doc.DSL.Window)

	doc = c.NFTs(NFTsQuery{Pagination: &query.PaginationOptions{Limit: query.IntPtr(25)}})
	assert.Equal(t, &query.Window{First: 25, Offset: 0}, doc.DSL.Window)

	doc = c.NFTs(NFTsQuery{})
	assert.Equal(t, &query.Window{First: DefaultMaxPageSize, Offset: 0}, doc.DSL.Window)

	doc = New(Config{MaxPageSize: 30}).NFTs(NFTsQuery{})
	assert.Equal(t, &query.Window{First: 30, Offset: 0}, doc.DSL.Window)

	doc = c.History(HistoryQuery{Pagination: &query.PaginationOptions{Limit: query.IntPtr(25)}})
	assert.Nil(t, doc.DSL.Window)
	assert.NotContains(t, doc.String(), "first:")

	doc = c.NFTsForSeries(NFTBySeriesQuery{SeriesIDs: []string{"s"}})
	assert.Nil(t, doc.DSL.Window)
}

func TestCatalog_FalseBooleansAreFilters(t *testing.T) {
	c := New(Config{})
	out := c.NFTs(NFTsQuery{Filter: &NFTsFilter{
		IsCapsule: query.BoolPtr(false),
		Listed:    query.BoolPtr(false),
	}}).String()

	assert.Contains(t, out, "{ isCapsule: { isEqual: false } }")
	assert.Contains(t, out, "    listed: 0\n")

	out = c.NFTs(NFTsQuery{}).String()
	assert.NotContains(t, out, "isCapsule: {")
	assert.NotContains(t, out, "listed: ")
}

func TestCatalog_ComparisonDefaults(t *testing.T) {
	c := New(Config{})

	out := c.NFTs(NFTsQuery{Filter: &NFTsFilter{Price: query.Float64Ptr(100)}}).String()
	assert.Contains(t, out, `{ price: { isEqual: "100" } }`)

	out = c.NFTs(NFTsQuery{Filter: &NFTsFilter{Price: query.Float64Ptr(100), PriceFilter: query.ComparisonOperatorGreaterThan}}).String()
	assert.Contains(t, out, `{ price: { greaterThan: "100" } }`)
	assert.NotContains(t, out, "isEqual")

	out = c.History(HistoryQuery{Filter: &HistoryFilter{SeriesID: "s", Timestamp: "2024-01-01"}}).String()
	assert.Contains(t, out, `{ timestamp: { greaterThanOrEqualTo: "2024-01-01" } }`)

	out = c.History(HistoryQuery{Filter: &HistoryFilter{SeriesID: "s", Amount: query.Float64Ptr(0)}}).String()
	assert.Contains(t, out, `{ amount: { isEqual: "0" } }`)

	out = c.History(HistoryQuery{Filter: &HistoryFilter{SeriesID: "s", Amount: query.Float64Ptr(1), AmountFilter: "lessThan } }"}}).String()
	assert.Contains(t, out, `{ amount: { isEqual: "1" } }`)
}

func TestCatalog_Ordering(t *testing.T) {
	c := New(Config{})

	doc := c.NFTs(NFTsQuery{Sort: []query.SortConfiguration{{Field: "price", Direction: query.SortDirectionDesc}}})
	assert.Equal(t, []string{"PRICE_DESC"}, doc.DSL.OrderBy)

	doc = c.NFTs(NFTsQuery{})
	assert.Nil(t, doc.DSL.OrderBy)
	assert.NotContains(t, doc.String(), "orderBy")

	doc = c.History(HistoryQuery{})
	assert.Equal(t, []string{"TIMESTAMP_DESC"}, doc.DSL.OrderBy)

	doc = c.NFTsForSeries(NFTBySeriesQuery{SeriesIDs: []string{"s"}})
	assert.Equal(t, []string{"IS_CAPSULE_ASC", "LISTED_DESC"}, doc.DSL.OrderBy)
}

func TestCatalog_SmallestPriceMarketplace(t *testing.T) {
	c := New(Config{})

	for _, id := range []*int64{nil, query.Int64Ptr(0)} {
		out := c.CountSmallestPrice("s1", id).String()
		assert.NotContains(t, out, "marketplaceId")
	}

	out := c.CountSmallestPrice("s1", query.Int64Ptr(5)).String()
	assert.Contains(t, out, `{ marketplaceId: { equalTo: "5" } }`)
	assert.Contains(t, out, "nodes {\n      price\n    }")
	assert.NotContains(t, out, "totalCount")
}

func TestCatalog_BurnGuardOnEveryNFTQuery(t *testing.T) {
	c := New(Config{})
	docs := []Document{
		c.NFTs(NFTsQuery{}),
		c.NFTByID(NFTQuery{ID: "1"}),
		c.NFTsForSeries(NFTBySeriesQuery{}),
		c.CountOwnerOwned(StatNFTsUserQuery{ID: "a"}),
		c.CountOwnerOwnedListed(StatNFTsUserQuery{ID: "a"}),
		c.CountOwnerOwnedUnlisted(StatNFTsUserQuery{ID: "a"}),
		c.CountCreated(StatNFTsUserQuery{ID: "a"}),
		c.CountTotal("s"),
		c.CountTotalListed("s"),
		c.CountTotalListedInMarketplace("s", 1),
		c.CountTotalOwned("s", "a"),
		c.CountTotalOwnedListed("s", "a"),
		c.CountTotalOwnedListedInMarketplace("s", "a", 1),
		c.CountSmallestPrice("s", nil),
		c.CountAllListedInMarketplace(1),
	}
	for _, doc := range docs {
		t.Run(string(doc.Type), func(t *testing.T) {
			require.NotNil(t, doc.DSL.Filters)
			require.NotNil(t, doc.DSL.Filters.Group)
			assert.Equal(t, BurnGuard(), doc.DSL.Filters.Group.Conditions[0])
			assert.Equal(t, 1, strings.Count(doc.String(), guardLine))
		})
	}
}

func TestCatalog_NoEmptyPredicates(t *testing.T) {
	c := New(Config{})
	docs := []Document{
		c.NFTs(NFTsQuery{Filter: &NFTsFilter{}}),
		c.History(HistoryQuery{Filter: &HistoryFilter{SeriesID: "s"}}),
		c.NFTsForSeries(NFTBySeriesQuery{SeriesIDs: []string{"s"}}),
		c.CountOwnerOwnedListed(StatNFTsUserQuery{ID: "a", Filter: &StatNFTsUserFilter{}}),
	}
	for _, doc := range docs {
		out := doc.String()
		assert.NotContains(t, out, "null")
		assert.NotContains(t, out, `""`)
		assert.NotContains(t, out, "{ }")
		assert.NotContains(t, out, "{}")
		for _, cond := range doc.DSL.Filters.Group.Conditions {
			require.NotNil(t, cond.Condition)
			assert.NotNil(t, cond.Condition.Value)
		}
	}

	doc := c.History(HistoryQuery{})
	assert.Nil(t, doc.DSL.Filters)
	assert.NotContains(t, doc.String(), "filter")
}

func TestCatalog_HistoryNftOrSeries(t *testing.T) {
	c := New(Config{})

	out := c.History(HistoryQuery{Filter: &HistoryFilter{OnlyNftID: true, NftID: "n1", SeriesID: "s1"}}).String()
	assert.Contains(t, out, `{ nftId: { equalTo: "n1" } }`)
	assert.NotContains(t, out, "seriesId: {")

	out = c.History(HistoryQuery{Filter: &HistoryFilter{NftID: "n1", SeriesID: "s1"}}).String()
	assert.Contains(t, out, `{ seriesId: { equalTo: "s1" } }`)
	assert.NotContains(t, out, "nftId: {")
}

func TestCatalog_CountShapes(t *testing.T) {
	c := New(Config{})

	tests := []struct {
		doc  Document
		want []string
	}{
		{c.CountOwnerOwned(StatNFTsUserQuery{ID: "a"}), []string{`{ owner: { equalTo: "a" } }`}},
		{c.CountOwnerOwnedListed(StatNFTsUserQuery{ID: "a"}), []string{`{ owner: { equalTo: "a" } }`, `{ listed: { equalTo: 1 } }`}},
		{c.CountOwnerOwnedUnlisted(StatNFTsUserQuery{ID: "a"}), []string{`{ owner: { equalTo: "a" } }`, `{ listed: { equalTo: 0 } }`}},
		{c.CountCreated(StatNFTsUserQuery{ID: "a"}), []string{`{ creator: { equalTo: "a" } }`}},
		{c.CountTotal("s"), []string{`{ serieId: { equalTo: "s" } }`}},
		{c.CountTotalListed("s"), []string{`{ serieId: { equalTo: "s" } }`, `{ listed: { equalTo: 1 } }`}},
		{c.CountTotalListedInMarketplace("s", 2), []string{`{ serieId: { equalTo: "s" } }`, `{ listed: { equalTo: 1 } }`, `{ marketplaceId: { equalTo: "2" } }`}},
		{c.CountTotalOwned("s", "a"), []string{`{ serieId: { equalTo: "s" } }`, `{ owner: { equalTo: "a" } }`}},
		{c.CountTotalOwnedListed("s", "a"), []string{`{ serieId: { equalTo: "s" } }`, `{ listed: { equalTo: 1 } }`, `{ owner: { equalTo: "a" } }`}},
		{c.CountTotalOwnedListedInMarketplace("s", "a", 2), []string{`{ serieId: { equalTo: "s" } }`, `{ listed: { equalTo: 1 } }`, `{ owner: { equalTo: "a" } }`, `{ marketplaceId: { equalTo: "2" } }`}},
		{c.CountAllListedInMarketplace(2), []string{`{ listed: { equalTo: 1 } }`, `{ marketplaceId: { equalTo: "2" } }`}},
	}

	for _, tt := range tests {
		t.Run(string(tt.doc.Type), func(t *testing.T) {
			out := tt.doc.String()
			assert.True(t, tt.doc.DSL.Selection.TotalCount)
			assert.False(t, tt.doc.DSL.Selection.PageInfo)
			assert.Empty(t, tt.doc.DSL.Selection.Nodes)
			assert.Nil(t, tt.doc.DSL.Window)
			assert.Nil(t, tt.doc.DSL.OrderBy)
			assert.Len(t, tt.doc.DSL.Filters.Group.Conditions, len(tt.want)+1)

			last := 0
			for _, w := range tt.want {
				idx := strings.Index(out, w)
				require.GreaterOrEqual(t, idx, 0, "missing %s", w)
				assert.Greater(t, idx, last)
				last = idx
			}
		})
	}
}

func TestCatalog_QuotesCallerStrings(t *testing.T) {
	c := New(Config{})
	out := c.NFTByID(NFTQuery{ID: `1" } } ] } ) { x`}).String()
	assert.Contains(t, out, `{ id: { equalTo: "1\" } } ] } ) { x" } }`)
}

func TestCatalog_Idempotent(t *testing.T) {
	c := New(Config{})
	q := NFTsQuery{
		Filter:     &NFTsFilter{Series: []string{"a", "b"}, Creator: "c", Listed: query.BoolPtr(true)},
		Sort:       query.ParseSort("price:desc,serieId:asc"),
		Pagination: query.NewPagination(2, 5),
	}

	first := c.NFTs(q).String()
	assert.Equal(t, first, c.NFTs(q).String())

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.NFTs(q).String()
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestCatalog_Build(t *testing.T) {
	c := New(Config{})

	doc, err := c.Build(QueryNFTs, func(v any) error {
		return yaml.Unmarshal([]byte(`
filter:
  owner: alice
  listed: false
sort:
  - field: price
    direction: desc
pagination:
  page: 2
  limit: 10
`), v)
	})
	require.NoError(t, err)
	assert.Equal(t, c.NFTs(NFTsQuery{
		Filter:     &NFTsFilter{Owner: "alice", Listed: query.BoolPtr(false)},
		Sort:       []query.SortConfiguration{{Field: "price", Direction: query.SortDirectionDesc}},
		Pagination: query.NewPagination(2, 10),
	}).String(), doc.String())

	for _, direction := range []string{"descending", "DESC"} {
		doc, err = c.Build(QueryNFTs, func(v any) error {
			return yaml.Unmarshal([]byte("sort:\n  - field: price\n    direction: "+direction+"\n"), v)
		})
		require.NoError(t, err)
		assert.Contains(t, doc.String(), "orderBy: [PRICE_DESC]", direction)
	}

	doc, err = c.Build(QueryCountTotalOwnedListedInMarketplace, func(v any) error {
		return yaml.Unmarshal([]byte("seriesId: s\nowner: a\nmarketplaceId: 4\n"), v)
	})
	require.NoError(t, err)
	assert.Equal(t, c.CountTotalOwnedListedInMarketplace("s", "a", 4).String(), doc.String())

	for _, qt := range QueryTypes {
		doc, err := c.Build(qt, nil)
		require.NoError(t, err, qt)
		assert.Equal(t, qt, doc.Type)
		_, ok := c.Defaults(qt)
		assert.True(t, ok, qt)
	}

	_, err = c.Build("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownQueryType)

	_, err = c.Build(QueryNFTs, func(v any) error { return yaml.Unmarshal([]byte("filter: [1"), v) })
	assert.Error(t, err)
}

func TestCatalog_NoSpecFieldTargetsBurnTimestamp(t *testing.T) {
	for _, rules := range [][]FieldRule{nftsRules, nftsForSeriesRules, historyRules} {
		for _, r := range rules {
			assert.NotEqual(t, schema.FieldTimestampBurn, r.Field)
		}
	}
}
