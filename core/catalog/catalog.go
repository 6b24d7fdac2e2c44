// Package catalog composes the indexer documents the marketplace needs. Each
// entry turns a typed request into a QueryDSL by combining the entry's fixed
// selection, the burn guard, the clauses assembled from the request, the
// pagination window and the ordering tokens. Entries are pure: a Catalog can
// be shared by any number of goroutines.
package catalog

import (
	"errors"
	"fmt"

	"github.com/nftmarket/indexer-query/core/query"
	"github.com/nftmarket/indexer-query/core/schema"
	"github.com/nftmarket/indexer-query/graphql"
)

// ErrUnknownQueryType is returned by Build for a type outside the catalog.
var ErrUnknownQueryType = errors.New("unknown query type")

// Config configures a Catalog.
type Config struct {
	// MaxPageSize bounds listings that request no page size. Zero means
	// DefaultMaxPageSize.
	MaxPageSize int
}

// Catalog builds documents from requests.
type Catalog struct {
	defaults map[QueryType]Defaults
}

// New creates a Catalog.
func New(cfg Config) *Catalog {
	return &Catalog{defaults: DefaultTable(cfg.MaxPageSize)}
}

// Defaults returns the configuration of a query type.
func (c *Catalog) Defaults(t QueryType) (Defaults, bool) {
	d, ok := c.defaults[t]
	return d, ok
}

// Document is a composed query.
type Document struct {
	Type QueryType
	DSL  query.QueryDSL
}

// String renders the document as GraphQL text.
func (d Document) String() string {
	return graphql.Render(&d.DSL)
}

type selector func(qb *query.QueryBuilder)

func (c *Catalog) compose(t QueryType, clauses Clauses, sort []query.SortConfiguration, p *query.PaginationOptions, sel selector) Document {
	d := c.defaults[t]
	qb := query.NewQueryBuilder(d.Connection, d.Entity)

	if d.Paginated {
		qb.WindowIf(query.ComputeWindow(p, d.Policy, d.MaxPageSize)).Paginated()
	}

	group := query.NewFilterGroup(query.LogicalOperatorAnd)
	if d.BurnGuard {
		group.Add(BurnGuard())
	}
	group.Add(clauses.Filters...)
	if group.Len() > 0 {
		qb.Filter(group.End())
	}

	for _, arg := range clauses.Arguments {
		qb.Argument(arg.Name, arg.Value)
	}

	if len(d.FixedOrderBy) > 0 {
		qb.OrderBy(d.FixedOrderBy...)
	} else {
		qb.OrderBy(query.TranslateSort(sort, d.OrderBy...)...)
	}

	sel(qb)
	return Document{Type: t, DSL: qb.Build()}
}

func (c *Catalog) assemble(t QueryType, rules []FieldRule, inputs map[string]Input) Clauses {
	return Assemble(rules, inputs, c.defaults[t].Operators)
}

func selectAll(qb *query.QueryBuilder) { qb.SelectAll() }

func totalCount(qb *query.QueryBuilder) { qb.WithTotalCount() }

// NFTs lists NFTs of distinct series.
func (c *Catalog) NFTs(q NFTsQuery) Document {
	f := q.Filter
	if f == nil {
		f = &NFTsFilter{}
	}
	clauses := c.assemble(QueryNFTs, nftsRules, map[string]Input{
		"ids":                    {Value: f.IDs},
		"idsToExclude":           {Value: f.IDsToExclude},
		"idsCategories":          {Value: f.IDsCategories},
		"idsToExcludeCategories": {Value: f.IDsToExcludeCategories},
		"series":                 {Value: f.Series},
		"seriesToExclude":        {Value: f.SeriesToExclude},
		"creator":                {Value: f.Creator},
		"isCapsule":              {Value: f.IsCapsule},
		"price":                  {Value: f.Price, Operator: f.PriceFilter},
		"owner":                  {Value: f.Owner},
		"marketplaceId":          {Value: f.MarketplaceID},
		"listed":                 {Value: f.Listed},
	})
	return c.compose(QueryNFTs, clauses, q.Sort, q.Pagination, selectAll)
}

// NFTByID selects one NFT.
func (c *Catalog) NFTByID(q NFTQuery) Document {
	clauses := c.assemble(QueryNFTByID, []FieldRule{required(schema.FieldID)}, map[string]Input{
		schema.FieldID: {Value: q.ID},
	})
	return c.compose(QueryNFTByID, clauses, nil, nil, selectAll)
}

// NFTsForSeries lists the NFTs of the given series, capsules last and listed
// first.
func (c *Catalog) NFTsForSeries(q NFTBySeriesQuery) Document {
	owner := ""
	if q.Filter != nil {
		owner = q.Filter.Owner
	}
	seriesIDs := q.SeriesIDs
	if seriesIDs == nil {
		seriesIDs = []string{}
	}
	clauses := c.assemble(QueryNFTsForSeries, nftsForSeriesRules, map[string]Input{
		"seriesIds": {Value: seriesIDs},
		"owner":     {Value: owner},
	})
	return c.compose(QueryNFTsForSeries, clauses, nil, q.Pagination, func(qb *query.QueryBuilder) {
		qb.Select(
			schema.FieldID,
			schema.FieldOwner,
			schema.FieldListed,
			schema.FieldPrice,
			schema.FieldMarketplaceID,
			schema.FieldIsCapsule,
		)
	})
}

func (c *Catalog) count(t QueryType, rules []FieldRule, inputs map[string]Input) Document {
	return c.compose(t, c.assemble(t, rules, inputs), nil, nil, totalCount)
}

// CountOwnerOwned counts the NFTs owned by a wallet.
func (c *Catalog) CountOwnerOwned(q StatNFTsUserQuery) Document {
	return c.count(QueryCountOwnerOwned,
		[]FieldRule{required(schema.FieldOwner)},
		map[string]Input{schema.FieldOwner: {Value: q.ID}})
}

// CountOwnerOwnedListed counts the listed NFTs owned by a wallet, optionally
// restricted to a marketplace.
func (c *Catalog) CountOwnerOwnedListed(q StatNFTsUserQuery) Document {
	var marketplaceID *int64
	if q.Filter != nil {
		marketplaceID = q.Filter.MarketplaceID
	}
	return c.count(QueryCountOwnerOwnedListed,
		[]FieldRule{optional(schema.FieldMarketplaceID), required(schema.FieldOwner), required(schema.FieldListed)},
		map[string]Input{
			schema.FieldMarketplaceID: {Value: marketplaceID},
			schema.FieldOwner:         {Value: q.ID},
			schema.FieldListed:        {Value: true},
		})
}

// CountOwnerOwnedUnlisted counts the unlisted NFTs owned by a wallet.
func (c *Catalog) CountOwnerOwnedUnlisted(q StatNFTsUserQuery) Document {
	return c.count(QueryCountOwnerOwnedUnlisted,
		[]FieldRule{required(schema.FieldOwner), required(schema.FieldListed)},
		map[string]Input{
			schema.FieldOwner:  {Value: q.ID},
			schema.FieldListed: {Value: false},
		})
}

// CountCreated counts the NFTs created by a wallet.
func (c *Catalog) CountCreated(q StatNFTsUserQuery) Document {
	return c.count(QueryCountCreated,
		[]FieldRule{required(schema.FieldCreator)},
		map[string]Input{schema.FieldCreator: {Value: q.ID}})
}

// CountTotal counts the NFTs of a series.
func (c *Catalog) CountTotal(seriesID string) Document {
	return c.count(QueryCountTotal,
		[]FieldRule{required(schema.FieldSerieID)},
		map[string]Input{schema.FieldSerieID: {Value: seriesID}})
}

// CountTotalListed counts the listed NFTs of a series.
func (c *Catalog) CountTotalListed(seriesID string) Document {
	return c.count(QueryCountTotalListed,
		[]FieldRule{required(schema.FieldSerieID), required(schema.FieldListed)},
		map[string]Input{
			schema.FieldSerieID: {Value: seriesID},
			schema.FieldListed:  {Value: true},
		})
}

// CountTotalListedInMarketplace counts the NFTs of a series listed on a
// marketplace.
func (c *Catalog) CountTotalListedInMarketplace(seriesID string, marketplaceID int64) Document {
	return c.count(QueryCountTotalListedInMarketplace,
		[]FieldRule{required(schema.FieldSerieID), required(schema.FieldListed), required(schema.FieldMarketplaceID)},
		map[string]Input{
			schema.FieldSerieID:       {Value: seriesID},
			schema.FieldListed:        {Value: true},
			schema.FieldMarketplaceID: {Value: marketplaceID},
		})
}

// CountTotalOwned counts the NFTs of a series held by owner.
func (c *Catalog) CountTotalOwned(seriesID, owner string) Document {
	return c.count(QueryCountTotalOwned,
		[]FieldRule{required(schema.FieldSerieID), required(schema.FieldOwner)},
		map[string]Input{
			schema.FieldSerieID: {Value: seriesID},
			schema.FieldOwner:   {Value: owner},
		})
}

// CountTotalOwnedListed counts the listed NFTs of a series held by owner.
func (c *Catalog) CountTotalOwnedListed(seriesID, owner string) Document {
	return c.count(QueryCountTotalOwnedListed,
		[]FieldRule{required(schema.FieldSerieID), required(schema.FieldListed), required(schema.FieldOwner)},
		map[string]Input{
			schema.FieldSerieID: {Value: seriesID},
			schema.FieldListed:  {Value: true},
			schema.FieldOwner:   {Value: owner},
		})
}

// CountTotalOwnedListedInMarketplace counts the NFTs of a series held by owner
// and listed on a marketplace.
func (c *Catalog) CountTotalOwnedListedInMarketplace(seriesID, owner string, marketplaceID int64) Document {
	return c.count(QueryCountTotalOwnedListedInMarketplace,
		[]FieldRule{
			required(schema.FieldSerieID),
			required(schema.FieldListed),
			required(schema.FieldOwner),
			required(schema.FieldMarketplaceID),
		},
		map[string]Input{
			schema.FieldSerieID:       {Value: seriesID},
			schema.FieldListed:        {Value: true},
			schema.FieldOwner:         {Value: owner},
			schema.FieldMarketplaceID: {Value: marketplaceID},
		})
}

// CountSmallestPrice selects the prices of the listed NFTs of a series so the
// caller can take the minimum. The marketplace predicate is only added when
// marketplaceID is set and non-zero.
func (c *Catalog) CountSmallestPrice(seriesID string, marketplaceID *int64) Document {
	clauses := c.assemble(QueryCountSmallestPrice,
		[]FieldRule{required(schema.FieldSerieID), required(schema.FieldListed), optional(schema.FieldMarketplaceID)},
		map[string]Input{
			schema.FieldSerieID:       {Value: seriesID},
			schema.FieldListed:        {Value: true},
			schema.FieldMarketplaceID: {Value: marketplaceID},
		})
	return c.compose(QueryCountSmallestPrice, clauses, nil, nil, func(qb *query.QueryBuilder) {
		qb.Select(schema.FieldPrice)
	})
}

// CountAllListedInMarketplace counts every NFT listed on a marketplace.
func (c *Catalog) CountAllListedInMarketplace(marketplaceID int64) Document {
	return c.count(QueryCountAllListedInMarketplace,
		[]FieldRule{required(schema.FieldListed), required(schema.FieldMarketplaceID)},
		map[string]Input{
			schema.FieldListed:        {Value: true},
			schema.FieldMarketplaceID: {Value: marketplaceID},
		})
}

// Series selects the lock and ownership status of a series.
func (c *Catalog) Series(q SeriesStatusQuery) Document {
	clauses := c.assemble(QuerySeries, []FieldRule{required(schema.FieldID)}, map[string]Input{
		schema.FieldID: {Value: q.SeriesID},
	})
	return c.compose(QuerySeries, clauses, nil, nil, func(qb *query.QueryBuilder) {
		qb.WithTotalCount().SelectAll()
	})
}

// History lists transfers, most recent first unless sorted otherwise. The
// NFT id replaces the series id when OnlyNftID is set.
func (c *Catalog) History(q HistoryQuery) Document {
	f := q.Filter
	if f == nil {
		f = &HistoryFilter{}
	}
	inputs := map[string]Input{
		"from":              {Value: f.From},
		"to":                {Value: f.To},
		"typeOfTransaction": {Value: f.TypeOfTransaction},
		"timestamp":         {Value: f.Timestamp, Operator: f.TimestampFilter},
		"amount":            {Value: f.Amount, Operator: f.AmountFilter},
	}
	if f.OnlyNftID {
		inputs["nftId"] = Input{Value: f.NftID}
	} else {
		inputs["seriesId"] = Input{Value: f.SeriesID}
	}
	clauses := c.assemble(QueryHistory, historyRules, inputs)
	return c.compose(QueryHistory, clauses, q.Sort, q.Pagination, selectAll)
}

// Balance selects the balance of an account.
func (c *Catalog) Balance(q BalanceQuery) Document {
	d := c.defaults[QueryBalance]
	dsl := query.NewQueryBuilder(d.Connection, d.Entity).
		Filter(query.CreateSimpleFilter(schema.FieldID, query.ComparisonOperatorEqualTo, q.AccountID)).
		SelectAll().
		Build()
	return Document{Type: QueryBalance, DSL: dsl}
}

// Build decodes the request of type t with decode and composes its document.
// decode receives a pointer to the request struct of the entry, e.g.
// *NFTsQuery; the per-series counts decode a *SeriesCountQuery.
func (c *Catalog) Build(t QueryType, decode func(v any) error) (Document, error) {
	switch t {
	case QueryNFTs:
		var q NFTsQuery
		return decodeInto(decode, &q, func() Document { return c.NFTs(q) })
	case QueryNFTByID:
		var q NFTQuery
		return decodeInto(decode, &q, func() Document { return c.NFTByID(q) })
	case QueryNFTsForSeries:
		var q NFTBySeriesQuery
		return decodeInto(decode, &q, func() Document { return c.NFTsForSeries(q) })
	case QueryCountOwnerOwned, QueryCountOwnerOwnedListed, QueryCountOwnerOwnedUnlisted, QueryCountCreated:
		var q StatNFTsUserQuery
		return decodeInto(decode, &q, func() Document {
			switch t {
			case QueryCountOwnerOwned:
				return c.CountOwnerOwned(q)
			case QueryCountOwnerOwnedListed:
				return c.CountOwnerOwnedListed(q)
			case QueryCountOwnerOwnedUnlisted:
				return c.CountOwnerOwnedUnlisted(q)
			default:
				return c.CountCreated(q)
			}
		})
	case QueryCountTotal, QueryCountTotalListed, QueryCountTotalListedInMarketplace,
		QueryCountTotalOwned, QueryCountTotalOwnedListed, QueryCountTotalOwnedListedInMarketplace,
		QueryCountSmallestPrice, QueryCountAllListedInMarketplace:
		var q SeriesCountQuery
		return decodeInto(decode, &q, func() Document { return c.seriesCount(t, q) })
	case QuerySeries:
		var q SeriesStatusQuery
		return decodeInto(decode, &q, func() Document { return c.Series(q) })
	case QueryHistory:
		var q HistoryQuery
		return decodeInto(decode, &q, func() Document { return c.History(q) })
	case QueryBalance:
		var q BalanceQuery
		return decodeInto(decode, &q, func() Document { return c.Balance(q) })
	}
	return Document{}, fmt.Errorf("%w: %q", ErrUnknownQueryType, t)
}

func (c *Catalog) seriesCount(t QueryType, q SeriesCountQuery) Document {
	var marketplaceID int64
	if q.MarketplaceID != nil {
		marketplaceID = *q.MarketplaceID
	}
	switch t {
	case QueryCountTotal:
		return c.CountTotal(q.SeriesID)
	case QueryCountTotalListed:
		return c.CountTotalListed(q.SeriesID)
	case QueryCountTotalListedInMarketplace:
		return c.CountTotalListedInMarketplace(q.SeriesID, marketplaceID)
	case QueryCountTotalOwned:
		return c.CountTotalOwned(q.SeriesID, q.Owner)
	case QueryCountTotalOwnedListed:
		return c.CountTotalOwnedListed(q.SeriesID, q.Owner)
	case QueryCountTotalOwnedListedInMarketplace:
		return c.CountTotalOwnedListedInMarketplace(q.SeriesID, q.Owner, marketplaceID)
	case QueryCountSmallestPrice:
		return c.CountSmallestPrice(q.SeriesID, q.MarketplaceID)
	default:
		return c.CountAllListedInMarketplace(marketplaceID)
	}
}

func decodeInto(decode func(v any) error, v any, build func() Document) (Document, error) {
	if decode != nil {
		if err := decode(v); err != nil {
			return Document{}, fmt.Errorf("failed to decode request: %w", err)
		}
	}
	return build(), nil
}
