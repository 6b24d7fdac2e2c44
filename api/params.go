package api

import (
	"strings"

	"github.com/nftmarket/indexer-query/core/catalog"
	"github.com/nftmarket/indexer-query/core/query"
)

// ParamError reports a malformed request parameter.
type ParamError struct {
	Err error
}

func (e *ParamError) Error() string {
	return "invalid request parameters: " + e.Err.Error()
}

func (e *ParamError) Unwrap() error { return e.Err }

// pageParams are the paging parameters shared by the list endpoints. Sort is
// a list of field:direction pairs, e.g. "price:desc,serieId".
type pageParams struct {
	Page  *int   `form:"page"`
	Limit *int   `form:"limit"`
	Sort  string `form:"sort"`
}

func (p pageParams) pagination() *query.PaginationOptions {
	if p.Page == nil && p.Limit == nil {
		return nil
	}
	return &query.PaginationOptions{Page: p.Page, Limit: p.Limit}
}

func (p pageParams) sort() []query.SortConfiguration {
	return query.ParseSort(p.Sort)
}

// List parameters accept repeated keys and comma separated values.
type nftsParams struct {
	pageParams
	IDs                    []string `form:"ids"`
	IDsToExclude           []string `form:"idsToExclude"`
	IDsCategories          []string `form:"idsCategories"`
	IDsToExcludeCategories []string `form:"idsToExcludeCategories"`
	Series                 []string `form:"series"`
	SeriesToExclude        []string `form:"seriesToExclude"`
	Creator                string   `form:"creator"`
	Owner                  string   `form:"owner"`
	MarketplaceID          *int64   `form:"marketplaceId"`
	IsCapsule              *bool    `form:"isCapsule"`
	Listed                 *bool    `form:"listed"`
	Price                  *float64 `form:"price"`
	PriceFilter            string   `form:"priceFilter"`
}

func (p nftsParams) query() catalog.NFTsQuery {
	return catalog.NFTsQuery{
		Filter: &catalog.NFTsFilter{
			IDs:                    splitList(p.IDs),
			IDsToExclude:           splitList(p.IDsToExclude),
			IDsCategories:          splitList(p.IDsCategories),
			IDsToExcludeCategories: splitList(p.IDsToExcludeCategories),
			Series:                 splitList(p.Series),
			SeriesToExclude:        splitList(p.SeriesToExclude),
			Creator:                p.Creator,
			Owner:                  p.Owner,
			MarketplaceID:          p.MarketplaceID,
			IsCapsule:              p.IsCapsule,
			Listed:                 p.Listed,
			Price:                  p.Price,
			PriceFilter:            query.ComparisonOperator(p.PriceFilter),
		},
		Sort:       p.sort(),
		Pagination: p.pagination(),
	}
}

type seriesNFTsParams struct {
	pageParams
	Owner string `form:"owner"`
}

type historyParams struct {
	pageParams
	OnlyNftID         bool     `form:"onlyNftId"`
	NftID             string   `form:"nftId"`
	SeriesID          string   `form:"seriesId"`
	From              string   `form:"from"`
	To                string   `form:"to"`
	TypeOfTransaction string   `form:"typeOfTransaction"`
	Timestamp         string   `form:"timestamp"`
	TimestampFilter   string   `form:"timestampFilter"`
	Amount            *float64 `form:"amount"`
	AmountFilter      string   `form:"amountFilter"`
}

func (p historyParams) query() catalog.HistoryQuery {
	return catalog.HistoryQuery{
		Filter: &catalog.HistoryFilter{
			OnlyNftID:         p.OnlyNftID,
			NftID:             p.NftID,
			SeriesID:          p.SeriesID,
			From:              p.From,
			To:                p.To,
			TypeOfTransaction: p.TypeOfTransaction,
			Timestamp:         p.Timestamp,
			TimestampFilter:   query.ComparisonOperator(p.TimestampFilter),
			Amount:            p.Amount,
			AmountFilter:      query.ComparisonOperator(p.AmountFilter),
		},
		Sort:       p.sort(),
		Pagination: p.pagination(),
	}
}

type statsParams struct {
	Owner         string `form:"owner"`
	MarketplaceID *int64 `form:"marketplaceId"`
}

// splitList flattens comma separated values. It returns nil when nothing
// remains, so an absent parameter stays absent.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
