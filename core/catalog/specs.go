package catalog

import (
	"github.com/nftmarket/indexer-query/core/query"
)

// QueryType names one entry of the catalog.
type QueryType string

// Catalog entries.
const (
	QueryNFTs                               QueryType = "nfts"
	QueryNFTByID                            QueryType = "nft"
	QueryNFTsForSeries                      QueryType = "nftsForSeries"
	QueryCountOwnerOwned                    QueryType = "countOwnerOwned"
	QueryCountOwnerOwnedListed              QueryType = "countOwnerOwnedListed"
	QueryCountOwnerOwnedUnlisted            QueryType = "countOwnerOwnedUnlisted"
	QueryCountCreated                       QueryType = "countCreated"
	QueryCountTotal                         QueryType = "countTotal"
	QueryCountTotalListed                   QueryType = "countTotalListed"
	QueryCountTotalListedInMarketplace      QueryType = "countTotalListedInMarketplace"
	QueryCountTotalOwned                    QueryType = "countTotalOwned"
	QueryCountTotalOwnedListed              QueryType = "countTotalOwnedListed"
	QueryCountTotalOwnedListedInMarketplace QueryType = "countTotalOwnedListedInMarketplace"
	QueryCountSmallestPrice                 QueryType = "countSmallestPrice"
	QueryCountAllListedInMarketplace        QueryType = "countAllListedInMarketplace"
	QuerySeries                             QueryType = "series"
	QueryHistory                            QueryType = "history"
	QueryBalance                            QueryType = "balance"
)

// QueryTypes lists every catalog entry in a stable order.
var QueryTypes = []QueryType{
	QueryNFTs,
	QueryNFTByID,
	QueryNFTsForSeries,
	QueryCountOwnerOwned,
	QueryCountOwnerOwnedListed,
	QueryCountOwnerOwnedUnlisted,
	QueryCountCreated,
	QueryCountTotal,
	QueryCountTotalListed,
	QueryCountTotalListedInMarketplace,
	QueryCountTotalOwned,
	QueryCountTotalOwnedListed,
	QueryCountTotalOwnedListedInMarketplace,
	QueryCountSmallestPrice,
	QueryCountAllListedInMarketplace,
	QuerySeries,
	QueryHistory,
	QueryBalance,
}

// NFTsFilter holds the optional filters of the NFT listing. Pointer and slice
// fields are absent when nil; a false boolean is a filter value in its own right.
type NFTsFilter struct {
	IDs                    []string                 `json:"ids,omitempty" yaml:"ids,omitempty"`
	IDsToExclude           []string                 `json:"idsToExclude,omitempty" yaml:"idsToExclude,omitempty"`
	IDsCategories          []string                 `json:"idsCategories,omitempty" yaml:"idsCategories,omitempty"`
	IDsToExcludeCategories []string                 `json:"idsToExcludeCategories,omitempty" yaml:"idsToExcludeCategories,omitempty"`
	Series                 []string                 `json:"series,omitempty" yaml:"series,omitempty"`
	SeriesToExclude        []string                 `json:"seriesToExclude,omitempty" yaml:"seriesToExclude,omitempty"`
	Creator                string                   `json:"creator,omitempty" yaml:"creator,omitempty"`
	Owner                  string                   `json:"owner,omitempty" yaml:"owner,omitempty"`
	MarketplaceID          *int64                   `json:"marketplaceId,omitempty" yaml:"marketplaceId,omitempty"`
	IsCapsule              *bool                    `json:"isCapsule,omitempty" yaml:"isCapsule,omitempty"`
	Listed                 *bool                    `json:"listed,omitempty" yaml:"listed,omitempty"`
	Price                  *float64                 `json:"price,omitempty" yaml:"price,omitempty"`
	PriceFilter            query.ComparisonOperator `json:"priceFilter,omitempty" yaml:"priceFilter,omitempty"`
}

// NFTsQuery is the NFT listing request.
type NFTsQuery struct {
	Filter     *NFTsFilter               `json:"filter,omitempty" yaml:"filter,omitempty"`
	Sort       []query.SortConfiguration `json:"sort,omitempty" yaml:"sort,omitempty"`
	Pagination *query.PaginationOptions  `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

// NFTQuery selects a single NFT.
type NFTQuery struct {
	ID string `json:"id" yaml:"id"`
}

// NFTBySeriesFilter narrows the NFTs of a series.
type NFTBySeriesFilter struct {
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// NFTBySeriesQuery lists the NFTs of one or more series.
type NFTBySeriesQuery struct {
	SeriesIDs  []string                 `json:"seriesIds" yaml:"seriesIds"`
	Filter     *NFTBySeriesFilter       `json:"filter,omitempty" yaml:"filter,omitempty"`
	Pagination *query.PaginationOptions `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

// StatNFTsUserFilter narrows the per-user counts.
type StatNFTsUserFilter struct {
	MarketplaceID *int64 `json:"marketplaceId,omitempty" yaml:"marketplaceId,omitempty"`
}

// StatNFTsUserQuery is the input of the per-user counts. ID is the wallet.
type StatNFTsUserQuery struct {
	ID     string              `json:"id" yaml:"id"`
	Filter *StatNFTsUserFilter `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// SeriesCountQuery is the input of the per-series and per-marketplace counts.
// Each count reads only the fields its shape needs.
type SeriesCountQuery struct {
	SeriesID      string `json:"seriesId,omitempty" yaml:"seriesId,omitempty"`
	Owner         string `json:"owner,omitempty" yaml:"owner,omitempty"`
	MarketplaceID *int64 `json:"marketplaceId,omitempty" yaml:"marketplaceId,omitempty"`
}

// SeriesStatusQuery selects a series.
type SeriesStatusQuery struct {
	SeriesID string `json:"seriesId" yaml:"seriesId"`
}

// HistoryFilter holds the transfer history filters. NftID is used instead of
// SeriesID when OnlyNftID is set.
type HistoryFilter struct {
	OnlyNftID         bool                     `json:"onlyNftId,omitempty" yaml:"onlyNftId,omitempty"`
	NftID             string                   `json:"nftId,omitempty" yaml:"nftId,omitempty"`
	SeriesID          string                   `json:"seriesId,omitempty" yaml:"seriesId,omitempty"`
	From              string                   `json:"from,omitempty" yaml:"from,omitempty"`
	To                string                   `json:"to,omitempty" yaml:"to,omitempty"`
	TypeOfTransaction string                   `json:"typeOfTransaction,omitempty" yaml:"typeOfTransaction,omitempty"`
	Timestamp         string                   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	TimestampFilter   query.ComparisonOperator `json:"timestampFilter,omitempty" yaml:"timestampFilter,omitempty"`
	Amount            *float64                 `json:"amount,omitempty" yaml:"amount,omitempty"`
	AmountFilter      query.ComparisonOperator `json:"amountFilter,omitempty" yaml:"amountFilter,omitempty"`
}

// HistoryQuery is the transfer history request.
type HistoryQuery struct {
	Filter     *HistoryFilter            `json:"filter,omitempty" yaml:"filter,omitempty"`
	Sort       []query.SortConfiguration `json:"sort,omitempty" yaml:"sort,omitempty"`
	Pagination *query.PaginationOptions  `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

// BalanceQuery selects an account balance.
type BalanceQuery struct {
	AccountID string `json:"accountId" yaml:"accountId"`
}
