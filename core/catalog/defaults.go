package catalog

import (
	"github.com/nftmarket/indexer-query/core/query"
	"github.com/nftmarket/indexer-query/core/schema"
)

// DefaultMaxPageSize bounds listings that request no page size.
const DefaultMaxPageSize = 100

// Connections on the indexing service.
const (
	ConnectionDistinctSerieNfts = "distinctSerieNfts"
	ConnectionNftEntities       = "nftEntities"
	ConnectionSerieEntities     = "serieEntities"
	ConnectionTransferEntities  = "nftTransferEntities"
	ConnectionAccountEntities   = "accountEntities"
)

// Defaults is the fixed configuration of one query type.
type Defaults struct {
	Connection string
	Entity     *schema.EntityDefinition
	// Paginated entries accept a page request and select pageInfo.
	Paginated   bool
	Policy      query.WindowPolicy
	MaxPageSize int
	// OrderBy is used when the caller gives no sort.
	OrderBy []string
	// FixedOrderBy is always used; the caller cannot sort.
	FixedOrderBy []string
	// Operators are the default comparison operators per field.
	Operators map[string]query.ComparisonOperator
	BurnGuard bool
}

// DefaultTable builds the defaults of every query type.
func DefaultTable(maxPageSize int) map[QueryType]Defaults {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}

	count := Defaults{
		Connection: ConnectionNftEntities,
		Entity:     schema.NFT,
		BurnGuard:  true,
	}

	table := map[QueryType]Defaults{
		QueryNFTs: {
			Connection:  ConnectionDistinctSerieNfts,
			Entity:      schema.NFT,
			Paginated:   true,
			Policy:      query.WindowBounded,
			MaxPageSize: maxPageSize,
			Operators: map[string]query.ComparisonOperator{
				schema.FieldIsCapsule: query.ComparisonOperatorIsEqual,
				schema.FieldPrice:     query.ComparisonOperatorIsEqual,
			},
			BurnGuard: true,
		},
		QueryNFTByID: {
			Connection: ConnectionNftEntities,
			Entity:     schema.NFT,
			BurnGuard:  true,
		},
		QueryNFTsForSeries: {
			Connection:   ConnectionNftEntities,
			Entity:       schema.NFT,
			Paginated:    true,
			Policy:       query.WindowOptional,
			MaxPageSize:  maxPageSize,
			FixedOrderBy: []string{"IS_CAPSULE_ASC", "LISTED_DESC"},
			BurnGuard:    true,
		},
		QuerySeries: {
			Connection: ConnectionSerieEntities,
			Entity:     schema.Series,
		},
		QueryHistory: {
			Connection:  ConnectionTransferEntities,
			Entity:      schema.Transfer,
			Paginated:   true,
			Policy:      query.WindowOptional,
			MaxPageSize: maxPageSize,
			OrderBy:     []string{"TIMESTAMP_DESC"},
			Operators: map[string]query.ComparisonOperator{
				schema.FieldTimestamp: query.ComparisonOperatorGreaterThanOrEqualTo,
				schema.FieldAmount:    query.ComparisonOperatorIsEqual,
			},
		},
		QueryBalance: {
			Connection: ConnectionAccountEntities,
			Entity:     schema.Account,
		},
	}

	for _, t := range []QueryType{
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
	} {
		table[t] = count
	}
	return table
}
