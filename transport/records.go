package transport

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nftmarket/indexer-query/core/catalog"
)

// PageInfo is the pagination metadata of a connection.
type PageInfo struct {
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Connection is a decoded connection result.
type Connection[T any] struct {
	TotalCount int       `json:"totalCount"`
	PageInfo   *PageInfo `json:"pageInfo,omitempty"`
	Nodes      []T       `json:"nodes"`
}

// NFT is an NFT record as returned by the indexer. Fields a query did not
// select keep their zero value.
type NFT struct {
	ID            string          `json:"id"`
	SerieID       string          `json:"serieId,omitempty"`
	Listed        int             `json:"listed"`
	Owner         string          `json:"owner,omitempty"`
	Creator       string          `json:"creator,omitempty"`
	TimestampList json.RawMessage `json:"timestampList,omitempty"`
	NftIpfs       string          `json:"nftIpfs,omitempty"`
	CapsuleIpfs   string          `json:"capsuleIpfs,omitempty"`
	IsCapsule     bool            `json:"isCapsule"`
	FrozenCaps    bool            `json:"frozenCaps"`
	Price         string          `json:"price,omitempty"`
	MarketplaceID string          `json:"marketplaceId,omitempty"`
}

// IsListed reports whether the listed flag is set.
func (n NFT) IsListed() bool { return n.Listed != 0 }

// Series is a series record.
type Series struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Locked bool   `json:"locked"`
}

// Extrinsic identifies the chain extrinsic of a transfer.
type Extrinsic struct {
	ID string `json:"id"`
}

// Transfer is an NFT transfer record.
type Transfer struct {
	ID                string     `json:"id"`
	NftID             string     `json:"nftId"`
	SeriesID          string     `json:"seriesId"`
	From              string     `json:"from"`
	To                string     `json:"to"`
	Timestamp         string     `json:"timestamp"`
	TypeOfTransaction string     `json:"typeOfTransaction"`
	Amount            string     `json:"amount"`
	Extrinsic         *Extrinsic `json:"extrinsic,omitempty"`
}

// Account is an account balance record.
type Account struct {
	CapsAmount string `json:"capsAmount"`
}

type priceNode struct {
	Price string `json:"price"`
}

// FetchConnection executes doc and decodes its connection. A connection
// missing from the answer decodes as empty.
func FetchConnection[T any](ctx context.Context, c *Client, doc catalog.Document) (*Connection[T], error) {
	var data map[string]*Connection[T]
	if err := c.Do(ctx, doc.String(), &data); err != nil {
		return nil, err
	}
	conn := data[doc.DSL.Connection]
	if conn == nil {
		conn = &Connection[T]{}
	}
	if conn.Nodes == nil {
		conn.Nodes = []T{}
	}
	return conn, nil
}

// FetchNFTs executes an NFT listing.
func FetchNFTs(ctx context.Context, c *Client, doc catalog.Document) (*Connection[NFT], error) {
	return FetchConnection[NFT](ctx, c, doc)
}

// FetchNFT executes a single-NFT document.
func FetchNFT(ctx context.Context, c *Client, doc catalog.Document) (*NFT, error) {
	conn, err := FetchConnection[NFT](ctx, c, doc)
	if err != nil {
		return nil, err
	}
	if len(conn.Nodes) == 0 {
		return nil, ErrNotFound
	}
	return &conn.Nodes[0], nil
}

// FetchCount executes a count document.
func FetchCount(ctx context.Context, c *Client, doc catalog.Document) (int, error) {
	conn, err := FetchConnection[json.RawMessage](ctx, c, doc)
	if err != nil {
		return 0, err
	}
	return conn.TotalCount, nil
}

// FetchSmallestPrice executes a smallest-price document and returns the
// lowest price. ok is false when nothing is listed. Nodes whose price does not
// parse are logged and skipped.
func FetchSmallestPrice(ctx context.Context, c *Client, doc catalog.Document) (price float64, ok bool, err error) {
	conn, err := FetchConnection[priceNode](ctx, c, doc)
	if err != nil {
		return 0, false, err
	}
	price = math.Inf(1)
	for _, n := range conn.Nodes {
		p, valid := parsePrice(n.Price)
		if !valid {
			c.logger.Warn("Skipping unparsable price", zap.String("price", n.Price))
			continue
		}
		if p < price {
			price = p
			ok = true
		}
	}
	if !ok {
		return 0, false, nil
	}
	return price, true, nil
}

// parsePrice reads a decimal chain amount. NaN and infinities are rejected.
func parsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FetchSeries executes a series document.
func FetchSeries(ctx context.Context, c *Client, doc catalog.Document) (*Series, error) {
	conn, err := FetchConnection[Series](ctx, c, doc)
	if err != nil {
		return nil, err
	}
	if len(conn.Nodes) == 0 {
		return nil, ErrNotFound
	}
	return &conn.Nodes[0], nil
}

// FetchHistory executes a transfer history document.
func FetchHistory(ctx context.Context, c *Client, doc catalog.Document) (*Connection[Transfer], error) {
	return FetchConnection[Transfer](ctx, c, doc)
}

// FetchBalance executes a balance document and returns the raw amount.
func FetchBalance(ctx context.Context, c *Client, doc catalog.Document) (string, error) {
	conn, err := FetchConnection[Account](ctx, c, doc)
	if err != nil {
		return "", err
	}
	if len(conn.Nodes) == 0 {
		return "", ErrNotFound
	}
	return conn.Nodes[0].CapsAmount, nil
}
