package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nftmarket/indexer-query/core/catalog"
	"github.com/nftmarket/indexer-query/enrich"
	"github.com/nftmarket/indexer-query/transport"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listNFTs(c *gin.Context) {
	var p nftsParams
	if err := c.ShouldBindQuery(&p); err != nil {
		s.writeError(c, &ParamError{Err: err})
		return
	}

	ctx := c.Request.Context()
	conn, err := transport.FetchNFTs(ctx, s.client, s.catalog.NFTs(p.query()))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalCount": conn.TotalCount,
		"pageInfo":   conn.PageInfo,
		"nodes":      s.populateAll(ctx, conn.Nodes),
	})
}

func (s *Server) getNFT(c *gin.Context) {
	ctx := c.Request.Context()
	nft, err := transport.FetchNFT(ctx, s.client, s.catalog.NFTByID(catalog.NFTQuery{ID: c.Param("id")}))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if s.enricher == nil {
		c.JSON(http.StatusOK, enrich.CompleteNFT{NFT: *nft})
		return
	}
	c.JSON(http.StatusOK, s.enricher.PopulateNFT(ctx, *nft))
}

func (s *Server) getSeries(c *gin.Context) {
	series, err := transport.FetchSeries(c.Request.Context(), s.client,
		s.catalog.Series(catalog.SeriesStatusQuery{SeriesID: c.Param("id")}))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *Server) listSeriesNFTs(c *gin.Context) {
	var p seriesNFTsParams
	if err := c.ShouldBindQuery(&p); err != nil {
		s.writeError(c, &ParamError{Err: err})
		return
	}

	q := catalog.NFTBySeriesQuery{
		SeriesIDs:  []string{c.Param("id")},
		Pagination: p.pagination(),
	}
	if p.Owner != "" {
		q.Filter = &catalog.NFTBySeriesFilter{Owner: p.Owner}
	}

	conn, err := transport.FetchNFTs(c.Request.Context(), s.client, s.catalog.NFTsForSeries(q))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (s *Server) userStats(c *gin.Context) {
	var p statsParams
	if err := c.ShouldBindQuery(&p); err != nil {
		s.writeError(c, &ParamError{Err: err})
		return
	}

	q := catalog.StatNFTsUserQuery{ID: c.Param("id")}
	if p.MarketplaceID != nil {
		q.Filter = &catalog.StatNFTsUserFilter{MarketplaceID: p.MarketplaceID}
	}
	counts, err := s.fetchCounts(c.Request.Context(), []namedDocument{
		{"countOwned", s.catalog.CountOwnerOwned(q)},
		{"countOwnedListed", s.catalog.CountOwnerOwnedListed(q)},
		{"countOwnedUnlisted", s.catalog.CountOwnerOwnedUnlisted(q)},
		{"countCreated", s.catalog.CountCreated(q)},
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// seriesStats reports the supply counts of a series. Owner and marketplace
// parameters add the owner and marketplace scoped counts.
func (s *Server) seriesStats(c *gin.Context) {
	var p statsParams
	if err := c.ShouldBindQuery(&p); err != nil {
		s.writeError(c, &ParamError{Err: err})
		return
	}

	seriesID := c.Param("id")
	docs := []namedDocument{
		{"countTotal", s.catalog.CountTotal(seriesID)},
		{"countTotalListed", s.catalog.CountTotalListed(seriesID)},
	}
	if p.MarketplaceID != nil {
		docs = append(docs, namedDocument{"countTotalListedInMarketplace",
			s.catalog.CountTotalListedInMarketplace(seriesID, *p.MarketplaceID)})
	}
	if p.Owner != "" {
		docs = append(docs,
			namedDocument{"countTotalOwned", s.catalog.CountTotalOwned(seriesID, p.Owner)},
			namedDocument{"countTotalOwnedListed", s.catalog.CountTotalOwnedListed(seriesID, p.Owner)})
		if p.MarketplaceID != nil {
			docs = append(docs, namedDocument{"countTotalOwnedListedInMarketplace",
				s.catalog.CountTotalOwnedListedInMarketplace(seriesID, p.Owner, *p.MarketplaceID)})
		}
	}

	ctx := c.Request.Context()
	counts, err := s.fetchCounts(ctx, docs)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := gin.H{"seriesId": seriesID, "smallestPrice": nil}
	for name, n := range counts {
		out[name] = n
	}
	price, ok, err := transport.FetchSmallestPrice(ctx, s.client, s.catalog.CountSmallestPrice(seriesID, p.MarketplaceID))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if ok {
		out["smallestPrice"] = price
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) marketplaceStats(c *gin.Context) {
	marketplaceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.writeError(c, &ParamError{Err: fmt.Errorf("marketplace id %q is not an integer", c.Param("id"))})
		return
	}
	counts, err := s.fetchCounts(c.Request.Context(), []namedDocument{
		{"countAllListed", s.catalog.CountAllListedInMarketplace(marketplaceID)},
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (s *Server) history(c *gin.Context) {
	var p historyParams
	if err := c.ShouldBindQuery(&p); err != nil {
		s.writeError(c, &ParamError{Err: err})
		return
	}
	conn, err := transport.FetchHistory(c.Request.Context(), s.client, s.catalog.History(p.query()))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (s *Server) balance(c *gin.Context) {
	amount, err := transport.FetchBalance(c.Request.Context(), s.client,
		s.catalog.Balance(catalog.BalanceQuery{AccountID: c.Param("id")}))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"capsAmount": amount})
}

type namedDocument struct {
	name string
	doc  catalog.Document
}

func (s *Server) fetchCounts(ctx context.Context, docs []namedDocument) (map[string]int, error) {
	counts := make(map[string]int, len(docs))
	for _, d := range docs {
		n, err := transport.FetchCount(ctx, s.client, d.doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.name, err)
		}
		counts[d.name] = n
	}
	return counts, nil
}

// populateAll enriches nfts. Scheduling failures are logged; the affected
// records are served unenriched.
func (s *Server) populateAll(ctx context.Context, nfts []transport.NFT) []enrich.CompleteNFT {
	if s.enricher == nil {
		out := make([]enrich.CompleteNFT, len(nfts))
		for i, nft := range nfts {
			out[i] = enrich.CompleteNFT{NFT: nft}
		}
		return out
	}
	out, err := s.enricher.PopulateAll(ctx, nfts)
	if err != nil {
		s.logger.Warn("Enrichment incomplete", zap.Error(err))
	}
	return out
}
