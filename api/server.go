// Package api exposes the query catalog over HTTP. Each handler composes a
// document with the catalog, sends it to the indexer through the transport
// client and enriches NFT records before answering.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nftmarket/indexer-query/core/catalog"
	"github.com/nftmarket/indexer-query/enrich"
	"github.com/nftmarket/indexer-query/sqlite"
	"github.com/nftmarket/indexer-query/transport"
)

// Enricher decorates NFT records. *enrich.Enricher implements it.
type Enricher interface {
	PopulateNFT(ctx context.Context, nft transport.NFT) enrich.CompleteNFT
	PopulateAll(ctx context.Context, nfts []transport.NFT) ([]enrich.CompleteNFT, error)
}

// Server holds the HTTP handlers.
type Server struct {
	catalog  *catalog.Catalog
	client   *transport.Client
	enricher Enricher
	logger   *zap.Logger
	engine   *gin.Engine
}

// NewServer builds the router. A nil enricher serves records as returned by
// the indexer.
func NewServer(cat *catalog.Catalog, client *transport.Client, enricher Enricher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog:  cat,
		client:   client,
		enricher: enricher,
		logger:   logger,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/nfts", s.listNFTs)
	s.engine.GET("/nfts/:id", s.getNFT)

	s.engine.GET("/series/:id", s.getSeries)
	s.engine.GET("/series/:id/nfts", s.listSeriesNFTs)
	s.engine.GET("/series/:id/stats", s.seriesStats)

	s.engine.GET("/users/:id/stats", s.userStats)
	s.engine.GET("/marketplaces/:id/stats", s.marketplaceStats)

	s.engine.GET("/history", s.history)
	s.engine.GET("/accounts/:id/balance", s.balance)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// writeError maps an error to its HTTP status.
func (s *Server) writeError(c *gin.Context, err error) {
	var paramErr *ParamError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &paramErr):
		status = http.StatusBadRequest
	case errors.Is(err, transport.ErrNotFound), errors.Is(err, sqlite.ErrUserNotFound):
		status = http.StatusNotFound
	case transport.IsRemoteRejection(err):
		status = http.StatusBadGateway
	case transport.IsTransportFailure(err):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
