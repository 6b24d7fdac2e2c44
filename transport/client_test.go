package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nftmarket/indexer-query/core/catalog"
	"github.com/nftmarket/indexer-query/core/query"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// indexer serves canned bodies and records the documents it received.
type indexer struct {
	status int
	body   string
	calls  atomic.Int32
	last   atomic.Value
	header atomic.Value
}

func (ix *indexer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ix.calls.Add(1)
	raw, _ := io.ReadAll(r.Body)
	var req request
	_ = json.Unmarshal(raw, &req)
	ix.last.Store(req.Query)
	ix.header.Store(r.Header.Get(RequestIDHeader))
	w.Header().Set("Content-Type", "application/json")
	if ix.status != 0 {
		w.WriteHeader(ix.status)
	}
	_, _ = io.WriteString(w, ix.body)
}

func newTestClient(t *testing.T, ix *indexer, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(ix)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewClient(srv.URL, opts...)
}

func TestClient_Do(t *testing.T) {
	ix := &indexer{body: `{"data":{"nftEntities":{"totalCount":3}}}`}
	c := newTestClient(t, ix)

	var out map[string]Connection[json.RawMessage]
	err := c.Do(context.Background(), "{ nftEntities { totalCount } }", &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out["nftEntities"].TotalCount)
	assert.Equal(t, "{ nftEntities { totalCount } }", ix.last.Load())

	_, err = uuid.Parse(ix.header.Load().(string))
	assert.NoError(t, err)
}

func TestClient_ErrorCategories(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		remote    bool
		transport bool
	}{
		{"graphql errors with 200", 200, `{"errors":[{"message":"Cannot query field \"x\""}]}`, true, false},
		{"graphql errors with 400", 400, `{"errors":[{"message":"bad filter"}],"data":null}`, true, false},
		{"server error", 500, `oops`, false, true},
		{"invalid body", 200, `{"data":`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &indexer{status: tt.status, body: tt.body})
			err := c.Do(context.Background(), "{ x }", nil)
			require.Error(t, err)
			assert.Equal(t, tt.remote, IsRemoteRejection(err))
			assert.Equal(t, tt.transport, IsTransportFailure(err))
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithTimeout(time.Second))
	err := c.Do(context.Background(), "{ x }", nil)
	require.Error(t, err)
	assert.True(t, IsTransportFailure(err))
	assert.False(t, IsRemoteRejection(err))
}

func TestClient_EmptyResultIsNotAnError(t *testing.T) {
	ix := &indexer{body: `{"data":{"nftEntities":{"totalCount":0,"nodes":[]}}}`}
	c := newTestClient(t, ix)

	doc := catalog.New(catalog.Config{}).NFTsForSeries(catalog.NFTBySeriesQuery{SeriesIDs: []string{"s"}})
	conn, err := FetchNFTs(context.Background(), c, doc)
	require.NoError(t, err)
	assert.Equal(t, 0, conn.TotalCount)
	assert.NotNil(t, conn.Nodes)
	assert.Empty(t, conn.Nodes)
}

func TestClient_Cache(t *testing.T) {
	ix := &indexer{body: `{"data":{"accountEntities":{"nodes":[{"capsAmount":"12"}]}}}`}
	cache := newMemoryCache()
	c := newTestClient(t, ix, WithCache(cache, time.Minute))

	doc := catalog.New(catalog.Config{}).Balance(catalog.BalanceQuery{AccountID: "acc"})
	for i := 0; i < 3; i++ {
		amount, err := FetchBalance(context.Background(), c, doc)
		require.NoError(t, err)
		assert.Equal(t, "12", amount)
	}
	assert.Equal(t, int32(1), ix.calls.Load())
	assert.Contains(t, cache.entries, CacheKey(doc.String()))

	cache.failGet = true
	_, err := FetchBalance(context.Background(), c, doc)
	require.NoError(t, err)
	assert.Equal(t, int32(2), ix.calls.Load())
}

func TestClient_ErrorsAreNotCached(t *testing.T) {
	ix := &indexer{body: `{"errors":[{"message":"no"}]}`}
	cache := newMemoryCache()
	c := newTestClient(t, ix, WithCache(cache, time.Minute))

	require.Error(t, c.Do(context.Background(), "{ x }", nil))
	assert.Empty(t, cache.entries)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"100", 100, true},
		{"123.45", 123.45, true},
		{" 7 ", 7, true},
		{"1000000000000000000", 1e18, true},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parsePrice(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchHelpers(t *testing.T) {
	cat := catalog.New(catalog.Config{})
	ctx := context.Background()

	t.Run("nft", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftEntities":{"nodes":[{"id":"7","listed":1,"price":"10","marketplaceId":"1","timestampList":["x"]}]}}}`})
		nft, err := FetchNFT(ctx, c, cat.NFTByID(catalog.NFTQuery{ID: "7"}))
		require.NoError(t, err)
		assert.Equal(t, "7", nft.ID)
		assert.True(t, nft.IsListed())
		assert.Equal(t, "10", nft.Price)
	})

	t.Run("nft not found", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftEntities":{"nodes":[]}}}`})
		_, err := FetchNFT(ctx, c, cat.NFTByID(catalog.NFTQuery{ID: "7"}))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, IsTransportFailure(err))
	})

	t.Run("count", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftEntities":{"totalCount":42}}}`})
		n, err := FetchCount(ctx, c, cat.CountTotal("s"))
		require.NoError(t, err)
		assert.Equal(t, 42, n)
	})

	t.Run("smallest price", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftEntities":{"nodes":[{"price":"30"},{"price":"2.5"},{"price":"100"}]}}}`})
		p, ok, err := FetchSmallestPrice(ctx, c, cat.CountSmallestPrice("s", nil))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2.5, p)
	})

	t.Run("smallest price skips unparsable", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftEntities":{"nodes":[{"price":"abc"},{"price":"4"},{"price":""}]}}}`})
		p, ok, err := FetchSmallestPrice(ctx, c, cat.CountSmallestPrice("s", nil))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 4.0, p)
	})

	t.Run("smallest price nothing parsable", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftEntities":{"nodes":[{"price":"abc"}]}}}`})
		_, ok, err := FetchSmallestPrice(ctx, c, cat.CountSmallestPrice("s", nil))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("smallest price none listed", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftEntities":{"nodes":[]}}}`})
		_, ok, err := FetchSmallestPrice(ctx, c, cat.CountSmallestPrice("s", query.Int64Ptr(2)))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("series", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"serieEntities":{"totalCount":1,"nodes":[{"id":"s","owner":"o","locked":true}]}}}`})
		s, err := FetchSeries(ctx, c, cat.Series(catalog.SeriesStatusQuery{SeriesID: "s"}))
		require.NoError(t, err)
		assert.Equal(t, &Series{ID: "s", Owner: "o", Locked: true}, s)
	})

	t.Run("history", func(t *testing.T) {
		c := newTestClient(t, &indexer{body: `{"data":{"nftTransferEntities":{"totalCount":1,"pageInfo":{"hasNextPage":true},"nodes":[{"id":"t","amount":"1","extrinsic":{"id":"e"}}]}}}`})
		conn, err := FetchHistory(ctx, c, cat.History(catalog.HistoryQuery{Filter: &catalog.HistoryFilter{SeriesID: "s"}}))
		require.NoError(t, err)
		require.Len(t, conn.Nodes, 1)
		assert.Equal(t, "e", conn.Nodes[0].Extrinsic.ID)
		assert.True(t, conn.PageInfo.HasNextPage)
	})
}

func TestRemoteError_Error(t *testing.T) {
	err := &RemoteError{StatusCode: 400, Errors: []GraphQLError{{Message: "a"}, {Message: "b"}}}
	assert.Equal(t, "indexer rejected query (status 400): a; b", err.Error())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("{ a }"), CacheKey("{ a }"))
	assert.NotEqual(t, CacheKey("{ a }"), CacheKey("{ b }"))
	assert.Len(t, CacheKey(""), 64)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
