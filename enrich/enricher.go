// Package enrich decorates NFT records returned by the indexer with the
// creator and owner profiles and the metadata stored at the NFT content URI.
// Each step is isolated: a failing step leaves its part of the record unset,
// is logged and emitted as an event, and never fails the whole record.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/nftmarket/indexer-query/sqlite"
	"github.com/nftmarket/indexer-query/transport"
	"github.com/nftmarket/indexer-query/utils"
)

// maxMetadataSize bounds the metadata document read from a content URI.
const maxMetadataSize = 4 << 20

// UserLookup finds a profile by wallet. sqlite.UserStore implements it.
type UserLookup interface {
	FindUser(ctx context.Context, walletID string) (*sqlite.User, error)
}

// CompleteNFT is an NFT with whatever enrichment succeeded.
type CompleteNFT struct {
	transport.NFT
	CreatorData *sqlite.User
	OwnerData   *sqlite.User
	// Metadata is the JSON object found at the content URI.
	Metadata map[string]any
}

// MarshalJSON flattens the record: metadata keys sit next to the NFT fields
// and win over them, followed by creatorData and ownerData.
func (c CompleteNFT) MarshalJSON() ([]byte, error) {
	out, err := utils.StructToMap(c.NFT)
	if err != nil {
		return nil, err
	}
	utils.MergeMaps(out, c.Metadata, true)
	if c.CreatorData != nil {
		out["creatorData"] = c.CreatorData
	}
	if c.OwnerData != nil {
		out["ownerData"] = c.OwnerData
	}
	return json.Marshal(out)
}

// Options configures an Enricher.
type Options struct {
	// Workers bounds PopulateAll concurrency.
	Workers int
	// MetadataTimeout bounds one metadata fetch.
	MetadataTimeout time.Duration
	// IPFSGateway is prepended to content URIs without a scheme.
	IPFSGateway string
	HTTPClient  *http.Client
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Workers:         8,
		MetadataTimeout: 10 * time.Second,
		IPFSGateway:     "https://ipfs.io/ipfs/",
	}
}

// Enricher runs the enrichment steps. It is safe for concurrent use.
type Enricher struct {
	users   UserLookup
	options Options
	http    *http.Client
	logger  *zap.Logger
	pool    *ants.Pool
	bus     *events.TypedEventBus[Event]
	subs    subscriptions
}

// New creates an Enricher. Call Close to release its workers.
func New(users UserLookup, logger *zap.Logger, options Options) (*Enricher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if options.Workers <= 0 {
		options.Workers = defaults.Workers
	}
	if options.MetadataTimeout <= 0 {
		options.MetadataTimeout = defaults.MetadataTimeout
	}
	if options.IPFSGateway == "" {
		options.IPFSGateway = defaults.IPFSGateway
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	pool, err := ants.NewPool(options.Workers, ants.WithPanicHandler(func(v any) {
		logger.Error("Enrichment task panic", zap.Any("panic", v))
	}))
	if err != nil {
		return nil, fmt.Errorf("could not initialize worker pool: %w", err)
	}

	return &Enricher{
		users:   users,
		options: options,
		http:    httpClient,
		logger:  logger,
		pool:    pool,
		bus:     bus,
		subs:    subscriptions{subs: map[string]subscription{}},
	}, nil
}

// Close releases the worker pool.
func (e *Enricher) Close() {
	e.pool.Release()
}

// PopulateNFT runs the creator, owner and metadata steps in order.
func (e *Enricher) PopulateNFT(ctx context.Context, nft transport.NFT) CompleteNFT {
	out := CompleteNFT{NFT: nft}
	e.runStep(ctx, StepCreator, nft.ID, func(ctx context.Context) error {
		user, err := e.findUser(ctx, nft.Creator)
		if err == nil {
			out.CreatorData = user
		}
		return err
	})
	e.runStep(ctx, StepOwner, nft.ID, func(ctx context.Context) error {
		user, err := e.findUser(ctx, nft.Owner)
		if err == nil {
			out.OwnerData = user
		}
		return err
	})
	e.runStep(ctx, StepMetadata, nft.ID, func(ctx context.Context) error {
		metadata, err := e.fetchMetadata(ctx, nft.NftIpfs)
		if err == nil {
			out.Metadata = metadata
		}
		return err
	})
	return out
}

// PopulateAll enriches nfts concurrently and returns them in input order.
// Records whose task could not be scheduled are returned unenriched.
func (e *Enricher) PopulateAll(ctx context.Context, nfts []transport.NFT) ([]CompleteNFT, error) {
	results := make([]CompleteNFT, len(nfts))
	var (
		wg       sync.WaitGroup
		submitMu sync.Mutex
		errs     []error
	)
	for i, nft := range nfts {
		results[i] = CompleteNFT{NFT: nft}
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			results[i] = e.PopulateNFT(ctx, nft)
		})
		if err != nil {
			wg.Done()
			submitMu.Lock()
			errs = append(errs, fmt.Errorf("nft %s: %w", nft.ID, err))
			submitMu.Unlock()
		}
	}
	wg.Wait()
	if len(errs) > 0 {
		return results, fmt.Errorf("failed to schedule enrichment: %w", errors.Join(errs...))
	}
	return results, nil
}

func (e *Enricher) runStep(ctx context.Context, step Step, nftID string, fn func(ctx context.Context) error) {
	start := time.Now()
	if err := fn(ctx); err != nil {
		e.logger.Warn("Enrichment step failed",
			zap.String("step", string(step)),
			zap.String("nftId", nftID),
			zap.Error(err))
		e.emit(EventStepFailed, step, nftID, start, err)
		return
	}
	e.emit(EventStepSucceeded, step, nftID, start, nil)
}

func (e *Enricher) findUser(ctx context.Context, walletID string) (*sqlite.User, error) {
	if e.users == nil {
		return nil, errors.New("no user lookup configured")
	}
	if walletID == "" {
		return nil, fmt.Errorf("%w: empty wallet id", sqlite.ErrUserNotFound)
	}
	return e.users.FindUser(ctx, walletID)
}

// contentURL resolves a content URI to an HTTP URL.
func (e *Enricher) contentURL(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return "", errors.New("nft has no content uri")
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return uri, nil
	case strings.HasPrefix(uri, "ipfs://"):
		return e.options.IPFSGateway + strings.TrimPrefix(uri, "ipfs://"), nil
	case strings.Contains(uri, "://"):
		return "", fmt.Errorf("unsupported content uri %q", uri)
	}
	return e.options.IPFSGateway + uri, nil
}

func (e *Enricher) fetchMetadata(ctx context.Context, uri string) (map[string]any, error) {
	url, err := e.contentURL(uri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.options.MetadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata url: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("metadata request returned status %d", resp.StatusCode)
	}

	var metadata map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataSize)).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("invalid metadata document: %w", err)
	}
	if metadata == nil {
		return nil, errors.New("metadata document is not an object")
	}
	return metadata, nil
}
