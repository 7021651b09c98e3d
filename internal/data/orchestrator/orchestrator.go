// File path: internal/data/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"

	"github.com/nextsteplk/pathway/internal/cache"
	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/graph"
	"github.com/nextsteplk/pathway/internal/graph/kuzu"
	"github.com/nextsteplk/pathway/internal/graph/memory"
	"github.com/nextsteplk/pathway/internal/llm"
	"github.com/nextsteplk/pathway/internal/pathway"
	"github.com/nextsteplk/pathway/internal/roadmap"
	"github.com/nextsteplk/pathway/internal/videos"
)

// CacheStore is the full cache surface the orchestrator manages: the service
// slice plus the administrative operations the API exposes.
type CacheStore interface {
	roadmap.CacheStore
	Clear(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*cache.Stats, error)
	Close() error
}

// Orchestrator owns the shared components and hands them to the API layer.
type Orchestrator struct {
	graph      graph.Client
	cacheStore CacheStore
	provider   llm.Provider
	searcher   videos.Searcher

	resolver *pathway.Resolver
	roadmaps *roadmap.Service

	ownsGraph bool
	ownsCache bool
}

// New builds the orchestrator: kuzu graph when KUZU_ENDPOINT is configured
// and reachable, in-memory graph otherwise; sqlite cache; env-selected chat
// provider; HTTP video search client. Options injected by the caller are kept
// as-is and not closed by Close.
func New(ctx context.Context, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	logger := common.Logger()

	if o.graph == nil {
		client, err := buildGraph(ctx)
		if err != nil {
			return nil, err
		}
		o.graph = client
		o.ownsGraph = true
	}
	if o.cacheStore == nil {
		cfg, err := cache.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("orchestrator: cache config: %w", err)
		}
		store, err := cache.NewStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: cache store: %w", err)
		}
		o.cacheStore = store
		o.ownsCache = true
	}
	if o.provider == nil {
		o.provider = llm.NewProvider()
	}
	if o.searcher == nil {
		client, err := videos.NewFromEnv()
		if err != nil {
			return nil, fmt.Errorf("orchestrator: video client: %w", err)
		}
		o.searcher = client
	}

	o.resolver = pathway.NewResolver(o.graph)
	o.roadmaps = roadmap.NewService(o.cacheStore, roadmap.NewGenerator(o.provider), o.graph, o.searcher)
	logger.Info("orchestrator: components wired")
	return o, nil
}

func buildGraph(ctx context.Context) (graph.Client, error) {
	cfg, err := kuzu.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: kuzu config: %w", err)
	}
	logger := common.Logger()
	if cfg.Enabled() {
		client, err := kuzu.NewClient(ctx, cfg)
		if err == nil && client.Available() {
			logger.Info("orchestrator: using kuzu graph", "endpoint", cfg.Endpoint)
			return client, nil
		}
		if err != nil {
			logger.Warn("orchestrator: kuzu unavailable, using in-memory graph", "error", err)
		} else {
			logger.Warn("orchestrator: kuzu not responding, using in-memory graph", "endpoint", cfg.Endpoint)
			client.Close()
		}
	} else {
		logger.Info("orchestrator: kuzu disabled, using in-memory graph")
	}
	return memory.NewStore(), nil
}

// Graph returns the active graph client.
func (o *Orchestrator) Graph() graph.Client { return o.graph }

// Cache returns the cache store.
func (o *Orchestrator) Cache() CacheStore { return o.cacheStore }

// Resolver returns the pathway resolver.
func (o *Orchestrator) Resolver() *pathway.Resolver { return o.resolver }

// Roadmaps returns the roadmap service.
func (o *Orchestrator) Roadmaps() *roadmap.Service { return o.roadmaps }

// Close releases owned components in reverse wiring order.
func (o *Orchestrator) Close() error {
	var firstErr error
	if o.ownsCache && o.cacheStore != nil {
		if err := o.cacheStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if o.ownsGraph && o.graph != nil {
		if err := o.graph.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
