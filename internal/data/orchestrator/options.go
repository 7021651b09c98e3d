// File path: internal/data/orchestrator/options.go
package orchestrator

import (
	"github.com/nextsteplk/pathway/internal/graph"
	"github.com/nextsteplk/pathway/internal/llm"
	"github.com/nextsteplk/pathway/internal/videos"
)

// Option overrides a component before the orchestrator wires defaults.
type Option func(*Orchestrator)

// WithGraph injects a graph client, skipping env-based selection.
func WithGraph(client graph.Client) Option {
	return func(o *Orchestrator) { o.graph = client }
}

// WithCache injects a cache store.
func WithCache(store CacheStore) Option {
	return func(o *Orchestrator) { o.cacheStore = store }
}

// WithProvider injects a chat provider.
func WithProvider(provider llm.Provider) Option {
	return func(o *Orchestrator) { o.provider = provider }
}

// WithSearcher injects a video searcher.
func WithSearcher(searcher videos.Searcher) Option {
	return func(o *Orchestrator) { o.searcher = searcher }
}
