// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/nextsteplk/pathway/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	graphQueryTotal     *expvar.Map
	graphQueryLatencyMS *expvar.Map

	cacheHitsTotal   *expvar.Int
	cacheMissesTotal *expvar.Int

	roadmapGeneratedTotal   *expvar.Int
	roadmapGenerateFailures *expvar.Int
	roadmapLatencyMS        *expvar.Int

	videoSearchTotal     *expvar.Int
	videoSearchFailures  *expvar.Int
	videoSearchLatencyMS *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		graphQueryTotal = expvar.NewMap("pathway_graph_query_total")
		graphQueryLatencyMS = expvar.NewMap("pathway_graph_query_latency_ms")

		cacheHitsTotal = expvar.NewInt("pathway_cache_hits_total")
		cacheMissesTotal = expvar.NewInt("pathway_cache_misses_total")

		roadmapGeneratedTotal = expvar.NewInt("pathway_roadmap_generated_total")
		roadmapGenerateFailures = expvar.NewInt("pathway_roadmap_generate_failures")
		roadmapLatencyMS = expvar.NewInt("pathway_roadmap_latency_ms")

		videoSearchTotal = expvar.NewInt("pathway_video_search_total")
		videoSearchFailures = expvar.NewInt("pathway_video_search_failures")
		videoSearchLatencyMS = expvar.NewInt("pathway_video_search_latency_ms")
	})
}

// StartSpan records a debug-level span around an operation. The returned
// finish function accepts extra attribute pairs for the closing log line.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// SpanDuration reports the elapsed time of the span carried by ctx, if any.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}

func RecordGraphQuery(kind string, duration time.Duration) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(kind))
	if key == "" {
		key = "unknown"
	}
	graphQueryTotal.Add(key, 1)
	if duration > 0 {
		graphQueryLatencyMS.Add(key, duration.Milliseconds())
	}
}

func RecordCacheLookup(hit bool) {
	ensureInit()
	if hit {
		cacheHitsTotal.Add(1)
		return
	}
	cacheMissesTotal.Add(1)
}

func RecordRoadmapGeneration(duration time.Duration, err error) {
	ensureInit()
	if err != nil {
		roadmapGenerateFailures.Add(1)
		return
	}
	roadmapGeneratedTotal.Add(1)
	if duration > 0 {
		roadmapLatencyMS.Add(duration.Milliseconds())
	}
}

func RecordVideoSearch(duration time.Duration, err error) {
	ensureInit()
	videoSearchTotal.Add(1)
	if err != nil {
		videoSearchFailures.Add(1)
		return
	}
	if duration > 0 {
		videoSearchLatencyMS.Add(duration.Milliseconds())
	}
}
