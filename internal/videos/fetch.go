// File path: internal/videos/fetch.go
package videos

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nextsteplk/pathway/internal/common"
)

const (
	// maxTopicsPerStep bounds how many topics are searched per step.
	maxTopicsPerStep = 3
	// topicConcurrency bounds in-flight searches across one fetch call.
	topicConcurrency = 5
	// perSearchTimeout caps each individual search request.
	perSearchTimeout = 15 * time.Second
)

// FetchForTopics searches videos for up to maxTopicsPerStep topics with
// bounded concurrency and merges the results in topic order. It never returns
// an error: failed or timed-out topics contribute nothing, and an unavailable
// searcher yields an empty slice.
func FetchForTopics(ctx context.Context, searcher Searcher, topics []string, perTopic int) []Video {
	if searcher == nil || !searcher.Available() {
		return nil
	}
	selected := make([]string, 0, maxTopicsPerStep)
	for _, topic := range topics {
		if strings.TrimSpace(topic) == "" {
			continue
		}
		selected = append(selected, topic)
		if len(selected) == maxTopicsPerStep {
			break
		}
	}
	if len(selected) == 0 {
		return nil
	}

	logger := common.Logger()
	results := make([][]Video, len(selected))
	sem := make(chan struct{}, topicConcurrency)
	var wg sync.WaitGroup
	for i, topic := range selected {
		wg.Add(1)
		go func(idx int, topic string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			searchCtx, cancel := context.WithTimeout(ctx, perSearchTimeout)
			defer cancel()
			found, err := searcher.Search(searchCtx, topic, perTopic)
			if err != nil {
				logger.Warn("videos: topic search failed", "topic", topic, "error", err)
				return
			}
			results[idx] = found
		}(i, topic)
	}
	wg.Wait()

	var merged []Video
	for _, batch := range results {
		merged = append(merged, batch...)
	}
	return merged
}
