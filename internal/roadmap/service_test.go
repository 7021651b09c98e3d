// File path: internal/roadmap/service_test.go
package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nextsteplk/pathway/internal/cache"
	"github.com/nextsteplk/pathway/internal/graph"
	"github.com/nextsteplk/pathway/internal/videos"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, name string) (*cache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.entries[strings.ToLower(name)]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return &cache.Entry{ProgramName: name, Payload: payload}, nil
}

func (f *fakeCache) Set(ctx context.Context, name, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[strings.ToLower(name)] = payload
	f.sets++
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(name)
	_, ok := f.entries[key]
	delete(f.entries, key)
	return ok, nil
}

func (f *fakeCache) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prereqs []string
	fail    bool
}

func (f *fakeGenerator) Generate(ctx context.Context, name string, prereqs []string) (*Roadmap, error) {
	f.mu.Lock()
	f.calls++
	f.prereqs = prereqs
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("%w: scripted failure", ErrGeneration)
	}
	return &Roadmap{
		ProgramName: name,
		Overview:    "test roadmap",
		Steps: []Step{
			{StepNumber: 1, Title: "Basics", Topics: []string{"intro"}},
			{StepNumber: 2, Title: "Advanced", Topics: []string{"deep dive", "failing topic"}},
		},
	}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSearcher struct {
	available bool
	failTopic string
}

func (f *fakeSearcher) Available() bool { return f.available }

func (f *fakeSearcher) Search(ctx context.Context, topic string, max int) ([]videos.Video, error) {
	if topic == f.failTopic {
		return nil, errors.New("search backend down")
	}
	return []videos.Video{{Title: "Video about " + topic, URL: "https://example.com/" + topic}}, nil
}

// blockingSearcher never answers; it holds every search until the caller's
// context expires.
type blockingSearcher struct{}

func (blockingSearcher) Available() bool { return true }

func (blockingSearcher) Search(ctx context.Context, topic string, max int) ([]videos.Video, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeFinder struct {
	record *graph.ProgramRecord
}

func (f *fakeFinder) ProgramDetails(ctx context.Context, name string) (*graph.ProgramRecord, error) {
	return f.record, nil
}

func waitForSets(t *testing.T, store *fakeCache, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.setCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cache writes = %d, want at least %d", store.setCount(), want)
}

func TestGetRoadmapGeneratesDecoratesAndCaches(t *testing.T) {
	store := newFakeCache()
	gen := &fakeGenerator{}
	searcher := &fakeSearcher{available: true}
	svc := NewService(store, gen, nil, searcher)

	result, err := svc.GetRoadmap(context.Background(), "Diploma in Software Engineering")
	if err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}
	if result.Cached {
		t.Error("first request reported as cached")
	}
	if len(result.Roadmap.Steps[0].Videos) == 0 {
		t.Error("step 1 has no videos after decoration")
	}
	waitForSets(t, store, 1)
}

func TestGetRoadmapServesFromCache(t *testing.T) {
	store := newFakeCache()
	payload, _ := json.Marshal(&Roadmap{ProgramName: "Cached Program", Steps: []Step{{StepNumber: 1, Title: "Only"}}})
	store.Set(context.Background(), "Cached Program", string(payload))
	gen := &fakeGenerator{}
	svc := NewService(store, gen, nil, nil)

	result, err := svc.GetRoadmap(context.Background(), "Cached Program")
	if err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}
	if !result.Cached {
		t.Error("expected cache hit")
	}
	if gen.callCount() != 0 {
		t.Errorf("generator called %d times on cache hit", gen.callCount())
	}
}

func TestGetRoadmapPartialVideoFailureStillSucceeds(t *testing.T) {
	store := newFakeCache()
	searcher := &fakeSearcher{available: true, failTopic: "failing topic"}
	svc := NewService(store, &fakeGenerator{}, nil, searcher)

	result, err := svc.GetRoadmap(context.Background(), "Any Program")
	if err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}
	// Step 2 still gets videos from its healthy topic.
	if len(result.Roadmap.Steps[1].Videos) != 1 {
		t.Errorf("step 2 videos = %d, want 1", len(result.Roadmap.Steps[1].Videos))
	}
}

func TestGetRoadmapDecorationDeadlineDoesNotBlock(t *testing.T) {
	store := newFakeCache()
	svc := NewService(store, &fakeGenerator{}, nil, blockingSearcher{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	result, err := svc.GetRoadmap(ctx, "Any Program")
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("GetRoadmap blocked for %v with a stalled searcher", elapsed)
	}
	for _, step := range result.Roadmap.Steps {
		if len(step.Videos) != 0 {
			t.Errorf("step %d has videos from a searcher that never answered", step.StepNumber)
		}
	}
	waitForSets(t, store, 1)
}

func TestGetRoadmapCanceledContextAbandonsDecoration(t *testing.T) {
	svc := NewService(newFakeCache(), &fakeGenerator{}, nil, blockingSearcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	result, err := svc.GetRoadmap(ctx, "Any Program")
	if err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("GetRoadmap blocked for %v after cancellation", elapsed)
	}
	for _, step := range result.Roadmap.Steps {
		if len(step.Videos) != 0 {
			t.Errorf("step %d decorated after cancellation", step.StepNumber)
		}
	}
}

func TestRoadmapEncodesEmptyVideoLists(t *testing.T) {
	svc := NewService(newFakeCache(), &fakeGenerator{}, nil, nil)
	result, err := svc.GetRoadmapFast(context.Background(), "Any Program")
	if err != nil {
		t.Fatalf("GetRoadmapFast: %v", err)
	}
	data, err := json.Marshal(result.Roadmap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"videos":[]`) {
		t.Fatalf("undecorated steps must encode videos as an empty list: %s", data)
	}
	if strings.Contains(string(data), `"videos":null`) {
		t.Fatalf("videos encoded as null: %s", data)
	}
}

func TestGetRoadmapFastSkipsDecoration(t *testing.T) {
	store := newFakeCache()
	searcher := &fakeSearcher{available: true}
	svc := NewService(store, &fakeGenerator{}, nil, searcher)

	result, err := svc.GetRoadmapFast(context.Background(), "Any Program")
	if err != nil {
		t.Fatalf("GetRoadmapFast: %v", err)
	}
	for _, step := range result.Roadmap.Steps {
		if len(step.Videos) != 0 {
			t.Errorf("step %d has videos in fast path", step.StepNumber)
		}
	}
}

func TestGetRoadmapFastStripsCachedVideos(t *testing.T) {
	store := newFakeCache()
	payload, _ := json.Marshal(&Roadmap{
		ProgramName: "Cached Program",
		Steps:       []Step{{StepNumber: 1, Title: "Only", Videos: []videos.Video{{Title: "v"}}}},
	})
	store.Set(context.Background(), "Cached Program", string(payload))
	svc := NewService(store, &fakeGenerator{}, nil, nil)

	result, err := svc.GetRoadmapFast(context.Background(), "Cached Program")
	if err != nil {
		t.Fatalf("GetRoadmapFast: %v", err)
	}
	if !result.Cached || len(result.Roadmap.Steps[0].Videos) != 0 {
		t.Errorf("unexpected result: cached=%v videos=%d", result.Cached, len(result.Roadmap.Steps[0].Videos))
	}
}

func TestGetRoadmapGenerationFailure(t *testing.T) {
	svc := NewService(newFakeCache(), &fakeGenerator{fail: true}, nil, nil)
	if _, err := svc.GetRoadmap(context.Background(), "Any Program"); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestGetRoadmapUsesGraphPrerequisites(t *testing.T) {
	gen := &fakeGenerator{}
	finder := &fakeFinder{record: &graph.ProgramRecord{Name: "P", Qualifications: []string{"A/L Pass"}}}
	svc := NewService(newFakeCache(), gen, finder, nil)

	if _, err := svc.GetRoadmap(context.Background(), "P"); err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}
	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.prereqs) != 1 || gen.prereqs[0] != "A/L Pass" {
		t.Errorf("prerequisites passed to generator: %v", gen.prereqs)
	}
}

func TestVideosForStepRequiresCachedRoadmap(t *testing.T) {
	svc := NewService(newFakeCache(), &fakeGenerator{}, nil, &fakeSearcher{available: true})
	if _, err := svc.VideosForStep(context.Background(), "Missing Program", 1, nil); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
}

func TestVideosForStepDecoratesAndPersists(t *testing.T) {
	store := newFakeCache()
	payload, _ := json.Marshal(&Roadmap{
		ProgramName: "Cached Program",
		Steps:       []Step{{StepNumber: 1, Title: "Only", Topics: []string{"sql"}}},
	})
	store.Set(context.Background(), "Cached Program", string(payload))
	baseline := store.setCount()
	svc := NewService(store, &fakeGenerator{}, nil, &fakeSearcher{available: true})

	found, err := svc.VideosForStep(context.Background(), "Cached Program", 1, nil)
	if err != nil {
		t.Fatalf("VideosForStep: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("videos = %d, want 1", len(found))
	}
	waitForSets(t, store, baseline+1)
}

func TestVideosForStepTopicOverride(t *testing.T) {
	store := newFakeCache()
	payload, _ := json.Marshal(&Roadmap{
		ProgramName: "Cached Program",
		Steps:       []Step{{StepNumber: 1, Title: "Only", Topics: []string{"sql"}}},
	})
	store.Set(context.Background(), "Cached Program", string(payload))
	svc := NewService(store, &fakeGenerator{}, nil, &fakeSearcher{available: true})

	found, err := svc.VideosForStep(context.Background(), "Cached Program", 1, []string{"indexes"})
	if err != nil {
		t.Fatalf("VideosForStep: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Video about indexes" {
		t.Fatalf("override ignored: %+v", found)
	}
}

func TestRefreshRegenerates(t *testing.T) {
	store := newFakeCache()
	payload, _ := json.Marshal(&Roadmap{ProgramName: "P", Overview: "stale", Steps: []Step{{StepNumber: 1, Title: "Old"}}})
	store.Set(context.Background(), "P", string(payload))
	gen := &fakeGenerator{}
	svc := NewService(store, gen, nil, nil)

	result, err := svc.Refresh(context.Background(), "P")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Roadmap.Overview != "test roadmap" {
		t.Errorf("overview = %q, want regenerated roadmap", result.Roadmap.Overview)
	}
	if gen.callCount() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.callCount())
	}
}
