// File path: internal/roadmap/service.go
package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nextsteplk/pathway/internal/cache"
	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/common/telemetry"
	"github.com/nextsteplk/pathway/internal/graph"
	"github.com/nextsteplk/pathway/internal/videos"
)

const (
	// stepFanOut bounds concurrent step decorations per roadmap.
	stepFanOut = 3
	// decorationDeadline caps the whole decoration pass.
	decorationDeadline = 30 * time.Second
	// defaultVideosPerTopic is how many videos each topic contributes.
	defaultVideosPerTopic = 2
)

// ErrNotCached is returned when an operation needs a cached roadmap that does
// not exist.
var ErrNotCached = errors.New("roadmap not cached")

// CacheStore is the slice of the cache the service needs.
type CacheStore interface {
	Get(ctx context.Context, programName string) (*cache.Entry, error)
	Set(ctx context.Context, programName, payload string) error
	Delete(ctx context.Context, programName string) (bool, error)
}

// RoadmapGenerator produces roadmaps from program names.
type RoadmapGenerator interface {
	Generate(ctx context.Context, programName string, prerequisites []string) (*Roadmap, error)
}

// PrereqFinder looks up a program's recorded entry requirements.
type PrereqFinder interface {
	ProgramDetails(ctx context.Context, name string) (*graph.ProgramRecord, error)
}

// Service coordinates cache, generator, graph and video search.
type Service struct {
	cache     CacheStore
	generator RoadmapGenerator
	finder    PrereqFinder
	searcher  videos.Searcher
	perTopic  int
}

// ServiceOption adjusts service construction.
type ServiceOption func(*Service)

// WithVideosPerTopic overrides how many videos each topic contributes.
func WithVideosPerTopic(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.perTopic = n
		}
	}
}

// NewService wires the service. finder and searcher may be nil; the service
// degrades to generation without prerequisite grounding or videos.
func NewService(store CacheStore, generator RoadmapGenerator, finder PrereqFinder, searcher videos.Searcher, opts ...ServiceOption) *Service {
	s := &Service{
		cache:     store,
		generator: generator,
		finder:    finder,
		searcher:  searcher,
		perTopic:  defaultVideosPerTopic,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Result wraps a roadmap with its cache provenance.
type Result struct {
	Roadmap *Roadmap `json:"roadmap"`
	Cached  bool     `json:"cached"`
}

// GetRoadmap returns the roadmap for a program, serving from cache when a
// live entry exists and otherwise generating, decorating steps with videos,
// and writing through to the cache in the background.
func (s *Service) GetRoadmap(ctx context.Context, programName string) (*Result, error) {
	programName = strings.TrimSpace(programName)
	if programName == "" {
		return nil, fmt.Errorf("program name required")
	}
	spanCtx, finish := telemetry.StartSpan(ctx, "roadmap.get")
	defer finish("program", programName)

	if cached, ok := s.fromCache(spanCtx, programName); ok {
		ensureVideoLists(cached)
		return &Result{Roadmap: cached, Cached: true}, nil
	}

	rm, err := s.generate(spanCtx, programName)
	if err != nil {
		return nil, err
	}
	s.decorateSteps(spanCtx, rm)
	ensureVideoLists(rm)
	s.writeThrough(programName, rm)
	return &Result{Roadmap: rm, Cached: false}, nil
}

// GetRoadmapFast returns the roadmap without video decoration. A cache hit is
// served with its videos stripped; a miss generates and writes through.
func (s *Service) GetRoadmapFast(ctx context.Context, programName string) (*Result, error) {
	programName = strings.TrimSpace(programName)
	if programName == "" {
		return nil, fmt.Errorf("program name required")
	}
	spanCtx, finish := telemetry.StartSpan(ctx, "roadmap.get_fast")
	defer finish("program", programName)

	if cached, ok := s.fromCache(spanCtx, programName); ok {
		stripVideos(cached)
		return &Result{Roadmap: cached, Cached: true}, nil
	}
	rm, err := s.generate(spanCtx, programName)
	if err != nil {
		return nil, err
	}
	ensureVideoLists(rm)
	s.writeThrough(programName, rm)
	return &Result{Roadmap: rm, Cached: false}, nil
}

// VideosForStep fetches videos for one step of an already cached roadmap and
// persists the decorated roadmap back to the cache. A non-empty topics
// argument overrides the step's own topics.
func (s *Service) VideosForStep(ctx context.Context, programName string, stepNumber int, topics []string) ([]videos.Video, error) {
	programName = strings.TrimSpace(programName)
	if programName == "" {
		return nil, fmt.Errorf("program name required")
	}
	cached, ok := s.fromCache(ctx, programName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, programName)
	}
	var step *Step
	for i := range cached.Steps {
		if cached.Steps[i].StepNumber == stepNumber {
			step = &cached.Steps[i]
			break
		}
	}
	if step == nil {
		return nil, fmt.Errorf("step %d not found in roadmap for %s", stepNumber, programName)
	}
	if len(topics) == 0 {
		topics = step.Topics
	}
	fetchCtx, cancel := context.WithTimeout(ctx, decorationDeadline)
	defer cancel()
	found := videos.FetchForTopics(fetchCtx, s.searcher, topics, s.perTopic)
	if len(found) > 0 {
		step.Videos = found
		s.writeThrough(programName, cached)
	}
	return found, nil
}

// Refresh discards any cached entry and regenerates the roadmap.
func (s *Service) Refresh(ctx context.Context, programName string) (*Result, error) {
	programName = strings.TrimSpace(programName)
	if programName == "" {
		return nil, fmt.Errorf("program name required")
	}
	if s.cache != nil {
		if _, err := s.cache.Delete(ctx, programName); err != nil {
			common.Logger().Warn("roadmap: refresh delete failed", "program", programName, "error", err)
		}
	}
	rm, err := s.generate(ctx, programName)
	if err != nil {
		return nil, err
	}
	s.decorateSteps(ctx, rm)
	ensureVideoLists(rm)
	s.writeThrough(programName, rm)
	return &Result{Roadmap: rm, Cached: false}, nil
}

func (s *Service) fromCache(ctx context.Context, programName string) (*Roadmap, bool) {
	if s.cache == nil {
		return nil, false
	}
	entry, err := s.cache.Get(ctx, programName)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			common.Logger().Warn("roadmap: cache lookup failed", "program", programName, "error", err)
		}
		return nil, false
	}
	var rm Roadmap
	if err := json.Unmarshal([]byte(entry.Payload), &rm); err != nil {
		common.Logger().Warn("roadmap: cached payload unreadable, regenerating", "program", programName, "error", err)
		return nil, false
	}
	return &rm, true
}

func (s *Service) generate(ctx context.Context, programName string) (*Roadmap, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generator configured", ErrGeneration)
	}
	return s.generator.Generate(ctx, programName, s.lookupPrerequisites(ctx, programName))
}

// lookupPrerequisites is best effort; a graph miss or error never blocks
// generation.
func (s *Service) lookupPrerequisites(ctx context.Context, programName string) []string {
	if s.finder == nil {
		return nil
	}
	record, err := s.finder.ProgramDetails(ctx, programName)
	if err != nil {
		common.Logger().Debug("roadmap: prerequisite lookup failed", "program", programName, "error", err)
		return nil
	}
	if record == nil {
		return nil
	}
	return record.Qualifications
}

// decorateSteps fans out video searches across steps, at most stepFanOut at a
// time, under one shared deadline. Steps are addressed by index so no two
// goroutines touch the same element. Decoration never fails the roadmap.
func (s *Service) decorateSteps(ctx context.Context, rm *Roadmap) {
	if s.searcher == nil || !s.searcher.Available() || len(rm.Steps) == 0 {
		return
	}
	decorateCtx, cancel := context.WithTimeout(ctx, decorationDeadline)
	defer cancel()

	sem := make(chan struct{}, stepFanOut)
	var wg sync.WaitGroup
	for i := range rm.Steps {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-decorateCtx.Done():
				return
			}
			rm.Steps[idx].Videos = videos.FetchForTopics(decorateCtx, s.searcher, rm.Steps[idx].Topics, s.perTopic)
		}(i)
	}
	wg.Wait()
}

// writeThrough persists the roadmap in a detached goroutine with its own
// deadline so slow storage never delays the response.
func (s *Service) writeThrough(programName string, rm *Roadmap) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(rm)
	if err != nil {
		common.Logger().Error("roadmap: marshal for cache failed", "program", programName, "error", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, programName, string(payload)); err != nil {
			common.Logger().Warn("roadmap: cache write failed", "program", programName, "error", err)
		}
	}()
}

func stripVideos(rm *Roadmap) {
	for i := range rm.Steps {
		rm.Steps[i].Videos = []videos.Video{}
	}
}

// ensureVideoLists replaces nil video slices so undecorated steps encode as
// an empty list, never null.
func ensureVideoLists(rm *Roadmap) {
	for i := range rm.Steps {
		if rm.Steps[i].Videos == nil {
			rm.Steps[i].Videos = []videos.Video{}
		}
	}
}
