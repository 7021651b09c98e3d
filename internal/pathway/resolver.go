// File path: internal/pathway/resolver.go
package pathway

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/common/telemetry"
	"github.com/nextsteplk/pathway/internal/graph"
)

// defaultMaxDepth bounds the prerequisite-chain traversal. The visited set is
// the actual cycle guard; the cap limits pathological fan-out.
const defaultMaxDepth = 10

// ProgramDetails is a fully resolved pathway entry returned to callers.
type ProgramDetails struct {
	Name           string   `json:"name"`
	Institute      string   `json:"institute,omitempty"`
	Department     string   `json:"department,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
	Careers        []string `json:"careers,omitempty"`
	PathDistance   int      `json:"path_distance"`
}

// Resolver finds programs reachable from a qualification through direct
// requirements or prerequisite chains.
type Resolver struct {
	client   graph.Client
	maxDepth int
}

// Option adjusts resolver construction.
type Option func(*Resolver)

// WithMaxDepth overrides the traversal depth bound.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// NewResolver constructs a resolver over the provided graph client.
func NewResolver(client graph.Client, opts ...Option) *Resolver {
	r := &Resolver{client: client, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type candidate struct {
	name     string
	distance int
}

// ResolvePathway returns every program whose department name contains the
// filter substring and which either directly requires the qualification or is
// reachable from a direct requirer via prerequisite chains. Results are
// ordered by chain distance, then tier, then name. An empty result is a valid
// "no pathway" outcome.
func (r *Resolver) ResolvePathway(ctx context.Context, departmentFilter, qualification string) ([]ProgramDetails, error) {
	if r == nil || r.client == nil {
		return nil, fmt.Errorf("resolver not configured")
	}
	qualification = strings.TrimSpace(qualification)
	if qualification == "" {
		return nil, fmt.Errorf("qualification required")
	}
	spanCtx, finish := telemetry.StartSpan(ctx, "pathway.resolve")
	defer finish()

	candidates, err := r.reachablePrograms(spanCtx, qualification)
	if err != nil {
		return nil, fmt.Errorf("resolve pathway for %q: %w", qualification, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	filter := strings.ToLower(strings.TrimSpace(departmentFilter))
	results := make([]ProgramDetails, 0, len(candidates))
	for _, cand := range candidates {
		record, err := r.client.ProgramDetails(spanCtx, cand.name)
		if err != nil {
			return nil, fmt.Errorf("resolve pathway for %q: details for %q: %w", qualification, cand.name, err)
		}
		if record == nil {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(record.Department), filter) {
			continue
		}
		results = append(results, ProgramDetails{
			Name:           record.Name,
			Institute:      record.Institute,
			Department:     record.Department,
			Qualifications: record.Qualifications,
			Prerequisites:  record.Prerequisites,
			Careers:        record.Careers,
			PathDistance:   cand.distance,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].PathDistance != results[j].PathDistance {
			return results[i].PathDistance < results[j].PathDistance
		}
		ri, rj := tierRank(results[i].Name), tierRank(results[j].Name)
		if ri != rj {
			return ri < rj
		}
		return results[i].Name < results[j].Name
	})

	common.Logger().Debug("pathway: resolved", "qualification", qualification, "filter", departmentFilter, "programs", len(results))
	return results, nil
}

// reachablePrograms combines the two reachability predicates: programs that
// directly require the qualification (distance 0) and programs reached from a
// direct requirer via IS_PREREQUISITE_FOR chains (distance = hop count). The
// "bridging program" case is closure from a direct requirer, so deduplicating
// by program identity keeping the minimum distance covers all three rules.
func (r *Resolver) reachablePrograms(ctx context.Context, qualification string) ([]candidate, error) {
	seeds, err := r.directRequirers(ctx, qualification)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}
	return r.prerequisiteClosure(ctx, seeds)
}

// directRequirers returns programs with a REQUIRES edge to the qualification.
func (r *Resolver) directRequirers(ctx context.Context, qualification string) ([]string, error) {
	names, err := r.client.ProgramsRequiring(ctx, qualification)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// prerequisiteClosure walks IS_PREREQUISITE_FOR edges breadth-first from the
// seed programs. The visited set guards against cycles; maxDepth bounds the
// walk regardless.
func (r *Resolver) prerequisiteClosure(ctx context.Context, seeds []string) ([]candidate, error) {
	visited := make(map[string]struct{}, len(seeds))
	var discovered []candidate

	frontier := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		key := strings.ToLower(strings.TrimSpace(seed))
		if key == "" {
			continue
		}
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}
		discovered = append(discovered, candidate{name: seed, distance: 0})
		frontier = append(frontier, seed)
	}

	for depth := 1; depth <= r.maxDepth && len(frontier) > 0; depth++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var next []string
		for _, program := range frontier {
			successors, err := r.client.Successors(ctx, program)
			if err != nil {
				return nil, fmt.Errorf("successors of %q: %w", program, err)
			}
			for _, successor := range successors {
				key := strings.ToLower(strings.TrimSpace(successor))
				if key == "" {
					continue
				}
				if _, seen := visited[key]; seen {
					continue
				}
				visited[key] = struct{}{}
				discovered = append(discovered, candidate{name: successor, distance: depth})
				next = append(next, successor)
			}
		}
		frontier = next
	}
	return discovered, nil
}
